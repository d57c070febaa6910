package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/litreview-cli/internal/model"
)

func baseRecord() *model.Record {
	r := model.NewRecord("Rai2020", model.EntryTypeArticle)
	r.Fields = map[string]string{
		model.FieldAuthor:  "Rai, Arun",
		model.FieldTitle:   "EDITORIAL",
		model.FieldJournal: "MIS Quarterly",
		model.FieldYear:    "2020",
		model.FieldVolume:  "45",
		model.FieldNumber:  "1",
	}
	return r
}

func TestFingerprint_EntryTypes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.Record)
		want   string
	}{
		{
			"article",
			func(r *model.Record) {},
			"colrev_id1:|a|mis-quarterly|45|1|2020|rai|editorial",
		},
		{
			"article without number",
			func(r *model.Record) { delete(r.Fields, model.FieldNumber) },
			"colrev_id1:|a|mis-quarterly|45|2020|rai|editorial",
		},
		{
			"inproceedings",
			func(r *model.Record) {
				r.EntryType = model.EntryTypeInProceedings
				r.Fields[model.FieldBooktitle] = "International Conference on Information Systems"
			},
			"colrev_id1:|p|international-conference-on-information-systems|2020|rai|editorial",
		},
		{
			"phdthesis",
			func(r *model.Record) {
				r.EntryType = model.EntryTypePhdThesis
				r.Fields[model.FieldSchool] = "University of Minnesota"
			},
			"colrev_id1:|phdthesis|university-of-minnesota|2020|rai|editorial",
		},
		{
			"techreport",
			func(r *model.Record) {
				r.EntryType = model.EntryTypeTechReport
				r.Fields[model.FieldInstitution] = "University of Minnesota"
			},
			"colrev_id1:|techreport|university-of-minnesota|2020|rai|editorial",
		},
		{
			"online",
			func(r *model.Record) {
				r.EntryType = model.EntryTypeOnline
				r.Fields[model.FieldURL] = "www.loc.de/subpage.html"
			},
			"colrev_id1:|online|wwwlocde-subpagehtml|2020|rai|editorial",
		},
		{
			"monograph",
			func(r *model.Record) {
				r.EntryType = model.EntryTypeMonograph
				r.Fields[model.FieldSeries] = "Lecture notes in cs"
			},
			"colrev_id1:|monogr|lecture-notes-in-cs|2020|rai|editorial",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseRecord()
			tt.mutate(r)
			got, err := Fingerprint(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFingerprint_MultipleAuthorsAndDashes(t *testing.T) {
	r := baseRecord()
	r.Fields[model.FieldAuthor] = "Standing, Craig and Standing, Susan and Love, Peter"
	r.Fields[model.FieldTitle] = "A Review of Research on E-Marketplaces 1997–2008"
	r.Fields[model.FieldJournal] = "Decision Support Systems"
	r.Fields[model.FieldYear] = "2010"
	r.Fields[model.FieldVolume] = "49"
	r.Fields[model.FieldNumber] = "1"

	got, err := Fingerprint(r)
	require.NoError(t, err)
	assert.Equal(t,
		"colrev_id1:|a|decision-support-systems|49|1|2010|standing-standing-love|a-review-of-research-on-e-marketplaces-1997-2008",
		got)
}

func TestFingerprint_Deterministic(t *testing.T) {
	r := baseRecord()
	a, err := Fingerprint(r)
	require.NoError(t, err)
	b, err := Fingerprint(r.Copy())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFingerprint_NotIdentifiable(t *testing.T) {
	t.Run("missing year", func(t *testing.T) {
		r := baseRecord()
		delete(r.Fields, model.FieldYear)
		_, err := Fingerprint(r)
		var notID *model.NotIdentifiableError
		require.ErrorAs(t, err, &notID)
		assert.Contains(t, notID.Missing, model.FieldYear)
	})

	t.Run("unknown container value", func(t *testing.T) {
		r := baseRecord()
		r.Fields[model.FieldJournal] = model.ValueUnknown
		_, err := Fingerprint(r)
		var notID *model.NotIdentifiableError
		require.ErrorAs(t, err, &notID)
	})

	t.Run("no container rule", func(t *testing.T) {
		r := baseRecord()
		r.EntryType = model.EntryTypeMisc
		_, err := Fingerprint(r)
		var notID *model.NotIdentifiableError
		require.ErrorAs(t, err, &notID)
	})
}

func TestTOCKey(t *testing.T) {
	r := baseRecord()
	key, err := TOCKey(r)
	require.NoError(t, err)
	assert.Equal(t, "mis-quarterly|45|1", key)

	r.Fields[model.FieldNumber] = model.ValueUnknown
	key, err = TOCKey(r)
	require.NoError(t, err)
	assert.Equal(t, "mis-quarterly|45|", key)

	p := baseRecord()
	p.EntryType = model.EntryTypeInProceedings
	p.Fields[model.FieldBooktitle] = "International Conference on Information Systems"
	key, err = TOCKey(p)
	require.NoError(t, err)
	assert.Equal(t, "international-conference-on-information-systems|2020", key)

	b := baseRecord()
	b.EntryType = model.EntryTypeBook
	_, err = TOCKey(b)
	var notID *model.NotIdentifiableError
	require.ErrorAs(t, err, &notID)
}
