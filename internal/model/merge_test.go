package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeCandidate() *Record {
	r := NewRecord("SrivastavaShainesh2015a", EntryTypeArticle)
	r.Status = StatusPrepared
	r.Origins = []string{"import.bib/id_0002"}
	r.Fields = map[string]string{
		FieldAuthor:  "Rai, A",
		FieldTitle:   "Editorial",
		FieldJournal: "MIS Quarterly",
		FieldYear:    "2020",
		FieldVolume:  "45",
		FieldNumber:  "1",
		FieldPages:   "1--3",
	}
	for key := range r.Fields {
		r.MDProv[key] = Provenance{Source: "import.bib/id_0002"}
	}
	return r
}

func TestMerge_SelectsNonAllCapsAndCompleteValues(t *testing.T) {
	a := testRecord() // author "Rai, Arun", title "EDITORIAL"
	b := mergeCandidate()

	require.NoError(t, a.Merge(b, "merge"))

	assert.Equal(t, "Editorial", a.GetValue(FieldTitle))
	assert.Equal(t, "Rai, Arun", a.GetValue(FieldAuthor))
	assert.Equal(t, []string{"import.bib/id_0001", "import.bib/id_0002"}, a.Origins)
}

func TestMerge_FillsMissingAndUnknownFields(t *testing.T) {
	a := testRecord()
	a.RemoveField(FieldPages, false, "")
	a.Fields[FieldVolume] = ValueUnknown
	b := mergeCandidate()
	b.Fields[FieldURL] = "https://www.misq.org"
	b.DProv[FieldURL] = Provenance{Source: "crossref"}

	require.NoError(t, a.Merge(b, "merge"))

	assert.Equal(t, "1--3", a.GetValue(FieldPages))
	assert.Equal(t, "45", a.GetValue(FieldVolume))
	assert.Equal(t, "https://www.misq.org", a.GetValue(FieldURL))
	assert.Equal(t, "crossref", a.DProv[FieldURL].Source)
}

func TestMerge_UnionsFingerprints(t *testing.T) {
	a := testRecord()
	a.AddFingerprint("colrev_id1:|a|mis-quarterly|45|1|2020|rai|editorial")
	b := mergeCandidate()
	b.AddFingerprint("colrev_id1:|a|misq|45|1|2020|rai|editorial")

	require.NoError(t, a.Merge(b, "merge"))

	assert.Len(t, a.Fingerprints(), 2)
}

func TestMerge_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		titleA string
		titleB string
	}{
		{"mismatched parts", "Editorial - Part 1", "Editorial - Part 2"},
		{"one-sided erratum", "Erratum - Editorial", "EDITORIAL"},
		{"one-sided commentary", "Editorial - a commentary on the best papers", "EDITORIAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testRecord()
			a.Fields[FieldTitle] = tt.titleA
			b := mergeCandidate()
			b.Fields[FieldTitle] = tt.titleB

			err := a.Merge(b, "merge")

			var invalid *InvalidMergeError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, a.ID, invalid.IDA)
			assert.Equal(t, b.ID, invalid.IDB)
		})
	}
}

func TestMerge_BothSidesMarkedErratumIsValid(t *testing.T) {
	a := testRecord()
	a.Fields[FieldTitle] = "Erratum: Editorial"
	b := mergeCandidate()
	b.Fields[FieldTitle] = "ERRATUM: EDITORIAL"

	require.NoError(t, a.Merge(b, "merge"))
	assert.Equal(t, "Erratum: Editorial", a.GetValue(FieldTitle))
}
