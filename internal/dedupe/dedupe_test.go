package dedupe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/litreview-cli/internal/model"
)

func article(id, origin string) *model.Record {
	r := model.NewRecord(id, model.EntryTypeArticle)
	r.Status = model.StatusPrepared
	r.Origins = []string{origin}
	r.Fields = map[string]string{
		model.FieldAuthor:  "Rai, Arun",
		model.FieldTitle:   "Power and Information Technology Research",
		model.FieldJournal: "MIS Quarterly",
		model.FieldYear:    "2020",
		model.FieldVolume:  "45",
		model.FieldNumber:  "1",
		model.FieldPages:   "1--3",
	}
	for key := range r.Fields {
		r.MDProv[key] = model.Provenance{Source: origin}
	}
	return r
}

func TestRun_AutoMergeAndWorklist(t *testing.T) {
	a := article("Rai2020", "import.bib/id_0001")
	b := article("Rai2020a", "import.bib/id_0002")
	b.Fields[model.FieldAuthor] = "Rai, A"

	c := article("Rai2021", "import.bib/id_0003")
	c.Fields[model.FieldYear] = "2021"
	c.Fields[model.FieldVolume] = "46"
	c.Fields[model.FieldNumber] = "2"
	c.Fields[model.FieldPages] = "100--103"

	e := New(DefaultConfig())
	res, err := e.Run(context.Background(), []*model.Record{a, b, c}, NonDuplicates{})
	require.NoError(t, err)

	// A and B auto-merge; the unsuffixed ID survives with unioned origins.
	require.Len(t, res.Applied, 1)
	assert.Equal(t, OutcomeMerged, res.Applied[0].Outcome)
	require.Len(t, res.Records, 2)

	var survivor *model.Record
	for _, r := range res.Records {
		if r.ID == "Rai2020" {
			survivor = r
		}
	}
	require.NotNil(t, survivor)
	assert.Equal(t, []string{"import.bib/id_0001", "import.bib/id_0002"}, survivor.Origins)

	// The merged record against C stays manual.
	require.NotEmpty(t, res.Worklist)
	for _, p := range res.Worklist {
		assert.Equal(t, OutcomeNotProcessed, p.Outcome)
		assert.GreaterOrEqual(t, p.Similarity, 0.7)
		assert.Less(t, p.Similarity, 0.95)
	}

	// Inputs are never mutated.
	assert.Equal(t, []string{"import.bib/id_0001"}, a.Origins)
}

func TestRun_SameSourcePairsExcluded(t *testing.T) {
	a := article("Rai2020", "import.bib/id_0001")
	b := article("Rai2020a", "import.bib/id_0001")

	e := New(DefaultConfig())
	res, err := e.Run(context.Background(), []*model.Record{a, b}, NonDuplicates{})
	require.NoError(t, err)

	assert.Empty(t, res.Applied)
	assert.Empty(t, res.Worklist)
	assert.Len(t, res.Records, 2)
}

func TestRun_DecisionLogExcludes(t *testing.T) {
	a := article("Rai2020", "import.bib/id_0001")
	b := article("Rai2020a", "import.bib/id_0002")

	known := NonDuplicates{}
	known.Add("import.bib/id_0002", "import.bib/id_0001")

	e := New(DefaultConfig())
	res, err := e.Run(context.Background(), []*model.Record{a, b}, known)
	require.NoError(t, err)

	assert.Empty(t, res.Applied)
	assert.Empty(t, res.Worklist)
}

func TestRun_IncompatibleTitlesSkipped(t *testing.T) {
	a := article("Rai2020", "import.bib/id_0001")
	a.Fields[model.FieldTitle] = "Editorial Thoughts - Part 1"
	b := article("Rai2020a", "import.bib/id_0002")
	b.Fields[model.FieldTitle] = "Editorial Thoughts - Part 2"

	e := New(DefaultConfig())
	res, err := e.Run(context.Background(), []*model.Record{a, b}, NonDuplicates{})
	require.NoError(t, err)

	require.Len(t, res.Applied, 1)
	assert.Equal(t, OutcomeSkipped, res.Applied[0].Outcome)
	assert.Len(t, res.Records, 2, "skipped pairs leave both records live")
}

func TestRun_PropagationProblem(t *testing.T) {
	a := article("Rai2020", "import.bib/id_0001")
	b := article("Rai2020a", "import.bib/id_0002")
	c := article("Rai2020b", "import.bib/id_0003")

	e := New(DefaultConfig())
	res, err := e.Run(context.Background(), []*model.Record{a, b, c}, NonDuplicates{})
	require.NoError(t, err)

	outcomes := map[Outcome]int{}
	for _, p := range res.Applied {
		outcomes[p.Outcome]++
	}
	assert.Equal(t, 2, outcomes[OutcomeMerged])
	assert.Equal(t, 1, outcomes[OutcomePropagationProblem])
	assert.Len(t, res.Records, 1)
}

func TestChooseSurvivor(t *testing.T) {
	tests := []struct {
		idA, idB string
		survivor string
	}{
		{"Rai2020", "Rai2020a", "Rai2020"},
		{"Rai2020a", "Rai2020", "Rai2020"},
		{"Rai2020a", "Rai2020b", "Rai2020a"},
		{"Fichman2004", "Rai2020", "Fichman2004"},
	}
	for _, tt := range tests {
		s, l := chooseSurvivor(tt.idA, tt.idB)
		assert.Equal(t, tt.survivor, s)
		assert.NotEqual(t, s, l)
	}
}

func TestSortWorklist(t *testing.T) {
	pairs := []Pair{
		{IDA: "b", IDB: "c", Similarity: 0.8},
		{IDA: "a", IDB: "b", Similarity: 0.9},
		{IDA: "a", IDB: "c", Similarity: 0.8},
	}
	SortWorklist(pairs)
	assert.Equal(t, []Pair{
		{IDA: "a", IDB: "b", Similarity: 0.9},
		{IDA: "a", IDB: "c", Similarity: 0.8},
		{IDA: "b", IDB: "c", Similarity: 0.8},
	}, pairs)
}
