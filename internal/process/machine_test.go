package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/litreview-cli/internal/model"
)

func TestValidateTable(t *testing.T) {
	require.NoError(t, validateTable())
}

func TestValidTransitions(t *testing.T) {
	assert.Equal(t, []Operation{OpLoad}, ValidTransitions(model.StatusRetrieved))
	assert.Equal(t, []Operation{OpPrep}, ValidTransitions(model.StatusImported))
	assert.Equal(t, []Operation{OpScreen}, ValidTransitions(model.StatusPDFPrepared))
	assert.Empty(t, ValidTransitions(model.StatusSynthesized))
	assert.Empty(t, ValidTransitions(model.StatusPrescreenExcl))
}

func TestDestinations(t *testing.T) {
	assert.ElementsMatch(t,
		[]model.Status{model.StatusPrepared, model.StatusNeedsManualPrep},
		Destinations(OpPrep, model.StatusImported))
	assert.Empty(t, Destinations(OpPrep, model.StatusPrepared))
	// Non-processing operations self-loop everywhere.
	assert.Equal(t, []model.Status{model.StatusSynthesized}, Destinations(OpCheck, model.StatusSynthesized))
}

func TestPrecedingStates_Closure(t *testing.T) {
	preceding := PrecedingStates(model.StatusSynthesized)

	// Every non-terminal state past the raw-feed baseline feeds synthesis.
	for _, s := range model.AllStatuses {
		if s == model.StatusRetrieved || s == model.StatusSynthesized || s.Terminal() {
			continue
		}
		assert.True(t, preceding[s], string(s))
	}
	assert.False(t, preceding[model.StatusRetrieved])
	assert.False(t, preceding[model.StatusPrescreenExcl])
}

func TestPrecedingStates_ImportedIsEmpty(t *testing.T) {
	assert.Empty(t, PrecedingStates(model.StatusImported))
}

func TestApply(t *testing.T) {
	r := model.NewRecord("r1", model.EntryTypeArticle)
	r.Status = model.StatusImported

	require.NoError(t, Apply(r, OpPrep, model.StatusPrepared))
	assert.Equal(t, model.StatusPrepared, r.Status)

	err := Apply(r, OpScreen, model.StatusIncluded)
	var trErr *StatusTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, model.StatusPrepared, r.Status, "failed transition leaves state untouched")

	// Non-processing operations are always legal and change nothing.
	require.NoError(t, Apply(r, OpFormat, ""))
	assert.Equal(t, model.StatusPrepared, r.Status)
}

func TestCheckPrecondition(t *testing.T) {
	t.Run("clean dataset passes", func(t *testing.T) {
		counts := map[model.Status]int{model.StatusPrepared: 10, model.StatusRetrieved: 3}
		require.NoError(t, CheckPrecondition(OpDedupe, counts))
	})

	t.Run("pending earlier states block", func(t *testing.T) {
		counts := map[model.Status]int{
			model.StatusPrepared:        10,
			model.StatusImported:        2,
			model.StatusNeedsManualPrep: 1,
		}
		err := CheckPrecondition(OpDedupe, counts)
		var violation *ProcessOrderViolation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, []model.Status{model.StatusImported, model.StatusNeedsManualPrep}, violation.Offending)
	})

	t.Run("empty dataset", func(t *testing.T) {
		require.NoError(t, CheckPrecondition(OpLoad, nil))
		assert.ErrorIs(t, CheckPrecondition(OpPrep, nil), ErrNoRecords)
	})

	t.Run("raw feed never blocks", func(t *testing.T) {
		counts := map[model.Status]int{model.StatusIncluded: 4, model.StatusRetrieved: 50}
		require.NoError(t, CheckPrecondition(OpData, counts))
	})
}
