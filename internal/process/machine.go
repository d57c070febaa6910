// Package process defines the record lifecycle: which pipeline operation may
// move a record from which state to which, and the precondition checks that
// keep batch operations ordered.
package process

import (
	"fmt"
	"sort"

	"github.com/sells-group/litreview-cli/internal/model"
)

// Operation is a pipeline stage that advances record states.
type Operation string

const (
	OpLoad       Operation = "load"
	OpPrep       Operation = "prep"
	OpPrepMan    Operation = "prep_man"
	OpDedupe     Operation = "dedupe"
	OpPrescreen  Operation = "prescreen"
	OpPDFGet     Operation = "pdf_get"
	OpPDFGetMan  Operation = "pdf_get_man"
	OpPDFPrep    Operation = "pdf_prep"
	OpPDFPrepMan Operation = "pdf_prep_man"
	OpScreen     Operation = "screen"
	OpData       Operation = "data"

	// Non-processing operations may run in any state and change nothing.
	OpFormat  Operation = "format"
	OpExplore Operation = "explore"
	OpCheck   Operation = "check"
)

// Transition is one legal (trigger, source, destination) edge.
type Transition struct {
	Trigger Operation
	Source  model.Status
	Dest    model.Status
}

// Table lists every processing transition. Operations with multiple edges
// from the same source pick the destination by outcome (e.g. prep ends in
// md_prepared or md_needs_manual_preparation).
var Table = []Transition{
	{OpLoad, model.StatusRetrieved, model.StatusImported},
	{OpPrep, model.StatusImported, model.StatusNeedsManualPrep},
	{OpPrep, model.StatusImported, model.StatusPrepared},
	{OpPrepMan, model.StatusNeedsManualPrep, model.StatusPrepared},
	{OpDedupe, model.StatusPrepared, model.StatusProcessed},
	{OpPrescreen, model.StatusProcessed, model.StatusPrescreenExcl},
	{OpPrescreen, model.StatusProcessed, model.StatusPrescreenIncl},
	{OpPDFGet, model.StatusPrescreenIncl, model.StatusPDFImported},
	{OpPDFGet, model.StatusPrescreenIncl, model.StatusPDFNeedsManualRetr},
	{OpPDFGetMan, model.StatusPDFNeedsManualRetr, model.StatusPDFNotAvailable},
	{OpPDFGetMan, model.StatusPDFNeedsManualRetr, model.StatusPDFImported},
	{OpPDFPrep, model.StatusPDFImported, model.StatusPDFNeedsManualPrep},
	{OpPDFPrep, model.StatusPDFImported, model.StatusPDFPrepared},
	{OpPDFPrepMan, model.StatusPDFNeedsManualPrep, model.StatusPDFPrepared},
	{OpScreen, model.StatusPDFPrepared, model.StatusExcluded},
	{OpScreen, model.StatusPDFPrepared, model.StatusIncluded},
	{OpData, model.StatusIncluded, model.StatusSynthesized},
}

func init() {
	if err := validateTable(); err != nil {
		panic(err)
	}
}

// validateTable rejects duplicate edges and unknown states.
func validateTable() error {
	seen := map[Transition]bool{}
	for _, tr := range Table {
		if !tr.Source.Valid() || !tr.Dest.Valid() {
			return fmt.Errorf("process: transition %v references unknown state", tr)
		}
		if seen[tr] {
			return fmt.Errorf("process: duplicate transition %v", tr)
		}
		seen[tr] = true
	}
	return nil
}

func nonProcessing(op Operation) bool {
	return op == OpFormat || op == OpExplore || op == OpCheck
}

// ValidTransitions returns the operations that may advance a record in the
// given state, sorted. Non-processing self-loops are not included.
func ValidTransitions(s model.Status) []Operation {
	seen := map[Operation]bool{}
	for _, tr := range Table {
		if tr.Source == s {
			seen[tr.Trigger] = true
		}
	}
	ops := make([]Operation, 0, len(seen))
	for op := range seen {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Destinations returns the states op may move a record in state s to.
func Destinations(op Operation, s model.Status) []model.Status {
	if nonProcessing(op) {
		return []model.Status{s}
	}
	var out []model.Status
	for _, tr := range Table {
		if tr.Trigger == op && tr.Source == s {
			out = append(out, tr.Dest)
		}
	}
	return out
}

// SourceState returns the state an operation starts from.
func SourceState(op Operation) (model.Status, bool) {
	for _, tr := range Table {
		if tr.Trigger == op {
			return tr.Source, true
		}
	}
	return "", false
}

// PrecedingStates returns the transitive closure of states that feed into s.
// md_retrieved is excluded: raw search results are the baseline feed and may
// legitimately exist at any point in a review.
func PrecedingStates(s model.Status) map[model.Status]bool {
	preceding := map[model.Status]bool{}
	for added := true; added; {
		added = false
		for _, tr := range Table {
			if tr.Source == model.StatusRetrieved {
				continue
			}
			if (tr.Dest == s || preceding[tr.Dest]) && !preceding[tr.Source] {
				preceding[tr.Source] = true
				added = true
			}
		}
	}
	return preceding
}

// Apply advances a record along a legal edge for op. dest selects among
// multiple outcome edges; it is ignored for non-processing operations.
func Apply(r *model.Record, op Operation, dest model.Status) error {
	if nonProcessing(op) {
		return nil
	}
	for _, tr := range Table {
		if tr.Trigger == op && tr.Source == r.Status && tr.Dest == dest {
			r.Status = dest
			return nil
		}
	}
	return &StatusTransitionError{ID: r.ID, From: r.Status, To: dest, Trigger: op}
}
