package process

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/litreview-cli/internal/model"
)

// StatusTransitionError reports an attempt to move a record along an edge the
// transition table does not contain. Not retryable: it indicates a pipeline
// ordering bug, not a transient fault.
type StatusTransitionError struct {
	ID      string
	From    model.Status
	To      model.Status
	Trigger Operation
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("record %s: no %s transition from %s to %s", e.ID, e.Trigger, e.From, e.To)
}

// ProcessOrderViolation reports that a batch operation was invoked while
// records still sit in states that must be worked off first.
type ProcessOrderViolation struct {
	Operation Operation
	Required  model.Status
	Offending []model.Status
}

func (e *ProcessOrderViolation) Error() string {
	states := make([]string, len(e.Offending))
	for i, s := range e.Offending {
		states[i] = string(s)
	}
	return fmt.Sprintf("operation %s requires all records beyond %s; found %s",
		e.Operation, e.Required, strings.Join(states, ", "))
}

// ErrNoRecords is returned when a non-load operation runs on an empty dataset.
var ErrNoRecords = fmt.Errorf("no records imported yet")

// CheckPrecondition verifies that op may run over a dataset with the given
// state counts: none of the states preceding op's source state may be present.
func CheckPrecondition(op Operation, stateCounts map[model.Status]int) error {
	if nonProcessing(op) {
		return nil
	}
	total := 0
	for _, n := range stateCounts {
		total += n
	}
	if total == 0 {
		if op == OpLoad {
			return nil
		}
		return ErrNoRecords
	}

	source, ok := SourceState(op)
	if !ok {
		return fmt.Errorf("unknown operation %q", op)
	}

	var offending []model.Status
	for s := range PrecedingStates(source) {
		if stateCounts[s] > 0 {
			offending = append(offending, s)
		}
	}
	if len(offending) == 0 {
		return nil
	}
	sort.Slice(offending, func(i, j int) bool { return offending[i] < offending[j] })
	return &ProcessOrderViolation{Operation: op, Required: source, Offending: offending}
}
