// Package quality annotates records with defect codes. Checkers are
// idempotent and touch provenance notes only; they never change content
// fields or status. Registration order is fixed because later checkers may
// rely on notes set by earlier ones.
package quality

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/litreview-cli/internal/model"
)

// Checker inspects one aspect of a record and reconciles its defect notes.
type Checker interface {
	Name() string
	Run(ctx context.Context, r *model.Record) error
}

// Model runs the ordered checker registry over records.
type Model struct {
	checkers []Checker
}

// NewModel builds the default registry. toc may be nil when no local index
// is available; the TOC checker is skipped entirely in that case.
func NewModel(allow *Allowlists, toc TOCLookup) *Model {
	if allow == nil {
		allow = DefaultAllowlists()
	}
	m := &Model{checkers: []Checker{
		&MissingFieldChecker{},
		&AllCapsChecker{Allow: allow},
		&InconsistentFieldChecker{},
		&YearFormatChecker{},
	}}
	if toc != nil {
		m.checkers = append(m.checkers, &TOCChecker{Index: toc})
	}
	return m
}

// Run applies every checker to the record. Curated records are trusted and
// skipped wholesale.
func (m *Model) Run(ctx context.Context, r *model.Record) error {
	if r.IsCurated() {
		return nil
	}
	for _, c := range m.checkers {
		if err := c.Run(ctx, r); err != nil {
			return err
		}
	}
	zap.L().Debug("quality model applied",
		zap.String("record", r.ID),
		zap.Strings("defects", r.MasterdataDefects()),
	)
	return nil
}
