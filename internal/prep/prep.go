// Package prep runs batch metadata preparation: each imported record is
// enriched through external lookup providers, quality-checked, and advanced
// to md_prepared or md_needs_manual_preparation. Workers operate on deep
// copies so a batch is a safe parallel map over the input set.
package prep

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/litreview-cli/internal/identity"
	"github.com/sells-group/litreview-cli/internal/model"
	"github.com/sells-group/litreview-cli/internal/process"
	"github.com/sells-group/litreview-cli/internal/quality"
	"github.com/sells-group/litreview-cli/internal/resilience"
)

// ErrNotFound is returned by an Enricher that has no match for the record.
var ErrNotFound = errors.New("record not found")

// Enricher looks up additional metadata for a record. Implementations return
// a record carrying only the fields they can vouch for, with provenance, or
// ErrNotFound. A downed provider surfaces as ServiceUnavailableError.
type Enricher interface {
	Name() string
	Lookup(ctx context.Context, r *model.Record) (*model.Record, error)
}

// Config tunes a preparation batch.
type Config struct {
	// Concurrency bounds parallel record workers.
	Concurrency int
	// Timeout bounds each enrichment lookup per record.
	Timeout time.Duration
	// Retry controls transient-failure retries per lookup.
	Retry resilience.RetryConfig
	// Force degrades a downed provider to a warning instead of failing the
	// batch; the affected records keep their unresolved fields.
	Force bool
}

// DefaultConfig returns the batch defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Timeout:     10 * time.Second,
		Retry:       resilience.DefaultRetryConfig(),
	}
}

// OutcomeKind classifies how a record fared in the batch.
type OutcomeKind string

const (
	// OutcomePrepared advanced the record to md_prepared.
	OutcomePrepared OutcomeKind = "prepared"
	// OutcomeNeedsManual advanced the record with remaining defects.
	OutcomeNeedsManual OutcomeKind = "needs_manual_preparation"
	// OutcomeSkipped left the record untouched (wrong state for prep).
	OutcomeSkipped OutcomeKind = "skipped"
)

// Outcome is the per-record result of a batch.
type Outcome struct {
	ID      string
	Kind    OutcomeKind
	Status  model.Status
	Warning string
}

// Result aggregates one batch. Records and Outcomes are ID-sorted after
// collection; workers report in completion order.
type Result struct {
	Records  []*model.Record
	Outcomes []Outcome
}

// Counts tallies outcomes by kind. Derived from the outcome list so workers
// never share counters.
func (r *Result) Counts() map[OutcomeKind]int {
	counts := make(map[OutcomeKind]int)
	for _, o := range r.Outcomes {
		counts[o.Kind]++
	}
	return counts
}

// Runner executes preparation batches.
type Runner struct {
	cfg       Config
	enrichers []Enricher
	quality   *quality.Model
	log       *zap.Logger
}

// NewRunner builds a runner; zero config values fall back to defaults.
func NewRunner(cfg Config, enrichers []Enricher, qm *quality.Model) *Runner {
	def := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Runner{
		cfg:       cfg,
		enrichers: enrichers,
		quality:   qm,
		log:       zap.L().Named("prep"),
	}
}

// Run prepares all md_imported records in the batch. Inputs are never
// mutated; the result holds independent copies. Cancelling ctx stops new
// work; records already dispatched finish and land in the result.
func (p *Runner) Run(ctx context.Context, records []*model.Record) (*Result, error) {
	p.log.Info("prep batch started",
		zap.Int("records", len(records)),
		zap.Int("concurrency", p.cfg.Concurrency),
		zap.Bool("force", p.cfg.Force),
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	var mu sync.Mutex
	result := &Result{}
	collect := func(r *model.Record, o Outcome) {
		mu.Lock()
		result.Records = append(result.Records, r)
		result.Outcomes = append(result.Outcomes, o)
		mu.Unlock()
	}

	for _, rec := range records {
		if rec.Status != model.StatusImported {
			collect(rec.Copy(), Outcome{ID: rec.ID, Kind: OutcomeSkipped, Status: rec.Status})
			continue
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				// Quit early: undispatched records stay skipped.
				collect(rec.Copy(), Outcome{ID: rec.ID, Kind: OutcomeSkipped, Status: rec.Status})
				return nil
			}
			prepared, outcome, err := p.prepareOne(gCtx, rec)
			if err != nil {
				return err
			}
			collect(prepared, outcome)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Records, func(i, j int) bool { return result.Records[i].ID < result.Records[j].ID })
	sort.Slice(result.Outcomes, func(i, j int) bool { return result.Outcomes[i].ID < result.Outcomes[j].ID })

	counts := result.Counts()
	p.log.Info("prep batch finished",
		zap.Int("prepared", counts[OutcomePrepared]),
		zap.Int("needs_manual", counts[OutcomeNeedsManual]),
		zap.Int("skipped", counts[OutcomeSkipped]),
	)
	return result, nil
}

// prepareOne enriches, quality-checks, and advances one record on a working
// copy. The copy is only handed back once all mutations succeeded.
func (p *Runner) prepareOne(ctx context.Context, rec *model.Record) (*model.Record, Outcome, error) {
	work := rec.Copy()
	outcome := Outcome{ID: rec.ID}

	for _, enricher := range p.enrichers {
		enriched, err := p.lookup(ctx, enricher, work)
		switch {
		case err == nil:
			if mergeErr := work.Merge(enriched, enricher.Name()); mergeErr != nil {
				p.log.Warn("enrichment result rejected",
					zap.String("id", rec.ID),
					zap.String("enricher", enricher.Name()),
					zap.Error(mergeErr),
				)
			}
		case errors.Is(err, ErrNotFound):
			continue
		case resilience.IsServiceUnavailable(err):
			if !p.cfg.Force {
				return nil, outcome, err
			}
			p.log.Warn("enrichment service down, leaving fields unresolved",
				zap.String("id", rec.ID),
				zap.String("enricher", enricher.Name()),
				zap.Error(err),
			)
			outcome.Warning = err.Error()
		default:
			// Timeouts and other lookup failures degrade to unresolved
			// fields rather than blocking the batch.
			p.log.Warn("enrichment lookup failed",
				zap.String("id", rec.ID),
				zap.String("enricher", enricher.Name()),
				zap.Error(err),
			)
			outcome.Warning = err.Error()
		}
	}

	if p.quality != nil {
		if err := p.quality.Run(ctx, work); err != nil {
			return nil, outcome, err
		}
	}

	// Cache the identity key. Records still missing identifying fields stay
	// without one until manual preparation fills the gaps.
	if fp, fpErr := identity.Fingerprint(work); fpErr == nil {
		work.AddFingerprint(fp)
	}

	dest := model.StatusPrepared
	outcome.Kind = OutcomePrepared
	if len(work.MasterdataDefects()) > 0 {
		dest = model.StatusNeedsManualPrep
		outcome.Kind = OutcomeNeedsManual
	}
	if err := process.Apply(work, process.OpPrep, dest); err != nil {
		return nil, outcome, err
	}
	outcome.Status = work.Status
	return work, outcome, nil
}

// lookup runs one enrichment with a per-attempt timeout and bounded retries.
// A timed-out attempt and a downed service both get the full retry bound;
// only the batch context stopping ends the lookup early.
func (p *Runner) lookup(ctx context.Context, e Enricher, r *model.Record) (*model.Record, error) {
	cfg := p.cfg.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(e.Name(), "lookup")
	}
	cfg.ShouldRetry = func(err error) bool {
		if errors.Is(err, ErrNotFound) {
			return false
		}
		if ctx.Err() != nil {
			return false
		}
		if errors.Is(err, context.DeadlineExceeded) || resilience.IsServiceUnavailable(err) {
			return true
		}
		return resilience.IsTransient(err)
	}
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*model.Record, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
		return e.Lookup(attemptCtx, r)
	})
}
