// Package dedupe finds and merges duplicate records: a pairwise similarity
// matrix, a greedy extract-max reduction, auto-merging above a tuned
// threshold, and a manual worklist for everything between the floor and the
// bar.
package dedupe

import (
	"context"
	"errors"
	"sort"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/litreview-cli/internal/identity"
	"github.com/sells-group/litreview-cli/internal/model"
)

// Outcome classifies how a candidate pair was handled.
type Outcome string

const (
	// OutcomeNotProcessed marks a pair awaiting manual review.
	OutcomeNotProcessed Outcome = "not_processed"
	// OutcomeMerged marks an applied auto-merge.
	OutcomeMerged Outcome = "merged"
	// OutcomeSkipped marks a pair the merge engine rejected as incompatible.
	OutcomeSkipped Outcome = "skipped"
	// OutcomePropagationProblem marks a pair whose both sides were already
	// folded into other records by earlier merges in the same batch.
	OutcomePropagationProblem Outcome = "propagation_problem"
)

// Pair is one candidate duplicate pair with its similarity and outcome.
type Pair struct {
	IDA        string  `json:"id_a"`
	IDB        string  `json:"id_b"`
	Similarity float64 `json:"similarity"`
	Outcome    Outcome `json:"outcome"`
}

// Config tunes the engine. The thresholds are empirically tuned constants,
// preserved as configuration rather than invariants.
type Config struct {
	// MinSimilarity is the floor below which pairs are not even worklisted.
	MinSimilarity float64
	// AutoMergeThreshold is the bar at or above which pairs merge unattended.
	AutoMergeThreshold float64
	// PreventSameSource excludes pairs sharing a search-result origin:
	// the same feed listing two entries usually means two distinct works.
	PreventSameSource bool
	// Concurrency bounds the parallel matrix row computations.
	Concurrency int
	// Weights overrides the journal-article weight vector when non-zero.
	Weights identity.Weights
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MinSimilarity:      0.7,
		AutoMergeThreshold: 0.95,
		PreventSameSource:  true,
		Concurrency:        4,
	}
}

// NonDuplicates is a decision log of origin pairs a reviewer marked distinct.
type NonDuplicates map[[2]string]bool

// Add records an origin pair in canonical order.
func (n NonDuplicates) Add(originA, originB string) {
	if originA > originB {
		originA, originB = originB, originA
	}
	n[[2]string{originA, originB}] = true
}

// Excluded reports whether any origin combination of the two records was
// marked as a known non-duplicate.
func (n NonDuplicates) Excluded(a, b *model.Record) bool {
	for _, oa := range a.Origins {
		for _, ob := range b.Origins {
			x, y := oa, ob
			if x > y {
				x, y = y, x
			}
			if n[[2]string{x, y}] {
				return true
			}
		}
	}
	return false
}

// Result aggregates one batch run.
type Result struct {
	BatchID string
	// Records is the surviving live set, losers removed.
	Records []*model.Record
	// Applied lists the pairs at or above the auto threshold with their
	// merge outcomes.
	Applied []Pair
	// Worklist lists sub-auto pairs for manual review, highest first.
	Worklist []Pair
}

// Engine runs duplicate detection batches.
type Engine struct {
	cfg Config
	log *zap.Logger
}

// New creates an engine; zero thresholds fall back to the tuned defaults.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MinSimilarity <= 0 {
		cfg.MinSimilarity = def.MinSimilarity
	}
	if cfg.AutoMergeThreshold <= 0 {
		cfg.AutoMergeThreshold = def.AutoMergeThreshold
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Weights == (identity.Weights{}) {
		cfg.Weights = identity.DefaultWeights
	}
	return &Engine{cfg: cfg, log: zap.L().Named("dedupe")}
}

// Run detects and merges duplicates among records. The input slice is not
// mutated; survivors in the result are deep copies.
func (e *Engine) Run(ctx context.Context, records []*model.Record, known NonDuplicates) (*Result, error) {
	batchID := uuid.New().String()
	e.log.Info("dedupe batch started",
		zap.String("batch_id", batchID),
		zap.Int("records", len(records)),
	)

	matrix, err := e.similarityMatrix(ctx, records, known)
	if err != nil {
		return nil, err
	}

	candidates := extractCandidates(matrix, records, e.cfg.MinSimilarity)

	live := make([]*model.Record, len(records))
	byID := make(map[string]*model.Record, len(records))
	for i, r := range records {
		live[i] = r.Copy()
		byID[r.ID] = live[i]
	}

	result := &Result{BatchID: batchID}
	mergedInto := map[string]string{}

	for _, pair := range candidates {
		if pair.Similarity < e.cfg.AutoMergeThreshold {
			result.Worklist = append(result.Worklist, pair)
			continue
		}
		pair.Outcome = e.applyMerge(pair, byID, mergedInto)
		result.Applied = append(result.Applied, pair)
	}

	for _, r := range live {
		if _, gone := mergedInto[r.ID]; !gone {
			result.Records = append(result.Records, r)
		}
	}

	e.log.Info("dedupe batch finished",
		zap.String("batch_id", batchID),
		zap.Int("merged", countOutcome(result.Applied, OutcomeMerged)),
		zap.Int("skipped", countOutcome(result.Applied, OutcomeSkipped)),
		zap.Int("worklist", len(result.Worklist)),
	)
	return result, nil
}

// applyMerge folds the pair into one record, following earlier merges in the
// batch before deciding which ID survives.
func (e *Engine) applyMerge(pair Pair, byID map[string]*model.Record, mergedInto map[string]string) Outcome {
	idA, movedA := resolve(pair.IDA, mergedInto)
	idB, movedB := resolve(pair.IDB, mergedInto)
	if movedA && movedB {
		// Both sides were already folded into other records this batch;
		// merging the survivors transitively needs a human look.
		return OutcomePropagationProblem
	}
	if idA == idB {
		// Earlier merges already unified the pair.
		return OutcomeMerged
	}

	survivorID, loserID := chooseSurvivor(idA, idB)
	survivor, loser := byID[survivorID], byID[loserID]

	source := "dedupe"
	if len(loser.Origins) > 0 {
		source = loser.Origins[0]
	}
	if err := survivor.Merge(loser, source); err != nil {
		var invalid *model.InvalidMergeError
		if errors.As(err, &invalid) {
			e.log.Warn("incompatible pair skipped",
				zap.String("id_a", pair.IDA),
				zap.String("id_b", pair.IDB),
				zap.String("reason", invalid.Reason),
			)
			return OutcomeSkipped
		}
		return OutcomeSkipped
	}

	mergedInto[loserID] = survivorID
	return OutcomeMerged
}

// resolve follows the merge chain to the surviving record ID.
func resolve(id string, mergedInto map[string]string) (string, bool) {
	moved := false
	for {
		next, ok := mergedInto[id]
		if !ok {
			return id, moved
		}
		id = next
		moved = true
	}
}

// chooseSurvivor picks the canonical ID of a merged pair: the side without a
// trailing disambiguation letter wins; otherwise the lexicographically
// smaller ID survives.
func chooseSurvivor(idA, idB string) (survivor, loser string) {
	sufA := hasDisambiguationSuffix(idA)
	sufB := hasDisambiguationSuffix(idB)
	switch {
	case sufA && !sufB:
		return idB, idA
	case sufB && !sufA:
		return idA, idB
	case idA < idB:
		return idA, idB
	default:
		return idB, idA
	}
}

// hasDisambiguationSuffix matches the NameYear[a-z] citation-key convention.
func hasDisambiguationSuffix(id string) bool {
	r := []rune(id)
	return len(r) > 0 && unicode.IsLower(r[len(r)-1])
}

// similarityMatrix computes the upper triangle row-parallel. Excluded pairs
// (shared origin under PreventSameSource, or logged non-duplicates) get -1 so
// the reduction never surfaces them.
func (e *Engine) similarityMatrix(ctx context.Context, records []*model.Record, known NonDuplicates) ([][]float64, error) {
	n := len(records)
	matrix := make([][]float64, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i := 0; i < n; i++ {
		row := make([]float64, n)
		matrix[i] = row
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < n; j++ {
				a, b := records[i], records[j]
				if e.cfg.PreventSameSource && a.SharesOrigins(b) {
					row[j] = -1
					continue
				}
				if known.Excluded(a, b) {
					row[j] = -1
					continue
				}
				res := identity.Compare(a, b, e.cfg.Weights)
				if res.MissingOutlet {
					e.log.Warn("pair lacks a shared container field",
						zap.String("id_a", a.ID),
						zap.String("id_b", b.ID),
					)
				}
				row[j] = res.Score
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matrix, nil
}

// extractCandidates repeatedly pulls the highest-similarity pair out of the
// matrix until it drops below the floor, zeroing each extracted cell.
func extractCandidates(matrix [][]float64, records []*model.Record, minSimilarity float64) []Pair {
	var out []Pair
	n := len(matrix)
	for {
		best, bi, bj := -1.0, -1, -1
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if matrix[i][j] > best {
					best, bi, bj = matrix[i][j], i, j
				}
			}
		}
		if best < minSimilarity {
			return out
		}
		matrix[bi][bj] = -1
		out = append(out, Pair{
			IDA:        records[bi].ID,
			IDB:        records[bj].ID,
			Similarity: best,
			Outcome:    OutcomeNotProcessed,
		})
	}
}

func countOutcome(pairs []Pair, o Outcome) int {
	n := 0
	for _, p := range pairs {
		if p.Outcome == o {
			n++
		}
	}
	return n
}

// SortWorklist orders pairs for reviewers: highest similarity first, then by
// IDs for determinism.
func SortWorklist(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		if pairs[i].IDA != pairs[j].IDA {
			return pairs[i].IDA < pairs[j].IDA
		}
		return pairs[i].IDB < pairs[j].IDB
	})
}
