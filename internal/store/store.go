// Package store persists the review dataset: record snapshots, the dedupe
// decision log and worklists, and the local table-of-contents index. Two
// backends share one interface: SQLite for single-user datasets, Postgres for
// shared ones.
package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/litreview-cli/internal/dedupe"
	"github.com/sells-group/litreview-cli/internal/model"
	"github.com/sells-group/litreview-cli/internal/quality"
)

// Store is the persistence interface for the review dataset. Contains makes
// every store a quality.TOCLookup.
type Store interface {
	// Records. SaveAll replaces the full snapshot; the load/save round trip
	// is lossless for fields, origins, status, and provenance.
	LoadAll(ctx context.Context) ([]*model.Record, error)
	SaveAll(ctx context.Context, records []*model.Record) error
	CountByStatus(ctx context.Context) (map[model.Status]int, error)

	// Dedupe decision log of reviewer-confirmed non-duplicate origin pairs.
	AddNonDuplicate(ctx context.Context, originA, originB string) error
	NonDuplicates(ctx context.Context) (dedupe.NonDuplicates, error)

	// Dedupe worklists, keyed by batch.
	SaveWorklist(ctx context.Context, batchID string, pairs []dedupe.Pair) error
	Worklist(ctx context.Context, batchID string) ([]dedupe.Pair, error)
	LatestBatch(ctx context.Context) (string, error)

	// Local TOC index.
	AddTOCKeys(ctx context.Context, keys []string) error
	Contains(ctx context.Context, tocKey string) (quality.TOCStatus, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// recordColumns is the column order shared by both backends and the bulk
// writers.
var recordColumns = []string{"id", "entry_type", "status", "origins", "fields", "md_prov", "d_prov"}

// encodeRecord flattens a record into its row representation. Provenance
// uses the stable textual wire grammar; fields are a JSON object.
func encodeRecord(r *model.Record) (fields, mdProv, dProv, origins string, err error) {
	fieldsJSON, err := json.Marshal(r.Fields)
	if err != nil {
		return "", "", "", "", eris.Wrapf(err, "store: marshal fields %s", r.ID)
	}
	return string(fieldsJSON),
		model.EncodeProvenance(r.MDProv),
		model.EncodeProvenance(r.DProv),
		strings.Join(r.Origins, ";"),
		nil
}

// decodeRecord rebuilds a record from its row representation.
func decodeRecord(id, entryType, status, origins, fields, mdProv, dProv string) (*model.Record, error) {
	r := model.NewRecord(id, entryType)
	r.Status = model.Status(status)
	if origins != "" {
		r.Origins = strings.Split(origins, ";")
	}
	if err := json.Unmarshal([]byte(fields), &r.Fields); err != nil {
		return nil, eris.Wrapf(err, "store: unmarshal fields %s", id)
	}
	md, err := model.ParseProvenance(mdProv)
	if err != nil {
		return nil, eris.Wrapf(err, "store: parse masterdata provenance %s", id)
	}
	d, err := model.ParseProvenance(dProv)
	if err != nil {
		return nil, eris.Wrapf(err, "store: parse data provenance %s", id)
	}
	if md != nil {
		r.MDProv = md
	}
	if d != nil {
		r.DProv = d
	}
	return r, nil
}

// tocContainer is the index grouping for a TOC key: the container slug before
// the first separator (journal for articles, booktitle for proceedings). An
// indexed container turns an absent key into an explicit contradiction.
func tocContainer(tocKey string) string {
	if i := strings.Index(tocKey, "|"); i >= 0 {
		return tocKey[:i]
	}
	return tocKey
}

// canonicalOriginPair orders a decision-log pair so (a,b) and (b,a) land on
// the same row.
func canonicalOriginPair(originA, originB string) (string, string) {
	if originA > originB {
		return originB, originA
	}
	return originA, originB
}
