package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/litreview-cli/internal/dedupe"
	"github.com/sells-group/litreview-cli/internal/model"
	"github.com/sells-group/litreview-cli/internal/quality"
)

// stubStore serves canned data to the read-only API.
type stubStore struct {
	counts    map[model.Status]int
	worklists map[string][]dedupe.Pair
	latest    string
}

func (s *stubStore) LoadAll(ctx context.Context) ([]*model.Record, error) { return nil, nil }
func (s *stubStore) SaveAll(ctx context.Context, rs []*model.Record) error { return nil }
func (s *stubStore) AddNonDuplicate(ctx context.Context, a, b string) error { return nil }
func (s *stubStore) NonDuplicates(ctx context.Context) (dedupe.NonDuplicates, error) {
	return dedupe.NonDuplicates{}, nil
}
func (s *stubStore) SaveWorklist(ctx context.Context, batchID string, pairs []dedupe.Pair) error {
	return nil
}
func (s *stubStore) AddTOCKeys(ctx context.Context, keys []string) error { return nil }
func (s *stubStore) Contains(ctx context.Context, tocKey string) (quality.TOCStatus, error) {
	return quality.TOCUnknown, nil
}
func (s *stubStore) Migrate(ctx context.Context) error { return nil }
func (s *stubStore) Close() error { return nil }

func (s *stubStore) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	return s.counts, nil
}

func (s *stubStore) Worklist(ctx context.Context, batchID string) ([]dedupe.Pair, error) {
	return s.worklists[batchID], nil
}

func (s *stubStore) LatestBatch(ctx context.Context) (string, error) {
	return s.latest, nil
}

func TestServeHealth(t *testing.T) {
	srv := httptest.NewServer(newRouter(&stubStore{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestServeStatusCounts(t *testing.T) {
	srv := httptest.NewServer(newRouter(&stubStore{
		counts: map[model.Status]int{
			model.StatusImported: 12,
			model.StatusPrepared: 7,
		},
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 12, body["md_imported"])
	assert.Equal(t, 7, body["md_prepared"])
}

func TestServeWorklist(t *testing.T) {
	store := &stubStore{
		latest: "batch-2",
		worklists: map[string][]dedupe.Pair{
			"batch-1": {{IDA: "Old2001", IDB: "Old2001a", Similarity: 0.81, Outcome: dedupe.OutcomeNotProcessed}},
			"batch-2": {{IDA: "Rai2020", IDB: "Rai2020a", Similarity: 0.91, Outcome: dedupe.OutcomeNotProcessed}},
		},
	}
	srv := httptest.NewServer(newRouter(store))
	defer srv.Close()

	t.Run("defaults to latest batch", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/worklist")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			BatchID string        `json:"batch_id"`
			Pairs   []dedupe.Pair `json:"pairs"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "batch-2", body.BatchID)
		require.Len(t, body.Pairs, 1)
		assert.Equal(t, "Rai2020", body.Pairs[0].IDA)
	})

	t.Run("explicit batch", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/worklist?batch=batch-1")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			BatchID string        `json:"batch_id"`
			Pairs   []dedupe.Pair `json:"pairs"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "batch-1", body.BatchID)
		require.Len(t, body.Pairs, 1)
		assert.Equal(t, "Old2001", body.Pairs[0].IDA)
	})

	t.Run("no batches", func(t *testing.T) {
		empty := httptest.NewServer(newRouter(&stubStore{}))
		defer empty.Close()

		resp, err := http.Get(empty.URL + "/worklist")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
