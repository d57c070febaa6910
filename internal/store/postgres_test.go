package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/litreview-cli/internal/dedupe"
	"github.com/sells-group/litreview-cli/internal/model"
	"github.com/sells-group/litreview-cli/internal/quality"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_LoadAll(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, entry_type, status, origins, fields, md_prov, d_prov FROM records`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "entry_type", "status", "origins", "fields", "md_prov", "d_prov"}).
			AddRow("Rai2020", model.EntryTypeArticle, "md_prepared", "import.bib/id_0001",
				[]byte(`{"title":"Editorial","year":"2020"}`),
				"title:import.bib/id_0001;;; year:import.bib/id_0001;;;", ""))

	records, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Rai2020", r.ID)
	assert.Equal(t, model.StatusPrepared, r.Status)
	assert.Equal(t, []string{"import.bib/id_0001"}, r.Origins)
	assert.Equal(t, "Editorial", r.GetValue(model.FieldTitle))
	assert.Equal(t, "import.bib/id_0001", r.MDProv[model.FieldTitle].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAll(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM records`).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"records"}, recordColumns).WillReturnResult(1)
	mock.ExpectCommit()

	r := model.NewRecord("Rai2020", model.EntryTypeArticle)
	r.Status = model.StatusPrepared
	require.NoError(t, s.SaveAll(context.Background(), []*model.Record{r}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAll_RollsBackOnCopyError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM records`).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"records"}, recordColumns).
		WillReturnError(pgx.ErrTxClosed)
	mock.ExpectRollback()

	r := model.NewRecord("Rai2020", model.EntryTypeArticle)
	err := s.SaveAll(context.Background(), []*model.Record{r})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountByStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM records GROUP BY status`).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("md_prepared", int64(12)).
			AddRow("md_imported", int64(3)))

	counts, err := s.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[model.Status]int{
		model.StatusPrepared: 12,
		model.StatusImported: 3,
	}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddNonDuplicate_CanonicalOrder(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO non_duplicates`).
		WithArgs("a.bib/1", "b.bib/2").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.AddNonDuplicate(context.Background(), "b.bib/2", "a.bib/1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_NonDuplicates(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT origin_a, origin_b FROM non_duplicates`).
		WillReturnRows(pgxmock.NewRows([]string{"origin_a", "origin_b"}).
			AddRow("a.bib/1", "b.bib/2"))

	known, err := s.NonDuplicates(context.Background())
	require.NoError(t, err)
	assert.True(t, known[[2]string{"a.bib/1", "b.bib/2"}])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Worklist(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id_a, id_b, similarity, outcome FROM dedupe_worklist`).
		WithArgs("batch-1").
		WillReturnRows(pgxmock.NewRows([]string{"id_a", "id_b", "similarity", "outcome"}).
			AddRow("Rai2020", "Rai2020a", 0.91, "not_processed"))

	pairs, err := s.Worklist(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, []dedupe.Pair{
		{IDA: "Rai2020", IDB: "Rai2020a", Similarity: 0.91, Outcome: dedupe.OutcomeNotProcessed},
	}, pairs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestBatch_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT batch_id FROM dedupe_worklist`).
		WillReturnError(pgx.ErrNoRows)

	latest, err := s.LatestBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, latest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Contains(t *testing.T) {
	t.Run("listed", func(t *testing.T) {
		s, mock := newMockPostgresStore(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM toc_keys WHERE toc_key = \$1`).
			WithArgs("mis-quarterly|45|1").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

		status, err := s.Contains(context.Background(), "mis-quarterly|45|1")
		require.NoError(t, err)
		assert.Equal(t, quality.TOCListed, status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing from indexed container", func(t *testing.T) {
		s, mock := newMockPostgresStore(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM toc_keys WHERE toc_key = \$1`).
			WithArgs("mis-quarterly|45|9").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM toc_keys WHERE container = \$1`).
			WithArgs("mis-quarterly").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

		status, err := s.Contains(context.Background(), "mis-quarterly|45|9")
		require.NoError(t, err)
		assert.Equal(t, quality.TOCMissing, status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown container", func(t *testing.T) {
		s, mock := newMockPostgresStore(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM toc_keys WHERE toc_key = \$1`).
			WithArgs("information-systems-research|31|1").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM toc_keys WHERE container = \$1`).
			WithArgs("information-systems-research").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

		status, err := s.Contains(context.Background(), "information-systems-research|31|1")
		require.NoError(t, err)
		assert.Equal(t, quality.TOCUnknown, status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
