package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/litreview-cli/internal/db"
	"github.com/sells-group/litreview-cli/internal/dedupe"
	"github.com/sells-group/litreview-cli/internal/model"
	"github.com/sells-group/litreview-cli/internal/quality"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"load_records":     `SELECT id, entry_type, status, origins, fields, md_prov, d_prov FROM records ORDER BY id`,
	"count_by_status":  `SELECT status, COUNT(*) FROM records GROUP BY status`,
	"add_non_dup":      `INSERT INTO non_duplicates (origin_a, origin_b) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
	"load_non_dups":    `SELECT origin_a, origin_b FROM non_duplicates`,
	"load_worklist":    `SELECT id_a, id_b, similarity, outcome FROM dedupe_worklist WHERE batch_id = $1 ORDER BY similarity DESC, id_a, id_b`,
	"latest_batch":     `SELECT batch_id FROM dedupe_worklist ORDER BY created_at DESC, batch_id LIMIT 1`,
	"toc_key_count":    `SELECT COUNT(*) FROM toc_keys WHERE toc_key = $1`,
	"toc_container_ct": `SELECT COUNT(*) FROM toc_keys WHERE container = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access (e.g., bulk TOC imports).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	entry_type TEXT NOT NULL,
	status     TEXT NOT NULL,
	origins    TEXT NOT NULL DEFAULT '',
	fields     JSONB NOT NULL DEFAULT '{}',
	md_prov    TEXT NOT NULL DEFAULT '',
	d_prov     TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS non_duplicates (
	origin_a   TEXT NOT NULL,
	origin_b   TEXT NOT NULL,
	decided_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (origin_a, origin_b)
);

CREATE TABLE IF NOT EXISTS dedupe_worklist (
	batch_id   TEXT NOT NULL,
	id_a       TEXT NOT NULL,
	id_b       TEXT NOT NULL,
	similarity DOUBLE PRECISION NOT NULL,
	outcome    TEXT NOT NULL DEFAULT 'not_processed',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (batch_id, id_a, id_b)
);

CREATE TABLE IF NOT EXISTS toc_keys (
	container TEXT NOT NULL,
	toc_key   TEXT NOT NULL,
	PRIMARY KEY (container, toc_key)
);

CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
CREATE INDEX IF NOT EXISTS idx_worklist_batch ON dedupe_worklist(batch_id);
CREATE INDEX IF NOT EXISTS idx_toc_container ON toc_keys(container);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]*model.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, entry_type, status, origins, fields, md_prov, d_prov FROM records ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load records")
	}
	defer rows.Close()

	var records []*model.Record
	for rows.Next() {
		var id, entryType, status, origins, mdProv, dProv string
		var fields []byte
		if err := rows.Scan(&id, &entryType, &status, &origins, &fields, &mdProv, &dProv); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		r, err := decodeRecord(id, entryType, status, origins, string(fields), mdProv, dProv)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: load records iterate")
}

// SaveAll replaces the stored snapshot in one transaction: clear, then COPY
// the new rows in bulk.
func (s *PostgresStore) SaveAll(ctx context.Context, records []*model.Record) error {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		fields, mdProv, dProv, origins, err := encodeRecord(r)
		if err != nil {
			return err
		}
		rows = append(rows, []any{r.ID, r.EntryType, string(r.Status), origins, []byte(fields), mdProv, dProv})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM records`); err != nil {
		return eris.Wrap(err, "postgres: clear records")
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"records"}, recordColumns, pgx.CopyFromRows(rows)); err != nil {
			return eris.Wrap(err, "postgres: copy records")
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit save")
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM records GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by status")
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		counts[model.Status(status)] = int(n)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count by status iterate")
}

func (s *PostgresStore) AddNonDuplicate(ctx context.Context, originA, originB string) error {
	a, b := canonicalOriginPair(originA, originB)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO non_duplicates (origin_a, origin_b) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		a, b,
	)
	return eris.Wrap(err, "postgres: add non-duplicate")
}

func (s *PostgresStore) NonDuplicates(ctx context.Context) (dedupe.NonDuplicates, error) {
	rows, err := s.pool.Query(ctx, `SELECT origin_a, origin_b FROM non_duplicates`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load non-duplicates")
	}
	defer rows.Close()

	known := dedupe.NonDuplicates{}
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return nil, eris.Wrap(err, "postgres: scan non-duplicate")
		}
		known.Add(a, b)
	}
	return known, eris.Wrap(rows.Err(), "postgres: load non-duplicates iterate")
}

// SaveWorklist upserts a batch's pairs through the shared bulk-upsert helper.
func (s *PostgresStore) SaveWorklist(ctx context.Context, batchID string, pairs []dedupe.Pair) error {
	rows := make([][]any, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []any{batchID, p.IDA, p.IDB, p.Similarity, string(p.Outcome)})
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "dedupe_worklist",
		Columns:      []string{"batch_id", "id_a", "id_b", "similarity", "outcome"},
		ConflictKeys: []string{"batch_id", "id_a", "id_b"},
	}, rows)
	return eris.Wrap(err, "postgres: save worklist")
}

func (s *PostgresStore) Worklist(ctx context.Context, batchID string) ([]dedupe.Pair, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id_a, id_b, similarity, outcome FROM dedupe_worklist
		 WHERE batch_id = $1 ORDER BY similarity DESC, id_a, id_b`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load worklist")
	}
	defer rows.Close()

	var pairs []dedupe.Pair
	for rows.Next() {
		var p dedupe.Pair
		var outcome string
		if err := rows.Scan(&p.IDA, &p.IDB, &p.Similarity, &outcome); err != nil {
			return nil, eris.Wrap(err, "postgres: scan worklist pair")
		}
		p.Outcome = dedupe.Outcome(outcome)
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "postgres: load worklist iterate")
}

func (s *PostgresStore) LatestBatch(ctx context.Context) (string, error) {
	var batchID string
	err := s.pool.QueryRow(ctx,
		`SELECT batch_id FROM dedupe_worklist ORDER BY created_at DESC, batch_id LIMIT 1`,
	).Scan(&batchID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return batchID, eris.Wrap(err, "postgres: latest batch")
}

// AddTOCKeys bulk-upserts index entries; re-importing a TOC file is a no-op.
func (s *PostgresStore) AddTOCKeys(ctx context.Context, keys []string) error {
	rows := make([][]any, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []any{tocContainer(key), key})
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "toc_keys",
		Columns:      []string{"container", "toc_key"},
		ConflictKeys: []string{"container", "toc_key"},
		UpdateCols:   []string{"toc_key"},
	}, rows)
	return eris.Wrap(err, "postgres: add toc keys")
}

func (s *PostgresStore) Contains(ctx context.Context, tocKey string) (quality.TOCStatus, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM toc_keys WHERE toc_key = $1`, tocKey,
	).Scan(&n)
	if err != nil {
		return quality.TOCUnknown, eris.Wrap(err, "postgres: toc key lookup")
	}
	if n > 0 {
		return quality.TOCListed, nil
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM toc_keys WHERE container = $1`, tocContainer(tocKey),
	).Scan(&n)
	if err != nil {
		return quality.TOCUnknown, eris.Wrap(err, "postgres: toc container lookup")
	}
	if n > 0 {
		return quality.TOCMissing, nil
	}
	return quality.TOCUnknown, nil
}
