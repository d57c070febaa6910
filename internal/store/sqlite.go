package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/litreview-cli/internal/dedupe"
	"github.com/sells-group/litreview-cli/internal/model"
	"github.com/sells-group/litreview-cli/internal/quality"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	entry_type TEXT NOT NULL,
	status     TEXT NOT NULL,
	origins    TEXT NOT NULL DEFAULT '',
	fields     TEXT NOT NULL DEFAULT '{}',
	md_prov    TEXT NOT NULL DEFAULT '',
	d_prov     TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS non_duplicates (
	origin_a   TEXT NOT NULL,
	origin_b   TEXT NOT NULL,
	decided_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (origin_a, origin_b)
);

CREATE TABLE IF NOT EXISTS dedupe_worklist (
	batch_id   TEXT NOT NULL,
	id_a       TEXT NOT NULL,
	id_b       TEXT NOT NULL,
	similarity REAL NOT NULL,
	outcome    TEXT NOT NULL DEFAULT 'not_processed',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
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

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadAll(ctx context.Context) ([]*model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entry_type, status, origins, fields, md_prov, d_prov FROM records ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load records")
	}
	defer rows.Close()

	var records []*model.Record
	for rows.Next() {
		var id, entryType, status, origins, fields, mdProv, dProv string
		if err := rows.Scan(&id, &entryType, &status, &origins, &fields, &mdProv, &dProv); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		r, err := decodeRecord(id, entryType, status, origins, fields, mdProv, dProv)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: load records iterate")
}

// SaveAll replaces the stored snapshot in one transaction, so readers see
// either the previous dataset or the new one, never a partial write.
func (s *SQLiteStore) SaveAll(ctx context.Context, records []*model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return eris.Wrap(err, "sqlite: clear records")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, entry_type, status, origins, fields, md_prov, d_prov) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert record")
	}
	defer stmt.Close()

	for _, r := range records {
		fields, mdProv, dProv, origins, err := encodeRecord(r)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.EntryType, string(r.Status), origins, fields, mdProv, dProv); err != nil {
			return eris.Wrapf(err, "sqlite: insert record %s", r.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save")
}

func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM records GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by status")
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		counts[model.Status(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count by status iterate")
}

func (s *SQLiteStore) AddNonDuplicate(ctx context.Context, originA, originB string) error {
	a, b := canonicalOriginPair(originA, originB)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO non_duplicates (origin_a, origin_b) VALUES (?, ?)`,
		a, b,
	)
	return eris.Wrap(err, "sqlite: add non-duplicate")
}

func (s *SQLiteStore) NonDuplicates(ctx context.Context) (dedupe.NonDuplicates, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT origin_a, origin_b FROM non_duplicates`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load non-duplicates")
	}
	defer rows.Close()

	known := dedupe.NonDuplicates{}
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan non-duplicate")
		}
		known.Add(a, b)
	}
	return known, eris.Wrap(rows.Err(), "sqlite: load non-duplicates iterate")
}

func (s *SQLiteStore) SaveWorklist(ctx context.Context, batchID string, pairs []dedupe.Pair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin worklist save")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO dedupe_worklist (batch_id, id_a, id_b, similarity, outcome) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert worklist")
	}
	defer stmt.Close()

	for _, p := range pairs {
		if _, err := stmt.ExecContext(ctx, batchID, p.IDA, p.IDB, p.Similarity, string(p.Outcome)); err != nil {
			return eris.Wrapf(err, "sqlite: insert worklist pair %s/%s", p.IDA, p.IDB)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit worklist save")
}

func (s *SQLiteStore) Worklist(ctx context.Context, batchID string) ([]dedupe.Pair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id_a, id_b, similarity, outcome FROM dedupe_worklist
		 WHERE batch_id = ? ORDER BY similarity DESC, id_a, id_b`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load worklist")
	}
	defer rows.Close()

	var pairs []dedupe.Pair
	for rows.Next() {
		var p dedupe.Pair
		var outcome string
		if err := rows.Scan(&p.IDA, &p.IDB, &p.Similarity, &outcome); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan worklist pair")
		}
		p.Outcome = dedupe.Outcome(outcome)
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "sqlite: load worklist iterate")
}

func (s *SQLiteStore) LatestBatch(ctx context.Context) (string, error) {
	var batchID string
	err := s.db.QueryRowContext(ctx,
		`SELECT batch_id FROM dedupe_worklist ORDER BY created_at DESC, batch_id LIMIT 1`,
	).Scan(&batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return batchID, eris.Wrap(err, "sqlite: latest batch")
}

func (s *SQLiteStore) AddTOCKeys(ctx context.Context, keys []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin toc save")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO toc_keys (container, toc_key) VALUES (?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert toc key")
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, tocContainer(key), key); err != nil {
			return eris.Wrapf(err, "sqlite: insert toc key %s", key)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit toc save")
}

func (s *SQLiteStore) Contains(ctx context.Context, tocKey string) (quality.TOCStatus, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM toc_keys WHERE toc_key = ?`, tocKey,
	).Scan(&n)
	if err != nil {
		return quality.TOCUnknown, eris.Wrap(err, "sqlite: toc key lookup")
	}
	if n > 0 {
		return quality.TOCListed, nil
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM toc_keys WHERE container = ?`, tocContainer(tocKey),
	).Scan(&n)
	if err != nil {
		return quality.TOCUnknown, eris.Wrap(err, "sqlite: toc container lookup")
	}
	if n > 0 {
		return quality.TOCMissing, nil
	}
	return quality.TOCUnknown, nil
}
