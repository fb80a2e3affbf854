package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/termdoc/pkg/termdoc/internalerr"
	"github.com/cognicore/termdoc/pkg/termdoc/matrix"
	"github.com/cognicore/termdoc/pkg/termdoc/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled, creating the
// parent directory when needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	weighting TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_docs (
	run_id TEXT NOT NULL,
	col INTEGER NOT NULL,
	filename TEXT NOT NULL,
	PRIMARY KEY(run_id, col),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_words (
	run_id TEXT NOT NULL,
	row INTEGER NOT NULL,
	word TEXT NOT NULL,
	PRIMARY KEY(run_id, row),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_cells (
	run_id TEXT NOT NULL,
	row INTEGER NOT NULL,
	col INTEGER NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(run_id, row, col),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_singular_values (
	run_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY(run_id, idx),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts a run with its labels, cells and singular values.
// Saving an ID that already exists replaces it.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: empty id: %w", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id=?`, r.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, weighting) VALUES (?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.Weighting,
	); err != nil {
		return err
	}

	if err := insertLabels(ctx, tx, `INSERT INTO run_words (run_id, row, word) VALUES (?, ?, ?)`, r.ID, r.Words); err != nil {
		return err
	}
	if err := insertLabels(ctx, tx, `INSERT INTO run_docs (run_id, col, filename) VALUES (?, ?, ?)`, r.ID, r.Docs); err != nil {
		return err
	}
	if err := insertCells(ctx, tx, r.ID, r.Cells); err != nil {
		return err
	}
	if err := insertValues(ctx, tx, r.ID, r.Values); err != nil {
		return err
	}

	return tx.Commit()
}

func insertLabels(ctx context.Context, tx *sql.Tx, query, runID string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, label := range labels {
		if _, err := stmt.ExecContext(ctx, runID, i, label); err != nil {
			return err
		}
	}
	return nil
}

func insertCells(ctx context.Context, tx *sql.Tx, runID string, cells []matrix.Cell) error {
	if len(cells) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_cells (run_id, row, col, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, c := range cells {
		if c.Count == 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, runID, c.Row, c.Col, c.Count); err != nil {
			return err
		}
	}
	return nil
}

func insertValues(ctx context.Context, tx *sql.Tx, runID string, values []float64) error {
	if len(values) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_singular_values (run_id, idx, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, v := range values {
		if _, err := stmt.ExecContext(ctx, runID, i, v); err != nil {
			return err
		}
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	var (
		r       store.Run
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, weighting FROM runs WHERE id=?`, id,
	).Scan(&r.ID, &created, &r.Weighting)
	if err == sql.ErrNoRows {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return store.Run{}, fmt.Errorf("run %s: parse created_at: %w", id, err)
	}

	if r.Words, err = s.loadLabels(ctx, `SELECT word FROM run_words WHERE run_id=? ORDER BY row`, id); err != nil {
		return store.Run{}, err
	}
	if r.Docs, err = s.loadLabels(ctx, `SELECT filename FROM run_docs WHERE run_id=? ORDER BY col`, id); err != nil {
		return store.Run{}, err
	}
	if r.Cells, err = s.loadCells(ctx, id); err != nil {
		return store.Run{}, err
	}
	if r.Values, err = s.loadValues(ctx, id); err != nil {
		return store.Run{}, err
	}
	return r, nil
}

func (s *sqliteStore) loadLabels(ctx context.Context, query, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

func (s *sqliteStore) loadCells(ctx context.Context, runID string) ([]matrix.Cell, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row, col, count FROM run_cells WHERE run_id=? ORDER BY col, row`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []matrix.Cell
	for rows.Next() {
		var c matrix.Cell
		if err := rows.Scan(&c.Row, &c.Col, &c.Count); err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

func (s *sqliteStore) loadValues(ctx context.Context, runID string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM run_singular_values WHERE run_id=? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// LatestRun returns the most recent run, if any. ULIDs sort by creation time.
func (s *sqliteStore) LatestRun(ctx context.Context) (store.Run, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}

	r, err := s.GetRun(ctx, id)
	if err != nil {
		return store.Run{}, false, err
	}
	return r, true, nil
}

// ListRuns returns the newest runs first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.created_at,
	(SELECT COUNT(*) FROM run_words w WHERE w.run_id = r.id),
	(SELECT COUNT(*) FROM run_docs d WHERE d.run_id = r.id)
FROM runs r
ORDER BY r.id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RunSummary
	for rows.Next() {
		var (
			sum     store.RunSummary
			created string
		)
		if err := rows.Scan(&sum.ID, &created, &sum.Words, &sum.Docs); err != nil {
			return nil, err
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s: parse created_at: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
