package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// Entry is one successfully extracted document.
type Entry struct {
	Hash        string    `json:"hash"`
	Path        string    `json:"path"`
	RunID       string    `json:"run_id"`
	CSVPath     string    `json:"csv_path"`
	Rows        int       `json:"rows"`
	Model       string    `json:"model"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Store provides ledger operations
type Store interface {
	// Lookup returns the entry for hash, or nil when it was never recorded.
	Lookup(ctx context.Context, hash string) (*Entry, error)

	// Record inserts or replaces the entry for e.Hash.
	Record(ctx context.Context, e Entry) error

	// List returns all entries, newest first.
	List(ctx context.Context) ([]Entry, error)

	// Delete removes the entry for hash and reports whether it existed.
	Delete(ctx context.Context, hash string) (bool, error)
}

type store struct {
	db *DB
}

// NewStore creates a Store backed by db.
func NewStore(db *DB) Store {
	return &store{db: db}
}

func (s *store) Lookup(ctx context.Context, hash string) (*Entry, error) {
	query := `
		SELECT hash, path, run_id, csv_path, row_count, model, extracted_at
		FROM extractions
		WHERE hash = ?
	`

	var e Entry
	err := s.db.conn.QueryRowContext(ctx, query, hash).Scan(
		&e.Hash,
		&e.Path,
		&e.RunID,
		&e.CSVPath,
		&e.Rows,
		&e.Model,
		&e.ExtractedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to look up "+hash, err)
	}
	return &e, nil
}

func (s *store) Record(ctx context.Context, e Entry) error {
	if e.Hash == "" {
		return types.NewError(types.DB_QUERY_FAILED, "ledger entry requires a hash")
	}
	if e.ExtractedAt.IsZero() {
		e.ExtractedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO extractions (hash, path, run_id, csv_path, row_count, model, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			path = excluded.path,
			run_id = excluded.run_id,
			csv_path = excluded.csv_path,
			row_count = excluded.row_count,
			model = excluded.model,
			extracted_at = excluded.extracted_at
	`

	_, err := s.db.conn.ExecContext(ctx, query,
		e.Hash, e.Path, e.RunID, e.CSVPath, e.Rows, e.Model, e.ExtractedAt)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to record "+e.Hash, err)
	}
	return nil
}

func (s *store) List(ctx context.Context) ([]Entry, error) {
	query := `
		SELECT hash, path, run_id, csv_path, row_count, model, extracted_at
		FROM extractions
		ORDER BY extracted_at DESC, hash
	`

	rows, err := s.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list ledger", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Hash, &e.Path, &e.RunID, &e.CSVPath, &e.Rows, &e.Model, &e.ExtractedAt); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan ledger row", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to iterate ledger", err)
	}
	return out, nil
}

func (s *store) Delete(ctx context.Context, hash string) (bool, error) {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM extractions WHERE hash = ?", hash)
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to delete "+hash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to delete "+hash, err)
	}
	return n > 0, nil
}
