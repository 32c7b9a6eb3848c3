package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = "id, kind, state, disc_one, disc_two, convert_media, error_kind, error_message, primary_total, primary_succeeded, secondary_total, secondary_succeeded, files_deleted, bytes_deleted, started_at, finished_at"

// ErrNotFound is returned by Get when no run has the given id.
var ErrNotFound = errors.New("run not found")

// Begin inserts rec as a new run. StartedAt defaults to now.
func (s *Store) Begin(ctx context.Context, rec *Record) error {
	if rec == nil || strings.TrimSpace(rec.ID) == "" {
		return errors.New("run id is required")
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.Kind),
		string(rec.State),
		nullableString(rec.DiscOne),
		nullableString(rec.DiscTwo),
		boolToInt(rec.ConvertMedia),
		nullableString(string(rec.ErrorKind)),
		nullableString(rec.ErrorMessage),
		rec.PrimaryTotal,
		rec.PrimarySucceeded,
		rec.SecondaryTotal,
		rec.SecondarySucceeded,
		rec.FilesDeleted,
		rec.BytesDeleted,
		formatTime(rec.StartedAt),
		nullableTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Update persists the mutable fields of rec.
func (s *Store) Update(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("run is nil")
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET state = ?, error_kind = ?, error_message = ?,
			primary_total = ?, primary_succeeded = ?, secondary_total = ?, secondary_succeeded = ?,
			files_deleted = ?, bytes_deleted = ?, finished_at = ?
		WHERE id = ?`,
		string(rec.State),
		nullableString(string(rec.ErrorKind)),
		nullableString(rec.ErrorMessage),
		rec.PrimaryTotal,
		rec.PrimarySucceeded,
		rec.SecondaryTotal,
		rec.SecondarySucceeded,
		rec.FilesDeleted,
		rec.BytesDeleted,
		nullableTime(rec.FinishedAt),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", rec.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run %s: %w", rec.ID, ErrNotFound)
	}
	return nil
}

// Get fetches a run by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return rec, nil
}

// List returns the most recent runs first. A limit of zero or less returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Clear removes every run and reports how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}
