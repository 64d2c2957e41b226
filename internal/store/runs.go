package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunRecord captures one generation run for history output.
type RunRecord struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Device     string    `json:"device"`
	Stage      string    `json:"stage"`
	OutputPath string    `json:"outputPath,omitempty"`
	OutputDir  string    `json:"outputDir,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
}

// Finished reports whether the run reached a terminal state.
func (r RunRecord) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Duration returns how long the run took, or zero while it is in flight.
func (r RunRecord) Duration() time.Duration {
	if !r.Finished() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RecordRunStart inserts a new in-flight run.
func (s *Store) RecordRunStart(ctx context.Context, rec RunRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("run id is required")
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, title, device, stage, output_path, output_dir, error_message, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		rec.ID, rec.Title, rec.Device, rec.Stage,
		nullableString(rec.OutputPath), nullableString(rec.OutputDir), nullableString(rec.Error),
		formatTime(rec.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// RecordRunFinish stores the terminal state of a run previously started with
// RecordRunStart.
func (s *Store) RecordRunFinish(ctx context.Context, rec RunRecord) error {
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET stage = ?, output_path = ?, output_dir = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		rec.Stage, nullableString(rec.OutputPath), nullableString(rec.OutputDir), nullableString(rec.Error),
		nullableTime(rec.FinishedAt), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record run finish: run %s not found", rec.ID)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, title, device, stage, output_path, output_dir, error_message, started_at, finished_at
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// ClearRuns deletes all run history and returns the number of rows removed.
func (s *Store) ClearRuns(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(rows *sql.Rows) (RunRecord, error) {
	var rec RunRecord
	var outputPath, outputDir, errMsg, finishedAt sql.NullString
	var startedAt string
	if err := rows.Scan(&rec.ID, &rec.Title, &rec.Device, &rec.Stage,
		&outputPath, &outputDir, &errMsg, &startedAt, &finishedAt); err != nil {
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	rec.OutputPath = outputPath.String
	rec.OutputDir = outputDir.String
	rec.Error = errMsg.String
	if t, err := parseTime(startedAt); err == nil {
		rec.StartedAt = t
	}
	if finishedAt.Valid {
		if t, err := parseTime(finishedAt.String); err == nil {
			rec.FinishedAt = t
		}
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
