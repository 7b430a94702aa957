package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/leapstack-labs/sheetproof/pkg/core"
)

const runColumns = `id, file_id, sheet_name, status, started_at, completed_at, cells, batches, corrections, skipped, error`

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// CreateRun records the start of a correction pass over a sheet.
func (s *SQLiteStore) CreateRun(ctx context.Context, fileID int64, sheet string) (*core.CorrectionRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.CorrectionRun{
		ID:        generateID(),
		FileID:    fileID,
		Sheet:     sheet,
		Status:    core.RunStatusRunning,
		StartedAt: now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, file_id, sheet_name, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.FileID, run.Sheet, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun stores the outcome of a run.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, outcome core.RunOutcome) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	status := outcome.Status
	if status == "" {
		status = core.RunStatusCompleted
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, cells = ?, batches = ?, corrections = ?, skipped = ?, error = ?
		 WHERE id = ?`,
		status, now(), outcome.Cells, outcome.Batches, outcome.Corrections, outcome.Skipped, nullString(outcome.Error), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*core.CorrectionRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, core.ErrNotFound)
	}
	return run, err
}

// GetLatestRun retrieves the most recently started run for a sheet.
// Returns nil, nil if the sheet was never checked.
func (s *SQLiteStore) GetLatestRun(ctx context.Context, fileID int64, sheet string) (*core.CorrectionRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE file_id = ? AND sheet_name = ? ORDER BY rowid DESC LIMIT 1`,
		fileID, sheet,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

func scanRun(row *sql.Row) (*core.CorrectionRun, error) {
	run := &core.CorrectionRun{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(&run.ID, &run.FileID, &run.Sheet, &run.Status, &run.StartedAt, &completedAt,
		&run.Cells, &run.Batches, &run.Corrections, &run.Skipped, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}
