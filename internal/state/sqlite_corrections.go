package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leapstack-labs/sheetproof/pkg/core"
)

const correctionColumns = `sheet_name, row_idx, col_idx, cell, old_value, new_value, status`

// ReplaceCorrections replaces every correction of a file with records in a
// single transaction. Concurrent readers see either the old or the new set.
func (s *SQLiteStore) ReplaceCorrections(ctx context.Context, fileID int64, records []core.Correction) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM corrections WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("failed to clear corrections: %w", err)
	}

	for _, rec := range records {
		status := rec.Status
		if status == "" {
			status = core.CorrectionPending
		}
		cell := rec.Cell
		if cell == "" {
			cell = rec.Coordinate.Address()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO corrections (file_id, `+correctionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			fileID, rec.Sheet, rec.Coordinate.Row, rec.Coordinate.Col, cell, rec.OldValue, rec.NewValue, status,
		); err != nil {
			return fmt.Errorf("failed to insert correction %s!%s: %w", rec.Sheet, cell, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit corrections: %w", err)
	}
	s.logger.Debug("corrections replaced", "file_id", fileID, "count", len(records))
	return nil
}

// GetCorrections returns the corrections of one sheet in insertion order.
// An unknown file or sheet yields an empty slice.
func (s *SQLiteStore) GetCorrections(ctx context.Context, fileID int64, sheet string) ([]core.Correction, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+correctionColumns+` FROM corrections WHERE file_id = ? AND sheet_name = ? ORDER BY id`,
		fileID, sheet,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get corrections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]core.Correction, 0)
	for rows.Next() {
		c, err := scanCorrection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get corrections: %w", err)
	}
	return out, nil
}

// GetCorrection returns the correction of one cell, or nil if there is none.
func (s *SQLiteStore) GetCorrection(ctx context.Context, fileID int64, sheet string, coord core.Coordinate) (*core.Correction, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+correctionColumns+` FROM corrections
		 WHERE file_id = ? AND sheet_name = ? AND row_idx = ? AND col_idx = ?`,
		fileID, sheet, coord.Row, coord.Col,
	)
	c, err := scanCorrection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// SetCorrectionStatus updates the review status of one correction.
// Returns core.ErrNotFound if the cell has no correction.
func (s *SQLiteStore) SetCorrectionStatus(ctx context.Context, fileID int64, sheet string, coord core.Coordinate, status core.CorrectionStatus) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if _, err := core.ParseCorrectionStatus(string(status)); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE corrections SET status = ?
		 WHERE file_id = ? AND sheet_name = ? AND row_idx = ? AND col_idx = ?`,
		status, fileID, sheet, coord.Row, coord.Col,
	)
	if err != nil {
		return fmt.Errorf("failed to update correction status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update correction status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("correction %s!%s: %w", sheet, coord.Address(), core.ErrNotFound)
	}
	return nil
}

func scanCorrection(sc scanner) (*core.Correction, error) {
	var c core.Correction
	if err := sc.Scan(&c.Sheet, &c.Coordinate.Row, &c.Coordinate.Col, &c.Cell, &c.OldValue, &c.NewValue, &c.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan correction: %w", err)
	}
	return &c, nil
}
