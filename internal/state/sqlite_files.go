package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leapstack-labs/sheetproof/pkg/core"
)

const fileColumns = `id, local_path, local_path_hash, online_url, sheet_names, embed, file_type, created_at`

// AddFile registers a workbook. The path is normalized and hashed; a record
// with the same hash is replaced, dropping its corrections and runs.
// On success file.ID, file.LocalPath, file.PathHash and file.CreatedAt are set.
func (s *SQLiteStore) AddFile(ctx context.Context, file *core.FileRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	path := core.NormalizePath(file.LocalPath)
	if path == "" {
		return fmt.Errorf("file path is empty")
	}
	sheets := file.SheetNames
	if sheets == nil {
		sheets = []string{}
	}
	sheetJSON, err := json.Marshal(sheets)
	if err != nil {
		return fmt.Errorf("failed to encode sheet names: %w", err)
	}
	fileType := file.FileType
	if fileType == "" {
		fileType = core.FileType(path)
	}
	hash := core.PathHash(path)
	created := now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE local_path_hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO files (local_path, local_path_hash, online_url, sheet_names, embed, file_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		path, hash, file.OnlineURL, string(sheetJSON), file.Embed, fileType, created,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get file id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit file: %w", err)
	}

	file.ID = id
	file.LocalPath = path
	file.PathHash = hash
	file.FileType = fileType
	file.SheetNames = sheets
	file.CreatedAt = created
	s.logger.Debug("file registered", "id", id, "path", path)
	return nil
}

// GetFile retrieves a file by ID. Returns nil, nil if it is not tracked.
func (s *SQLiteStore) GetFile(ctx context.Context, id int64) (*core.FileRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	return scanFileRow(row)
}

// GetFileByPath retrieves a file by its (normalized) local path.
// Returns nil, nil if it is not tracked.
func (s *SQLiteStore) GetFileByPath(ctx context.Context, path string) (*core.FileRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE local_path_hash = ?`, core.PathHash(path))
	return scanFileRow(row)
}

// ListFiles returns every tracked file ordered by ID.
func (s *SQLiteStore) ListFiles(ctx context.Context) ([]*core.FileRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []*core.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// DeleteFile removes a file together with its corrections and runs.
func (s *SQLiteStore) DeleteFile(ctx context.Context, id int64) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("file %d: %w", id, core.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFileRow(row *sql.Row) (*core.FileRecord, error) {
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return f, err
}

func scanFile(sc scanner) (*core.FileRecord, error) {
	var f core.FileRecord
	var sheetJSON string
	if err := sc.Scan(&f.ID, &f.LocalPath, &f.PathHash, &f.OnlineURL, &sheetJSON, &f.Embed, &f.FileType, &f.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan file: %w", err)
	}
	if err := json.Unmarshal([]byte(sheetJSON), &f.SheetNames); err != nil {
		return nil, fmt.Errorf("failed to decode sheet names of file %d: %w", f.ID, err)
	}
	return &f, nil
}
