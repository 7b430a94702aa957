package state

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sheetproof/pkg/core"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &SQLiteStore{db: db, logger: slog.New(slog.DiscardHandler)}, mock
}

func TestReplaceCorrections_RollsBackOnInsertFailure(t *testing.T) {
	store, mock := newMockStore(t)
	diskFull := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM corrections WHERE file_id = ?")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO corrections").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO corrections").
		WillReturnError(diskFull)
	mock.ExpectRollback()

	err := store.ReplaceCorrections(context.Background(), 7, []core.Correction{
		correction("Sheet1", 0, 0, "a", "b"),
		correction("Sheet1", 0, 1, "c", "d"),
	})
	require.ErrorIs(t, err, diskFull)
	assert.Contains(t, err.Error(), "Sheet1!B1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceCorrections_RollsBackOnDeleteFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM corrections").WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err := store.ReplaceCorrections(context.Background(), 1, []core.Correction{
		correction("Sheet1", 0, 0, "a", "b"),
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFile_RollsBackOnInsertFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM files WHERE local_path_hash = ?")).
		WithArgs(core.PathHash("/data/book.xlsx")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO files").WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	f := &core.FileRecord{LocalPath: "/data/book.xlsx"}
	require.Error(t, store.AddFile(context.Background(), f))
	assert.Zero(t, f.ID, "record is untouched on failure")
	assert.NoError(t, mock.ExpectationsWereMet())
}
