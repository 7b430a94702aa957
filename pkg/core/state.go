package core

import (
	"context"
	"time"
)

// RunStatus represents the status of a correction run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// CorrectionRun is one pass of the correction backend over a sheet.
type CorrectionRun struct {
	ID          string
	FileID      int64
	Sheet       string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Cells       int
	Batches     int
	Corrections int
	Skipped     int
	Error       string
}

// RunOutcome carries the counters recorded when a run completes.
type RunOutcome struct {
	Status      RunStatus
	Cells       int
	Batches     int
	Corrections int
	Skipped     int
	Error       string
}

// Store defines the persistence contract for tracked files, their
// correction history and correction runs.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	// File operations
	AddFile(ctx context.Context, file *FileRecord) error
	GetFile(ctx context.Context, id int64) (*FileRecord, error)
	GetFileByPath(ctx context.Context, path string) (*FileRecord, error)
	ListFiles(ctx context.Context) ([]*FileRecord, error)
	DeleteFile(ctx context.Context, id int64) error

	// Correction history operations
	ReplaceCorrections(ctx context.Context, fileID int64, records []Correction) error
	GetCorrections(ctx context.Context, fileID int64, sheet string) ([]Correction, error)
	GetCorrection(ctx context.Context, fileID int64, sheet string, coord Coordinate) (*Correction, error)
	SetCorrectionStatus(ctx context.Context, fileID int64, sheet string, coord Coordinate, status CorrectionStatus) error

	// Correction run operations
	CreateRun(ctx context.Context, fileID int64, sheet string) (*CorrectionRun, error)
	CompleteRun(ctx context.Context, id string, outcome RunOutcome) error
	GetRun(ctx context.Context, id string) (*CorrectionRun, error)
	GetLatestRun(ctx context.Context, fileID int64, sheet string) (*CorrectionRun, error)
}
