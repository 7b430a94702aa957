package core

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a file, sheet or correction that is not tracked.
var ErrNotFound = errors.New("not found")

// ErrConfiguration is the class of errors caused by inconsistent inputs
// that a retry cannot fix.
var ErrConfiguration = errors.New("configuration error")

// ErrUnsupportedFile indicates a workbook format that cannot be edited.
var ErrUnsupportedFile = errors.New("unsupported file type")

// ErrFatal marks backend failures that must not be retried.
var ErrFatal = errors.New("fatal backend error")

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() []error { return []error{ErrFatal, e.err} }

// Fatal wraps err so that IsFatal reports true for it.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err was marked as non-retryable.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// ShapeError reports two grids that cannot be compared cell by cell.
type ShapeError struct {
	OldRows, OldCols int
	NewRows, NewCols int
	Row              int // first row whose length differs, or -1
}

func (e *ShapeError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("grid shape mismatch at row %d: old %dx%d, new %dx%d",
			e.Row, e.OldRows, e.OldCols, e.NewRows, e.NewCols)
	}
	return fmt.Sprintf("grid shape mismatch: old %dx%d, new %dx%d",
		e.OldRows, e.OldCols, e.NewRows, e.NewCols)
}

func (e *ShapeError) Unwrap() error {
	return ErrConfiguration
}
