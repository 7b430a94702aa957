package workbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
)

// DefaultLockTimeout bounds the wait for another writer to release a workbook.
const DefaultLockTimeout = 10 * time.Second

const lockRetryDelay = 50 * time.Millisecond

// ErrLocked is returned when the workbook lock could not be acquired in time.
var ErrLocked = errors.New("workbook is locked by another writer")

// EditOptions configures Edit.
type EditOptions struct {
	LockTimeout time.Duration
	Logger      *slog.Logger
}

// Edit opens the workbook at path under an exclusive lock, calls fn and
// saves the result. The lock is held from before the open until after the
// save, and is released on every exit path. If fn fails nothing is written.
func Edit(ctx context.Context, path string, opts EditOptions, fn func(*Workbook) error) (err error) {
	if err := CheckSupported(path); err != nil {
		return err
	}
	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	lock := flock.New(path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", path, ErrLocked)
		}
		return fmt.Errorf("failed to lock workbook: %w", err)
	}
	if !locked {
		return fmt.Errorf("%s: %w", path, ErrLocked)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to unlock workbook: %w", uerr))
		}
	}()
	logger.Debug("workbook locked", "path", path)

	wb, err := Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close workbook: %w", cerr))
		}
	}()

	if err := fn(wb); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := wb.Save(); err != nil {
		return err
	}
	logger.Debug("workbook saved", "path", path)
	return nil
}
