// Package lock guards an output directory with an advisory file lock so two
// runs never write the same exports at once.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the lock file created inside the guarded directory.
const FileName = ".quranpipe.lock"

// ErrAlreadyLocked is returned when another run holds the lock.
var ErrAlreadyLocked = errors.New("another quranpipe run is using this output directory")

// Flocker abstracts the subset of flock.Flock used for advisory locking.
type Flocker interface {
	TryLock() (bool, error)
	Unlock() error
}

// Lock provides fail-fast advisory locking.
type Lock struct {
	flocker Flocker
	dir     string
}

// New creates a Lock from the given Flocker.
func New(f Flocker) *Lock {
	return &Lock{flocker: f}
}

// ForDir creates a Lock on dir/FileName. The directory is created on the
// first TryLock if it does not exist.
func ForDir(dir string) *Lock {
	return &Lock{flocker: flock.New(filepath.Join(dir, FileName)), dir: dir}
}

// TryLock attempts a non-blocking acquisition. It returns ErrAlreadyLocked
// if another process holds the lock.
func (l *Lock) TryLock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.dir != "" {
		if err := os.MkdirAll(l.dir, 0o755); err != nil {
			return fmt.Errorf("creating lock directory: %w", err)
		}
	}

	ok, err := l.flocker.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !ok {
		return ErrAlreadyLocked
	}
	return nil
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	if err := l.flocker.Unlock(); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}
