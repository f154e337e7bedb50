package project

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"mediaflow/internal/fileutil"
)

// ErrRunInProgress reports another run holding the state directory lock.
var ErrRunInProgress = errors.New("another mediaflow run is using this state directory")

func acquireLock(path string) (*flock.Flock, error) {
	if err := fileutil.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("prepare lock: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrRunInProgress, path)
	}
	return lock, nil
}
