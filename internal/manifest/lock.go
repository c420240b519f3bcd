package manifest

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrLocked is returned when another live process holds the manifest.
var ErrLocked = errors.New("manifest locked by another process")

// Lock is an advisory single-writer lock on the manifest file,
// implemented as a sibling PID file created with O_EXCL. A lock left
// behind by a dead process is recovered automatically.
type Lock struct {
	path string
}

// Acquire takes the manifest lock. It returns ErrLocked when the owning
// process is still alive.
func (s *Store) Acquire() (*Lock, error) {
	lockPath := s.Path + ".lock"

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			if cerr := f.Close(); cerr != nil {
				os.Remove(lockPath)
				return nil, fmt.Errorf("write manifest lock: %w", cerr)
			}
			return &Lock{path: lockPath}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create manifest lock: %w", err)
		}

		pid, readErr := readLockPID(lockPath)
		if readErr == nil && isProcessRunning(pid) {
			return nil, fmt.Errorf("%w (pid %d)", ErrLocked, pid)
		}
		// Stale or unreadable lock from a dead run; remove and retry once.
		if rmErr := os.Remove(lockPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale manifest lock: %w", rmErr)
		}
	}
	return nil, ErrLocked
}

// Release drops the lock. Safe to call once per acquired lock.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release manifest lock: %w", err)
	}
	return nil
}

func readLockPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// isProcessRunning probes liveness with signal 0.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
