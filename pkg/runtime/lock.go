package runtime

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// LockName is the name of the lock file shared by all agent instances in a host
const LockName = "netsplit-agent.lock"

// Lock defines a process lock
type Lock interface {
	// Acquire tries to acquire an execution lock to prevent concurrent executions.
	// Returns false if lock is already acquired by another process.
	Acquire() (bool, error)
	// Release releases the execution lock
	Release() error
	// Owner returns the pid of the process that holds the lock or -1 if the lock is free
	Owner() int
}

// filelock maintains the state of a file based lock. The file contains the pid of the owner.
type filelock struct {
	path string
}

// DefaultLock returns the lock shared by the agents running in this host.
// The lock is kept in the user's runtime directory if defined, or in the temp directory.
func DefaultLock() Lock {
	lockDir := os.Getenv("XDG_RUNTIME_DIR")
	if lockDir == "" {
		lockDir = os.TempDir()
	}

	return NewFileLock(filepath.Join(lockDir, LockName))
}

// NewFileLock returns a file lock for the given path
func NewFileLock(path string) Lock {
	return &filelock{
		path: path,
	}
}

// Acquire creates the lock file atomically by linking a temporary file that already
// contains the pid. A lock held by a process that is no longer running is taken over.
func (l *filelock) Acquire() (bool, error) {
	pid := os.Getpid()

	candidate, err := writeCandidate(l.path, pid)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = os.Remove(candidate)
	}()

	err = os.Link(candidate, l.path)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return false, err
	}

	owner, err := readOwner(l.path)
	if err != nil {
		return false, fmt.Errorf("reading lock owner: %w", err)
	}

	if owner == pid {
		return true, nil
	}

	if isAlive(owner) {
		return false, nil
	}

	// stale lock
	if err = os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	err = os.Link(candidate, l.path)
	if errors.Is(err, fs.ErrExist) {
		// another process took over the stale lock first
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// Release releases the ownership of a lock.
// Returns an error if the invoking process is not the current owner
func (l *filelock) Release() error {
	owner, err := readOwner(l.path)
	if err != nil {
		return err
	}

	if owner != os.Getpid() {
		return fmt.Errorf("lock %q is owned by process %d", l.path, owner)
	}

	return os.Remove(l.path)
}

// Owner returns the pid of the running process that holds the lock, or -1 if there is none
func (l *filelock) Owner() int {
	owner, err := readOwner(l.path)
	if err != nil || !isAlive(owner) {
		return -1
	}

	return owner
}

// writeCandidate writes the pid to a file next to the lock
func writeCandidate(path string, pid int) (string, error) {
	candidate := fmt.Sprintf("%s.%d", path, pid)

	err := os.WriteFile(candidate, []byte(strconv.Itoa(pid)), 0o600)
	if err != nil {
		_ = os.Remove(candidate)
		return "", err
	}

	return candidate, nil
}

// readOwner returns the pid stored in the lockfile, or -1 if the content is not a pid
func readOwner(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return -1, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		//nolint:nilerr // an invalid owner is reported as -1
		return -1, nil
	}

	return pid, nil
}

// isAlive checks if the process with the given pid is running.
// A non-existing process (-1) is considered not running
func isAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	err := unix.Kill(pid, 0)

	// EPERM means the process exists but belongs to another user
	return err == nil || errors.Is(err, unix.EPERM)
}
