// Package state persists the sentinel's hysteresis counter.
//
// The record is a single JSON object, {"no_client_io_count": N}, that counts
// consecutive near-silent windows. It is the only state that survives
// between invocations, and cron may start overlapping invocations, so every
// read-modify-write goes through Update: an exclusive flock on a sidecar
// lock file serializes writers, and each save writes a temporary file that
// is renamed over the record so readers never observe a partial write.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"golang.org/x/sys/unix"
)

// State is the persisted hysteresis record.
type State struct {
	NoClientIOCount int `json:"no_client_io_count"`
}

// record mirrors State with a pointer field so a missing key is detectable.
type record struct {
	NoClientIOCount *int `json:"no_client_io_count"`
}

// PersistenceError reports an unreadable, corrupt or unwritable state record.
// It is fatal to the cycle that hit it.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("state %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistenceError reports whether err wraps a *PersistenceError.
func IsPersistenceError(err error) bool {
	var perr *PersistenceError
	return errors.As(err, &perr)
}

// Store loads and saves the hysteresis record.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) error
	Update(ctx context.Context, fn func(State) (State, error)) (State, error)
}

// lockPollInterval is how often Update retries a contended lock.
const lockPollInterval = 50 * time.Millisecond

// FileStore keeps the record in a JSON file.
type FileStore struct {
	path     string
	lockPath string
}

// NewFileStore returns a store for the record at path. The file need not exist.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("state file path cannot be empty")
	}
	return &FileStore{path: path, lockPath: path + ".lock"}, nil
}

// Path returns the record location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the record. A missing file yields the initial zero state; an
// unreadable or malformed one yields a *PersistenceError.
func (s *FileStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Info("State file %s not found, starting with no_client_io_count=0", s.path)
		return State{}, nil
	}
	if err != nil {
		return State{}, &PersistenceError{Op: "read", Path: s.path, Err: err}
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return State{}, &PersistenceError{Op: "decode", Path: s.path, Err: err}
	}
	if rec.NoClientIOCount == nil {
		return State{}, &PersistenceError{Op: "decode", Path: s.path, Err: errors.New("missing no_client_io_count")}
	}
	if *rec.NoClientIOCount < 0 {
		return State{}, &PersistenceError{Op: "decode", Path: s.path,
			Err: fmt.Errorf("no_client_io_count is negative: %d", *rec.NoClientIOCount)}
	}

	return State{NoClientIOCount: *rec.NoClientIOCount}, nil
}

// Save overwrites the whole record atomically.
func (s *FileStore) Save(ctx context.Context, st State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if st.NoClientIOCount < 0 {
		return &PersistenceError{Op: "write", Path: s.path,
			Err: fmt.Errorf("refusing to save negative no_client_io_count %d", st.NoClientIOCount)}
	}

	data, err := json.Marshal(st)
	if err != nil {
		return &PersistenceError{Op: "encode", Path: s.path, Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &PersistenceError{Op: "sync", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &PersistenceError{Op: "rename", Path: s.path, Err: err}
	}

	logging.Debug("Saved state %s: no_client_io_count=%d", s.path, st.NoClientIOCount)
	return nil
}

// Update performs a locked read-modify-write. fn receives the current
// record; its result is saved unless fn returns an error, which is passed
// through unchanged.
func (s *FileStore) Update(ctx context.Context, fn func(State) (State, error)) (State, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return State{}, err
	}
	defer unlock()

	current, err := s.Load(ctx)
	if err != nil {
		return State{}, err
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}

	if next == current {
		return next, nil
	}
	if err := s.Save(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

// Reset zeroes the record under the lock and returns the value it replaced.
// A corrupt record is overwritten and reported as the zero state.
func (s *FileStore) Reset(ctx context.Context) (State, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return State{}, err
	}
	defer unlock()

	previous, err := s.Load(ctx)
	var perr *PersistenceError
	if errors.As(err, &perr) && perr.Op == "decode" {
		logging.Warn("State file unreadable, overwriting: %v", err)
		previous, err = State{}, nil
	}
	if err != nil {
		return State{}, err
	}

	if err := s.Save(ctx, State{}); err != nil {
		return previous, err
	}
	return previous, nil
}

// lock takes an exclusive flock on the sidecar lock file, polling until it
// is acquired or ctx is done.
func (s *FileStore) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return nil, &PersistenceError{Op: "lock", Path: s.lockPath, Err: err}
	}

	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, &PersistenceError{Op: "lock", Path: s.lockPath, Err: err}
	}

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			f.Close()
			return nil, &PersistenceError{Op: "lock", Path: s.lockPath, Err: err}
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}

	return func() {
		if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
			logging.Warn("Failed to release state lock %s: %v", s.lockPath, err)
		}
		f.Close()
	}, nil
}
