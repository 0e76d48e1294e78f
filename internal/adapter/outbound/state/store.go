// Package state persists session records as files in a directory, one file
// per record key.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"

	"github.com/pharmaledger/pharmaledger/internal/domain/session"
)

// ErrInvalidKey is returned for keys that cannot be used as file names.
var ErrInvalidKey = errors.New("invalid record key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

const lockName = ".records.lock"

// FileRecordStore implements session.RecordStore with one JSON file per key.
// Writes are atomic (write-tmp-then-rename) and serialized with a mutex
// in-process and an flock on a directory-wide lock file across processes,
// so a CLI and a running server can share the directory.
type FileRecordStore struct {
	dir    string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileRecordStore creates the directory (0700) if needed and returns a
// store rooted at it.
func NewFileRecordStore(dir string, logger *slog.Logger) (*FileRecordStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	// Probe writability now so callers can fall back at startup.
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return nil, fmt.Errorf("record dir not writable: %w", err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	return &FileRecordStore{dir: dir, logger: logger}, nil
}

// Dir returns the directory records are stored in.
func (s *FileRecordStore) Dir() string {
	return s.dir
}

func (s *FileRecordStore) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get reads the record stored under key.
// Returns session.ErrRecordNotFound if no file exists.
// Warns if the file has permissions more open than 0600.
func (s *FileRecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, session.ErrRecordNotFound
		}
		return nil, fmt.Errorf("read record file: %w", err)
	}

	// Unix permission bits are not meaningful on Windows.
	if runtime.GOOS != "windows" {
		if info, statErr := os.Stat(p); statErr == nil {
			mode := info.Mode().Perm()
			if mode&0077 != 0 {
				s.logger.Warn("session record has too-open permissions, should be 0600",
					"path", p, "current_mode", fmt.Sprintf("%04o", mode))
			}
		}
	}

	return data, nil
}

// Put writes the record atomically.
//
// The write sequence is:
//  1. Acquire in-process mutex
//  2. Acquire flock on the directory lock file
//  3. Write to <key>.json.tmp with 0600 permissions
//  4. Fsync the temp file
//  5. Rename the temp file over <key>.json
//  6. Release flock and mutex
func (s *FileRecordStore) Put(ctx context.Context, key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	return s.withLock(func() error {
		if err := writeAtomic(p, value); err != nil {
			return err
		}
		// Safety net in case the file pre-existed with other bits.
		if err := os.Chmod(p, 0600); err != nil {
			s.logger.Warn("failed to set permissions on session record", "error", err)
		}
		s.logger.Debug("session record written", "path", p)
		return nil
	})
}

// Delete removes the record file. Missing files are ignored.
func (s *FileRecordStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	return s.withLock(func() error {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove record file: %w", err)
		}
		return nil
	})
}

func (s *FileRecordStore) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockFile, err := os.OpenFile(filepath.Join(s.dir, lockName), os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = lockFile.Close() }()

	if err := lockExclusive(lockFile); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer func() { _ = unlock(lockFile) }()

	return fn()
}

// writeAtomic writes data to a temp file, fsyncs it, and renames it over
// path. On any error the temp file is cleaned up.
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp to record: %w", err)
	}
	return nil
}

// Compile-time interface verification.
var _ session.RecordStore = (*FileRecordStore)(nil)
