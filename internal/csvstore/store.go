package csvstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Options locate the submissions file.
type Options struct {
	// DataDir is the primary directory, created when absent.
	DataDir string
	// FileName is the CSV file name inside the chosen directory.
	FileName string
	// FallbackDir is a directory name under os.TempDir used when DataDir
	// cannot hold the file.
	FallbackDir string
	// TempDir overrides os.TempDir for the fallback location.
	TempDir string
}

// Store appends records to a single CSV file. The path is fixed for the
// lifetime of the Store.
type Store struct {
	mutex    sync.Mutex
	path     string
	fallback bool
	logger   *slog.Logger
}

// Open prepares the submissions file and returns a Store bound to it. A
// failure at the primary location is logged and the fallback location is
// used instead; only a failure at both locations is returned.
func Open(opts Options, logger *slog.Logger) (*Store, error) {
	primary := filepath.Join(opts.DataDir, opts.FileName)

	err := ensureFile(opts.DataDir, primary)
	if err == nil {
		logger.Info("Submission store ready", slog.String("path", primary))
		return &Store{path: primary, logger: logger}, nil
	}

	logger.Warn("Unable to set up data directory, falling back to temp storage",
		slog.String("data_dir", opts.DataDir),
		slog.Any("err", err))

	tmp := opts.TempDir
	if tmp == "" {
		tmp = os.TempDir()
	}
	dir := filepath.Join(tmp, opts.FallbackDir)
	fallback := filepath.Join(dir, opts.FileName)

	if err := ensureFile(dir, fallback); err != nil {
		return nil, fmt.Errorf("set up fallback store %s: %w", fallback, err)
	}

	logger.Info("Submission store ready", slog.String("path", fallback), slog.Bool("fallback", true))
	return &Store{path: fallback, fallback: true, logger: logger}, nil
}

// ensureFile creates dir and a header-only file at path unless the file
// already exists. An existing file is left untouched.
func ensureFile(dir, path string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		info, statErr := os.Stat(path)
		if statErr != nil {
			return statErr
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%s is not a regular file", path)
		}
		return checkWritable(path)
	}
	if err != nil {
		return err
	}

	if _, err := f.WriteString(Header); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func checkWritable(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	return f.Close()
}

// Path returns the file submissions are appended to.
func (s *Store) Path() string {
	return s.path
}

// Fallback reports whether the store lives at the fallback location.
func (s *Store) Fallback() bool {
	return s.fallback
}

// Append writes one line for r. Concurrent calls are serialised and each
// record is written with a single write call.
func (s *Store) Append(r Record) error {
	line := r.Line()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}

	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", s.path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}

	return nil
}
