package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/ViniZap4/paper-server/filesystem"
)

const (
	lockTimeout       = 5 * time.Second
	lockRetryInterval = 25 * time.Millisecond
)

// State is the small key-value file that survives restarts. Today it holds
// a single key, notesDirectory.
type State struct {
	path string
	lock *flock.Flock
	// fileMu keeps goroutines from sharing one flock acquisition.
	fileMu sync.Mutex

	mu   sync.RWMutex
	data stateData
}

type stateData struct {
	NotesDirectory string `yaml:"notesDirectory,omitempty"`
}

// OpenState reads the state file at path. A missing file is an empty state.
func OpenState(path string) (*State, error) {
	if path == "" {
		return nil, errors.New("state file path is empty")
	}
	s := &State{
		path: path,
		lock: flock.New(path + ".lock"),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *State) Path() string {
	return s.path
}

// Reload re-reads the file, picking up writes from other processes.
func (s *State) Reload() error {
	var data stateData
	err := s.withLock(false, func() error {
		raw, err := os.ReadFile(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read state: %w", err)
		}
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("failed to parse state %s: %w", s.path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *State) NotesDirectory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.NotesDirectory
}

func (s *State) SetNotesDirectory(dir string) error {
	return s.update(func(d *stateData) { d.NotesDirectory = dir })
}

func (s *State) ClearNotesDirectory() error {
	return s.update(func(d *stateData) { d.NotesDirectory = "" })
}

func (s *State) update(fn func(*stateData)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data
	fn(&next)

	err := s.withLock(true, func() error {
		raw, err := yaml.Marshal(&next)
		if err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}
		return filesystem.WriteFileAtomic(s.path, raw, 0o644)
	})
	if err != nil {
		return err
	}

	s.data = next
	return nil
}

func (s *State) withLock(exclusive bool, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = s.lock.TryLockContext(ctx, lockRetryInterval)
	} else {
		locked, err = s.lock.TryRLockContext(ctx, lockRetryInterval)
	}
	if err != nil {
		return fmt.Errorf("failed to lock state: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock state: timed out after %v", lockTimeout)
	}
	defer func() { _ = s.lock.Unlock() }()

	return fn()
}
