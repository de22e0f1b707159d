// Package todo keeps the todo list in a single JSON file inside the notes
// directory.
//
// The file is the source of truth: every operation reads it, and every
// mutation rewrites it whole through a temp file and a rename. Operations on
// one Store are serialised, so a mutation, its write and the snapshot handed
// back to the caller are never interleaved with another mutation.
package todo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/paper-server/domain"
	"github.com/ViniZap4/paper-server/filesystem"
)

// Snapshot is the list as last read from disk. Warning is set when the file
// could not be read or parsed; Entries is then empty but still usable.
type Snapshot struct {
	Entries domain.TodoList
	Warning error
}

type Store struct {
	dir   string
	path  string
	log   zerolog.Logger
	newID func() string

	mu sync.Mutex
}

func NewStore(dir string, logger zerolog.Logger) *Store {
	s := &Store{
		dir:   dir,
		log:   logger.With().Str("component", "todos").Logger(),
		newID: uuid.NewString,
	}
	if dir != "" {
		s.path = filepath.Join(dir, domain.TodoFileName)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) configured(op string) error {
	if s.dir == "" {
		return domain.NewOpError(op, "", domain.ErrConfigurationMissing, nil)
	}
	return nil
}

// Initialize creates the notes directory and an empty todo file when they
// are missing. An existing file is left alone, even if it is corrupt.
func (s *Store) Initialize() error {
	const op = "initialize todos"
	if err := s.configured(op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.NewOpError(op, s.dir, domain.ErrIOFailure, err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return domain.NewOpError(op, s.path, domain.ErrIOFailure, err)
	}
	_, err = f.WriteString("[]")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return domain.NewOpError(op, s.path, domain.ErrIOFailure, err)
	}

	s.log.Info().Str("path", s.path).Msg("todo file created")
	return nil
}

func (s *Store) Load() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() Snapshot {
	list, err := s.read()
	if err != nil {
		s.log.Warn().Err(err).Msg("showing empty todo list")
		return Snapshot{Entries: domain.TodoList{}, Warning: err}
	}
	return Snapshot{Entries: list}
}

func (s *Store) read() (domain.TodoList, error) {
	const op = "load todos"
	if err := s.configured(op); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.TodoList{}, nil
	}
	if err != nil {
		return nil, domain.NewOpError(op, s.path, domain.ErrIOFailure, err)
	}

	var list domain.TodoList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, domain.NewOpError(op, s.path, domain.ErrParseFailure, err)
	}
	if list == nil {
		list = domain.TodoList{}
	}
	return list, nil
}

// Add appends a new open entry. Text is trimmed; blank text is ignored and
// reported through the boolean.
func (s *Store) Add(text string) (Snapshot, bool, error) {
	const op = "add todo"
	if err := s.configured(op); err != nil {
		return Snapshot{}, false, err
	}

	text = strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.load()
	if text == "" {
		return snap, false, nil
	}

	list := append(snap.Entries.Clone(), domain.TodoEntry{ID: s.newID(), Text: text})
	if err := s.save(op, list); err != nil {
		return snap, false, err
	}
	return Snapshot{Entries: list}, true, nil
}

// Toggle flips Done on the entry with the given id. An unknown id leaves the
// list untouched and returns ErrTodoNotFound.
func (s *Store) Toggle(id string) (Snapshot, error) {
	return s.mutate("toggle todo", func(list domain.TodoList) (domain.TodoList, error) {
		i := IndexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("no todo with id %q", id)
		}
		list[i].Done = !list[i].Done
		return list, nil
	})
}

// ToggleAt flips Done on the entry at index.
func (s *Store) ToggleAt(index int) (Snapshot, error) {
	return s.mutate("toggle todo", func(list domain.TodoList) (domain.TodoList, error) {
		if index < 0 || index >= len(list) {
			return nil, fmt.Errorf("index %d out of range [0,%d)", index, len(list))
		}
		list[index].Done = !list[index].Done
		return list, nil
	})
}

// Remove deletes the entry with the given id. Entries that only had a
// position-derived id get it written out, because their positions shift.
func (s *Store) Remove(id string) (Snapshot, error) {
	return s.mutate("remove todo", func(list domain.TodoList) (domain.TodoList, error) {
		i := IndexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("no todo with id %q", id)
		}
		for j := range list {
			list[j].ID = IDAt(list, j)
		}
		return append(list[:i], list[i+1:]...), nil
	})
}

// mutate runs fn on a copy of the current list and persists the result.
// Errors from fn are reported as ErrTodoNotFound with the list unchanged.
func (s *Store) mutate(op string, fn func(domain.TodoList) (domain.TodoList, error)) (Snapshot, error) {
	if err := s.configured(op); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.load()
	list, err := fn(snap.Entries.Clone())
	if err != nil {
		return snap, domain.NewOpError(op, s.path, domain.ErrTodoNotFound, err)
	}
	if err := s.save(op, list); err != nil {
		return snap, err
	}
	return Snapshot{Entries: list}, nil
}

// Save overwrites the todo file with list.
func (s *Store) Save(list domain.TodoList) error {
	const op = "save todos"
	if err := s.configured(op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(op, list)
}

func (s *Store) save(op string, list domain.TodoList) error {
	data, err := Encode(list)
	if err != nil {
		return domain.NewOpError(op, s.path, domain.ErrIOFailure, err)
	}
	if err := filesystem.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return domain.NewOpError(op, s.path, domain.ErrIOFailure, err)
	}
	s.log.Debug().Int("entries", len(list)).Msg("todo list saved")
	return nil
}

// Encode renders list the way it is stored: a JSON array indented with two
// spaces, HTML characters left as they are.
func Encode(list domain.TodoList) ([]byte, error) {
	if list == nil {
		list = domain.TodoList{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		return nil, fmt.Errorf("failed to marshal todos: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
