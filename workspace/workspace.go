// Package workspace ties the configured notes directory to the stores that
// work on it.
//
// A Workspace is built from an explicit *config.State. Selecting or
// resetting the folder tears the stores down and builds new ones in place;
// callers fetch the current stores through Notes and Todos every time they
// need them instead of holding on to them.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/paper-server/config"
	"github.com/ViniZap4/paper-server/domain"
	"github.com/ViniZap4/paper-server/filesystem"
	"github.com/ViniZap4/paper-server/todo"
)

type Workspace struct {
	state *config.State
	log   zerolog.Logger

	mu       sync.RWMutex
	current  *attachment
	watchCtx context.Context

	lisMu         sync.Mutex
	noteListeners []func(domain.Change)
	dirListeners  []func(dir string)
}

type attachment struct {
	dir         string
	notes       *filesystem.NoteStore
	todos       *todo.Store
	unsubscribe func()
	stopWatch   context.CancelFunc
}

func New(state *config.State, logger zerolog.Logger) *Workspace {
	return &Workspace{
		state: state,
		log:   logger.With().Str("component", "workspace").Logger(),
	}
}

// Attach builds the stores for the directory saved in the state, creating
// the directory when it is missing.
func (w *Workspace) Attach() error {
	dir := w.state.NotesDirectory()
	if dir == "" {
		return domain.NewOpError("open notes folder", "", domain.ErrConfigurationMissing, nil)
	}

	a, err := w.prepare("open notes folder", dir)
	if err != nil {
		return err
	}
	w.swap(a)
	return nil
}

// Select makes dir the notes directory, persists it and rebuilds the stores.
// The returned path is the absolute form that was saved.
func (w *Workspace) Select(dir string) (string, error) {
	const op = "select notes folder"

	dir, err := expand(strings.TrimSpace(dir))
	if err != nil {
		return "", domain.NewOpError(op, dir, domain.ErrValidation, err)
	}
	if dir == "" {
		return "", domain.Invalid(op, "folder path must not be empty")
	}

	a, err := w.prepare(op, dir)
	if err != nil {
		return "", err
	}
	if err := w.state.SetNotesDirectory(a.dir); err != nil {
		return "", domain.NewOpError(op, a.dir, domain.ErrIOFailure, err)
	}

	w.swap(a)
	w.log.Info().Str("dir", a.dir).Msg("notes folder selected")
	w.folderChanged(a.dir)
	return a.dir, nil
}

// Reset forgets the notes directory. Until a new one is selected Notes and
// Todos return ErrConfigurationMissing. Nothing on disk is removed.
func (w *Workspace) Reset() error {
	if err := w.state.ClearNotesDirectory(); err != nil {
		return domain.NewOpError("reset notes folder", "", domain.ErrIOFailure, err)
	}

	w.swap(nil)
	w.log.Info().Msg("notes folder reset")
	w.folderChanged("")
	return nil
}

// Close detaches the stores without touching the saved state.
func (w *Workspace) Close() {
	w.swap(nil)
}

func (w *Workspace) Directory() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == nil {
		return ""
	}
	return w.current.dir
}

func (w *Workspace) Notes() (*filesystem.NoteStore, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == nil {
		return nil, domain.NewOpError("open notes", "", domain.ErrConfigurationMissing, nil)
	}
	return w.current.notes, nil
}

func (w *Workspace) Todos() (*todo.Store, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == nil {
		return nil, domain.NewOpError("open todos", "", domain.ErrConfigurationMissing, nil)
	}
	return w.current.todos, nil
}

// Watch makes the current and every later note store watch its directory
// for outside changes until ctx is done.
func (w *Workspace) Watch(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.watchCtx = ctx
	if w.current != nil && w.current.stopWatch == nil {
		w.startWatch(w.current)
	}
}

// OnNotesChanged registers fn for changes of whichever note store is
// attached, across folder changes.
func (w *Workspace) OnNotesChanged(fn func(domain.Change)) {
	w.lisMu.Lock()
	w.noteListeners = append(w.noteListeners, fn)
	w.lisMu.Unlock()
}

// OnFolderChanged registers fn for select and reset. dir is empty on reset.
func (w *Workspace) OnFolderChanged(fn func(dir string)) {
	w.lisMu.Lock()
	w.dirListeners = append(w.dirListeners, fn)
	w.lisMu.Unlock()
}

func (w *Workspace) prepare(op, dir string) (*attachment, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, domain.NewOpError(op, dir, domain.ErrValidation, err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, domain.NewOpError(op, abs, domain.ErrDirectoryUnavailable, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, domain.NewOpError(op, abs, domain.ErrDirectoryUnavailable, err)
	}
	if !info.IsDir() {
		return nil, domain.NewOpError(op, abs, domain.ErrDirectoryUnavailable, fmt.Errorf("%s is not a directory", abs))
	}

	todos := todo.NewStore(abs, w.log)
	if err := todos.Initialize(); err != nil {
		return nil, err
	}

	return &attachment{
		dir:   abs,
		notes: filesystem.NewNoteStore(abs, w.log),
		todos: todos,
	}, nil
}

func (w *Workspace) swap(next *attachment) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if old := w.current; old != nil {
		old.unsubscribe()
		if old.stopWatch != nil {
			old.stopWatch()
		}
	}

	w.current = next
	if next == nil {
		return
	}
	next.unsubscribe = next.notes.Subscribe(w.notesChanged)
	if w.watchCtx != nil {
		w.startWatch(next)
	}
}

// startWatch must be called with mu held.
func (w *Workspace) startWatch(a *attachment) {
	ctx, cancel := context.WithCancel(w.watchCtx)
	a.stopWatch = cancel
	go func() {
		if err := a.notes.Watch(ctx); err != nil {
			w.log.Warn().Err(err).Str("dir", a.dir).Msg("not watching notes folder")
		}
	}()
}

func (w *Workspace) notesChanged(change domain.Change) {
	w.lisMu.Lock()
	fns := append([]func(domain.Change){}, w.noteListeners...)
	w.lisMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

func (w *Workspace) folderChanged(dir string) {
	w.lisMu.Lock()
	fns := append([]func(string){}, w.dirListeners...)
	w.lisMu.Unlock()

	for _, fn := range fns {
		fn(dir)
	}
}

func expand(dir string) (string, error) {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
}
