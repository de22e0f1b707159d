package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/paper-server/domain"
	"github.com/ViniZap4/paper-server/render"
	"github.com/ViniZap4/paper-server/todo"
	"github.com/ViniZap4/paper-server/workspace"
)

// Intent is a message sent by a presentation surface.
//
// The todo panel sends {type:"add", text}, {type:"toggle", id, index} and
// {type:"remove", id}; the startup screen sends {type:"select-folder"},
// optionally with a path. Either may send {type:"ready"} to get the current
// state. For toggle, id wins over index when both are present.
type Intent struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Index *int   `json:"index,omitempty"`
	ID    string `json:"id,omitempty"`
	Path  string `json:"path,omitempty"`
}

// Bridge applies intents to the workspace stores and pushes the resulting
// state to the surfaces.
//
// One intent is handled at a time: the store mutation, the file write and
// the outgoing render all happen under mu, so every surface sees the list
// move from one persisted state to the next.
type Bridge struct {
	ws  *workspace.Workspace
	hub *Hub
	log zerolog.Logger

	mu sync.Mutex
}

func NewBridge(ws *workspace.Workspace, hub *Hub, logger zerolog.Logger) *Bridge {
	b := &Bridge{
		ws:  ws,
		hub: hub,
		log: logger.With().Str("component", "bridge").Logger(),
	}

	ws.OnNotesChanged(func(c domain.Change) {
		hub.Broadcast(Message{Type: TypeNotesChanged, Change: &c})
	})
	ws.OnFolderChanged(func(dir string) {
		hub.Broadcast(Message{Type: TypeFolderChanged, Directory: dir})
		hub.Broadcast(b.TodoState())
	})

	return b
}

// Dispatch handles one raw message from a surface. Problems with the
// message or the stores are reported back to the surface; the returned
// error is only set when the surface itself could not be written to.
func (b *Bridge) Dispatch(from Surface, raw []byte) error {
	var in Intent
	if err := json.Unmarshal(raw, &in); err != nil {
		return from.Send(errorMessage(domain.Invalid("read message", "%v", err)))
	}

	switch in.Type {
	case "ready":
		if err := from.Send(b.FolderState()); err != nil {
			return err
		}
		return from.Send(b.TodoState())

	case "add":
		_, err := b.apply(from, func(s *todo.Store) (todo.Snapshot, error) {
			snap, _, err := s.Add(in.Text)
			return snap, err
		})
		return err

	case "toggle":
		switch {
		case in.ID != "":
			_, err := b.apply(from, func(s *todo.Store) (todo.Snapshot, error) { return s.Toggle(in.ID) })
			return err
		case in.Index != nil:
			_, err := b.apply(from, func(s *todo.Store) (todo.Snapshot, error) { return s.ToggleAt(*in.Index) })
			return err
		default:
			return from.Send(errorMessage(domain.Invalid("toggle todo", "message has neither id nor index")))
		}

	case "remove":
		_, err := b.apply(from, func(s *todo.Store) (todo.Snapshot, error) { return s.Remove(in.ID) })
		return err

	case "select-folder":
		if in.Path == "" {
			// The host owns the directory picker.
			return from.Send(Message{Type: TypeSelectRequested})
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, err := b.ws.Select(in.Path); err != nil {
			return from.Send(errorMessage(err))
		}
		return nil

	default:
		return from.Send(errorMessage(domain.Invalid("read message", "unknown message type %q", in.Type)))
	}
}

// Add, Toggle, ToggleAt and Remove are the same mutations for callers that
// are not surfaces, such as the HTTP API. Every surface gets the new state.
func (b *Bridge) Add(text string) (todo.Snapshot, error) {
	return b.apply(nil, func(s *todo.Store) (todo.Snapshot, error) {
		snap, _, err := s.Add(text)
		return snap, err
	})
}

func (b *Bridge) Toggle(id string) (todo.Snapshot, error) {
	return b.apply(nil, func(s *todo.Store) (todo.Snapshot, error) { return s.Toggle(id) })
}

func (b *Bridge) ToggleAt(index int) (todo.Snapshot, error) {
	return b.apply(nil, func(s *todo.Store) (todo.Snapshot, error) { return s.ToggleAt(index) })
}

func (b *Bridge) Remove(id string) (todo.Snapshot, error) {
	return b.apply(nil, func(s *todo.Store) (todo.Snapshot, error) { return s.Remove(id) })
}

// apply runs one mutation and renders its outcome. from, when set, always
// gets the resulting state, plus an error message if the mutation failed,
// so a surface that changed optimistically falls back in line. The other
// surfaces only hear about successful mutations.
func (b *Bridge) apply(from Surface, fn func(*todo.Store) (todo.Snapshot, error)) (todo.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	store, err := b.ws.Todos()
	if err != nil {
		if from == nil {
			return todo.Snapshot{}, err
		}
		return todo.Snapshot{}, from.Send(errorMessage(err))
	}

	snap, opErr := fn(store)
	msg := b.todosMessage(snap)

	if opErr == nil {
		b.hub.BroadcastExcept(msg, from)
	} else {
		b.log.Info().Err(opErr).Msg("todo intent rejected")
	}

	if from == nil {
		return snap, opErr
	}
	if err := from.Send(msg); err != nil {
		return snap, err
	}
	if opErr != nil {
		return snap, from.Send(errorMessage(opErr))
	}
	return snap, nil
}

// TodoState renders the current list, or an error message while no folder
// is selected.
func (b *Bridge) TodoState() Message {
	store, err := b.ws.Todos()
	if err != nil {
		return errorMessage(err)
	}
	return b.todosMessage(store.Load())
}

// FolderState tells a startup surface which folder is selected, if any.
func (b *Bridge) FolderState() Message {
	return Message{Type: TypeFolder, Directory: b.ws.Directory()}
}

func (b *Bridge) todosMessage(snap todo.Snapshot) Message {
	panel := render.PanelFrom(snap)
	html, err := render.TodoList(panel)
	if err != nil {
		b.log.Error().Err(err).Msg("failed to render todo list")
	}
	return Message{Type: TypeTodos, Todos: panel.Items, HTML: html, Warning: panel.Warning}
}

func errorMessage(err error) Message {
	return Message{Type: TypeError, Error: domain.Describe(err)}
}
