// server/ws/hub.go
package ws

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/paper-server/domain"
	"github.com/ViniZap4/paper-server/todo"
)

// Message is everything the server sends to a presentation surface.
type Message struct {
	Type      string         `json:"type"`
	Todos     []todo.Item    `json:"todos,omitempty"`
	HTML      string         `json:"html,omitempty"`
	Warning   string         `json:"warning,omitempty"`
	Change    *domain.Change `json:"change,omitempty"`
	Directory string         `json:"directory,omitempty"`
	Error     string         `json:"error,omitempty"`
}

const (
	TypeTodos           = "todos"
	TypeNotesChanged    = "notes_changed"
	TypeFolderChanged   = "folder_changed"
	TypeFolder          = "folder"
	TypeSelectRequested = "select-folder-requested"
	TypeError           = "error"
)

// Surface is one connected presentation surface.
type Surface interface {
	Send(Message) error
}

type envelope struct {
	msg    Message
	except Surface
}

type Hub struct {
	clients    map[Surface]bool
	broadcast  chan envelope
	register   chan Surface
	unregister chan Surface
	done       chan struct{}
	mu         sync.RWMutex
	log        zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[Surface]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan Surface),
		unregister: make(chan Surface),
		done:       make(chan struct{}),
		log:        logger.With().Str("component", "hub").Logger(),
	}
}

// Run delivers broadcasts until ctx is done. A surface that fails a send is
// dropped.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-h.register:
			h.mu.Lock()
			h.clients[s] = true
			h.mu.Unlock()

		case s := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, s)
			h.mu.Unlock()

		case env := <-h.broadcast:
			h.mu.Lock()
			for s := range h.clients {
				if s == env.except {
					continue
				}
				if err := s.Send(env.msg); err != nil {
					h.log.Warn().Err(err).Str("type", env.msg.Type).Msg("dropping surface after write error")
					delete(h.clients, s)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Broadcast(msg Message) {
	h.BroadcastExcept(msg, nil)
}

// BroadcastExcept sends msg to every surface but except, which has usually
// been answered directly. When the queue is full the message is dropped;
// surfaces recover on the next one since every message carries full state.
func (h *Hub) BroadcastExcept(msg Message, except Surface) {
	select {
	case h.broadcast <- envelope{msg: msg, except: except}:
	default:
		h.log.Warn().Str("type", msg.Type).Msg("broadcast queue full, message dropped")
	}
}

func (h *Hub) Register(s Surface) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

func (h *Hub) Unregister(s Surface) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
