// server/filesystem/store.go
package filesystem

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/paper-server/domain"
)

// NoteStore owns the note files directly under one directory.
//
// Mutations are serialised by mu. Observers registered with Subscribe are
// called after a mutation has reached the disk and never while mu is held,
// so they may call back into the store.
type NoteStore struct {
	dir string
	log zerolog.Logger
	now func() time.Time

	mu sync.Mutex

	subMu  sync.RWMutex
	subs   map[int]func(domain.Change)
	nextID int

	debounce time.Duration
}

func NewNoteStore(dir string, logger zerolog.Logger) *NoteStore {
	return &NoteStore{
		dir:      filepath.Clean(dir),
		log:      logger.With().Str("component", "notes").Logger(),
		now:      time.Now,
		subs:     make(map[int]func(domain.Change)),
		debounce: 100 * time.Millisecond,
	}
}

func (s *NoteStore) Dir() string {
	return s.dir
}

// Subscribe registers fn for change notifications and returns a function
// that removes it again.
func (s *NoteStore) Subscribe(fn func(domain.Change)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *NoteStore) notify(change domain.Change) {
	s.subMu.RLock()
	fns := make([]func(domain.Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}
