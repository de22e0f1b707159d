package filesystem

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ViniZap4/paper-server/domain"
)

// Watch reports changes made to the notes directory by other processes as
// NoteExternal notifications until ctx is done. Bursts of events are folded
// into one notification.
func (s *NoteStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return domain.NewOpError("watch notes", s.dir, domain.ErrIOFailure, err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return domain.NewOpError("watch notes", s.dir, domain.ErrDirectoryUnavailable, err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || domain.IsReserved(filepath.Base(ev.Name)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
				fire = timer.C
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("notes watcher error")

		case <-fire:
			timer, fire = nil, nil
			s.notify(domain.Change{Kind: domain.NoteExternal})
		}
	}
}
