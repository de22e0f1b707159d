// server/filesystem/create.go
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ViniZap4/paper-server/domain"
)

const maxNameAttempts = 1000

var stampReplacer = strings.NewReplacer(":", "-", ".", "-")

// Create writes a new empty note named after the current time, for example
// note-2024-01-01T00-00-00-000Z.txt. When that name is taken a counter is
// appended: note-2024-01-01T00-00-00-000Z-1.txt.
func (s *NoteStore) Create() (domain.Note, error) {
	note, err := s.create()
	if err != nil {
		return domain.Note{}, err
	}

	s.log.Debug().Str("note", note.Name).Msg("note created")
	s.notify(domain.Change{Kind: domain.NoteCreated, Note: &note})
	return note, nil
}

func (s *NoteStore) create() (domain.Note, error) {
	const op = "create note"

	s.mu.Lock()
	defer s.mu.Unlock()

	base := "note-" + stampReplacer.Replace(s.now().UTC().Format("2006-01-02T15:04:05.000Z"))

	for n := 0; n < maxNameAttempts; n++ {
		name := base + ".txt"
		if n > 0 {
			name = fmt.Sprintf("%s-%d.txt", base, n)
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			kind := domain.ErrIOFailure
			if errors.Is(err, fs.ErrNotExist) {
				kind = domain.ErrDirectoryUnavailable
			}
			return domain.Note{}, domain.NewOpError(op, path, kind, err)
		}

		info, err := f.Stat()
		closeErr := f.Close()
		if err == nil {
			err = closeErr
		}
		if err != nil {
			return domain.Note{}, domain.NewOpError(op, path, domain.ErrIOFailure, err)
		}
		return noteFromInfo(path, info), nil
	}

	return domain.Note{}, domain.NewOpError(op, s.dir, domain.ErrIOFailure,
		fmt.Errorf("no free name for %s after %d attempts", base, maxNameAttempts))
}

// Rename moves a note to newName inside the same directory. The name is
// trimmed and normalised to NFC before it is checked.
func (s *NoteStore) Rename(note domain.Note, newName string) (domain.Note, error) {
	const op = "rename note"

	name := norm.NFC.String(strings.TrimSpace(newName))
	if err := ValidateName(name); err != nil {
		return domain.Note{}, domain.Invalid(op, "%v", err)
	}
	if err := s.owns(note); err != nil {
		return domain.Note{}, domain.Invalid(op, "%v", err)
	}

	oldPath := filepath.Clean(note.Path)
	newPath := filepath.Join(s.dir, name)
	if newPath == oldPath {
		return note, nil
	}

	renamed, err := func() (domain.Note, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		src, err := os.Stat(oldPath)
		if err != nil {
			return domain.Note{}, domain.NewOpError(op, oldPath, domain.ErrIOFailure, err)
		}

		// Case-insensitive filesystems report the source itself as the
		// destination when only the case changes.
		dst, err := os.Lstat(newPath)
		switch {
		case err == nil && !os.SameFile(src, dst):
			return domain.Note{}, domain.NewOpError(op, newPath, domain.ErrRenameConflict,
				fmt.Errorf("%q already exists", name))
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return domain.Note{}, domain.NewOpError(op, newPath, domain.ErrIOFailure, err)
		}

		if err := os.Rename(oldPath, newPath); err != nil {
			return domain.Note{}, domain.NewOpError(op, oldPath, domain.ErrIOFailure, err)
		}

		info, err := os.Stat(newPath)
		if err != nil {
			return domain.Note{}, domain.NewOpError(op, newPath, domain.ErrIOFailure, err)
		}
		return noteFromInfo(newPath, info), nil
	}()
	if err != nil {
		return domain.Note{}, err
	}

	s.log.Debug().Str("from", note.Name).Str("to", renamed.Name).Msg("note renamed")
	s.notify(domain.Change{Kind: domain.NoteRenamed, Note: &renamed, OldPath: oldPath})
	return renamed, nil
}

// Delete removes a note from disk. Asking the user is the caller's job.
func (s *NoteStore) Delete(note domain.Note) error {
	const op = "delete note"

	if err := s.owns(note); err != nil {
		return domain.Invalid(op, "%v", err)
	}

	s.mu.Lock()
	err := os.Remove(note.Path)
	s.mu.Unlock()
	if err != nil {
		return domain.NewOpError(op, note.Path, domain.ErrIOFailure, err)
	}

	s.log.Debug().Str("note", note.Name).Msg("note deleted")
	s.notify(domain.Change{Kind: domain.NoteDeleted, Note: &note})
	return nil
}
