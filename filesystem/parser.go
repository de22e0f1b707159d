// server/filesystem/parser.go
package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ViniZap4/paper-server/domain"
)

// List returns the regular files directly under the notes directory in
// directory order. Subdirectories and reserved files are skipped.
func (s *NoteStore) List() ([]domain.Note, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, domain.NewOpError("list notes", s.dir, domain.ErrDirectoryUnavailable, err)
	}

	notes := make([]domain.Note, 0, len(entries))
	for _, entry := range entries {
		if domain.IsReserved(entry.Name()) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue // Removed mid-listing, broken link or not a file
		}
		notes = append(notes, noteFromInfo(path, info))
	}

	return notes, nil
}

// Resolve maps a bare file name to the note it names.
func (s *NoteStore) Resolve(name string) (domain.Note, error) {
	const op = "open note"

	if err := ValidateName(name); err != nil {
		return domain.Note{}, domain.Invalid(op, "%v", err)
	}

	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return domain.Note{}, domain.NewOpError(op, path, domain.ErrIOFailure, err)
	}
	if !info.Mode().IsRegular() {
		return domain.Note{}, domain.Invalid(op, "%q is not a file", name)
	}

	return noteFromInfo(path, info), nil
}

func (s *NoteStore) Read(note domain.Note) (string, error) {
	const op = "open note"

	if err := s.owns(note); err != nil {
		return "", domain.Invalid(op, "%v", err)
	}

	data, err := os.ReadFile(note.Path)
	if err != nil {
		return "", domain.NewOpError(op, note.Path, domain.ErrIOFailure, err)
	}
	return string(data), nil
}

// Write replaces the content of an existing note.
func (s *NoteStore) Write(note domain.Note, content string) (domain.Note, error) {
	const op = "save note"

	if err := s.owns(note); err != nil {
		return domain.Note{}, domain.Invalid(op, "%v", err)
	}

	updated, err := func() (domain.Note, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		info, err := os.Stat(note.Path)
		if err != nil {
			return domain.Note{}, domain.NewOpError(op, note.Path, domain.ErrIOFailure, err)
		}
		if err := WriteFileAtomic(note.Path, []byte(content), info.Mode().Perm()); err != nil {
			return domain.Note{}, domain.NewOpError(op, note.Path, domain.ErrIOFailure, err)
		}
		info, err = os.Stat(note.Path)
		if err != nil {
			return domain.Note{}, domain.NewOpError(op, note.Path, domain.ErrIOFailure, err)
		}
		return noteFromInfo(note.Path, info), nil
	}()
	if err != nil {
		return domain.Note{}, err
	}

	s.notify(domain.Change{Kind: domain.NoteUpdated, Note: &updated})
	return updated, nil
}

// ValidateName checks a note file name as typed by a user.
func ValidateName(name string) error {
	switch {
	case name == "":
		return errors.New("name must not be empty")
	case strings.ContainsAny(name, `/\`):
		return errors.New("name must not contain path separators")
	case name == "." || name == "..":
		return errors.New("name is not a valid file name")
	case domain.IsReserved(name):
		return errors.New("name is reserved")
	}
	return nil
}

func (s *NoteStore) owns(note domain.Note) error {
	path := filepath.Clean(note.Path)
	if filepath.Dir(path) != s.dir || domain.IsReserved(filepath.Base(path)) {
		return &fs.PathError{Op: "resolve", Path: note.Path, Err: errors.New("not a note in " + s.dir)}
	}
	return nil
}

func noteFromInfo(path string, info fs.FileInfo) domain.Note {
	return domain.Note{
		Name:    filepath.Base(path),
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
