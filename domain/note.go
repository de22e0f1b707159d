// server/domain/note.go
package domain

import (
	"strings"
	"time"
)

// TodoFileName is the reserved file inside the notes directory that holds
// the todo list. It is never listed or treated as a note.
const TodoFileName = "todos.json"

// TempPrefix starts the name of scratch files written next to a file that is
// being replaced.
const TempPrefix = ".paper-"

// IsReserved reports whether name is one of the files the server keeps for
// itself inside the notes directory.
func IsReserved(name string) bool {
	if name == TodoFileName {
		return true
	}
	return strings.HasPrefix(name, TempPrefix) && strings.HasSuffix(name, ".tmp")
}

type Note struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

type ChangeKind string

const (
	NoteCreated  ChangeKind = "created"
	NoteRenamed  ChangeKind = "renamed"
	NoteDeleted  ChangeKind = "deleted"
	NoteUpdated  ChangeKind = "updated"
	NoteExternal ChangeKind = "external"
)

// Change is the payload of a note store notification. Note is the affected
// note when known; observers usually just re-list.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	Note    *Note      `json:"note,omitempty"`
	OldPath string     `json:"old_path,omitempty"`
}
