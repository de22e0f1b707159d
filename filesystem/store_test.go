package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/paper-server/domain"
)

func newTestStore(t *testing.T) *NoteStore {
	t.Helper()
	s := NewNoteStore(t.TempDir(), zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func names(notes []domain.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Name)
	}
	return out
}

func TestNoteStore_CreateThenList(t *testing.T) {
	s := newTestStore(t)

	notes, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, notes)

	note, err := s.Create()
	require.NoError(t, err)
	assert.Equal(t, "note-2024-01-01T00-00-00-000Z.txt", note.Name)

	data, err := os.ReadFile(note.Path)
	require.NoError(t, err)
	assert.Empty(t, data)

	notes, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"note-2024-01-01T00-00-00-000Z.txt"}, names(notes))
}

func TestNoteStore_CreateSameTickGetsCounter(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Create()
	require.NoError(t, err)
	second, err := s.Create()
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.Equal(t, "note-2024-01-01T00-00-00-000Z-1.txt", second.Name)
	assert.FileExists(t, first.Path)
	assert.FileExists(t, second.Path)
}

func TestNoteStore_CreateWithRealClock(t *testing.T) {
	s := NewNoteStore(t.TempDir(), zerolog.Nop())

	a, err := s.Create()
	require.NoError(t, err)
	b, err := s.Create()
	require.NoError(t, err)
	assert.NotEqual(t, a.Name, b.Name)
}

func TestNoteStore_ListSkipsReservedAndDirectories(t *testing.T) {
	s := newTestStore(t)
	dir := s.Dir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.TodoFileName), []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".paper-123.tmp"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("b"), 0o644))

	notes, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.md"}, names(notes))
}

func TestNoteStore_ListMissingDirectory(t *testing.T) {
	s := NewNoteStore(filepath.Join(t.TempDir(), "gone"), zerolog.Nop())

	_, err := s.List()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDirectoryUnavailable)
	assert.Contains(t, err.Error(), "list notes")
}

func TestNoteStore_Rename(t *testing.T) {
	s := newTestStore(t)
	note, err := s.Create()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(note.Path, []byte("hello"), 0o644))

	var changes []domain.Change
	s.Subscribe(func(c domain.Change) { changes = append(changes, c) })

	renamed, err := s.Rename(note, "  groceries.txt  ")
	require.NoError(t, err)
	assert.Equal(t, "groceries.txt", renamed.Name)
	assert.NoFileExists(t, note.Path)

	data, err := os.ReadFile(renamed.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.Len(t, changes, 1)
	assert.Equal(t, domain.NoteRenamed, changes[0].Kind)
	assert.Equal(t, note.Path, changes[0].OldPath)
}

func TestNoteStore_RenameValidation(t *testing.T) {
	s := newTestStore(t)
	note, err := s.Create()
	require.NoError(t, err)

	notified := false
	s.Subscribe(func(domain.Change) { notified = true })

	for _, name := range []string{"", "   ", "a/b.txt", `a\b.txt`, "..", domain.TodoFileName} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Rename(note, name)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	assert.FileExists(t, note.Path)
	assert.False(t, notified)
}

func TestNoteStore_RenameConflict(t *testing.T) {
	s := newTestStore(t)
	dir := s.Dir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("A"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("B"), 0o644))

	a, err := s.Resolve("a.txt")
	require.NoError(t, err)

	_, err = s.Rename(a, "b.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRenameConflict)

	got, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	assert.Equal(t, "A", string(got))
	got, _ = os.ReadFile(filepath.Join(dir, "b.txt"))
	assert.Equal(t, "B", string(got))
}

func TestNoteStore_RenameOutsideDirectory(t *testing.T) {
	s := newTestStore(t)
	other := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(other, nil, 0o644))

	_, err := s.Rename(domain.Note{Name: "x.txt", Path: other}, "y.txt")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.FileExists(t, other)
}

func TestNoteStore_Delete(t *testing.T) {
	s := newTestStore(t)
	note, err := s.Create()
	require.NoError(t, err)

	var kinds []domain.ChangeKind
	s.Subscribe(func(c domain.Change) { kinds = append(kinds, c.Kind) })

	require.NoError(t, s.Delete(note))
	assert.NoFileExists(t, note.Path)
	assert.Equal(t, []domain.ChangeKind{domain.NoteDeleted}, kinds)

	err = s.Delete(note)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIOFailure)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Len(t, kinds, 1)
}

func TestNoteStore_ReadWrite(t *testing.T) {
	s := newTestStore(t)
	note, err := s.Create()
	require.NoError(t, err)

	updated, err := s.Write(note, "line one\nline two\n")
	require.NoError(t, err)
	assert.Equal(t, int64(len("line one\nline two\n")), updated.Size)

	content, err := s.Read(note)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", content)

	notes, err := s.List()
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestNoteStore_Resolve(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), domain.TodoFileName), []byte("[]"), 0o644))

	_, err := s.Resolve("missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = s.Resolve(domain.TodoFileName)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.Resolve("../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNoteStore_Unsubscribe(t *testing.T) {
	s := newTestStore(t)

	calls := 0
	cancel := s.Subscribe(func(domain.Change) { calls++ })
	_, err := s.Create()
	require.NoError(t, err)
	cancel()
	_, err = s.Create()
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestMatch(t *testing.T) {
	notes := []domain.Note{{Name: "note-1.txt"}, {Name: "todo-ideas.md"}, {Name: "note-2.md"}}

	got, err := Match(notes, "note-*")
	require.NoError(t, err)
	assert.Equal(t, []string{"note-1.txt", "note-2.md"}, names(got))

	got, err = Match(notes, "")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = Match(notes, "[")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestNoteStore_WatchReportsExternalChanges(t *testing.T) {
	s := newTestStore(t)
	s.debounce = 10 * time.Millisecond

	var mu sync.Mutex
	var got []domain.Change
	s.Subscribe(func(c domain.Change) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "outside.txt"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range got {
			if c.Kind == domain.NoteExternal {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
