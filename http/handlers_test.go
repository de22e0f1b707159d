package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/paper-server/auth"
	"github.com/ViniZap4/paper-server/config"
	"github.com/ViniZap4/paper-server/domain"
	"github.com/ViniZap4/paper-server/workspace"
	"github.com/ViniZap4/paper-server/ws"
)

type fixture struct {
	app *fiber.App
	ws  *workspace.Workspace
}

func newFixture(t *testing.T, selected bool) fixture {
	t.Helper()

	state, err := config.OpenState(filepath.Join(t.TempDir(), "state.yaml"))
	require.NoError(t, err)
	w := workspace.New(state, zerolog.Nop())
	if selected {
		_, err := w.Select(t.TempDir())
		require.NoError(t, err)
	}

	hub := ws.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	srv := NewServer(w, ws.NewBridge(w, hub, zerolog.Nop()), zerolog.Nop())
	return fixture{app: NewApp(srv, auth.Config{Token: "dev"}), ws: w}
}

func (f fixture) do(t *testing.T, method, target, body string) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(auth.Header, "dev")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestAPI_RequiresToken(t *testing.T) {
	f := newFixture(t, true)

	resp, err := f.app.Test(httptest.NewRequest("GET", "/api/todos", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_Unconfigured(t *testing.T) {
	f := newFixture(t, false)

	code, body := f.do(t, "GET", "/api/notes", "")
	assert.Equal(t, fiber.StatusPreconditionFailed, code)
	assert.Contains(t, decode[map[string]string](t, body)["error"], "no notes folder selected")

	code, _ = f.do(t, "POST", "/api/todos", `{"text":"x"}`)
	assert.Equal(t, fiber.StatusPreconditionFailed, code)

	code, body = f.do(t, "GET", "/views/todos", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, string(body), "Select a folder to get started")
}

func TestAPI_Folder(t *testing.T) {
	f := newFixture(t, false)
	dir := filepath.Join(t.TempDir(), "notes")

	code, body := f.do(t, "POST", "/api/folder", `{"path":"`+dir+`"}`)
	require.Equal(t, fiber.StatusOK, code, string(body))
	assert.Equal(t, dir, decode[map[string]string](t, body)["directory"])
	assert.FileExists(t, filepath.Join(dir, domain.TodoFileName))

	code, body = f.do(t, "GET", "/api/folder", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, dir, decode[map[string]string](t, body)["directory"])

	code, body = f.do(t, "DELETE", "/api/folder", "")
	assert.Equal(t, fiber.StatusPreconditionRequired, code)
	assert.NotEmpty(t, decode[map[string]string](t, body)["prompt"])
	assert.Equal(t, dir, f.ws.Directory())

	code, _ = f.do(t, "DELETE", "/api/folder?confirm=true", "")
	assert.Equal(t, fiber.StatusNoContent, code)
	assert.Empty(t, f.ws.Directory())
	assert.DirExists(t, dir, "reset leaves the folder on disk")
}

func TestAPI_NoteLifecycle(t *testing.T) {
	f := newFixture(t, true)

	code, body := f.do(t, "POST", "/api/notes", "")
	require.Equal(t, fiber.StatusCreated, code, string(body))
	created := decode[domain.Note](t, body)
	assert.True(t, strings.HasPrefix(created.Name, "note-"))

	code, body = f.do(t, "PUT", "/api/notes/"+created.Name, `{"content":"hello"}`)
	require.Equal(t, fiber.StatusOK, code, string(body))

	code, body = f.do(t, "GET", "/api/notes/"+created.Name, "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "hello", decode[noteResponse](t, body).Content)

	code, body = f.do(t, "POST", "/api/notes/"+created.Name+"/rename", `{"new_name":"groceries list.txt"}`)
	require.Equal(t, fiber.StatusOK, code, string(body))
	assert.Equal(t, "groceries list.txt", decode[domain.Note](t, body).Name)

	code, body = f.do(t, "GET", "/api/notes?match=groceries*", "")
	require.Equal(t, fiber.StatusOK, code)
	require.Len(t, decode[[]domain.Note](t, body), 1)

	name := url.PathEscape("groceries list.txt")
	code, _ = f.do(t, "DELETE", "/api/notes/"+name, "")
	assert.Equal(t, fiber.StatusPreconditionRequired, code)

	code, _ = f.do(t, "DELETE", "/api/notes/"+name+"?confirm=true", "")
	assert.Equal(t, fiber.StatusNoContent, code)

	code, body = f.do(t, "GET", "/api/notes", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Empty(t, decode[[]domain.Note](t, body))

	code, _ = f.do(t, "GET", "/api/notes/"+name, "")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestAPI_RenameConflictAndValidation(t *testing.T) {
	f := newFixture(t, true)
	dir := f.ws.Directory()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0o644))

	code, _ := f.do(t, "POST", "/api/notes/a.txt/rename", `{"new_name":"b.txt"}`)
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = f.do(t, "POST", "/api/notes/a.txt/rename", `{"new_name":"   "}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = f.do(t, "POST", "/api/notes/a.txt/rename", `{"new_name":"x/y.txt"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = f.do(t, "GET", "/api/notes/todos.json", "")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = f.do(t, "GET", "/api/notes?match=%5B", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestAPI_Todos(t *testing.T) {
	f := newFixture(t, true)

	code, body := f.do(t, "POST", "/api/todos", `{"text":"buy milk"}`)
	require.Equal(t, fiber.StatusCreated, code, string(body))
	code, body = f.do(t, "POST", "/api/todos", `{"text":"call bob"}`)
	require.Equal(t, fiber.StatusCreated, code)
	list := decode[todosResponse](t, body).Todos
	require.Len(t, list, 2)

	code, body = f.do(t, "POST", "/api/todos/"+list[1].ID+"/toggle", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.True(t, decode[todosResponse](t, body).Todos[1].Done)

	code, body = f.do(t, "POST", "/api/todos/0/toggle", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.True(t, decode[todosResponse](t, body).Todos[0].Done)

	code, _ = f.do(t, "POST", "/api/todos/5/toggle", "")
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = f.do(t, "POST", "/api/todos", `{"text":"  "}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = f.do(t, "DELETE", "/api/todos/"+list[0].ID, "")
	require.Equal(t, fiber.StatusOK, code)
	remaining := decode[todosResponse](t, body).Todos
	require.Len(t, remaining, 1)
	assert.Equal(t, "call bob", remaining[0].Text)

	code, body = f.do(t, "GET", "/views/todos", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, string(body), "call bob")
	assert.NotContains(t, string(body), "buy milk")
}

func TestAPI_SocketRoutesRequireUpgrade(t *testing.T) {
	f := newFixture(t, true)

	code, _ := f.do(t, "GET", "/ws/todos", "")
	assert.Equal(t, fiber.StatusUpgradeRequired, code)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.NewOpError("x", "", domain.ErrConfigurationMissing, nil): fiber.StatusPreconditionFailed,
		domain.NewOpError("x", "", domain.ErrDirectoryUnavailable, nil): fiber.StatusServiceUnavailable,
		domain.Invalid("x", "bad"):                                       fiber.StatusBadRequest,
		domain.NewOpError("x", "", domain.ErrRenameConflict, nil):       fiber.StatusConflict,
		domain.NewOpError("x", "", domain.ErrTodoNotFound, nil):         fiber.StatusNotFound,
		domain.NewOpError("x", "", domain.ErrIOFailure, os.ErrNotExist): fiber.StatusNotFound,
		domain.NewOpError("x", "", domain.ErrIOFailure, nil):            fiber.StatusInternalServerError,
		domain.NewOpError("x", "", domain.ErrParseFailure, nil):         fiber.StatusInternalServerError,
		fiber.ErrUnauthorized:                                            fiber.StatusUnauthorized,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
