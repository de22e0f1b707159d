// server/http/handlers.go
package http

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/ViniZap4/paper-server/domain"
	"github.com/ViniZap4/paper-server/filesystem"
	"github.com/ViniZap4/paper-server/render"
	"github.com/ViniZap4/paper-server/todo"
)

type todosResponse struct {
	Todos   []todo.Item `json:"todos"`
	Warning string      `json:"warning,omitempty"`
}

type noteResponse struct {
	domain.Note
	Content string `json:"content"`
}

func todosFrom(snap todo.Snapshot) todosResponse {
	p := render.PanelFrom(snap)
	return todosResponse{Todos: p.Items, Warning: p.Warning}
}

// needsConfirmation answers a destructive request that did not carry
// confirm=true with the question the caller should put to the user.
func needsConfirmation(c *fiber.Ctx, prompt string) error {
	return c.Status(fiber.StatusPreconditionRequired).JSON(fiber.Map{
		"error":  "confirmation required",
		"prompt": prompt,
	})
}

func (s *Server) HandleGetFolder(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"directory": s.ws.Directory()})
}

func (s *Server) HandleSelectFolder(c *fiber.Ctx) error {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil {
		return domain.Invalid("select notes folder", "%v", err)
	}

	dir, err := s.ws.Select(req.Path)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"directory": dir})
}

func (s *Server) HandleResetFolder(c *fiber.Ctx) error {
	if !c.QueryBool("confirm") {
		return needsConfirmation(c, "Forget the current notes folder? Notes and todos stay on disk.")
	}
	if err := s.ws.Reset(); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) HandleNotes(c *fiber.Ctx) error {
	store, err := s.ws.Notes()
	if err != nil {
		return err
	}

	notes, err := store.List()
	if err != nil {
		return err
	}
	if pattern := c.Query("match"); pattern != "" {
		if notes, err = filesystem.Match(notes, pattern); err != nil {
			return err
		}
	}
	if notes == nil {
		notes = []domain.Note{}
	}
	return c.JSON(notes)
}

func (s *Server) HandleCreateNote(c *fiber.Ctx) error {
	store, err := s.ws.Notes()
	if err != nil {
		return err
	}

	note, err := store.Create()
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (s *Server) resolve(c *fiber.Ctx) (*filesystem.NoteStore, domain.Note, error) {
	store, err := s.ws.Notes()
	if err != nil {
		return nil, domain.Note{}, err
	}
	note, err := store.Resolve(c.Params("name"))
	if err != nil {
		return nil, domain.Note{}, err
	}
	return store, note, nil
}

func (s *Server) HandleGetNote(c *fiber.Ctx) error {
	store, note, err := s.resolve(c)
	if err != nil {
		return err
	}

	content, err := store.Read(note)
	if err != nil {
		return err
	}
	return c.JSON(noteResponse{Note: note, Content: content})
}

func (s *Server) HandleUpdateNote(c *fiber.Ctx) error {
	store, note, err := s.resolve(c)
	if err != nil {
		return err
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return domain.Invalid("save note", "%v", err)
	}

	note, err = store.Write(note, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(noteResponse{Note: note, Content: req.Content})
}

func (s *Server) HandleRenameNote(c *fiber.Ctx) error {
	store, note, err := s.resolve(c)
	if err != nil {
		return err
	}

	var req struct {
		NewName string `json:"new_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return domain.Invalid("rename note", "%v", err)
	}

	renamed, err := store.Rename(note, req.NewName)
	if err != nil {
		return err
	}
	return c.JSON(renamed)
}

func (s *Server) HandleDeleteNote(c *fiber.Ctx) error {
	store, note, err := s.resolve(c)
	if err != nil {
		return err
	}

	if !c.QueryBool("confirm") {
		return needsConfirmation(c, "Delete "+note.Name+"? This cannot be undone.")
	}
	if err := store.Delete(note); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) HandleTodos(c *fiber.Ctx) error {
	store, err := s.ws.Todos()
	if err != nil {
		return err
	}
	return c.JSON(todosFrom(store.Load()))
}

func (s *Server) HandleAddTodo(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return domain.Invalid("add todo", "%v", err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return domain.Invalid("add todo", "text must not be blank")
	}

	snap, err := s.bridge.Add(req.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(todosFrom(snap))
}

// HandleToggleTodo accepts either an entry id or, for callers that only
// know the display order, a numeric index.
func (s *Server) HandleToggleTodo(c *fiber.Ctx) error {
	ref := c.Params("id")

	var (
		snap todo.Snapshot
		err  error
	)
	if index, convErr := strconv.Atoi(ref); convErr == nil {
		snap, err = s.bridge.ToggleAt(index)
	} else {
		snap, err = s.bridge.Toggle(ref)
	}
	if err != nil {
		return err
	}
	return c.JSON(todosFrom(snap))
}

func (s *Server) HandleRemoveTodo(c *fiber.Ctx) error {
	snap, err := s.bridge.Remove(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(todosFrom(snap))
}

// HandleTodoView serves the todo panel, or the startup screen while no
// folder is selected.
func (s *Server) HandleTodoView(c *fiber.Ctx) error {
	store, err := s.ws.Todos()
	if errors.Is(err, domain.ErrConfigurationMissing) {
		return s.HandleStartupView(c)
	}
	if err != nil {
		return err
	}

	page, err := render.TodoPanel(render.PanelFrom(store.Load()))
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(page)
}

func (s *Server) HandleStartupView(c *fiber.Ctx) error {
	page, err := render.Startup()
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(page)
}

func (s *Server) HandleTodoSocket(c *websocket.Conn) {
	s.bridge.HandleConnection(c, s.bridge.TodoState())
}

func (s *Server) HandleStartupSocket(c *websocket.Conn) {
	s.bridge.HandleConnection(c, s.bridge.FolderState())
}
