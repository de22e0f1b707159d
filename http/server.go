// server/http/server.go
package http

import (
	"errors"
	"io/fs"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/paper-server/auth"
	"github.com/ViniZap4/paper-server/domain"
	"github.com/ViniZap4/paper-server/workspace"
	"github.com/ViniZap4/paper-server/ws"
)

type Server struct {
	ws     *workspace.Workspace
	bridge *ws.Bridge
	log    zerolog.Logger
}

func NewServer(w *workspace.Workspace, bridge *ws.Bridge, logger zerolog.Logger) *Server {
	return &Server{
		ws:     w,
		bridge: bridge,
		log:    logger.With().Str("component", "http").Logger(),
	}
}

// NewApp builds the fiber app with every route mounted. Note names are
// taken from the path, so the path is unescaped before routing.
func NewApp(s *Server, authCfg auth.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "paper",
		UnescapePath:          true,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type," + auth.Header,
	}))
	app.Use(requestLogger(s.log))

	api := app.Group("/api", auth.Middleware(authCfg))
	api.Get("/folder", s.HandleGetFolder)
	api.Post("/folder", s.HandleSelectFolder)
	api.Delete("/folder", s.HandleResetFolder)

	api.Get("/notes", s.HandleNotes)
	api.Post("/notes", s.HandleCreateNote)
	api.Get("/notes/:name", s.HandleGetNote)
	api.Put("/notes/:name", s.HandleUpdateNote)
	api.Post("/notes/:name/rename", s.HandleRenameNote)
	api.Delete("/notes/:name", s.HandleDeleteNote)

	api.Get("/todos", s.HandleTodos)
	api.Post("/todos", s.HandleAddTodo)
	api.Post("/todos/:id/toggle", s.HandleToggleTodo)
	api.Delete("/todos/:id", s.HandleRemoveTodo)

	views := app.Group("/views", auth.Middleware(authCfg))
	views.Get("/todos", s.HandleTodoView)
	views.Get("/startup", s.HandleStartupView)

	sockets := app.Group("/ws", auth.Middleware(authCfg), upgradeOnly)
	sockets.Get("/todos", websocket.New(s.HandleTodoSocket))
	sockets.Get("/startup", websocket.New(s.HandleStartupSocket))

	return app
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// statusFor maps the store error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrConfigurationMissing):
		return fiber.StatusPreconditionFailed
	case errors.Is(err, domain.ErrDirectoryUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrRenameConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrTodoNotFound), errors.Is(err, fs.ErrNotExist):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	msg := domain.Describe(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		msg = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusFor(err)
		}
		logger.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("took", time.Since(start)).
			Msg("request")
		return err
	}
}
