// Package httpapi exposes the dialogue engine over HTTP.
package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/engine"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
	errx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/core/error"
	logx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/pkg/logger"
)

// ChatRequest is the POST /api/chat body.
type ChatRequest struct {
	Message   string `json:"message" validate:"required,min=1,max=1000"`
	SessionID string `json:"session_id" validate:"omitempty,max=64"`
}

// ChatResponse mirrors the engine reply. Sources is empty unless the
// informational path ran.
type ChatResponse struct {
	Reply     string   `json:"reply"`
	Intent    string   `json:"intent"`
	SessionID string   `json:"session_id"`
	Sources   []string `json:"sources"`
}

// Server wires the engine into a fiber app.
type Server struct {
	app      *fiber.App
	engine   *engine.Engine
	lookup   model.CutoffLookup
	validate *validator.Validate
	college  model.CollegeConfig
}

func New(eng *engine.Engine, lookup model.CutoffLookup, college model.CollegeConfig) *Server {
	s := &Server{
		engine:   eng,
		lookup:   lookup,
		validate: validator.New(),
		college:  college,
	}

	app := fiber.New(fiber.Config{
		AppName:      "admission-assistant",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	api := app.Group("/api")
	api.Post("/chat", s.handleChat)
	api.Get("/health", s.handleHealth)
	api.Get("/branches", s.handleBranches)

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	logx.Info().Str("addr", addr).Msg("http server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "message must be 1-1000 characters")
	}

	reply, err := s.engine.Handle(c.Context(), engine.Request{
		SessionID: req.SessionID,
		ClientKey: c.IP(),
		Message:   req.Message,
	})
	if err != nil {
		return err
	}

	sources := reply.Sources
	if sources == nil {
		sources = []string{}
	}
	return c.JSON(ChatResponse{
		Reply:     reply.Text,
		Intent:    string(reply.Intent),
		SessionID: reply.SessionID,
		Sources:   sources,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"college": s.college.ShortName,
	})
}

func (s *Server) handleBranches(c *fiber.Ctx) error {
	branches, err := s.lookup.Branches(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"branches": branches})
}

// errorHandler maps application errors to HTTP statuses; AppError carries its
// own status and user-facing message.
func errorHandler(c *fiber.Ctx, err error) error {
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(fiber.Map{"error": appErr.Message})
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}
	logx.Error().Err(err).Msg("unhandled request error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": errx.SystemErrorMessage})
}
