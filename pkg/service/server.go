/*
Package service exposes the rewrite pipeline over HTTP. The API is thin
glue: validation, auth, and JSON shuttling live here, every semantic lives
in the pipeline and its components.
*/
package service

import (
	"github.com/charmbracelet/log"
	"github.com/cohesivestack/valgo"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/theapemachine/senseable-go/pkg/auth"
	"github.com/theapemachine/senseable-go/pkg/memory"
	"github.com/theapemachine/senseable-go/pkg/pipeline"
	"github.com/theapemachine/senseable-go/pkg/saf"
	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

/*
Server is safe for concurrent use because the pipeline and stores are.
*/
type Server struct {
	app          *fiber.App
	pipeline     *pipeline.Pipeline
	fingerprints saf.Store
	history      memory.Store
	auth         *auth.Service
	addr         string
}

type ServerOption func(*Server)

func NewServer(
	pl *pipeline.Pipeline,
	fingerprints saf.Store,
	history memory.Store,
	authService *auth.Service,
	options ...ServerOption,
) *Server {
	server := &Server{
		app: fiber.New(fiber.Config{
			AppName:      "senseable",
			ServerHeader: "Senseable-Server",
		}),
		pipeline:     pl,
		fingerprints: fingerprints,
		history:      history,
		auth:         authService,
		addr:         ":3210",
	}

	for _, option := range options {
		option(server)
	}

	server.routes()

	return server
}

func WithAddr(addr string) ServerOption {
	return func(server *Server) { server.addr = addr }
}

func (server *Server) routes() {
	server.app.Use(logger.New(), healthcheck.New())

	server.app.Get("/", func(ctx fiber.Ctx) error {
		return ctx.SendString("OK")
	})
	server.app.Post("/token", server.handleToken)

	api := server.app.Group("", server.requireAuth)
	api.Post("/rewrite", server.handleRewrite)
	api.Post("/analyze", server.handleAnalyze)
	api.Get("/profile/:id", server.handleGetProfile)
	api.Put("/profile/:id", server.handlePutProfile)
	api.Post("/refine/:id", server.handleRefine)
}

func (server *Server) Start() error {
	log.Info("starting server", "addr", server.addr)

	return server.app.Listen(server.addr, fiber.ListenConfig{
		DisableStartupMessage: true,
	})
}

func (server *Server) Shutdown() error {
	return server.app.Shutdown()
}

// App exposes the fiber app for tests.
func (server *Server) App() *fiber.App {
	return server.app
}

const userIDKey = "user_id"

func (server *Server) requireAuth(ctx fiber.Ctx) error {
	userID, err := server.auth.Authenticate(ctx.Get("Authorization"))
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ctx.Locals(userIDKey, userID)

	return ctx.Next()
}

type tokenRequest struct {
	UserID string `json:"user_id"`
}

func (server *Server) handleToken(ctx fiber.Ctx) error {
	var req tokenRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	val := valgo.Is(valgo.String(req.UserID, "user_id").Not().Blank())
	if !val.Valid() {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": val.Errors()})
	}

	token, err := server.auth.GenerateToken(req.UserID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"token": token})
}

type rewriteRequest struct {
	Text    string           `json:"text"`
	Options pipeline.Options `json:"options"`
}

func (server *Server) handleRewrite(ctx fiber.Ctx) error {
	var req rewriteRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	val := valgo.Is(valgo.String(req.Text, "text").Not().Blank())
	if !val.Valid() {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": val.Errors()})
	}

	userID := ctx.Locals(userIDKey).(string)

	result, err := server.pipeline.Rewrite(ctx.Context(), req.Text, userID, req.Options)
	if err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return ctx.JSON(result)
}

type analyzeRequest struct {
	Text string `json:"text"`
}

func (server *Server) handleAnalyze(ctx fiber.Ctx) error {
	var req analyzeRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	val := valgo.Is(valgo.String(req.Text, "text").Not().Blank())
	if !val.Valid() {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": val.Errors()})
	}

	userID := ctx.Locals(userIDKey).(string)

	difficulties, err := server.pipeline.Analyze(ctx.Context(), req.Text, userID)
	if err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return ctx.JSON(fiber.Map{"spans": difficulties})
}

func (server *Server) handleGetProfile(ctx fiber.Ctx) error {
	id := ctx.Params("id")
	if id != ctx.Locals(userIDKey).(string) {
		return ctx.SendStatus(fiber.StatusForbidden)
	}

	fingerprint, err := server.fingerprints.Load(ctx.Context(), id)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fingerprint)
}

func (server *Server) handlePutProfile(ctx fiber.Ctx) error {
	id := ctx.Params("id")
	if id != ctx.Locals(userIDKey).(string) {
		return ctx.SendStatus(fiber.StatusForbidden)
	}

	var fingerprint saf.Fingerprint
	if err := ctx.Bind().Body(&fingerprint); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := server.fingerprints.Save(ctx.Context(), id, fingerprint); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fingerprint)
}

type refineRequest struct {
	Span        string `json:"span"`
	Modality    string `json:"modality"`
	Replacement string `json:"replacement"`
	Accepted    bool   `json:"accepted"`
}

func (server *Server) handleRefine(ctx fiber.Ctx) error {
	id := ctx.Params("id")
	if id != ctx.Locals(userIDKey).(string) {
		return ctx.SendStatus(fiber.StatusForbidden)
	}

	var req refineRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	val := valgo.Is(
		valgo.String(req.Span, "span").Not().Blank(),
		valgo.String(req.Modality, "modality").InSlice(modalityNames(), "modality"),
	)
	if !val.Valid() {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": val.Errors()})
	}

	record := memory.NewRecord(id)
	record.Span = req.Span
	record.Modality = taxonomy.Modality(req.Modality)
	record.Replacement = req.Replacement
	record.Accepted = req.Accepted

	if err := server.history.Append(ctx.Context(), record); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(record)
}

func modalityNames() []string {
	names := make([]string, 0, len(taxonomy.Modalities))
	for _, modality := range taxonomy.Modalities {
		names = append(names, string(modality))
	}
	return names
}
