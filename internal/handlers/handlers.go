package handlers

import (
	"context"
	"errors"
	"time"

	fiberzap "github.com/gofiber/contrib/v3/zap"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seuros/pacer/internal/directory"
	"github.com/seuros/pacer/internal/middleware"
	"github.com/seuros/pacer/internal/models"
	"github.com/seuros/pacer/internal/progress"
	"github.com/seuros/pacer/internal/store"
)

const requestTimeout = 10 * time.Second

// Handler serves the JSON API over a goal directory
type Handler struct {
	dir    *directory.Directory
	logger *zap.Logger
}

func New(dir *directory.Directory, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{dir: dir, logger: logger}
}

// NewApp builds a fiber app with request logging and every route registered.
// A non-empty apiToken protects the /api routes.
func NewApp(h *Handler, cfg fiber.Config, apiToken string) *fiber.App {
	app := fiber.New(cfg)
	app.Use(fiberzap.New(fiberzap.Config{
		Logger: h.logger,
	}))
	if apiToken != "" {
		app.Use("/api", middleware.TokenAuth(apiToken))
	}
	h.Register(app)
	return app
}

func (h *Handler) Register(router fiber.Router) {
	router.Get("/healthz", h.HandleHealth)

	api := router.Group("/api")
	api.Get("/goals", h.HandleGoalList)
	api.Post("/goals", h.HandleGoalCreate)
	api.Put("/goals/:id", h.HandleGoalUpdate)
	api.Delete("/goals/:id", h.HandleGoalDelete)
	api.Get("/goals/:id/progress", h.HandleGoalProgress)
	api.Post("/goals/:id/progress", h.HandleProgressAdd)
	api.Post("/goals/:id/calendar-progress", h.HandleCalendarProgress)
	api.Get("/progress", h.HandleProgressList)
	api.Post("/workouts", h.HandleWorkoutIngest)
}

// HandleHealth → GET /healthz
func (h *Handler) HandleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "ok",
		"goals":       len(h.dir.Goals()),
		"last_reload": h.dir.LastReload(),
	})
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func parseID(c fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func notFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "goal not found"})
}

// failure maps mutation errors onto status codes
func (h *Handler) failure(c fiber.Ctx, err error) error {
	switch {
	case store.IsStorageError(err):
		h.logger.Error("storage failure", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage failure"})
	case errors.Is(err, directory.ErrGoalNotFound):
		return notFound(c)
	case errors.Is(err, directory.ErrGoalTypeChanged),
		errors.Is(err, models.ErrInvalidGoalType),
		errors.Is(err, models.ErrMissingTargetWorkout),
		errors.Is(err, models.ErrInvalidGoalPeriod),
		errors.Is(err, models.ErrMissingGoalTitle),
		errors.Is(err, models.ErrTargetDateBeforeCreated):
		return badRequest(c, err.Error())
	case errors.Is(err, progress.ErrUnknownPeriod):
		return badRequest(c, "goal has no period")
	default:
		h.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
