package handlers

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/seuros/pacer/internal/activity"
	"github.com/seuros/pacer/internal/models"
)

type progressResponse struct {
	models.GoalProgress
	Status  models.ProgressStatus   `json:"status"`
	Message string                  `json:"message"`
	Records []models.ProgressRecord `json:"records"`
}

// HandleGoalProgress → GET /api/goals/:id/progress
func (h *Handler) HandleGoalProgress(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid goal id")
	}
	goal, found := h.dir.Goal(id)
	if !found {
		return notFound(c)
	}

	p := h.dir.DerivedProgress(goal)
	return c.JSON(progressResponse{
		GoalProgress: p,
		Status:       p.Status(),
		Message:      p.Message(),
		Records:      nonNilRecords(h.dir.RecordsFor(id)),
	})
}

// HandleProgressAdd → POST /api/goals/:id/progress
func (h *Handler) HandleProgressAdd(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid goal id")
	}
	if _, found := h.dir.Goal(id); !found {
		return notFound(c)
	}

	var req struct {
		Value *float64 `json:"value"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if req.Value == nil {
		return badRequest(c, "value is required")
	}

	ctx, cancel := requestContext()
	defer cancel()

	record, err := h.dir.UpdateProgress(ctx, id, *req.Value)
	if err != nil {
		return h.failure(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// HandleProgressList → GET /api/progress?from=&to=
func (h *Handler) HandleProgressList(c fiber.Ctx) error {
	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		return c.JSON(nonNilRecords(h.dir.Progress()))
	}
	if from == "" || to == "" {
		return badRequest(c, "from and to must be given together")
	}
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return badRequest(c, "invalid from timestamp")
	}
	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return badRequest(c, "invalid to timestamp")
	}

	ctx, cancel := requestContext()
	defer cancel()

	records, err := h.dir.ProgressIn(ctx, models.TimeWindow{Start: start, End: end})
	if err != nil {
		return h.failure(c, err)
	}
	return c.JSON(nonNilRecords(records))
}

// HandleCalendarProgress → POST /api/goals/:id/calendar-progress
// The body is an activity snapshot in any format accepted by /api/workouts.
func (h *Handler) HandleCalendarProgress(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid goal id")
	}
	goal, found := h.dir.Goal(id)
	if !found {
		return notFound(c)
	}

	workouts, err := activity.DecodeEvents(bytes.NewReader(c.Body()))
	if err != nil {
		return badRequest(c, "invalid payload")
	}

	p, err := h.dir.CalendarProgress(goal, workouts)
	if err != nil {
		return h.failure(c, err)
	}
	return c.JSON(calendarResponse{
		CalendarProgress: p,
		Status:           p.Status(),
		Message:          p.Message(),
		Workouts:         len(workouts),
	})
}

type calendarResponse struct {
	models.CalendarProgress
	Status   models.ProgressStatus `json:"status"`
	Message  string                `json:"message"`
	Workouts int                   `json:"workouts"`
}

func nonNilRecords(records []models.ProgressRecord) []models.ProgressRecord {
	if records == nil {
		return []models.ProgressRecord{}
	}
	return records
}

// HandleWorkoutIngest → POST /api/workouts (one event, an array or NDJSON)
func (h *Handler) HandleWorkoutIngest(c fiber.Ctx) error {
	events, err := activity.DecodeEvents(bytes.NewReader(c.Body()))
	if err != nil {
		return badRequest(c, "invalid payload")
	}

	ctx, cancel := requestContext()
	defer cancel()

	updated := 0
	for _, event := range events {
		n, err := h.dir.ProcessWorkout(ctx, event)
		updated += n
		if err != nil {
			return h.failure(c, err)
		}
	}
	return c.JSON(fiber.Map{
		"events":  len(events),
		"updated": updated,
	})
}
