package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/seuros/pacer/internal/directory"
	"github.com/seuros/pacer/internal/models"
)

type goalRequest struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Type              string     `json:"type"`
	TargetValue       float64    `json:"target_value"`
	Unit              string     `json:"unit"`
	TargetDate        *time.Time `json:"target_date"`
	Period            string     `json:"period"`
	TargetWorkoutType string     `json:"target_workout_type"`
	IsActive          *bool      `json:"is_active"`
}

func (r goalRequest) toNewGoal() (directory.NewGoal, error) {
	goalType, err := models.ParseGoalType(r.Type)
	if err != nil {
		return directory.NewGoal{}, err
	}
	period, err := models.ParseGoalPeriod(r.Period)
	if err != nil {
		return directory.NewGoal{}, err
	}
	in := directory.NewGoal{
		Title:       r.Title,
		Description: r.Description,
		Type:        goalType,
		TargetValue: r.TargetValue,
		Unit:        r.Unit,
		TargetDate:  r.TargetDate,
		Period:      period,
	}
	if r.TargetWorkoutType != "" {
		in.TargetWorkoutType = models.WorkoutTypePtr(models.ParseWorkoutType(r.TargetWorkoutType))
	}
	return in, nil
}

// HandleGoalList → GET /api/goals?status=active|completed
func (h *Handler) HandleGoalList(c fiber.Ctx) error {
	var goals []models.Goal
	switch c.Query("status") {
	case "":
		goals = h.dir.Goals()
	case "active":
		goals = h.dir.ActiveGoals()
	case "completed":
		goals = h.dir.CompletedGoals()
	default:
		return badRequest(c, "status must be active or completed")
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	return c.JSON(goals)
}

// HandleGoalCreate → POST /api/goals
func (h *Handler) HandleGoalCreate(c fiber.Ctx) error {
	var req goalRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	in, err := req.toNewGoal()
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext()
	defer cancel()

	goal, err := h.dir.CreateGoal(ctx, in)
	if err != nil {
		return h.failure(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

// HandleGoalUpdate → PUT /api/goals/:id
func (h *Handler) HandleGoalUpdate(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid goal id")
	}
	existing, found := h.dir.Goal(id)
	if !found {
		return notFound(c)
	}

	var req goalRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	in, err := req.toNewGoal()
	if err != nil {
		return badRequest(c, err.Error())
	}

	goal := models.Goal{
		ID:                id,
		Title:             in.Title,
		Description:       in.Description,
		Type:              in.Type,
		TargetValue:       in.TargetValue,
		Unit:              in.Unit,
		TargetDate:        in.TargetDate,
		Period:            in.Period,
		CreatedAt:         existing.CreatedAt,
		IsActive:          req.IsActive == nil || *req.IsActive,
		TargetWorkoutType: in.TargetWorkoutType,
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := h.dir.SetGoal(ctx, goal); err != nil {
		return h.failure(c, err)
	}
	return c.JSON(goal)
}

// HandleGoalDelete → DELETE /api/goals/:id
func (h *Handler) HandleGoalDelete(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid goal id")
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := h.dir.DeleteGoal(ctx, id); err != nil {
		return h.failure(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
