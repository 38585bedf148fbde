// Package workout maps completed-activity events onto goal progress records.
package workout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seuros/pacer/internal/models"
)

// ProgressSaver persists a single progress record
type ProgressSaver interface {
	SaveProgress(ctx context.Context, record models.ProgressRecord) error
}

// extractor returns the value an event contributes to a goal, or false when
// the event lacks the metric the goal needs.
type extractor func(goal models.Goal, event models.Workout) (float64, bool)

var extractors = map[models.GoalType]extractor{
	models.GoalTypeWorkoutCount: func(models.Goal, models.Workout) (float64, bool) {
		return 1, true
	},
	models.GoalTypeTotalDuration: func(_ models.Goal, e models.Workout) (float64, bool) {
		return e.DurationMinutes(), true
	},
	models.GoalTypeCalories: func(_ models.Goal, e models.Workout) (float64, bool) {
		if e.Calories == nil {
			return 0, false
		}
		return float64(*e.Calories), true
	},
	models.GoalTypeDistance: func(_ models.Goal, e models.Workout) (float64, bool) {
		if e.DistanceKm == nil {
			return 0, false
		}
		return *e.DistanceKm, true
	},
	models.GoalTypeSteps: func(_ models.Goal, e models.Workout) (float64, bool) {
		if e.Steps == nil {
			return 0, false
		}
		return float64(*e.Steps), true
	},
	models.GoalTypeSpecificWorkout: func(g models.Goal, e models.Workout) (float64, bool) {
		if g.TargetWorkoutType == nil || *g.TargetWorkoutType != e.Type {
			return 0, false
		}
		return 1, true
	},
}

// Extract returns the contribution of event toward goal
func Extract(goal models.Goal, event models.Workout) (float64, bool) {
	fn, ok := extractors[goal.Type]
	if !ok {
		return 0, false
	}
	return fn(goal, event)
}

// Applies reports whether a goal can be affected by a workout of the given type
func Applies(goal models.Goal, workoutType models.WorkoutType) bool {
	if goal.Type != models.GoalTypeSpecificWorkout {
		return true
	}
	return goal.TargetWorkoutType != nil && *goal.TargetWorkoutType == workoutType
}

// RelevantGoals keeps the active goals that apply to workoutType, in order
func RelevantGoals(goals []models.Goal, workoutType models.WorkoutType) []models.Goal {
	relevant := make([]models.Goal, 0, len(goals))
	for _, g := range goals {
		if g.IsActive && Applies(g, workoutType) {
			relevant = append(relevant, g)
		}
	}
	return relevant
}

type Processor struct {
	saver  ProgressSaver
	logger *zap.Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

type Option func(*Processor)

func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(p *Processor) {
		if newID != nil {
			p.newID = newID
		}
	}
}

func NewProcessor(saver ProgressSaver, logger *zap.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Processor{
		saver:  saver,
		logger: logger,
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process writes one progress record per relevant goal the event has a value
// for. It stops at the first failed write and returns the number of records
// written before it.
func (p *Processor) Process(ctx context.Context, event models.Workout, goals []models.Goal) (int, error) {
	relevant := RelevantGoals(goals, event.Type)
	p.logger.Info("processing workout completion for goal updates",
		zap.String("workout_type", string(event.Type)),
		zap.Int("relevant_goals", len(relevant)))

	updated := 0
	for _, goal := range relevant {
		value, ok := Extract(goal, event)
		if !ok {
			p.logger.Debug("skipping goal without matching metric",
				zap.String("goal_id", goal.ID.String()),
				zap.String("goal_type", string(goal.Type)))
			continue
		}

		record := models.ProgressRecord{
			ID:        p.newID(),
			GoalID:    goal.ID,
			Value:     value,
			Timestamp: p.now(),
		}
		if err := p.saver.SaveProgress(ctx, record); err != nil {
			p.logger.Error("failed to record workout progress",
				zap.String("goal_id", goal.ID.String()),
				zap.Int("updated", updated),
				zap.Error(err))
			return updated, err
		}
		updated++
	}

	p.logger.Info("completed progress updates", zap.Int("updated", updated))
	return updated, nil
}
