package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GoalType selects which metric of a completed workout counts toward a goal
type GoalType string

const (
	GoalTypeWorkoutCount    GoalType = "workout_count"
	GoalTypeTotalDuration   GoalType = "total_duration"
	GoalTypeDistance        GoalType = "distance"
	GoalTypeCalories        GoalType = "calories"
	GoalTypeSteps           GoalType = "steps"
	GoalTypeSpecificWorkout GoalType = "specific_workout"
)

// GoalTypes lists every supported goal type in display order
var GoalTypes = []GoalType{
	GoalTypeWorkoutCount,
	GoalTypeTotalDuration,
	GoalTypeDistance,
	GoalTypeCalories,
	GoalTypeSteps,
	GoalTypeSpecificWorkout,
}

// Valid reports whether t is one of the known goal types
func (t GoalType) Valid() bool {
	for _, known := range GoalTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DefaultUnit returns the unit label used when a goal does not set one
func (t GoalType) DefaultUnit() string {
	switch t {
	case GoalTypeTotalDuration:
		return "minutes"
	case GoalTypeDistance:
		return "km"
	case GoalTypeCalories:
		return "kcal"
	case GoalTypeSteps:
		return "steps"
	default:
		return "workouts"
	}
}

// ParseGoalType accepts the canonical snake_case names and their camelCase spellings
func ParseGoalType(value string) (GoalType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "workoutcount":
		return GoalTypeWorkoutCount, nil
	case "totalduration", "duration":
		return GoalTypeTotalDuration, nil
	case "specificworkout":
		return GoalTypeSpecificWorkout, nil
	}
	t := GoalType(normalized)
	if !t.Valid() {
		return "", fmt.Errorf("unknown goal type %q", value)
	}
	return t, nil
}

// GoalPeriod is the recurring reset window a goal is scoped to
type GoalPeriod string

const (
	PeriodDaily   GoalPeriod = "daily"
	PeriodWeekly  GoalPeriod = "weekly"
	PeriodMonthly GoalPeriod = "monthly"
)

// Valid reports whether p is a known period
func (p GoalPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// ParseGoalPeriod parses a period name; the empty string yields no period
func ParseGoalPeriod(value string) (GoalPeriod, error) {
	p := GoalPeriod(strings.ToLower(strings.TrimSpace(value)))
	if p == "" || p.Valid() {
		return p, nil
	}
	return "", fmt.Errorf("unknown goal period %q", value)
}

var (
	ErrInvalidGoalType         = errors.New("invalid goal type")
	ErrMissingTargetWorkout    = errors.New("specific_workout goals require a target workout type")
	ErrInvalidGoalPeriod       = errors.New("invalid goal period")
	ErrMissingGoalTitle        = errors.New("goal title is required")
	ErrTargetDateBeforeCreated = errors.New("target date is before creation time")
)

// Goal is a user-defined fitness target. ID and Type never change after creation;
// updates replace the whole value.
type Goal struct {
	ID                uuid.UUID    `json:"id" yaml:"id"`
	Title             string       `json:"title" yaml:"title"`
	Description       string       `json:"description" yaml:"description"`
	Type              GoalType     `json:"type" yaml:"type"`
	TargetValue       float64      `json:"target_value" yaml:"target_value"`
	Unit              string       `json:"unit" yaml:"unit"`
	TargetDate        *time.Time   `json:"target_date,omitempty" yaml:"target_date,omitempty"`
	Period            GoalPeriod   `json:"period,omitempty" yaml:"period,omitempty"`
	CreatedAt         time.Time    `json:"created_at" yaml:"created_at"`
	IsActive          bool         `json:"is_active" yaml:"is_active"`
	TargetWorkoutType *WorkoutType `json:"target_workout_type,omitempty" yaml:"target_workout_type,omitempty"`
}

// Validate checks the structural rules of a goal. A non-positive TargetValue is
// deliberately accepted.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrMissingGoalTitle
	}
	if !g.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGoalType, g.Type)
	}
	if g.Type == GoalTypeSpecificWorkout && (g.TargetWorkoutType == nil || *g.TargetWorkoutType == "") {
		return ErrMissingTargetWorkout
	}
	if g.Period != "" && !g.Period.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGoalPeriod, g.Period)
	}
	if g.TargetDate != nil && !g.CreatedAt.IsZero() && g.TargetDate.Before(g.CreatedAt) {
		return ErrTargetDateBeforeCreated
	}
	return nil
}

// DisplayUnit returns the goal's unit, falling back to the type default
func (g Goal) DisplayUnit() string {
	if g.Unit != "" {
		return g.Unit
	}
	return g.Type.DefaultUnit()
}
