package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WorkoutType identifies the kind of activity a workout event describes
type WorkoutType string

const (
	WorkoutRunning  WorkoutType = "running"
	WorkoutWalking  WorkoutType = "walking"
	WorkoutCycling  WorkoutType = "cycling"
	WorkoutSwimming WorkoutType = "swimming"
	WorkoutHiking   WorkoutType = "hiking"
	WorkoutRowing   WorkoutType = "rowing"
	WorkoutStrength WorkoutType = "strength"
	WorkoutYoga     WorkoutType = "yoga"
	WorkoutOther    WorkoutType = "other"
)

var workoutAliases = map[string]WorkoutType{
	"run":      WorkoutRunning,
	"walk":     WorkoutWalking,
	"bike":     WorkoutCycling,
	"biking":   WorkoutCycling,
	"ride":     WorkoutCycling,
	"swim":     WorkoutSwimming,
	"hike":     WorkoutHiking,
	"row":      WorkoutRowing,
	"training": WorkoutStrength,
	"weights":  WorkoutStrength,
}

// ParseWorkoutType lowercases value and resolves common aliases. Unknown
// names are kept as-is so new activity sources do not need a code change.
func ParseWorkoutType(value string) WorkoutType {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if alias, ok := workoutAliases[normalized]; ok {
		return alias
	}
	if normalized == "" {
		return WorkoutOther
	}
	return WorkoutType(normalized)
}

// WorkoutTypePtr is a convenience for optional fields
func WorkoutTypePtr(t WorkoutType) *WorkoutType {
	return &t
}

// Workout is a completed-activity event emitted by an activity source.
// Optional metrics are nil when the source did not record them.
type Workout struct {
	ID              uuid.UUID   `json:"id"`
	Type            WorkoutType `json:"type"`
	StartTime       time.Time   `json:"start_time"`
	EndTime         time.Time   `json:"end_time"`
	DurationSeconds float64     `json:"duration_seconds"`
	Calories        *int        `json:"calories,omitempty"`
	DistanceKm      *float64    `json:"distance_km,omitempty"`
	Steps           *int        `json:"steps,omitempty"`
}

// DurationMinutes converts the recorded duration to minutes
func (w Workout) DurationMinutes() float64 {
	return w.DurationSeconds / 60
}
