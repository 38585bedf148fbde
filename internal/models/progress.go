package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProgressRecord is a timestamped contribution toward a goal. GoalID is not
// checked against existing goals when the record is written.
type ProgressRecord struct {
	ID        uuid.UUID `json:"id"`
	GoalID    uuid.UUID `json:"goal_id"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// TimeWindow is the half-open interval [Start, End)
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ProgressStatus summarises a derived progress value
type ProgressStatus string

const (
	StatusCompleted ProgressStatus = "completed"
	StatusOnTrack   ProgressStatus = "on_track"
	StatusBehind    ProgressStatus = "behind_schedule"
)

// GoalProgress is derived on demand and never persisted
type GoalProgress struct {
	GoalID             uuid.UUID `json:"goal_id"`
	CurrentValue       float64   `json:"current_value"`
	TargetValue        float64   `json:"target_value"`
	Unit               string    `json:"unit"`
	CompletionFraction float64   `json:"completion_fraction"`
	Percent            int       `json:"percent"`
	Remaining          float64   `json:"remaining"`
	IsCompleted        bool      `json:"is_completed"`
	IsOnTrack          bool      `json:"is_on_track"`
}

// Status collapses the completion and pacing flags into one value
func (p GoalProgress) Status() ProgressStatus {
	switch {
	case p.IsCompleted:
		return StatusCompleted
	case p.IsOnTrack:
		return StatusOnTrack
	default:
		return StatusBehind
	}
}

// Message is a short human-readable summary of the status
func (p GoalProgress) Message() string {
	switch p.Status() {
	case StatusCompleted:
		return "Congratulations! You've achieved your goal!"
	case StatusOnTrack:
		return "Great progress! Keep it up!"
	default:
		return fmt.Sprintf("You need %d more %s to reach your goal.", int(p.Remaining), p.Unit)
	}
}

// CalendarProgress is GoalProgress for a period-based goal, aggregated from an
// activity snapshot over the current period
type CalendarProgress struct {
	GoalProgress
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	DaysRemaining int       `json:"days_remaining"`
}
