// Package progress derives completion and pacing figures from goals, their
// progress records and activity snapshots. Nothing here performs I/O.
package progress

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/seuros/pacer/internal/models"
)

// OnTrackTolerance is the share of expected progress that still counts as on track
const OnTrackTolerance = 0.8

var ErrUnknownPeriod = errors.New("unknown goal period")

type Engine struct {
	weekStart time.Weekday
	loc       *time.Location
	now       func() time.Time
}

type Option func(*Engine)

// WithWeekStart sets the first day of weekly periods (default Monday)
func WithWeekStart(day time.Weekday) Option {
	return func(e *Engine) {
		e.weekStart = day
	}
}

// WithLocation sets the time zone period boundaries are computed in
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock replaces time.Now for pacing of record-based progress
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weekStart: time.Monday,
		loc:       time.Local,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) WeekStart() time.Weekday {
	return e.weekStart
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// ComputeProgress sums the records that belong to goal and derives the
// completion figures. Records for other goals are ignored.
func (e *Engine) ComputeProgress(goal models.Goal, records []models.ProgressRecord) models.GoalProgress {
	var sum float64
	for _, r := range records {
		if r.GoalID == goal.ID {
			sum += r.Value
		}
	}

	p := derive(goal, sum)
	p.IsOnTrack = e.recordPace(goal, p)
	return p
}

// PeriodBounds returns the half-open window of period that contains now
func (e *Engine) PeriodBounds(period models.GoalPeriod, now time.Time) (models.TimeWindow, error) {
	local := now.In(e.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc)

	switch period {
	case models.PeriodDaily:
		return models.TimeWindow{Start: midnight, End: midnight.AddDate(0, 0, 1)}, nil
	case models.PeriodWeekly:
		offset := (int(local.Weekday()) - int(e.weekStart) + 7) % 7
		start := midnight.AddDate(0, 0, -offset)
		return models.TimeWindow{Start: start, End: start.AddDate(0, 0, 7)}, nil
	case models.PeriodMonthly:
		start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, e.loc)
		return models.TimeWindow{Start: start, End: start.AddDate(0, 1, 0)}, nil
	default:
		return models.TimeWindow{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}
}

// ComputeCalendarProgress aggregates workouts that started inside the current
// period of goal and paces the result against the elapsed part of the period.
func (e *Engine) ComputeCalendarProgress(goal models.Goal, workouts []models.Workout, now time.Time) (models.CalendarProgress, error) {
	window, err := e.PeriodBounds(goal.Period, now)
	if err != nil {
		return models.CalendarProgress{}, err
	}

	var current float64
	for _, w := range workouts {
		if window.Contains(w.StartTime) {
			current += aggregate(goal, w)
		}
	}

	length := days(window.Start, window.End)
	remaining := daysRemaining(now, window.End, length)

	p := derive(goal, current)
	p.IsOnTrack = p.IsCompleted || onTrack(current, goal.TargetValue, length, remaining)

	return models.CalendarProgress{
		GoalProgress:  p,
		PeriodStart:   window.Start,
		PeriodEnd:     window.End,
		DaysRemaining: remaining,
	}, nil
}

// recordPace paces record-based progress. Goals with a target date are paced
// over [CreatedAt, TargetDate), period goals over their current period, and
// goals with neither are always on track.
func (e *Engine) recordPace(goal models.Goal, p models.GoalProgress) bool {
	if p.IsCompleted {
		return true
	}
	now := e.now()

	if goal.TargetDate != nil && !goal.CreatedAt.IsZero() {
		length := days(goal.CreatedAt, *goal.TargetDate)
		if length <= 0 {
			return true
		}
		return onTrack(p.CurrentValue, goal.TargetValue, length, daysRemaining(now, *goal.TargetDate, length))
	}

	if goal.Period != "" {
		window, err := e.PeriodBounds(goal.Period, now)
		if err != nil {
			return true
		}
		length := days(window.Start, window.End)
		return onTrack(p.CurrentValue, goal.TargetValue, length, daysRemaining(now, window.End, length))
	}

	return true
}

func derive(goal models.Goal, current float64) models.GoalProgress {
	p := models.GoalProgress{
		GoalID:       goal.ID,
		CurrentValue: current,
		TargetValue:  goal.TargetValue,
		Unit:         goal.DisplayUnit(),
		Remaining:    math.Max(goal.TargetValue-current, 0),
	}
	// Targets are not validated as positive: any progress over a zero target
	// is complete, and 0/0 counts as no progress.
	if ratio := current / goal.TargetValue; !math.IsNaN(ratio) {
		p.CompletionFraction = clamp(ratio, 0, 1)
	}
	p.Percent = int(math.Floor(p.CompletionFraction * 100))
	p.IsCompleted = p.CompletionFraction >= 1
	return p
}

func onTrack(current, target float64, lengthDays, remainingDays int) bool {
	passed := lengthDays - remainingDays
	if passed <= 0 || lengthDays <= 0 {
		return true
	}
	expected := float64(passed) / float64(lengthDays) * target
	return current >= expected*OnTrackTolerance
}

func aggregate(goal models.Goal, w models.Workout) float64 {
	switch goal.Type {
	case models.GoalTypeWorkoutCount:
		return 1
	case models.GoalTypeTotalDuration:
		return w.DurationMinutes()
	case models.GoalTypeDistance:
		if w.DistanceKm != nil {
			return *w.DistanceKm
		}
	case models.GoalTypeCalories:
		if w.Calories != nil {
			return float64(*w.Calories)
		}
	case models.GoalTypeSteps:
		if w.Steps != nil {
			return float64(*w.Steps)
		}
	case models.GoalTypeSpecificWorkout:
		if goal.TargetWorkoutType != nil && *goal.TargetWorkoutType == w.Type {
			return 1
		}
	}
	return 0
}

// days counts calendar days between two instants, rounding so DST shifts
// do not change the result.
func days(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func daysRemaining(now, end time.Time, length int) int {
	remaining := int(end.Sub(now).Hours() / 24)
	if remaining < 0 {
		return 0
	}
	if remaining > length {
		return length
	}
	return remaining
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
