// Package directory is the in-process read cache of the latest goal and
// progress snapshot. It is the surface the HTTP and CLI layers query.
//
// The cache only reflects completed writes: every mutation goes to the store
// first and the snapshot is reloaded afterwards. A failed mutation leaves the
// snapshot untouched.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seuros/pacer/internal/models"
	"github.com/seuros/pacer/internal/progress"
)

var (
	ErrGoalNotFound    = errors.New("goal not found")
	ErrGoalTypeChanged = errors.New("goal type cannot change after creation")
)

// Store is the persistence the directory reads through and writes to
type Store interface {
	SaveGoal(ctx context.Context, goal models.Goal) error
	GetAllGoals(ctx context.Context) ([]models.Goal, error)
	GetGoal(ctx context.Context, id uuid.UUID) (models.Goal, bool, error)
	DeleteGoal(ctx context.Context, id uuid.UUID) error
	SaveProgress(ctx context.Context, record models.ProgressRecord) error
	GetProgress(ctx context.Context, window *models.TimeWindow) ([]models.ProgressRecord, error)
	DeleteProgressForGoal(ctx context.Context, goalID uuid.UUID) (int, error)
}

// WorkoutProcessor turns a completed workout into progress writes
type WorkoutProcessor interface {
	Process(ctx context.Context, event models.Workout, goals []models.Goal) (int, error)
}

// NewGoal holds the caller-supplied fields of a goal; id, creation time and
// the active flag are assigned by CreateGoal.
type NewGoal struct {
	Title             string              `json:"title" yaml:"title"`
	Description       string              `json:"description" yaml:"description"`
	Type              models.GoalType     `json:"type" yaml:"type"`
	TargetValue       float64             `json:"target_value" yaml:"target_value"`
	Unit              string              `json:"unit" yaml:"unit"`
	TargetDate        *time.Time          `json:"target_date,omitempty" yaml:"target_date,omitempty"`
	Period            models.GoalPeriod   `json:"period,omitempty" yaml:"period,omitempty"`
	TargetWorkoutType *models.WorkoutType `json:"target_workout_type,omitempty" yaml:"target_workout_type,omitempty"`
}

type Directory struct {
	store     Store
	engine    *progress.Engine
	processor WorkoutProcessor
	logger    *zap.Logger
	now       func() time.Time
	newID     func() uuid.UUID

	mu         sync.RWMutex
	goals      []models.Goal
	progress   []models.ProgressRecord
	lastReload time.Time
}

type Option func(*Directory)

func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(d *Directory) {
		if newID != nil {
			d.newID = newID
		}
	}
}

func New(store Store, engine *progress.Engine, processor WorkoutProcessor, logger *zap.Logger, opts ...Option) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = progress.NewEngine()
	}
	d := &Directory{
		store:     store,
		engine:    engine,
		processor: processor,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.New,
		goals:     []models.Goal{},
		progress:  []models.ProgressRecord{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Reload refreshes both collections. The first error is returned; the
// collection that failed keeps its previous snapshot.
func (d *Directory) Reload(ctx context.Context) error {
	goalsErr := d.LoadGoals(ctx)
	progressErr := d.LoadProgress(ctx)
	if goalsErr != nil {
		return goalsErr
	}
	return progressErr
}

func (d *Directory) LoadGoals(ctx context.Context) error {
	goals, err := d.store.GetAllGoals(ctx)
	if err != nil {
		d.logger.Error("failed to load goals", zap.Error(err))
		return err
	}
	d.mu.Lock()
	d.goals = goals
	d.lastReload = d.now()
	d.mu.Unlock()

	d.logger.Debug("goals loaded", zap.Int("count", len(goals)))
	return nil
}

func (d *Directory) LoadProgress(ctx context.Context) error {
	records, err := d.store.GetProgress(ctx, nil)
	if err != nil {
		d.logger.Error("failed to load progress", zap.Error(err))
		return err
	}
	d.mu.Lock()
	d.progress = records
	d.lastReload = d.now()
	d.mu.Unlock()

	d.logger.Debug("progress loaded", zap.Int("count", len(records)))
	return nil
}

// CreateGoal assigns an id and creation time, persists the goal and reloads
func (d *Directory) CreateGoal(ctx context.Context, in NewGoal) (models.Goal, error) {
	goal := models.Goal{
		ID:                d.newID(),
		Title:             in.Title,
		Description:       in.Description,
		Type:              in.Type,
		TargetValue:       in.TargetValue,
		Unit:              in.Unit,
		TargetDate:        in.TargetDate,
		Period:            in.Period,
		CreatedAt:         d.now(),
		IsActive:          true,
		TargetWorkoutType: in.TargetWorkoutType,
	}
	if goal.Unit == "" {
		goal.Unit = goal.Type.DefaultUnit()
	}
	if err := goal.Validate(); err != nil {
		return models.Goal{}, err
	}

	if err := d.store.SaveGoal(ctx, goal); err != nil {
		return models.Goal{}, err
	}
	d.refreshGoals(ctx)
	return goal, nil
}

// SetGoal replaces an existing goal wholesale. The id must exist and the
// goal type must not change.
func (d *Directory) SetGoal(ctx context.Context, goal models.Goal) error {
	existing, found, err := d.store.GetGoal(ctx, goal.ID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrGoalNotFound, goal.ID)
	}
	if existing.Type != goal.Type {
		return ErrGoalTypeChanged
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = existing.CreatedAt
	}
	if err := goal.Validate(); err != nil {
		return err
	}

	if err := d.store.SaveGoal(ctx, goal); err != nil {
		return err
	}
	d.refreshGoals(ctx)
	return nil
}

// DeleteGoal removes a goal. Its progress records are kept.
func (d *Directory) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	if err := d.store.DeleteGoal(ctx, id); err != nil {
		return err
	}
	d.refreshGoals(ctx)
	return nil
}

// PurgeProgress removes every progress record of a goal
func (d *Directory) PurgeProgress(ctx context.Context, goalID uuid.UUID) (int, error) {
	removed, err := d.store.DeleteProgressForGoal(ctx, goalID)
	if err != nil {
		return 0, err
	}
	d.refreshProgress(ctx)
	return removed, nil
}

// UpdateProgress records value toward goalID
func (d *Directory) UpdateProgress(ctx context.Context, goalID uuid.UUID, value float64) (models.ProgressRecord, error) {
	record := models.ProgressRecord{
		ID:        d.newID(),
		GoalID:    goalID,
		Value:     value,
		Timestamp: d.now(),
	}
	if err := d.store.SaveProgress(ctx, record); err != nil {
		return models.ProgressRecord{}, err
	}
	d.refreshProgress(ctx)
	return record, nil
}

// ProcessWorkout feeds a completed workout through the processor against the
// cached goals and reloads progress when every write succeeded.
func (d *Directory) ProcessWorkout(ctx context.Context, event models.Workout) (int, error) {
	updated, err := d.processor.Process(ctx, event, d.Goals())
	if err != nil {
		return updated, err
	}
	d.refreshProgress(ctx)
	return updated, nil
}

func (d *Directory) refreshGoals(ctx context.Context) {
	if err := d.LoadGoals(ctx); err != nil {
		d.logger.Warn("goal cache not refreshed after write", zap.Error(err))
	}
}

func (d *Directory) refreshProgress(ctx context.Context) {
	if err := d.LoadProgress(ctx); err != nil {
		d.logger.Warn("progress cache not refreshed after write", zap.Error(err))
	}
}

// Goals returns a copy of the cached goals
func (d *Directory) Goals() []models.Goal {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.Goal(nil), d.goals...)
}

// Progress returns a copy of the cached progress records
func (d *Directory) Progress() []models.ProgressRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.ProgressRecord(nil), d.progress...)
}

// RecordsFor returns the cached records of one goal in stored order
func (d *Directory) RecordsFor(goalID uuid.UUID) []models.ProgressRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []models.ProgressRecord
	for _, r := range d.progress {
		if r.GoalID == goalID {
			out = append(out, r)
		}
	}
	return out
}

func (d *Directory) Goal(id uuid.UUID) (models.Goal, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, g := range d.goals {
		if g.ID == id {
			return g, true
		}
	}
	return models.Goal{}, false
}

// ActiveGoals lists active goals whose target date has not passed
func (d *Directory) ActiveGoals() []models.Goal {
	now := d.now()
	var out []models.Goal
	for _, g := range d.Goals() {
		if g.IsActive && (g.TargetDate == nil || !now.After(*g.TargetDate)) {
			out = append(out, g)
		}
	}
	return out
}

// CompletedGoals lists goals whose derived progress is complete
func (d *Directory) CompletedGoals() []models.Goal {
	records := d.Progress()
	var out []models.Goal
	for _, g := range d.Goals() {
		if d.engine.ComputeProgress(g, records).IsCompleted {
			out = append(out, g)
		}
	}
	return out
}

// DerivedProgress computes progress of goal from the cached records
func (d *Directory) DerivedProgress(goal models.Goal) models.GoalProgress {
	return d.engine.ComputeProgress(goal, d.Progress())
}

// ProgressIn reads the progress records whose timestamp falls in window
// straight from the store, bypassing the cache.
func (d *Directory) ProgressIn(ctx context.Context, window models.TimeWindow) ([]models.ProgressRecord, error) {
	records, err := d.store.GetProgress(ctx, &window)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CalendarProgress aggregates workouts over the goal's current period
func (d *Directory) CalendarProgress(goal models.Goal, workouts []models.Workout) (models.CalendarProgress, error) {
	return d.engine.ComputeCalendarProgress(goal, workouts, d.now())
}

// LastReload is the time of the most recent successful load
func (d *Directory) LastReload() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastReload
}
