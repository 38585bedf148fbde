// Package store owns the two persisted collections, goals and progress
// records. Each collection has its own lock; a mutation holds it across the
// whole read, transform and write cycle so writes to one collection are
// linearizable while the other collection proceeds independently.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seuros/pacer/internal/blobstore"
	"github.com/seuros/pacer/internal/models"
)

// Canonical blob keys. They must never be equal.
const (
	GoalsKey    = "fitness_goals"
	ProgressKey = "goal_progress"
)

type Store struct {
	blobs  blobstore.BlobStore
	logger *zap.Logger

	goalsMu    sync.RWMutex
	progressMu sync.RWMutex
}

func New(blobs blobstore.BlobStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{blobs: blobs, logger: logger}
}

// SaveGoal replaces any goal with the same id and appends the new value.
func (s *Store) SaveGoal(ctx context.Context, goal models.Goal) error {
	ctx = context.WithoutCancel(ctx)
	s.goalsMu.Lock()
	defer s.goalsMu.Unlock()

	goals, err := s.loadGoals(ctx, "save_goal", goal.ID)
	if err != nil {
		return err
	}
	goals = removeGoal(goals, goal.ID)
	goals = append(goals, goal)

	if err := s.write(ctx, GoalsKey, goals, "save_goal", goal.ID); err != nil {
		return err
	}
	s.logger.Info("saved goal", zap.String("goal_id", goal.ID.String()), zap.String("title", goal.Title))
	return nil
}

// GetAllGoals returns the goals in insertion order
func (s *Store) GetAllGoals(ctx context.Context) ([]models.Goal, error) {
	s.goalsMu.RLock()
	defer s.goalsMu.RUnlock()
	return s.loadGoals(ctx, "get_all_goals", uuid.Nil)
}

// GetGoal reports found=false for unknown ids
func (s *Store) GetGoal(ctx context.Context, id uuid.UUID) (models.Goal, bool, error) {
	s.goalsMu.RLock()
	defer s.goalsMu.RUnlock()

	goals, err := s.loadGoals(ctx, "get_goal", id)
	if err != nil {
		return models.Goal{}, false, err
	}
	for _, g := range goals {
		if g.ID == id {
			return g, true, nil
		}
	}
	return models.Goal{}, false, nil
}

// DeleteGoal removes the goal if present. Progress records are left alone.
func (s *Store) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	ctx = context.WithoutCancel(ctx)
	s.goalsMu.Lock()
	defer s.goalsMu.Unlock()

	goals, err := s.loadGoals(ctx, "delete_goal", id)
	if err != nil {
		return err
	}
	remaining := removeGoal(goals, id)
	if len(remaining) == len(goals) {
		return nil
	}

	if err := s.write(ctx, GoalsKey, remaining, "delete_goal", id); err != nil {
		return err
	}
	s.logger.Info("deleted goal", zap.String("goal_id", id.String()))
	return nil
}

// SaveProgress upserts a record by id.
func (s *Store) SaveProgress(ctx context.Context, record models.ProgressRecord) error {
	ctx = context.WithoutCancel(ctx)
	s.progressMu.Lock()
	defer s.progressMu.Unlock()

	records, err := s.loadProgress(ctx, "save_progress", record.ID)
	if err != nil {
		return err
	}
	records = removeRecords(records, func(r models.ProgressRecord) bool { return r.ID == record.ID })
	records = append(records, record)

	if err := s.write(ctx, ProgressKey, records, "save_progress", record.ID); err != nil {
		return err
	}
	s.logger.Info("saved progress",
		zap.String("progress_id", record.ID.String()),
		zap.String("goal_id", record.GoalID.String()),
		zap.Float64("value", record.Value))
	return nil
}

// GetProgress returns all records, or only those inside window when it is
// non-nil. The window is half-open.
func (s *Store) GetProgress(ctx context.Context, window *models.TimeWindow) ([]models.ProgressRecord, error) {
	s.progressMu.RLock()
	defer s.progressMu.RUnlock()

	records, err := s.loadProgress(ctx, "get_progress", uuid.Nil)
	if err != nil {
		return nil, err
	}
	if window == nil {
		return records, nil
	}
	filtered := make([]models.ProgressRecord, 0, len(records))
	for _, r := range records {
		if window.Contains(r.Timestamp) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// DeleteProgressForGoal drops every record referencing goalID and reports how
// many were removed. It is independent of DeleteGoal; there is no
// cross-collection transaction.
func (s *Store) DeleteProgressForGoal(ctx context.Context, goalID uuid.UUID) (int, error) {
	ctx = context.WithoutCancel(ctx)
	s.progressMu.Lock()
	defer s.progressMu.Unlock()

	records, err := s.loadProgress(ctx, "delete_progress", goalID)
	if err != nil {
		return 0, err
	}
	remaining := removeRecords(records, func(r models.ProgressRecord) bool { return r.GoalID == goalID })
	removed := len(records) - len(remaining)
	if removed == 0 {
		return 0, nil
	}

	if err := s.write(ctx, ProgressKey, remaining, "delete_progress", goalID); err != nil {
		return 0, err
	}
	s.logger.Info("deleted progress for goal", zap.String("goal_id", goalID.String()), zap.Int("removed", removed))
	return removed, nil
}

func (s *Store) loadGoals(ctx context.Context, op string, id uuid.UUID) ([]models.Goal, error) {
	var goals []models.Goal
	if _, err := s.blobs.Retrieve(ctx, GoalsKey, &goals); err != nil {
		return nil, s.fail(op, GoalsKey, id, err)
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	return goals, nil
}

func (s *Store) loadProgress(ctx context.Context, op string, id uuid.UUID) ([]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	if _, err := s.blobs.Retrieve(ctx, ProgressKey, &records); err != nil {
		return nil, s.fail(op, ProgressKey, id, err)
	}
	if records == nil {
		records = []models.ProgressRecord{}
	}
	return records, nil
}

func (s *Store) write(ctx context.Context, key string, v any, op string, id uuid.UUID) error {
	if err := s.blobs.Save(ctx, key, v); err != nil {
		return s.fail(op, key, id, err)
	}
	return nil
}

func (s *Store) fail(op, key string, id uuid.UUID, err error) error {
	se := &StorageError{Op: op, Key: key, Err: err}
	if id != uuid.Nil {
		se.ID = id.String()
	}
	s.logger.Error("storage operation failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.String("id", se.ID),
		zap.Error(err))
	return se
}

func removeGoal(goals []models.Goal, id uuid.UUID) []models.Goal {
	out := make([]models.Goal, 0, len(goals))
	for _, g := range goals {
		if g.ID != id {
			out = append(out, g)
		}
	}
	return out
}

func removeRecords(records []models.ProgressRecord, drop func(models.ProgressRecord) bool) []models.ProgressRecord {
	out := make([]models.ProgressRecord, 0, len(records))
	for _, r := range records {
		if !drop(r) {
			out = append(out, r)
		}
	}
	return out
}
