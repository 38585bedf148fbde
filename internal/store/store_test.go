package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seuros/pacer/internal/blobstore"
	"github.com/seuros/pacer/internal/models"
)

// flakyBlobs wraps a MemoryStore and fails saves while failSave is set.
type flakyBlobs struct {
	*blobstore.MemoryStore
	mu        sync.Mutex
	failSave  bool
	failRead  bool
	saveCalls map[string]int
}

func newFlakyBlobs() *flakyBlobs {
	return &flakyBlobs{MemoryStore: blobstore.NewMemoryStore(), saveCalls: map[string]int{}}
}

func (f *flakyBlobs) Save(ctx context.Context, key string, v any) error {
	f.mu.Lock()
	f.saveCalls[key]++
	fail := f.failSave
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.MemoryStore.Save(ctx, key, v)
}

func (f *flakyBlobs) Retrieve(ctx context.Context, key string, dst any) (bool, error) {
	f.mu.Lock()
	fail := f.failRead
	f.mu.Unlock()
	if fail {
		return false, errors.New("io error")
	}
	return f.MemoryStore.Retrieve(ctx, key, dst)
}

func newGoal(title string) models.Goal {
	return models.Goal{
		ID:          uuid.New(),
		Title:       title,
		Type:        models.GoalTypeWorkoutCount,
		TargetValue: 10,
		Unit:        "workouts",
		CreatedAt:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	}
}

func TestKeysAreDisjoint(t *testing.T) {
	assert.NotEqual(t, GoalsKey, ProgressKey)
}

func TestSaveGoalUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New(blobstore.NewMemoryStore(), zap.NewNop())

	g := newGoal("Run more")
	require.NoError(t, s.SaveGoal(ctx, g))
	g.Title = "Run even more"
	require.NoError(t, s.SaveGoal(ctx, g))

	goals, err := s.GetAllGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Run even more", goals[0].Title)
}

func TestGetAllGoalsKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New(blobstore.NewMemoryStore(), nil)

	a, b, c := newGoal("b-first"), newGoal("a-second"), newGoal("c-third")
	for _, g := range []models.Goal{a, b, c} {
		require.NoError(t, s.SaveGoal(ctx, g))
	}

	goals, err := s.GetAllGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 3)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, []uuid.UUID{goals[0].ID, goals[1].ID, goals[2].ID})
}

func TestEmptyStoreReturnsEmptyCollections(t *testing.T) {
	ctx := context.Background()
	s := New(blobstore.NewMemoryStore(), nil)

	goals, err := s.GetAllGoals(ctx)
	require.NoError(t, err)
	assert.NotNil(t, goals)
	assert.Empty(t, goals)

	records, err := s.GetProgress(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetGoal(t *testing.T) {
	ctx := context.Background()
	s := New(blobstore.NewMemoryStore(), nil)
	g := newGoal("Swim")
	require.NoError(t, s.SaveGoal(ctx, g))

	got, found, err := s.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, g.Title, got.Title)

	_, found, err = s.GetGoal(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteUnknownGoalIsNoop(t *testing.T) {
	ctx := context.Background()
	blobs := newFlakyBlobs()
	s := New(blobs, nil)
	g := newGoal("Keep me")
	require.NoError(t, s.SaveGoal(ctx, g))

	require.NoError(t, s.DeleteGoal(ctx, uuid.New()))

	goals, err := s.GetAllGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, g.ID, goals[0].ID)
	assert.Equal(t, 1, blobs.saveCalls[GoalsKey], "no write for an unknown id")
}

func TestDeleteGoalDoesNotCascade(t *testing.T) {
	ctx := context.Background()
	s := New(blobstore.NewMemoryStore(), nil)
	g := newGoal("Orphan maker")
	require.NoError(t, s.SaveGoal(ctx, g))
	require.NoError(t, s.SaveProgress(ctx, models.ProgressRecord{ID: uuid.New(), GoalID: g.ID, Value: 1, Timestamp: time.Now()}))

	require.NoError(t, s.DeleteGoal(ctx, g.ID))

	_, found, err := s.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, found)

	records, err := s.GetProgress(ctx, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, g.ID, records[0].GoalID)
}

func TestDeleteProgressForGoal(t *testing.T) {
	ctx := context.Background()
	s := New(blobstore.NewMemoryStore(), nil)
	target, other := uuid.New(), uuid.New()
	for i, goalID := range []uuid.UUID{target, other, target} {
		require.NoError(t, s.SaveProgress(ctx, models.ProgressRecord{ID: uuid.New(), GoalID: goalID, Value: float64(i)}))
	}

	removed, err := s.DeleteProgressForGoal(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	records, err := s.GetProgress(ctx, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, other, records[0].GoalID)

	removed, err = s.DeleteProgressForGoal(ctx, target)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSaveProgressUpserts(t *testing.T) {
	ctx := context.Background()
	s := New(blobstore.NewMemoryStore(), nil)
	rec := models.ProgressRecord{ID: uuid.New(), GoalID: uuid.New(), Value: 1}
	require.NoError(t, s.SaveProgress(ctx, rec))
	rec.Value = 4
	require.NoError(t, s.SaveProgress(ctx, rec))

	records, err := s.GetProgress(ctx, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 4.0, records[0].Value)
}

func TestGetProgressWindowIsHalfOpen(t *testing.T) {
	ctx := context.Background()
	s := New(blobstore.NewMemoryStore(), nil)
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	goalID := uuid.New()

	times := []time.Time{start.Add(-time.Nanosecond), start, end.Add(-time.Nanosecond), end}
	for _, ts := range times {
		require.NoError(t, s.SaveProgress(ctx, models.ProgressRecord{ID: uuid.New(), GoalID: goalID, Value: 1, Timestamp: ts}))
	}

	records, err := s.GetProgress(ctx, &models.TimeWindow{Start: start, End: end})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Timestamp.Equal(start))
	assert.True(t, records[1].Timestamp.Equal(end.Add(-time.Nanosecond)))
}

func TestProgressWritesNeverTouchGoalsKey(t *testing.T) {
	ctx := context.Background()
	blobs := newFlakyBlobs()
	s := New(blobs, nil)
	g := newGoal("Cycle")
	require.NoError(t, s.SaveGoal(ctx, g))

	require.NoError(t, s.SaveProgress(ctx, models.ProgressRecord{ID: uuid.New(), GoalID: g.ID, Value: 2}))

	assert.Equal(t, 1, blobs.saveCalls[GoalsKey])
	assert.Equal(t, 1, blobs.saveCalls[ProgressKey])
	goals, err := s.GetAllGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, g.ID, goals[0].ID)
}

func TestFailedWriteRetainsPriorState(t *testing.T) {
	ctx := context.Background()
	blobs := newFlakyBlobs()
	s := New(blobs, nil)
	g := newGoal("Original")
	require.NoError(t, s.SaveGoal(ctx, g))

	blobs.failSave = true
	changed := g
	changed.Title = "Changed"
	err := s.SaveGoal(ctx, changed)
	require.Error(t, err)
	assert.True(t, IsStorageError(err))

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save_goal", se.Op)
	assert.Equal(t, GoalsKey, se.Key)
	assert.Equal(t, g.ID.String(), se.ID)

	err = s.SaveProgress(ctx, models.ProgressRecord{ID: uuid.New(), GoalID: g.ID, Value: 1})
	assert.True(t, IsStorageError(err))

	blobs.failSave = false
	goals, err := s.GetAllGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Original", goals[0].Title)
	records, err := s.GetProgress(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadFailureIsStorageError(t *testing.T) {
	blobs := newFlakyBlobs()
	blobs.failRead = true
	s := New(blobs, nil)

	_, err := s.GetAllGoals(context.Background())
	assert.True(t, IsStorageError(err))
	_, _, err = s.GetGoal(context.Background(), uuid.New())
	assert.True(t, IsStorageError(err))
	err = s.DeleteGoal(context.Background(), uuid.New())
	assert.True(t, IsStorageError(err))
	_, err = s.GetProgress(context.Background(), nil)
	assert.ErrorContains(t, err, "io error")
}

func TestCancelledContextDoesNotAbortWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(blobstore.NewMemoryStore(), nil)
	g := newGoal("Still saved")

	require.NoError(t, s.SaveGoal(ctx, g))

	_, found, err := s.GetGoal(context.Background(), g.ID)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestConcurrentSavesSerialize(t *testing.T) {
	ctx := context.Background()
	s := New(blobstore.NewMemoryStore(), nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.SaveGoal(ctx, newGoal("g")))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.SaveProgress(ctx, models.ProgressRecord{ID: uuid.New(), GoalID: uuid.New(), Value: 1}))
		}()
	}
	wg.Wait()

	goals, err := s.GetAllGoals(ctx)
	require.NoError(t, err)
	assert.Len(t, goals, n)
	records, err := s.GetProgress(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, records, n)
}

func TestStorageErrorMessage(t *testing.T) {
	err := &StorageError{Op: "save_goal", Key: GoalsKey, ID: "abc", Err: errors.New("boom")}
	assert.Equal(t, "save_goal fitness_goals (abc): boom", err.Error())
	err.ID = ""
	assert.Equal(t, "save_goal fitness_goals: boom", err.Error())
	assert.False(t, IsStorageError(errors.New("plain")))
}

// gatedBlobs holds every goals write until release is closed.
type gatedBlobs struct {
	*blobstore.MemoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedBlobs) Save(ctx context.Context, key string, v any) error {
	if key == GoalsKey {
		g.once.Do(func() { close(g.entered) })
		<-g.release
	}
	return g.MemoryStore.Save(ctx, key, v)
}

func TestCollectionsDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	blobs := &gatedBlobs{
		MemoryStore: blobstore.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	s := New(blobs, nil)

	goalDone := make(chan error, 1)
	go func() { goalDone <- s.SaveGoal(ctx, newGoal("held")) }()
	<-blobs.entered

	progressDone := make(chan error, 1)
	go func() {
		err := s.SaveProgress(ctx, models.ProgressRecord{ID: uuid.New(), GoalID: uuid.New(), Value: 1})
		if err == nil {
			_, err = s.GetProgress(ctx, nil)
		}
		progressDone <- err
	}()

	select {
	case err := <-progressDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(blobs.release)
		t.Fatal("progress write waited on the goals write")
	}

	// A second goals write queues behind the held one.
	secondDone := make(chan error, 1)
	go func() { secondDone <- s.SaveGoal(ctx, newGoal("queued")) }()
	select {
	case <-secondDone:
		t.Fatal("goals writes did not serialize")
	case <-time.After(50 * time.Millisecond):
	}

	close(blobs.release)
	require.NoError(t, <-goalDone)
	require.NoError(t, <-secondDone)

	goals, err := s.GetAllGoals(ctx)
	require.NoError(t, err)
	assert.Len(t, goals, 2)
}
