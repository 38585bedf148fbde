package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seuros/pacer/internal/blobstore"
	"github.com/seuros/pacer/internal/directory"
	"github.com/seuros/pacer/internal/models"
	"github.com/seuros/pacer/internal/progress"
	"github.com/seuros/pacer/internal/store"
	"github.com/seuros/pacer/internal/workout"
)

var fixedNow = time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

type toggleBlobs struct {
	*blobstore.MemoryStore
	broken bool
}

func (b *toggleBlobs) Save(ctx context.Context, key string, v any) error {
	if b.broken {
		return errors.New("disk full")
	}
	return b.MemoryStore.Save(ctx, key, v)
}

func setupApp(t *testing.T) (*fiber.App, *directory.Directory, *toggleBlobs) {
	t.Helper()
	blobs := &toggleBlobs{MemoryStore: blobstore.NewMemoryStore()}
	st := store.New(blobs, zap.NewNop())
	clock := func() time.Time { return fixedNow }
	engine := progress.NewEngine(progress.WithLocation(time.UTC), progress.WithClock(clock))
	dir := directory.New(st, engine, workout.NewProcessor(st, nil, workout.WithClock(clock)), nil, directory.WithClock(clock))
	require.NoError(t, dir.Reload(context.Background()))
	return NewApp(New(dir, zap.NewNop()), fiber.Config{AppName: "pacer-test"}, ""), dir, blobs
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func createGoal(t *testing.T, app *fiber.App, body string) models.Goal {
	t.Helper()
	resp, data := doRequest(t, app, http.MethodPost, "/api/goals", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var g models.Goal
	require.NoError(t, json.Unmarshal(data, &g))
	return g
}

func TestHealth(t *testing.T) {
	app, _, _ := setupApp(t)
	resp, data := doRequest(t, app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, float64(0), result["goals"])
}

func TestHandleGoalCreate_Success(t *testing.T) {
	app, dir, _ := setupApp(t)

	g := createGoal(t, app, `{"title":"Ride","type":"specificWorkout","target_value":4,"target_workout_type":"bike"}`)
	assert.Equal(t, models.GoalTypeSpecificWorkout, g.Type)
	require.NotNil(t, g.TargetWorkoutType)
	assert.Equal(t, models.WorkoutCycling, *g.TargetWorkoutType)
	assert.True(t, g.IsActive)
	assert.Len(t, dir.Goals(), 1)
}

func TestHandleGoalCreate_Invalid(t *testing.T) {
	app, _, _ := setupApp(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"title":`, "invalid payload"},
		{"unknown type", `{"title":"x","type":"juggling","target_value":1}`, `unknown goal type "juggling"`},
		{"unknown period", `{"title":"x","type":"steps","period":"yearly"}`, `unknown goal period "yearly"`},
		{"missing title", `{"type":"steps","target_value":1}`, models.ErrMissingGoalTitle.Error()},
		{"specific without target", `{"title":"x","type":"specific_workout","target_value":1}`, models.ErrMissingTargetWorkout.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doRequest(t, app, http.MethodPost, "/api/goals", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var result map[string]string
			require.NoError(t, json.Unmarshal(data, &result))
			assert.Equal(t, tt.want, result["error"])
		})
	}
}

func TestHandleGoalCreate_StorageFailure(t *testing.T) {
	app, _, blobs := setupApp(t)
	blobs.broken = true

	resp, data := doRequest(t, app, http.MethodPost, "/api/goals", `{"title":"x","type":"steps","target_value":1}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"storage failure"}`, string(data))
}

func TestHandleGoalList_StatusFilter(t *testing.T) {
	app, _, _ := setupApp(t)
	done := createGoal(t, app, `{"title":"One run","type":"workout_count","target_value":1}`)
	createGoal(t, app, `{"title":"Many steps","type":"steps","target_value":10000}`)

	resp, _ := doRequest(t, app, http.MethodPost, "/api/goals/"+done.ID.String()+"/progress", `{"value":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var goals []models.Goal
	_, data := doRequest(t, app, http.MethodGet, "/api/goals", "")
	require.NoError(t, json.Unmarshal(data, &goals))
	assert.Len(t, goals, 2)

	_, data = doRequest(t, app, http.MethodGet, "/api/goals?status=completed", "")
	require.NoError(t, json.Unmarshal(data, &goals))
	require.Len(t, goals, 1)
	assert.Equal(t, done.ID, goals[0].ID)

	_, data = doRequest(t, app, http.MethodGet, "/api/goals?status=active", "")
	require.NoError(t, json.Unmarshal(data, &goals))
	assert.Len(t, goals, 2)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/goals?status=paused", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleGoalList_EmptyIsArray(t *testing.T) {
	app, _, _ := setupApp(t)
	_, data := doRequest(t, app, http.MethodGet, "/api/goals?status=completed", "")
	assert.JSONEq(t, `[]`, string(data))
}

func TestHandleGoalUpdate(t *testing.T) {
	app, dir, _ := setupApp(t)
	g := createGoal(t, app, `{"title":"Swim","type":"distance","target_value":5}`)

	resp, data := doRequest(t, app, http.MethodPut, "/api/goals/"+g.ID.String(),
		`{"title":"Swim further","type":"distance","target_value":8,"is_active":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	got, ok := dir.Goal(g.ID)
	require.True(t, ok)
	assert.Equal(t, "Swim further", got.Title)
	assert.Equal(t, 8.0, got.TargetValue)
	assert.False(t, got.IsActive)
	assert.Equal(t, fixedNow, got.CreatedAt)

	resp, _ = doRequest(t, app, http.MethodPut, "/api/goals/"+g.ID.String(), `{"title":"x","type":"steps","target_value":8}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPut, "/api/goals/"+uuid.NewString(), `{"title":"x","type":"steps"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPut, "/api/goals/not-a-uuid", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleGoalDelete(t *testing.T) {
	app, dir, _ := setupApp(t)
	g := createGoal(t, app, `{"title":"Yoga","type":"total_duration","target_value":60}`)

	resp, _ := doRequest(t, app, http.MethodDelete, "/api/goals/"+g.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, dir.Goals())

	// Unknown ids are a no-op.
	resp, _ = doRequest(t, app, http.MethodDelete, "/api/goals/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodDelete, "/api/goals/nope", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleGoalProgress(t *testing.T) {
	app, _, _ := setupApp(t)
	g := createGoal(t, app, `{"title":"Burn","type":"calories","target_value":1000}`)
	for _, v := range []string{"250", "500"} {
		resp, _ := doRequest(t, app, http.MethodPost, "/api/goals/"+g.ID.String()+"/progress", `{"value":`+v+`}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, data := doRequest(t, app, http.MethodGet, "/api/goals/"+g.ID.String()+"/progress", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result progressResponse
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 75, result.Percent)
	assert.Equal(t, 250.0, result.Remaining)
	assert.Equal(t, models.StatusOnTrack, result.Status)
	assert.Equal(t, "Great progress! Keep it up!", result.Message)
	assert.Len(t, result.Records, 2)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/goals/"+uuid.NewString()+"/progress", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleProgressAdd_Validation(t *testing.T) {
	app, _, _ := setupApp(t)
	g := createGoal(t, app, `{"title":"Steps","type":"steps","target_value":1000}`)

	resp, data := doRequest(t, app, http.MethodPost, "/api/goals/"+g.ID.String()+"/progress", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"value is required"}`, string(data))

	resp, _ = doRequest(t, app, http.MethodPost, "/api/goals/"+uuid.NewString()+"/progress", `{"value":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleProgressList_Window(t *testing.T) {
	app, _, _ := setupApp(t)
	g := createGoal(t, app, `{"title":"Steps","type":"steps","target_value":1000}`)
	resp, _ := doRequest(t, app, http.MethodPost, "/api/goals/"+g.ID.String()+"/progress", `{"value":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var records []models.ProgressRecord
	_, data := doRequest(t, app, http.MethodGet, "/api/progress", "")
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 1)

	// fixedNow is the record timestamp; the window end is exclusive.
	_, data = doRequest(t, app, http.MethodGet, "/api/progress?from=2025-03-05T00:00:00Z&to=2025-03-05T12:00:00Z", "")
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Empty(t, records)

	_, data = doRequest(t, app, http.MethodGet, "/api/progress?from=2025-03-05T12:00:00Z&to=2025-03-06T00:00:00Z", "")
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 1)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/progress?from=2025-03-05T00:00:00Z", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = doRequest(t, app, http.MethodGet, "/api/progress?from=yesterday&to=today", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleCalendarProgress(t *testing.T) {
	app, _, _ := setupApp(t)
	g := createGoal(t, app, `{"title":"Three a week","type":"workout_count","target_value":3,"period":"weekly"}`)

	// fixedNow is Wednesday 2025-03-05; the week runs Monday 03-03 to 03-10.
	snapshot := `[
		{"type":"running","start_time":"2025-03-01T08:00:00Z","duration_seconds":1800},
		{"type":"running","start_time":"2025-03-03T08:00:00Z","duration_seconds":1800},
		{"type":"yoga","start_time":"2025-03-04T18:00:00Z","duration_seconds":3600}
	]`
	resp, data := doRequest(t, app, http.MethodPost, "/api/goals/"+g.ID.String()+"/calendar-progress", snapshot)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var result struct {
		CurrentValue  float64   `json:"current_value"`
		Percent       int       `json:"percent"`
		IsOnTrack     bool      `json:"is_on_track"`
		DaysRemaining int       `json:"days_remaining"`
		PeriodStart   time.Time `json:"period_start"`
		Status        string    `json:"status"`
		Workouts      int       `json:"workouts"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 2.0, result.CurrentValue)
	assert.Equal(t, 66, result.Percent)
	assert.True(t, result.IsOnTrack)
	assert.Equal(t, 4, result.DaysRemaining)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), result.PeriodStart.UTC())
	assert.Equal(t, "on_track", result.Status)
	assert.Equal(t, 3, result.Workouts)
}

func TestHandleCalendarProgress_Errors(t *testing.T) {
	app, _, _ := setupApp(t)
	open := createGoal(t, app, `{"title":"Steps","type":"steps","target_value":1000}`)

	resp, data := doRequest(t, app, http.MethodPost, "/api/goals/"+open.ID.String()+"/calendar-progress", `[]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"goal has no period"}`, string(data))

	resp, _ = doRequest(t, app, http.MethodPost, "/api/goals/"+uuid.NewString()+"/calendar-progress", `[]`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/goals/"+open.ID.String()+"/calendar-progress", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleWorkoutIngest(t *testing.T) {
	app, dir, _ := setupApp(t)
	count := createGoal(t, app, `{"title":"Workouts","type":"workout_count","target_value":5}`)
	distance := createGoal(t, app, `{"title":"Distance","type":"distance","target_value":50}`)

	resp, data := doRequest(t, app, http.MethodPost, "/api/workouts",
		`[{"type":"running","duration_seconds":1800,"distance_km":5},{"type":"yoga","duration_seconds":3600}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.JSONEq(t, `{"events":2,"updated":3}`, string(data))

	assert.Len(t, dir.RecordsFor(count.ID), 2)
	assert.Len(t, dir.RecordsFor(distance.ID), 1)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/workouts", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleWorkoutIngest_StorageFailure(t *testing.T) {
	app, _, blobs := setupApp(t)
	createGoal(t, app, `{"title":"Workouts","type":"workout_count","target_value":5}`)
	blobs.broken = true

	resp, data := doRequest(t, app, http.MethodPost, "/api/workouts", `{"type":"running","duration_seconds":60}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"storage failure"}`, string(data))
}

func TestAPITokenProtectsAPIRoutes(t *testing.T) {
	_, dir, _ := setupApp(t)
	app := NewApp(New(dir, zap.NewNop()), fiber.Config{}, "s3cret")

	resp, _ := doRequest(t, app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/goals", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	authed, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}
