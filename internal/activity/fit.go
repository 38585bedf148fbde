package activity

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/basetype"
	"github.com/muktihari/fit/profile/filedef"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"

	"github.com/seuros/pacer/internal/models"
)

// fitNamespace seeds deterministic ids so re-importing a file yields the same events
var fitNamespace = uuid.MustParse("6f1c7a52-3c1e-4b7e-9d55-0e8a8f6f2c11")

var sportTypes = map[typedef.Sport]models.WorkoutType{
	typedef.SportRunning:  models.WorkoutRunning,
	typedef.SportWalking:  models.WorkoutWalking,
	typedef.SportCycling:  models.WorkoutCycling,
	typedef.SportSwimming: models.WorkoutSwimming,
	typedef.SportHiking:   models.WorkoutHiking,
	typedef.SportRowing:   models.WorkoutRowing,
	typedef.SportTraining: models.WorkoutStrength,
}

// ImportFIT decodes a FIT activity file (possibly chained) and returns one
// event per session.
func ImportFIT(r io.Reader) ([]models.Workout, error) {
	dec := decoder.New(r)

	var workouts []models.Workout
	for dec.Next() {
		fit, err := dec.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode fit: %w", err)
		}
		activity := filedef.NewActivity(fit.Messages...)
		for _, session := range activity.Sessions {
			workouts = append(workouts, workoutFromSession(session))
		}
	}
	if workouts == nil {
		workouts = []models.Workout{}
	}
	return workouts, nil
}

func workoutFromSession(s *mesgdef.Session) models.Workout {
	w := models.Workout{
		Type:      models.WorkoutOther,
		StartTime: s.StartTime,
	}
	if t, ok := sportTypes[s.Sport]; ok {
		w.Type = t
	}

	// Elapsed time is stored in milliseconds, distance in centimeters.
	if s.TotalElapsedTime != basetype.Uint32Invalid {
		w.DurationSeconds = float64(s.TotalElapsedTime) / 1000
	}
	if s.TotalCalories != basetype.Uint16Invalid {
		calories := int(s.TotalCalories)
		w.Calories = &calories
	}
	if s.TotalDistance != basetype.Uint32Invalid {
		km := math.Round(float64(s.TotalDistance)/100) / 1000
		w.DistanceKm = &km
	}
	if !w.StartTime.IsZero() {
		w.EndTime = w.StartTime.Add(secondsToDuration(w.DurationSeconds))
	}

	w.ID = uuid.NewSHA1(fitNamespace, []byte(fmt.Sprintf("%s|%d", w.StartTime.UTC().Format(time.RFC3339Nano), s.Sport)))
	return w
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
