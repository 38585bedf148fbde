package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWorkoutType(t *testing.T) {
	assert.Equal(t, WorkoutRunning, ParseWorkoutType("Run"))
	assert.Equal(t, WorkoutCycling, ParseWorkoutType("bike"))
	assert.Equal(t, WorkoutSwimming, ParseWorkoutType(" swimming "))
	assert.Equal(t, WorkoutStrength, ParseWorkoutType("weights"))
	assert.Equal(t, WorkoutOther, ParseWorkoutType(""))
	assert.Equal(t, WorkoutType("climbing"), ParseWorkoutType("Climbing"))
}

func TestDurationMinutes(t *testing.T) {
	w := Workout{DurationSeconds: 1830}
	assert.InDelta(t, 30.5, w.DurationMinutes(), 1e-9)
}
