// Package activity adapts external activity sources into completed-workout
// events.
package activity

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/seuros/pacer/internal/models"
)

// DecodeEvents reads workout events from r, either as a single JSON array or
// as newline-delimited JSON objects.
func DecodeEvents(r io.Reader) ([]models.Workout, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return []models.Workout{}, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	var events []models.Workout

	if first == '[' {
		if err := dec.Decode(&events); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
	} else {
		for line := 1; ; line++ {
			var e models.Workout
			err := dec.Decode(&e)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("decode event %d: %w", line, err)
			}
			events = append(events, e)
		}
	}

	for i := range events {
		normalize(&events[i])
	}
	if events == nil {
		events = []models.Workout{}
	}
	return events, nil
}

// normalize fills the fields an event source may omit
func normalize(e *models.Workout) {
	e.Type = models.ParseWorkoutType(string(e.Type))
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.DurationSeconds == 0 && !e.StartTime.IsZero() && e.EndTime.After(e.StartTime) {
		e.DurationSeconds = e.EndTime.Sub(e.StartTime).Seconds()
	}
	if e.EndTime.IsZero() && !e.StartTime.IsZero() && e.DurationSeconds > 0 {
		e.EndTime = e.StartTime.Add(secondsToDuration(e.DurationSeconds))
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
