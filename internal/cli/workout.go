package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seuros/pacer/internal/activity"
	"github.com/seuros/pacer/internal/app"
	"github.com/seuros/pacer/internal/models"
)

var workoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Feed completed workouts into goal progress",
}

var workoutIngestCmd = &cobra.Command{
	Use:   "ingest <events.json|->",
	Short: "Apply workout events from a JSON or NDJSON file",
	Long: `Apply completed-workout events to every relevant active goal.

The input is a JSON array or newline-delimited JSON objects with the fields
type, start_time, end_time, duration_seconds, calories, distance_km and steps.
Use - to read from stdin.

Examples:
  pacer workout ingest workouts.json
  cat events.ndjson | pacer workout ingest -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkoutIngest(args[0])
	},
}

var workoutImportFITCmd = &cobra.Command{
	Use:   "import-fit <activity.fit>",
	Short: "Apply the sessions of a FIT activity file",
	Long: `Decode a FIT activity file from a watch or bike computer and apply
each session as a completed workout.

Examples:
  pacer workout import-fit 2025-03-05-run.fit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkoutImportFIT(args[0])
	},
}

func init() {
	workoutCmd.AddCommand(workoutIngestCmd)
	workoutCmd.AddCommand(workoutImportFITCmd)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// readWorkouts decodes a workout snapshot; files ending in .fit are read as
// FIT activity files, everything else as JSON or NDJSON events.
func readWorkouts(path string) ([]models.Workout, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = in.Close() }()

	if strings.EqualFold(filepath.Ext(path), ".fit") {
		return activity.ImportFIT(in)
	}
	return activity.DecodeEvents(in)
}

func runWorkoutIngest(path string) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	events, err := activity.DecodeEvents(in)
	if err != nil {
		return err
	}
	return applyWorkouts(events)
}

func runWorkoutImportFIT(path string) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	events, err := activity.ImportFIT(in)
	if err != nil {
		return err
	}
	return applyWorkouts(events)
}

func applyWorkouts(events []models.Workout) error {
	if len(events) == 0 {
		fmt.Println("No workouts found")
		return nil
	}

	return withApp(func(ctx context.Context, a *app.App) error {
		total := 0
		for _, event := range events {
			updated, err := a.Directory.ProcessWorkout(ctx, event)
			total += updated
			if err != nil {
				return fmt.Errorf("failed to apply %s workout: %w", event.Type, err)
			}
			fmt.Printf("%s %-10s %6.1f min  -> %d goals updated\n",
				event.StartTime.Format("2006-01-02 15:04"), event.Type, event.DurationMinutes(), updated)
		}
		fmt.Printf("\n%d workouts applied, %d progress records written\n", len(events), total)
		return nil
	})
}
