package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/seuros/pacer/internal/app"
	"github.com/seuros/pacer/internal/models"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show and record goal progress",
}

var progressShowCmd = &cobra.Command{
	Use:   "show <goal-id>",
	Short: "Show derived progress of a goal",
	Long: `Show completion, pacing and the recorded contributions of a goal.

With --workouts, progress of a periodic goal is instead aggregated from an
activity snapshot (JSON, NDJSON or a .fit file) over the goal's current period.

Examples:
  pacer progress show 550e8400-e29b-41d4-a716-446655440000
  pacer progress show 550e8400-e29b-41d4-a716-446655440000 --format json
  pacer progress show 550e8400-e29b-41d4-a716-446655440000 --workouts week.ndjson`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if progressWorkouts != "" {
			return runCalendarProgress(args[0], progressWorkouts, flagFormat)
		}
		return runProgressShow(args[0], flagFormat)
	},
}

var progressAddCmd = &cobra.Command{
	Use:   "add <goal-id> <value>",
	Short: "Record progress toward a goal",
	Long: `Record a progress value toward a goal.

Examples:
  pacer progress add 550e8400-e29b-41d4-a716-446655440000 5.2`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProgressAdd(args[0], args[1])
	},
}

var progressWorkouts string

func init() {
	progressShowCmd.Flags().StringVar(&progressWorkouts, "workouts", "", "activity snapshot to aggregate over the current period (- for stdin)")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressAddCmd)
}

type progressView struct {
	Goal     models.Goal             `json:"goal" yaml:"goal"`
	Progress models.GoalProgress     `json:"progress" yaml:"progress"`
	Status   models.ProgressStatus   `json:"status" yaml:"status"`
	Message  string                  `json:"message" yaml:"message"`
	Records  []models.ProgressRecord `json:"records" yaml:"records"`
}

func runProgressShow(rawID, format string) error {
	id, err := parseGoalID(rawID)
	if err != nil {
		return err
	}
	format, err = resolveFormat(format)
	if err != nil {
		return err
	}

	return withApp(func(_ context.Context, a *app.App) error {
		goal, found := a.Directory.Goal(id)
		if !found {
			return fmt.Errorf("goal %s not found", id)
		}

		p := a.Directory.DerivedProgress(goal)
		records := a.Directory.RecordsFor(id)
		if records == nil {
			records = []models.ProgressRecord{}
		}
		view := progressView{Goal: goal, Progress: p, Status: p.Status(), Message: p.Message(), Records: records}

		if handled, err := printStructured(format, view); handled {
			return err
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Goal:\t%s\n", goal.Title)
		_, _ = fmt.Fprintf(w, "Type:\t%s\n", goal.Type)
		_, _ = fmt.Fprintf(w, "Progress:\t%g / %g %s (%d%%)\n", p.CurrentValue, p.TargetValue, p.Unit, p.Percent)
		_, _ = fmt.Fprintf(w, "Remaining:\t%g %s\n", p.Remaining, p.Unit)
		_, _ = fmt.Fprintf(w, "Status:\t%s\n", p.Status())
		if goal.Period != "" {
			_, _ = fmt.Fprintf(w, "Period:\t%s\n", goal.Period)
		}
		if goal.TargetDate != nil {
			_, _ = fmt.Fprintf(w, "Target Date:\t%s\n", goal.TargetDate.Format(time.RFC3339))
		}
		_, _ = fmt.Fprintf(w, "Records:\t%d\n", len(records))
		_ = w.Flush()
		fmt.Println()
		fmt.Println(p.Message())
		return nil
	})
}

func runProgressAdd(rawID, rawValue string) error {
	id, err := parseGoalID(rawID)
	if err != nil {
		return err
	}
	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil {
		return fmt.Errorf("invalid progress value %q", rawValue)
	}

	return withApp(func(ctx context.Context, a *app.App) error {
		goal, found := a.Directory.Goal(id)
		if !found {
			return fmt.Errorf("goal %s not found", id)
		}
		if _, err := a.Directory.UpdateProgress(ctx, id, value); err != nil {
			return fmt.Errorf("failed to record progress: %w", err)
		}

		p := a.Directory.DerivedProgress(goal)
		fmt.Printf("Recorded %g %s toward %q (%d%%)\n", value, p.Unit, goal.Title, p.Percent)
		fmt.Println(p.Message())
		return nil
	})
}

type calendarView struct {
	Goal     models.Goal             `json:"goal" yaml:"goal"`
	Progress models.CalendarProgress `json:"progress" yaml:"progress"`
	Status   models.ProgressStatus   `json:"status" yaml:"status"`
	Message  string                  `json:"message" yaml:"message"`
	Workouts int                     `json:"workouts" yaml:"workouts"`
}

func runCalendarProgress(rawID, workoutsPath, format string) error {
	id, err := parseGoalID(rawID)
	if err != nil {
		return err
	}
	format, err = resolveFormat(format)
	if err != nil {
		return err
	}
	workouts, err := readWorkouts(workoutsPath)
	if err != nil {
		return err
	}

	return withApp(func(_ context.Context, a *app.App) error {
		goal, found := a.Directory.Goal(id)
		if !found {
			return fmt.Errorf("goal %s not found", id)
		}
		if goal.Period == "" {
			return fmt.Errorf("goal %s has no period; calendar progress needs daily, weekly or monthly", id)
		}

		p, err := a.Directory.CalendarProgress(goal, workouts)
		if err != nil {
			return err
		}
		view := calendarView{Goal: goal, Progress: p, Status: p.Status(), Message: p.Message(), Workouts: len(workouts)}

		if handled, err := printStructured(format, view); handled {
			return err
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Goal:\t%s\n", goal.Title)
		_, _ = fmt.Fprintf(w, "Period:\t%s (%s to %s)\n", goal.Period,
			p.PeriodStart.Format("2006-01-02"), p.PeriodEnd.Format("2006-01-02"))
		_, _ = fmt.Fprintf(w, "Progress:\t%g / %g %s (%d%%)\n", p.CurrentValue, p.TargetValue, p.Unit, p.Percent)
		_, _ = fmt.Fprintf(w, "Days Left:\t%d\n", p.DaysRemaining)
		_, _ = fmt.Fprintf(w, "Status:\t%s\n", p.Status())
		_, _ = fmt.Fprintf(w, "Workouts:\t%d\n", len(workouts))
		_ = w.Flush()
		fmt.Println()
		fmt.Println(p.Message())
		return nil
	})
}
