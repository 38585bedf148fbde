package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/seuros/pacer/internal/app"
	"github.com/seuros/pacer/internal/directory"
	"github.com/seuros/pacer/internal/models"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage fitness goals",
}

var goalCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a goal",
	Long: `Create a new fitness goal.

Goal types: workout_count, total_duration, distance, calories, steps and
specific_workout. A specific_workout goal needs --workout-type.

Examples:
  pacer goal create --title "Run 50km" --type distance --target 50 --period monthly
  pacer goal create --title "Swim twice" --type specific_workout --workout-type swimming --target 2 --period weekly
  pacer goal create --title "10 workouts" --type workout_count --target 10 --target-date 2025-06-30`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGoalCreate(goalSpec{
			Title:             goalTitle,
			Description:       goalDescription,
			Type:              goalType,
			TargetValue:       goalTarget,
			Unit:              goalUnit,
			TargetDate:        goalTargetDate,
			Period:            goalPeriod,
			TargetWorkoutType: goalWorkoutType,
		})
	},
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals with their progress",
	Long: `List goals together with derived progress.

Examples:
  pacer goal list
  pacer goal list --status active
  pacer goal list --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGoalList(goalListStatus, flagFormat)
	},
}

var goalDeleteCmd = &cobra.Command{
	Use:   "delete <goal-id>",
	Short: "Delete a goal",
	Long: `Delete a goal by id. Progress records of the goal are kept unless
--purge is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGoalDelete(args[0], goalPurge)
	},
}

var goalImportCmd = &cobra.Command{
	Use:   "import <goals.yaml>",
	Short: "Create goals from a YAML file",
	Long: `Create every goal listed in a YAML file.

File format:
  goals:
    - title: Run 50km
      type: distance
      target_value: 50
      period: monthly
    - title: Yoga weekly
      type: specific_workout
      target_workout_type: yoga
      target_value: 3
      period: weekly`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGoalImport(args[0])
	},
}

// Command flags
var (
	goalTitle       string
	goalDescription string
	goalType        string
	goalTarget      float64
	goalUnit        string
	goalTargetDate  string
	goalPeriod      string
	goalWorkoutType string
	goalListStatus  string
	goalPurge       bool
)

func init() {
	goalCreateCmd.Flags().StringVar(&goalTitle, "title", "", "goal title")
	goalCreateCmd.Flags().StringVar(&goalDescription, "description", "", "goal description")
	goalCreateCmd.Flags().StringVar(&goalType, "type", "", "goal type")
	goalCreateCmd.Flags().Float64Var(&goalTarget, "target", 0, "target value")
	goalCreateCmd.Flags().StringVar(&goalUnit, "unit", "", "unit label (defaults per type)")
	goalCreateCmd.Flags().StringVar(&goalTargetDate, "target-date", "", "deadline as YYYY-MM-DD or RFC3339")
	goalCreateCmd.Flags().StringVar(&goalPeriod, "period", "", "reset period: daily, weekly or monthly")
	goalCreateCmd.Flags().StringVar(&goalWorkoutType, "workout-type", "", "workout type for specific_workout goals")
	_ = goalCreateCmd.MarkFlagRequired("title")
	_ = goalCreateCmd.MarkFlagRequired("type")

	goalListCmd.Flags().StringVar(&goalListStatus, "status", "", "filter: active or completed")
	goalDeleteCmd.Flags().BoolVar(&goalPurge, "purge", false, "also delete the goal's progress records")

	goalCmd.AddCommand(goalCreateCmd)
	goalCmd.AddCommand(goalListCmd)
	goalCmd.AddCommand(goalDeleteCmd)
	goalCmd.AddCommand(goalImportCmd)
}

// goalSpec is the loosely typed goal input shared by flags and YAML files
type goalSpec struct {
	Title             string  `yaml:"title"`
	Description       string  `yaml:"description"`
	Type              string  `yaml:"type"`
	TargetValue       float64 `yaml:"target_value"`
	Unit              string  `yaml:"unit"`
	TargetDate        string  `yaml:"target_date"`
	Period            string  `yaml:"period"`
	TargetWorkoutType string  `yaml:"target_workout_type"`
}

func (s goalSpec) toNewGoal() (directory.NewGoal, error) {
	t, err := models.ParseGoalType(s.Type)
	if err != nil {
		return directory.NewGoal{}, err
	}
	period, err := models.ParseGoalPeriod(s.Period)
	if err != nil {
		return directory.NewGoal{}, err
	}
	in := directory.NewGoal{
		Title:       s.Title,
		Description: s.Description,
		Type:        t,
		TargetValue: s.TargetValue,
		Unit:        s.Unit,
		Period:      period,
	}
	if s.TargetDate != "" {
		date, err := parseDate(s.TargetDate)
		if err != nil {
			return directory.NewGoal{}, err
		}
		in.TargetDate = &date
	}
	if s.TargetWorkoutType != "" {
		in.TargetWorkoutType = models.WorkoutTypePtr(models.ParseWorkoutType(s.TargetWorkoutType))
	}
	return in, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or RFC3339)", value)
	}
	// A bare date means the end of that day.
	return t.AddDate(0, 0, 1).Add(-time.Second), nil
}

func parseGoalID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid goal id %q", value)
	}
	return id, nil
}

func runGoalCreate(spec goalSpec) error {
	in, err := spec.toNewGoal()
	if err != nil {
		return err
	}

	return withApp(func(ctx context.Context, a *app.App) error {
		goal, err := a.Directory.CreateGoal(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to create goal: %w", err)
		}
		fmt.Printf("Goal created: %s\n", goal.ID)
		fmt.Printf("  %s: %g %s (%s)\n", goal.Title, goal.TargetValue, goal.DisplayUnit(), goal.Type)
		return nil
	})
}

type goalView struct {
	models.Goal `yaml:",inline"`
	Progress    models.GoalProgress   `json:"progress" yaml:"progress"`
	Status      models.ProgressStatus `json:"status" yaml:"status"`
}

func runGoalList(status, format string) error {
	format, err := resolveFormat(format)
	if err != nil {
		return err
	}

	return withApp(func(_ context.Context, a *app.App) error {
		var goals []models.Goal
		switch status {
		case "":
			goals = a.Directory.Goals()
		case "active":
			goals = a.Directory.ActiveGoals()
		case "completed":
			goals = a.Directory.CompletedGoals()
		default:
			return fmt.Errorf("unknown status %q (use active or completed)", status)
		}

		views := make([]goalView, 0, len(goals))
		for _, g := range goals {
			p := a.Directory.DerivedProgress(g)
			views = append(views, goalView{Goal: g, Progress: p, Status: p.Status()})
		}

		if handled, err := printStructured(format, views); handled {
			return err
		}

		if len(views) == 0 {
			fmt.Println("No goals found")
			fmt.Println()
			fmt.Println("Create one with: pacer goal create --title <title> --type <type> --target <value>")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tTITLE\tTYPE\tPROGRESS\tTARGET\tSTATUS")
		_, _ = fmt.Fprintln(w, "--\t-----\t----\t--------\t------\t------")
		for _, v := range views {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%g %s\t%s\n",
				v.ID,
				v.Title,
				v.Type,
				v.Progress.Percent,
				v.TargetValue,
				v.DisplayUnit(),
				strings.ReplaceAll(string(v.Status), "_", " "),
			)
		}
		return w.Flush()
	})
}

func runGoalDelete(rawID string, purge bool) error {
	id, err := parseGoalID(rawID)
	if err != nil {
		return err
	}

	return withApp(func(ctx context.Context, a *app.App) error {
		if err := a.Directory.DeleteGoal(ctx, id); err != nil {
			return fmt.Errorf("failed to delete goal: %w", err)
		}
		fmt.Printf("Goal %s deleted\n", id)

		if purge {
			removed, err := a.Directory.PurgeProgress(ctx, id)
			if err != nil {
				return fmt.Errorf("goal deleted but progress cleanup failed: %w", err)
			}
			fmt.Printf("Removed %d progress records\n", removed)
		}
		return nil
	})
}

type goalFile struct {
	Goals []goalSpec `yaml:"goals"`
}

func runGoalImport(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file goalFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(file.Goals) == 0 {
		return fmt.Errorf("no goals found in %s", path)
	}

	inputs := make([]directory.NewGoal, 0, len(file.Goals))
	for i, spec := range file.Goals {
		in, err := spec.toNewGoal()
		if err != nil {
			return fmt.Errorf("goal %d: %w", i+1, err)
		}
		inputs = append(inputs, in)
	}

	return withApp(func(ctx context.Context, a *app.App) error {
		for i, in := range inputs {
			goal, err := a.Directory.CreateGoal(ctx, in)
			if err != nil {
				return fmt.Errorf("goal %d (%s): %w", i+1, in.Title, err)
			}
			fmt.Printf("Imported %s: %s\n", goal.ID, goal.Title)
		}
		fmt.Printf("\n%d goals imported\n", len(inputs))
		return nil
	})
}
