package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/baiirun/tempo/internal/config"
	"github.com/baiirun/tempo/internal/db"
	"github.com/baiirun/tempo/internal/model"
	"github.com/baiirun/tempo/internal/repo"
	"github.com/baiirun/tempo/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "tempo",
	Short: "Timeblock-based task and habit scheduling",
	Long:  `Organize work into timeblocks, attach tasks and recurring habits, and let urgency ranking surface the most pressing item first.`,
}

// openRepo builds the repository stack from config. Caller must invoke the
// returned cleanup.
func openRepo() (*repo.Repository, func(), error) {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Init(); err != nil {
		_ = database.Close()
		return nil, nil, err
	}

	r := repo.New(database, logger)
	if err := r.LoadAll(); err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	return r, func() { _ = database.Close() }, nil
}

func parsePriority(s string) (model.Priority, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return model.PriorityNone, nil
	case "verylow":
		return model.PriorityVeryLow, nil
	case "low":
		return model.PriorityLow, nil
	case "medium":
		return model.PriorityMedium, nil
	case "high":
		return model.PriorityHigh, nil
	case "veryhigh":
		return model.PriorityVeryHigh, nil
	}
	return model.PriorityNone, fmt.Errorf("unknown priority %q", s)
}

// parseDays turns "mon,wed,fri" into a weekday bitmask.
func parseDays(s string) (byte, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	var flags byte
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "sun", "sunday":
			flags |= byte(model.Sunday)
		case "mon", "monday":
			flags |= byte(model.Monday)
		case "tue", "tuesday":
			flags |= byte(model.Tuesday)
		case "wed", "wednesday":
			flags |= byte(model.Wednesday)
		case "thu", "thursday":
			flags |= byte(model.Thursday)
		case "fri", "friday":
			flags |= byte(model.Friday)
		case "sat", "saturday":
			flags |= byte(model.Saturday)
		default:
			return 0, fmt.Errorf("unknown weekday %q", part)
		}
	}
	return flags, nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the tempo config and database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, err := config.DefaultPath()
		if err != nil {
			return err
		}
		cfg := config.DefaultConfig()
		if err := cfg.Save(cfgPath); err != nil {
			return err
		}
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()
		if err := database.Init(); err != nil {
			return err
		}
		fmt.Printf("initialized %s\n", cfg.DBPath)
		return nil
	},
}

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Manage timeblocks",
}

var (
	blockDesc     string
	blockDays     string
	blockDuration time.Duration
	blockStart    string
	blockDayStart time.Duration
)

var blockAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a timeblock (weekly with --days, single event with --start)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := openRepo()
		if err != nil {
			return err
		}
		defer cleanup()

		flags, err := parseDays(blockDays)
		if err != nil {
			return err
		}

		tb := model.Timeblock{
			Name:         args[0],
			Desc:         blockDesc,
			DayFrequency: model.DayFrequency(flags),
			Duration:     int64(blockDuration.Seconds()),
			Status:       model.TimeblockOngoing,
		}
		if flags == 0 {
			if blockStart == "" {
				return fmt.Errorf("single-event blocks need --start")
			}
			start, err := time.ParseInLocation("2006-01-02 15:04", blockStart, time.Local)
			if err != nil {
				return fmt.Errorf("bad --start (want YYYY-MM-DD HH:MM): %w", err)
			}
			tb.Start = start.Unix()
		} else {
			tb.DayStart = int64(blockDayStart.Seconds())
		}

		if err := r.AddTimeblock(tb); err != nil {
			return err
		}
		fmt.Printf("added timeblock %q\n", tb.Name)
		return nil
	},
}

var blockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List timeblocks ranked by urgency",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := openRepo()
		if err != nil {
			return err
		}
		defer cleanup()

		for i, tb := range r.Timeblocks() {
			fmt.Printf("[%d] %s  %s  (%d active, %d archived)\n",
				i, tb.UUID[:8], tb.Name, len(tb.Tasks), len(tb.ArchivedTasks))
		}
		return nil
	},
}

var blockRmCmd = &cobra.Command{
	Use:   "rm <uuid>",
	Short: "Delete a timeblock and its tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := openRepo()
		if err != nil {
			return err
		}
		defer cleanup()
		return r.RemoveTimeblock(args[0])
	},
}

func setBlockStatus(uuid string, status model.TimeblockStatus) error {
	r, cleanup, err := openRepo()
	if err != nil {
		return err
	}
	defer cleanup()

	for _, tb := range r.Timeblocks() {
		if tb.UUID == uuid {
			tb.Status = status
			return r.UpdateTimeblock(tb)
		}
	}
	return repo.ErrNotFound
}

var blockPinCmd = &cobra.Command{
	Use:   "pin <uuid>",
	Short: "Pin a timeblock to the top of the list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBlockStatus(args[0], model.TimeblockPinned)
	},
}

var blockStopCmd = &cobra.Command{
	Use:   "stop <uuid>",
	Short: "Stop a timeblock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBlockStatus(args[0], model.TimeblockStopped)
	},
}

var (
	taskBlock    int
	taskDesc     string
	taskPriority string
	taskDue      string
	habitDays    string
	habitFreq    int
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a task or habit to a timeblock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := openRepo()
		if err != nil {
			return err
		}
		defer cleanup()

		priority, err := parsePriority(taskPriority)
		if err != nil {
			return err
		}

		task := model.Task{
			Name:     args[0],
			Desc:     taskDesc,
			Priority: priority,
			Status:   model.StatusIncomplete,
		}
		if taskDue != "" {
			due, err := time.ParseInLocation("2006-01-02 15:04", taskDue, time.Local)
			if err != nil {
				return fmt.Errorf("bad --due (want YYYY-MM-DD HH:MM): %w", err)
			}
			task.DueDate = due.Unix()
		}
		if habitDays != "" {
			flags, err := parseDays(habitDays)
			if err != nil {
				return err
			}
			task.Status = model.StatusHabit
			task.Goal = model.DayFrequency(flags)
		} else if habitFreq > 0 {
			task.Status = model.StatusHabit
			task.Goal = model.Frequency(byte(habitFreq))
		}

		if err := r.AddTask(task, taskBlock); err != nil {
			return err
		}
		fmt.Printf("added %q to block %d\n", task.Name, taskBlock)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every timeblock with its ranked tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := openRepo()
		if err != nil {
			return err
		}
		defer cleanup()

		for i, tb := range r.Timeblocks() {
			fmt.Printf("[%d] %s\n", i, tb.Name)
			for _, t := range tb.Tasks {
				due := "no due date"
				if t.DueDate != 0 {
					due = humanize.Time(time.Unix(t.DueDate, 0))
				}
				fmt.Printf("    %c %s  (%s, %s, urgency %.2f)\n",
					t.PriorityChar(), t.Name, t.PriorityString(), due, t.Urgency())
			}
			for _, t := range tb.ArchivedTasks {
				fmt.Printf("    ✓ %s\n", t.Name)
			}
		}
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <uuid>",
	Short: "Mark a task complete (moves it to the archive)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := openRepo()
		if err != nil {
			return err
		}
		defer cleanup()

		for _, tb := range r.Timeblocks() {
			for _, t := range tb.Tasks {
				if t.UUID == args[0] {
					t.Status = model.StatusComplete
					return r.UpdateTask(t)
				}
			}
		}
		return repo.ErrNotFound
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <uuid>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := openRepo()
		if err != nil {
			return err
		}
		defer cleanup()
		return r.RemoveTask(args[0])
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <uuid> <block-uuid>",
	Short: "Move a task to another timeblock",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := openRepo()
		if err != nil {
			return err
		}
		defer cleanup()
		return r.MoveTask(args[0], args[1])
	},
}

var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Record habit completions",
}

// habitDate resolves an optional YYYY-MM-DD argument, defaulting to today.
func habitDate(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return time.Now().Format("2006-01-02")
}

var habitLogCmd = &cobra.Command{
	Use:   "log <uuid> [date]",
	Short: "Mark a habit complete for a date (default today)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := openRepo()
		if err != nil {
			return err
		}
		defer cleanup()
		return r.AddHabitEntry(args[0], habitDate(args))
	},
}

var habitUnlogCmd = &cobra.Command{
	Use:   "unlog <uuid> [date]",
	Short: "Remove a habit completion for a date (default today)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := openRepo()
		if err != nil {
			return err
		}
		defer cleanup()
		return r.RemoveHabitEntry(args[0], habitDate(args))
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := openRepo()
		if err != nil {
			return err
		}
		defer cleanup()
		return tui.Run(r)
	},
}

func init() {
	blockAddCmd.Flags().StringVar(&blockDesc, "desc", "", "description")
	blockAddCmd.Flags().StringVar(&blockDays, "days", "", "weekdays, e.g. mon,wed,fri (empty = single event)")
	blockAddCmd.Flags().DurationVar(&blockDuration, "duration", time.Hour, "block length")
	blockAddCmd.Flags().StringVar(&blockStart, "start", "", "start for single events (YYYY-MM-DD HH:MM)")
	blockAddCmd.Flags().DurationVar(&blockDayStart, "day-start", 9*time.Hour, "time of day weekly blocks begin")
	blockCmd.AddCommand(blockAddCmd, blockListCmd, blockRmCmd, blockPinCmd, blockStopCmd)

	addCmd.Flags().IntVar(&taskBlock, "block", 0, "timeblock index")
	addCmd.Flags().StringVar(&taskDesc, "desc", "", "description")
	addCmd.Flags().StringVar(&taskPriority, "priority", "medium", "none|verylow|low|medium|high|veryhigh")
	addCmd.Flags().StringVar(&taskDue, "due", "", "due date (YYYY-MM-DD HH:MM)")
	addCmd.Flags().StringVar(&habitDays, "habit-days", "", "make this a weekday habit, e.g. mon,wed")
	addCmd.Flags().IntVar(&habitFreq, "habit-freq", 0, "make this an N-times-per-week habit")

	habitCmd.AddCommand(habitLogCmd, habitUnlogCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(habitCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
