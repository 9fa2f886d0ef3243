package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/tui"
)

var inCmd = &cobra.Command{
	Use:   "in <user> <session-id>",
	Short: "Time in for a session",
	Args:  cobra.ExactArgs(2),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		sessionID, err := parseID("session", args[1])
		if err != nil {
			return err
		}
		record, err := engine.CheckIn(context.Background(), args[0], sessionID)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s timed in at %s (record #%d)\n",
			tui.StatusIcon(record.Status), record.UserID, record.TimeIn.Local().Format("15:04:05"), record.ID)
		if record.MinutesLate > 0 {
			fmt.Printf("Late by %d min\n", record.MinutesLate)
		}
		return nil
	}),
}

var breakCmd = &cobra.Command{
	Use:   "break",
	Short: "Start and end breaks",
}

var breakStartCmd = &cobra.Command{
	Use:   "start <record-id>",
	Short: "Start a break",
	Long: `Start a break inside the schedule's break window. With --watch an
interactive timer shows the time left; press e to end the break there.

Examples:
  shiftr break start 42
  shiftr break start 42 --type coffee --watch`,
	Args: cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		recordID, err := parseID("record", args[0])
		if err != nil {
			return err
		}
		breakType, _ := cmd.Flags().GetString("type")

		ctx := context.Background()
		record, err := engine.StartBreak(ctx, recordID, breakType)
		if err != nil {
			return err
		}

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			fmt.Printf("☕ %s started a break at %s\n", record.UserID, record.BreakStart.Local().Format("15:04:05"))
			return nil
		}
		return watchBreak(ctx, recordID)
	}),
}

// watchBreak runs the break timer and ends the break if asked to
func watchBreak(ctx context.Context, recordID uint) error {
	allowance, open, err := engine.Allowance(ctx, recordID)
	if err != nil {
		return err
	}
	if open == nil {
		return fmt.Errorf("record #%d is not on a break", recordID)
	}
	record, err := engine.Record(ctx, recordID)
	if err != nil {
		return err
	}

	end, err := tui.RunBreakTimer(record, open, allowance, engine.Now)
	if err != nil {
		return err
	}
	if !end {
		fmt.Println("Break still running. End it with: shiftr break end", recordID)
		return nil
	}

	record, err = engine.EndBreak(ctx, recordID)
	if err != nil {
		return err
	}
	printBreakEnded(record)
	return nil
}

var breakEndCmd = &cobra.Command{
	Use:   "end <record-id>",
	Short: "End the current break",
	Args:  cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		recordID, err := parseID("record", args[0])
		if err != nil {
			return err
		}
		record, err := engine.EndBreak(context.Background(), recordID)
		if err != nil {
			return err
		}
		printBreakEnded(record)
		return nil
	}),
}

func printBreakEnded(record *models.AttendanceRecord) {
	fmt.Printf("⏹️  %s ended the break at %s\n", record.UserID, record.BreakEnd.Local().Format("15:04:05"))
	if n := len(record.Breaks); n > 0 {
		last := record.Breaks[n-1]
		fmt.Printf("Break duration: %s\n", formatDuration(time.Duration(last.DurationMinutes)*time.Minute))
	}
}

var outCmd = &cobra.Command{
	Use:   "out <record-id>",
	Short: "Time out",
	Args:  cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		recordID, err := parseID("record", args[0])
		if err != nil {
			return err
		}
		record, err := engine.CheckOut(context.Background(), recordID)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s timed out at %s\n",
			tui.StatusIcon(record.Status), record.UserID, record.TimeOut.Local().Format("15:04:05"))
		fmt.Printf("Hours worked: %.2f\n", record.HoursWorked)
		if record.Status == models.StatusLeftEarly {
			fmt.Println("Left before the end of the shift")
		}
		return nil
	}),
}

var excuseCmd = &cobra.Command{
	Use:   "excuse <record-id> <reason>",
	Short: "Excuse a pending or absent record",
	Args:  cobra.MinimumNArgs(2),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		recordID, err := parseID("record", args[0])
		if err != nil {
			return err
		}
		record, err := engine.Excuse(context.Background(), recordID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("📝 Excused %s for %s: %s\n", record.UserID, record.AttendanceDate, record.Note)
		return nil
	}),
}

var absencesCmd = &cobra.Command{
	Use:   "absences <session-id>",
	Short: "Mark everyone who never timed in as absent",
	Args:  cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		sessionID, err := parseID("session", args[0])
		if err != nil {
			return err
		}
		result, err := engine.MarkAbsences(context.Background(), sessionID)
		if err != nil {
			return err
		}

		if len(result.Marked) == 0 {
			fmt.Printf("Nobody to mark absent in session #%d\n", sessionID)
		} else {
			fmt.Printf("🚫 Marked absent: %s\n", strings.Join(result.Marked, ", "))
		}
		if len(result.Skipped) > 0 {
			fmt.Printf("Skipped (busy, try again): %s\n", strings.Join(result.Skipped, ", "))
		}
		return nil
	}),
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Auto-end breaks past allowance and tolerance",
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		result, err := engine.SweepBreaks(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("🧹 Auto-ended %d break(s)", result.Ended)
		if result.Skipped > 0 {
			fmt.Printf(", %d skipped", result.Skipped)
		}
		fmt.Println()
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status <user> [date]",
	Short: "Show a user's attendance for a date",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		day, err := dateArg(args, 1)
		if err != nil {
			return err
		}
		records, err := engine.Status(context.Background(), args[0], day)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Printf("No attendance for %s on %s\n", args[0], day)
			return nil
		}

		for _, record := range records {
			fmt.Println(tui.RecordCard(record))
			if record.OnBreak() {
				elapsed := engine.Now().Sub(*record.BreakStart)
				fmt.Printf("On break for %s\n", formatDuration(elapsed))
			}
		}
		return nil
	}),
}

func init() {
	breakStartCmd.Flags().String("type", models.BreakRegular, "Break type: regular|coffee|meal")
	breakStartCmd.Flags().Bool("watch", false, "Open the interactive break timer")

	breakCmd.AddCommand(breakStartCmd)
	breakCmd.AddCommand(breakEndCmd)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
}
