package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/shiftr/internal/attendance"
	"github.com/balkashynov/shiftr/internal/parser"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage shift schedules",
}

var scheduleCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a shift schedule",
	Long: `Create a shift schedule. Time out may be earlier than time in for
overnight shifts.

Examples:
  shiftr schedule create day --in 08:00 --out 17:00 --break 12:00-13:00 --break-max 60
  shiftr schedule create night --in 22:00 --out 06:00 --break 01:00-02:00 --break-max 30 --tz Europe/Kyiv`,
	Args: cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		timeIn, _ := flags.GetString("in")
		timeOut, _ := flags.GetString("out")
		window, _ := flags.GetString("break")

		breakStart, breakEnd, err := parser.ParseWindow(window)
		if err != nil {
			return err
		}

		in := attendance.ScheduleInput{
			Name:       args[0],
			TimeIn:     timeIn,
			TimeOut:    timeOut,
			BreakStart: breakStart,
			BreakEnd:   breakEnd,
		}
		in.BreakMaxMinutes, _ = flags.GetInt("break-max")
		in.MaxBreaks, _ = flags.GetInt("max-breaks")
		in.GracePeriodMinutes, _ = flags.GetInt("grace")
		in.LateThresholdMinutes, _ = flags.GetInt("late-threshold")
		in.Timezone, _ = flags.GetString("tz")
		if flags.Changed("leave-early") {
			leaveEarly, _ := flags.GetInt("leave-early")
			in.LeaveEarlyMinutes = &leaveEarly
		}

		schedule, err := engine.CreateSchedule(context.Background(), in)
		if err != nil {
			return err
		}

		fmt.Printf("📅 Created schedule #%d: %s\n", schedule.ID, schedule.Name)
		fmt.Printf("Shift: %s → %s (%s)\n", schedule.TimeIn, schedule.TimeOut, schedule.Timezone)
		fmt.Printf("Break: %s → %s, %d min, %d per day\n",
			schedule.BreakStart, schedule.BreakEnd, schedule.BreakMaxMinutes, schedule.MaxBreaks)
		return nil
	}),
}

var scheduleListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List schedules",
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		schedules, err := engine.ListSchedules(context.Background())
		if err != nil {
			return err
		}
		if len(schedules) == 0 {
			fmt.Println("No schedules yet. Create one with: shiftr schedule create")
			return nil
		}

		fmt.Printf("%-4s  %-16s  %-13s  %-13s  %5s  %5s  %s\n", "ID", "Name", "Shift", "Break", "Max", "Grace", "Timezone")
		for _, s := range schedules {
			fmt.Printf("%-4d  %-16s  %-13s  %-13s  %5d  %5d  %s\n",
				s.ID, truncate(s.Name, 16),
				s.TimeIn+"-"+s.TimeOut, s.BreakStart+"-"+s.BreakEnd,
				s.BreakMaxMinutes, s.GracePeriodMinutes, s.Timezone)
		}
		return nil
	}),
}

var scheduleAssignCmd = &cobra.Command{
	Use:   "assign <schedule-id> <user>...",
	Short: "Add users to a schedule roster",
	Args:  cobra.MinimumNArgs(2),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		scheduleID, err := parseID("schedule", args[0])
		if err != nil {
			return err
		}
		if err := engine.AssignUsers(context.Background(), scheduleID, args[1:]...); err != nil {
			return err
		}
		fmt.Printf("👥 Assigned %d user(s) to schedule #%d\n", len(args)-1, scheduleID)
		return nil
	}),
}

// truncate shortens s to max runes with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func init() {
	flags := scheduleCreateCmd.Flags()
	flags.String("in", "", "Shift start (HH:MM)")
	flags.String("out", "", "Shift end (HH:MM)")
	flags.String("break", "", "Break window (HH:MM-HH:MM)")
	flags.Int("break-max", 0, "Break allowance in minutes")
	flags.Int("max-breaks", 1, "Breaks allowed per day")
	flags.Int("grace", 0, "Grace period in minutes")
	flags.Int("late-threshold", 0, "Minutes late before a late notification")
	flags.Int("leave-early", 0, "Minutes before shift end counted as leaving early (default: late threshold)")
	flags.String("tz", "UTC", "IANA timezone")
	scheduleCreateCmd.MarkFlagRequired("in")
	scheduleCreateCmd.MarkFlagRequired("out")
	scheduleCreateCmd.MarkFlagRequired("break")

	scheduleCmd.AddCommand(scheduleCreateCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleAssignCmd)
}
