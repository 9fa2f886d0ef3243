package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/shiftr/internal/parser"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Open, lock and list daily sessions",
}

var sessionOpenCmd = &cobra.Command{
	Use:   "open <schedule-id> [date]",
	Short: "Open the attendance session of a schedule for a date",
	Long: `Open the attendance session of a schedule for a date (default today).
A session for a future date stays pending until its shift is about to start.

Examples:
  shiftr session open 1
  shiftr session open 1 tomorrow
  shiftr session open 1 2024-03-04`,
	Args: cobra.RangeArgs(1, 2),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		scheduleID, err := parseID("schedule", args[0])
		if err != nil {
			return err
		}
		day, err := dateArg(args, 1)
		if err != nil {
			return err
		}

		session, err := engine.ActivateSessionForDate(context.Background(), scheduleID, day)
		if err != nil {
			return err
		}
		fmt.Printf("🟢 Session #%d for %s is %s\n", session.ID, session.Date, session.Status)
		return nil
	}),
}

var sessionLockCmd = &cobra.Command{
	Use:   "lock <session-id>",
	Short: "Lock a session against further changes",
	Args:  cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		sessionID, err := parseID("session", args[0])
		if err != nil {
			return err
		}
		session, err := engine.LockSession(context.Background(), sessionID)
		if err != nil {
			return err
		}
		fmt.Printf("🔒 Locked session #%d (%s)\n", session.ID, session.Date)
		return nil
	}),
}

var sessionListCmd = &cobra.Command{
	Use:     "ls [date]",
	Aliases: []string{"list"},
	Short:   "List sessions for a date",
	Args:    cobra.MaximumNArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		day, err := dateArg(args, 0)
		if err != nil {
			return err
		}
		sessions, err := engine.SessionsForDate(context.Background(), day)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Printf("No sessions on %s\n", day)
			return nil
		}

		fmt.Printf("%-4s  %-10s  %-16s  %-13s  %s\n", "ID", "Date", "Schedule", "Shift", "Status")
		for _, s := range sessions {
			fmt.Printf("%-4d  %-10s  %-16s  %-13s  %s\n",
				s.ID, s.Date, truncate(s.Schedule.Name, 16),
				s.Schedule.TimeIn+"-"+s.Schedule.TimeOut, s.Status)
		}
		return nil
	}),
}

// dateArg parses the optional date argument at index i, defaulting to today
func dateArg(args []string, i int) (string, error) {
	input := ""
	if len(args) > i {
		input = args[i]
	}
	return parser.ParseDate(input, engine.Now())
}

func init() {
	sessionCmd.AddCommand(sessionOpenCmd)
	sessionCmd.AddCommand(sessionLockCmd)
	sessionCmd.AddCommand(sessionListCmd)
}
