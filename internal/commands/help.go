package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show comprehensive help for shiftr",
	Long:  `Display detailed help for all shiftr commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		showCustomHelp()
	},
}

func showCustomHelp() {
	fmt.Print(`
███████╗██╗  ██╗██╗███████╗████████╗██████╗
██╔════╝██║  ██║██║██╔════╝╚══██╔══╝██╔══██╗
███████╗███████║██║█████╗     ██║   ██████╔╝
╚════██║██╔══██║██║██╔══╝     ██║   ██╔══██╗
███████║██║  ██║██║██║        ██║   ██║  ██║
╚══════╝╚═╝  ╚═╝╚═╝╚═╝        ╚═╝   ╚═╝  ╚═╝

shiftr - Employee Attendance Tracker

SCHEDULES:

  schedule create <name>  Create a shift schedule
    --in, --out           Shift start and end (HH:MM, out may be past midnight)
    --break               Break window, e.g. 12:00-13:00
    --break-max           Break allowance in minutes
    --max-breaks          Breaks allowed per day (default 1)
    --grace               Minutes after start still counted on time
    --late-threshold      Minutes after start before a late notification
    --leave-early         Minutes before end counted as leaving early
    --tz                  IANA timezone (default UTC)

    Example:
      shiftr schedule create day --in 08:00 --out 17:00 --break 12:00-13:00 --break-max 60

  schedule ls             List schedules
  schedule assign <id> <user>...
                          Add users to a schedule roster

SESSIONS:

  session open <schedule-id> [date]
                          Open the attendance session for a date (today, tomorrow, 2024-03-04)
  session lock <id>       Lock a session against further changes
  session ls [date]       List sessions for a date

ATTENDANCE:

  in <user> <session-id>  Time in
  break start <record-id> Start a break
    --type                regular|coffee|meal
    --watch               Open the break timer (e to end the break)
  break end <record-id>   End the current break
  out <record-id>         Time out
  excuse <record-id> <reason>
                          Excuse a pending or absent record
  absences <session-id>   Mark everyone who never timed in as absent
  sweep                   Auto-end breaks past allowance and tolerance

VIEWS:

  status <user> [date]    Show a user's records for a date
  report                  Records for today, or a weekly hours grid
    --user                Only this user
    --week                Hours per user per day for the current week

SERVER:

  serve                   Run the HTTP API with background jobs
    --addr                Listen address (overrides server.addr)
    --no-jobs             Do not run background jobs

  config init             Write the default config to ~/.shiftr/config.yaml
    --force               Overwrite an existing file

  version                 Show version information
  help                    Show this help

Environment variables SHIFTR_* override config keys, e.g. SHIFTR_DATABASE_DSN.

`)
}
