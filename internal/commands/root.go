package commands

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/balkashynov/shiftr/internal/attendance"
	"github.com/balkashynov/shiftr/internal/clock"
	"github.com/balkashynov/shiftr/internal/config"
	"github.com/balkashynov/shiftr/internal/db"
	"github.com/balkashynov/shiftr/internal/notify"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string

	cfg     *config.Config
	store   *db.Store
	engine  *attendance.Engine
	logger  = log.New(os.Stderr, "shiftr ", log.LstdFlags)
	closers []func()
)

var rootCmd = &cobra.Command{
	Use:   "shiftr",
	Short: "Employee attendance tracking",
	Long: `shiftr tracks employee attendance against shift schedules.
Open sessions and record attendance from the terminal, or serve the HTTP
API with background jobs.`,
	SilenceUsage: true,
}

// initDB loads config, opens the database and builds the engine
func initDB() error {
	if engine != nil {
		return nil
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	store, err = db.Open(db.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Debug:  cfg.Database.Debug,
	})
	if err != nil {
		return err
	}

	bus := notify.NewBus(logger)
	engine = attendance.NewEngine(store, attendance.Deps{
		Clock:  clock.Real{},
		Bus:    bus,
		Audit:  store,
		Logger: logger,
	}, cfg.EngineConfig())
	return attachDispatchers(bus)
}

// attachDispatchers forwards notifications to the log and, when
// configured, to Discord through a background queue
func attachDispatchers(bus *notify.Bus) error {
	closers = append(closers, notify.Attach(bus, notify.LogDispatcher{Logger: logger}, logger))
	if !cfg.Discord.Enabled() {
		return nil
	}

	discord, err := notify.NewDiscordDispatcher(cfg.Discord.Token, cfg.Discord.ChannelID)
	if err != nil {
		return err
	}
	async := notify.NewAsyncDispatcher(discord, cfg.Policy.NotificationQueueDepth, logger)
	detach := notify.Attach(bus, async, logger)
	closers = append(closers, func() {
		detach()
		async.Close()
		discord.Close()
	})
	return nil
}

// shutdown drains notifications and closes the database
func shutdown() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
	if store != nil {
		store.Close()
	}
}

// withDB wraps a command function to initialize the database first
func withDB(fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := initDB(); err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		defer shutdown()
		return fn(cmd, args)
	}
}

// parseID parses a numeric id argument
func parseID(kind, arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s ID '%s'", kind, arg)
	}
	return uint(id), nil
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("shiftr %s (commit %s, built %s)\n", version, commit, date)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.shiftr/config.yaml)")

	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(inCmd)
	rootCmd.AddCommand(breakCmd)
	rootCmd.AddCommand(outCmd)
	rootCmd.AddCommand(excuseCmd)
	rootCmd.AddCommand(absencesCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
