package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/shiftr/internal/api"
	"github.com/balkashynov/shiftr/internal/jobs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background jobs",
	Long: `Run the HTTP API with the background runner that opens due sessions,
auto-ends overlong breaks and marks absences after each shift's cutoff.
Stops cleanly on SIGINT or SIGTERM.`,
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		noJobs, _ := cmd.Flags().GetBool("no-jobs")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		router := api.NewRouter(&api.Handler{
			Engine: engine,
			Health: store,
			Audit:  store,
			Logger: logger,
		})
		srv := &http.Server{
			Addr:        addr,
			Handler:     router,
			BaseContext: func(net.Listener) context.Context { return ctx },
		}

		jobsDone := make(chan struct{})
		if cfg.Jobs.Enabled && !noJobs {
			runner := jobs.NewRunner(engine, cfg.JobInterval(), logger)
			go func() {
				defer close(jobsDone)
				runner.Run(ctx)
			}()
		} else {
			close(jobsDone)
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Printf("🚀 Listening on %s", addr)
			errCh <- srv.ListenAndServe()
		}()

		var serveErr error
		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				serveErr = err
			}
			stop()
		case <-ctx.Done():
			logger.Println("🛑 Shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
			serveErr = err
		}
		<-jobsDone
		return serveErr
	}),
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from server.addr)")
	serveCmd.Flags().Bool("no-jobs", false, "Do not run background jobs")
}
