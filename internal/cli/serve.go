package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/andy/docket/internal/httpserver"
	"github.com/andy/docket/internal/httpserver/deps"
	"github.com/andy/docket/internal/logger"
)

// Version is set at build time
var Version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the timer over HTTP",
	Long: `Serve the timer as a JSON API so other windows and tools can drive it.
The server keeps its view of the timer in sync with the entry store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := appInstance.Config
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Server.Listen = listen
		}
		log := appInstance.Logger

		srv := httpserver.New(cfg.Server, log, deps.Deps{
			Logger:    log,
			StartTime: time.Now(),
			Version:   Version,
			Timer:     appInstance.Timer,
			Matters:   appInstance.MatterRepo,
		})

		go func() {
			if err := appInstance.Timer.Watch(ctx); err != nil && ctx.Err() == nil {
				log.Error("timer watch stopped", logger.Error(err))
			}
		}()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		fmt.Printf("✓ Serving on http://%s\n", cfg.Server.Listen)

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Address to listen on (overrides config)")
}
