package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andy/docket/internal/logger"
	"github.com/andy/docket/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the terminal UI",
	Long:  `Launch the interactive terminal user interface for docket.`,
	RunE:  launchTUI,
}

func launchTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	matters, err := appInstance.MatterRepo.List(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load matters: %w", err)
	}

	// Keep in sync with other windows while the UI is open
	go func() {
		if err := appInstance.Timer.Watch(ctx); err != nil && ctx.Err() == nil {
			appInstance.Logger.Warn("timer watch stopped", logger.Error(err))
		}
	}()

	err = tui.Run(ctx, tui.Deps{
		Timer:   appInstance.Timer,
		Reports: appInstance.Reports,
		Matters: matters,
		Logger:  appInstance.Logger,
	})
	if err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
