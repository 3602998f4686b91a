package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andy/docket/internal/billing"
	"github.com/andy/docket/internal/domain"
	"github.com/andy/docket/internal/service"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Manage the active timer",
	Long: `Start, pause, resume, stop, or switch the active timer.

The timer lives in the entry store, so a timer started on one machine
can be paused or stopped from another.`,
}

var timerStartCmd = &cobra.Command{
	Use:   "start [matter]",
	Short: "Start a timer on a matter",
	Long:  `Start a timer on a matter given by ID, name, or "Client / Matter".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		matter, err := resolveMatter(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve matter: %w", err)
		}

		if err := appInstance.Timer.Start(ctx, matter.Ref()); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				snap := appInstance.Timer.Snapshot()
				return fmt.Errorf("a timer is already running for %s; stop or switch it first", snap.Label)
			}
			return fmt.Errorf("failed to start timer: %w", err)
		}

		fmt.Printf("✓ Timer started for %s\n", matter.Label())
		fmt.Printf("  Rate: %s/hr\n", billing.FormatMoney(matter.Ref().HourlyRate))
		return nil
	},
}

var timerPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the active timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := refreshTimer(ctx); err != nil {
			return err
		}
		if err := appInstance.Timer.Pause(ctx); err != nil {
			return fmt.Errorf("failed to pause timer: %w", err)
		}

		fmt.Println("✓ Timer paused")
		return nil
	},
}

var timerResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := refreshTimer(ctx); err != nil {
			return err
		}
		if err := appInstance.Timer.Resume(ctx); err != nil {
			return fmt.Errorf("failed to resume timer: %w", err)
		}

		fmt.Println("✓ Timer resumed")
		return nil
	},
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active timer and save the time entry",
	Long: `Stop the active timer. You will be asked for notes unless --notes is
given; blank notes keep whatever the entry already has.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := refreshTimer(ctx); err != nil {
			return err
		}
		if err := appInstance.Timer.Stop(); err != nil {
			return fmt.Errorf("failed to stop timer: %w", err)
		}

		return submitQuickAction(ctx, cmd)
	},
}

var timerSwitchCmd = &cobra.Command{
	Use:   "switch [matter]",
	Short: "Close the active entry and start a timer on another matter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		matter, err := resolveMatter(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve matter: %w", err)
		}

		if err := refreshTimer(ctx); err != nil {
			return err
		}

		before := appInstance.Timer.Snapshot()
		if err := appInstance.Timer.QuickSwitch(ctx, matter.Ref()); err != nil {
			return fmt.Errorf("failed to switch timer: %w", err)
		}

		snap := appInstance.Timer.Snapshot()
		if !snap.QuickSwitch.Pending {
			// Idle or already on this matter; nothing to close
			if before.Entry == nil {
				fmt.Printf("✓ Timer started for %s\n", matter.Label())
			} else {
				fmt.Printf("Already timing %s\n", matter.Label())
			}
			return nil
		}

		return submitQuickAction(ctx, cmd)
	},
}

var timerStatusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"refresh"},
	Short:   "Show the active timer and today's billed time",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := refreshTimer(ctx); err != nil {
			return err
		}

		snap := appInstance.Timer.Snapshot()
		printSnapshot(snap)

		today, err := appInstance.Reports.GetDailySummary(ctx, snap.At.Local())
		if err != nil {
			return fmt.Errorf("failed to summarize today: %w", err)
		}
		if n := len(today.Entries); n > 0 {
			fmt.Printf("\nToday: %d closed entr%s, %s billed, %s\n",
				n, plural(n, "y", "ies"),
				billing.FormatBillableHours(today.BillableHours),
				billing.FormatMoney(today.TotalValue))
		}

		return nil
	},
}

func init() {
	timerStopCmd.Flags().String("notes", "", "Notes for the closed entry")
	timerSwitchCmd.Flags().String("notes", "", "Notes for the closed entry")

	timerCmd.AddCommand(timerStartCmd)
	timerCmd.AddCommand(timerPauseCmd)
	timerCmd.AddCommand(timerResumeCmd)
	timerCmd.AddCommand(timerStopCmd)
	timerCmd.AddCommand(timerSwitchCmd)
	timerCmd.AddCommand(timerStatusCmd)
}

func refreshTimer(ctx context.Context) error {
	if err := appInstance.Timer.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to load timer: %w", err)
	}
	return nil
}

// submitQuickAction collects notes for the open prompt and closes the entry
func submitQuickAction(ctx context.Context, cmd *cobra.Command) error {
	snap := appInstance.Timer.Snapshot()

	notes, _ := cmd.Flags().GetString("notes")
	if !cmd.Flags().Changed("notes") {
		var err error
		notes, err = promptNotes(snap.Label)
		if err != nil {
			appInstance.Timer.CancelQuickAction()
			return err
		}
	}

	closed, err := appInstance.Timer.SubmitQuickAction(ctx, notes)
	if closed == nil {
		appInstance.Timer.CancelQuickAction()
		if err != nil {
			return fmt.Errorf("failed to stop timer: %w", err)
		}
		if now := appInstance.Timer.Snapshot(); now.Entry != nil {
			fmt.Printf("Previous timer was already stopped elsewhere\n")
			fmt.Printf("✓ Timer started for %s\n", now.Label)
		}
		return nil
	}

	fmt.Printf("✓ Timer stopped\n")
	printClosed(closed)

	if snap.QuickSwitch.IsSwitch() {
		if err != nil {
			return fmt.Errorf("entry saved but the next timer did not start: %w", err)
		}
		fmt.Printf("✓ Timer started for %s\n", appInstance.Timer.Snapshot().Label)
	}
	return nil
}

func printClosed(e *domain.TimeEntry) {
	end := *e.EndAt
	fmt.Printf("  Matter: %s\n", e.MatterName)
	fmt.Printf("  Duration: %s\n", billing.FormatDurationHuman(e.ElapsedSeconds(end)))
	fmt.Printf("  Billable: %s\n", billing.FormatBillableHours(e.BillableHours(end)))
	fmt.Printf("  Amount: %s\n", billing.FormatMoney(e.Amount(end)))
	if e.Notes != "" {
		fmt.Printf("  Notes: %s\n", e.Notes)
	}
}

func printSnapshot(snap service.TimerSnapshot) {
	if snap.Entry == nil {
		fmt.Println("No active timer")
		return
	}

	fmt.Printf("Timer Status: %s\n", snap.State)
	fmt.Printf("  Matter: %s\n", snap.Label)
	fmt.Printf("  Started: %s\n", snap.Entry.StartAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Elapsed: %s\n", billing.FormatDuration(snap.ElapsedSeconds))
	fmt.Printf("  Billable: %s\n", billing.FormatBillableHours(snap.BillableHours))
	fmt.Printf("  Current Value: %s\n", billing.FormatMoney(snap.Amount))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
