package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andy/docket/internal/billing"
	"github.com/andy/docket/internal/service"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize billed time",
}

var reportDayCmd = &cobra.Command{
	Use:   "day [YYYY-MM-DD]",
	Short: "Show closed time for a day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		date, err := parseDate(args)
		if err != nil {
			return err
		}

		summary, err := appInstance.Reports.GetDailySummary(ctx, date)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}

		fmt.Printf("%s\n\n", summary.Date.Format("Monday, January 2, 2006"))
		if len(summary.Entries) == 0 {
			fmt.Println("No closed entries")
			return nil
		}

		fmt.Printf("%-6s %-6s %-35s %-16s %-12s\n", "Start", "End", "Matter", "Billable", "Amount")
		fmt.Println("------------------------------------------------------------------------------")
		for _, e := range summary.Entries {
			end := *e.EndAt
			fmt.Printf("%-6s %-6s %-35s %-16s %-12s\n",
				e.StartAt.Local().Format("15:04"),
				end.Local().Format("15:04"),
				truncate(e.MatterName, 35),
				billing.FormatBillableHours(e.BillableHours(end)),
				billing.FormatMoney(e.Amount(end)),
			)
			if e.Notes != "" {
				fmt.Printf("%-13s %s\n", "", truncate(e.Notes, 60))
			}
		}

		printMatterTotals(summary.ByMatter)
		fmt.Printf("\nTotal: %s, %s\n",
			billing.FormatBillableHours(summary.BillableHours),
			billing.FormatMoney(summary.TotalValue))
		return nil
	},
}

var reportWeekCmd = &cobra.Command{
	Use:   "week [YYYY-MM-DD]",
	Short: "Show closed time for the week containing a date (default this week)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		date, err := parseDate(args)
		if err != nil {
			return err
		}

		summary, err := appInstance.Reports.GetWeekSummary(ctx, date)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}

		fmt.Printf("Week of %s\n\n", summary.WeekStart.Format("January 2, 2006"))
		for i := 0; i < 7; i++ {
			day := summary.WeekStart.AddDate(0, 0, i)
			fmt.Printf("  %-10s %4.1f\n", day.Format("Mon 01/02"), summary.ByDay[day.Weekday()])
		}

		printMatterTotals(summary.ByMatter)
		fmt.Printf("\nTotal: %s, %s\n",
			billing.FormatBillableHours(summary.BillableHours),
			billing.FormatMoney(summary.TotalValue))
		return nil
	},
}

func init() {
	reportCmd.AddCommand(reportDayCmd)
	reportCmd.AddCommand(reportWeekCmd)
}

func parseDate(args []string) (time.Time, error) {
	if len(args) == 0 {
		return time.Now(), nil
	}
	date, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", args[0])
	}
	return date, nil
}

func printMatterTotals(totals []service.MatterTotal) {
	if len(totals) == 0 {
		return
	}
	fmt.Println("\nBy matter:")
	for _, t := range totals {
		fmt.Printf("  %-35s %-16s %s\n",
			truncate(t.MatterName, 35),
			billing.FormatBillableHours(t.BillableHours),
			billing.FormatMoney(t.Amount))
	}
}
