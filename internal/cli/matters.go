package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andy/docket/internal/billing"
	"github.com/andy/docket/internal/domain"
)

var mattersCmd = &cobra.Command{
	Use:   "matters",
	Short: "Manage matters",
	Long:  `List and add matters. Timers always bill against a matter.`,
}

var mattersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List matters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var clientID string
		if name, _ := cmd.Flags().GetString("client"); name != "" {
			client, err := resolveClient(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to resolve client: %w", err)
			}
			clientID = client.ID
		}

		matters, err := appInstance.MatterRepo.List(ctx, clientID)
		if err != nil {
			return fmt.Errorf("failed to list matters: %w", err)
		}

		if len(matters) == 0 {
			fmt.Println("No matters found")
			return nil
		}

		fmt.Printf("%-8s %-45s %-12s %-10s\n", "ID", "Client / Matter", "Number", "Rate")
		fmt.Println("------------------------------------------------------------------------------")

		for _, m := range matters {
			rate := billing.FormatMoney(m.Ref().HourlyRate)
			if m.HourlyRate == nil {
				rate += "*"
			}
			fmt.Printf("%-8s %-45s %-12s %-10s\n",
				shortID(m.ID),
				truncate(m.Label(), 45),
				truncate(m.MatterNumber, 12),
				rate,
			)
		}

		fmt.Printf("\nTotal: %d matter(s); * uses the client rate\n", len(matters))
		return nil
	},
}

var mattersAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a matter under a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		clientName, _ := cmd.Flags().GetString("client")
		client, err := resolveClient(ctx, clientName)
		if err != nil {
			return fmt.Errorf("failed to resolve client: %w", err)
		}

		var rate *float64
		if cmd.Flags().Changed("rate") {
			r, _ := cmd.Flags().GetFloat64("rate")
			rate = &r
		}

		matter := domain.NewMatter(client.ID, args[0], rate)
		matter.MatterNumber, _ = cmd.Flags().GetString("number")
		matter.Description, _ = cmd.Flags().GetString("description")
		matter.Client = client

		if err := matter.Validate(); err != nil {
			return fmt.Errorf("invalid matter: %w", err)
		}

		if err := appInstance.MatterRepo.Create(ctx, matter); err != nil {
			return fmt.Errorf("failed to create matter: %w", err)
		}

		fmt.Printf("✓ Matter created: %s (ID: %s)\n", matter.Label(), matter.ID)
		fmt.Printf("  Hourly Rate: %s\n", billing.FormatMoney(matter.Ref().HourlyRate))
		return nil
	},
}

func init() {
	mattersCmd.AddCommand(mattersListCmd)
	mattersCmd.AddCommand(mattersAddCmd)

	mattersListCmd.Flags().String("client", "", "Only this client's matters")

	mattersAddCmd.Flags().String("client", "", "Client ID or name (required)")
	mattersAddCmd.Flags().Float64("rate", 0, "Hourly rate (defaults to the client's)")
	mattersAddCmd.Flags().String("number", "", "Matter number")
	mattersAddCmd.Flags().String("description", "", "Description")
	_ = mattersAddCmd.MarkFlagRequired("client")
}
