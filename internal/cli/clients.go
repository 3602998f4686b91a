package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andy/docket/internal/billing"
	"github.com/andy/docket/internal/domain"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage clients",
	Long:  `List and add clients. A client's rate is the default for its matters.`,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		includeArchived, _ := cmd.Flags().GetBool("archived")

		clients, err := appInstance.ClientRepo.List(ctx, includeArchived)
		if err != nil {
			return fmt.Errorf("failed to list clients: %w", err)
		}

		if len(clients) == 0 {
			fmt.Println("No clients found")
			return nil
		}

		fmt.Printf("%-8s %-30s %-15s %-10s\n", "ID", "Name", "Hourly Rate", "Status")
		fmt.Println("----------------------------------------------------------------------")

		for _, client := range clients {
			status := "Active"
			if client.IsArchived {
				status = "Archived"
			}
			fmt.Printf("%-8s %-30s %-15s %-10s\n",
				shortID(client.ID),
				truncate(client.Name, 30),
				billing.FormatMoney(client.HourlyRate),
				status,
			)
		}

		fmt.Printf("\nTotal: %d client(s)\n", len(clients))
		return nil
	},
}

var clientsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		rate, _ := cmd.Flags().GetFloat64("rate")
		email, _ := cmd.Flags().GetString("email")
		notes, _ := cmd.Flags().GetString("notes")

		client := domain.NewClient(args[0], rate)
		client.Email = email
		client.Notes = notes

		if err := client.Validate(); err != nil {
			return fmt.Errorf("invalid client: %w", err)
		}

		if err := appInstance.ClientRepo.Create(ctx, client); err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		fmt.Printf("✓ Client created: %s (ID: %s)\n", client.Name, client.ID)
		fmt.Printf("  Hourly Rate: %s\n", billing.FormatMoney(client.HourlyRate))

		return nil
	},
}

func init() {
	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsAddCmd)

	clientsListCmd.Flags().Bool("archived", false, "Include archived clients")

	clientsAddCmd.Flags().Float64("rate", 0, "Default hourly rate")
	clientsAddCmd.Flags().String("email", "", "Billing email")
	clientsAddCmd.Flags().String("notes", "", "Notes")
}
