package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate task counts across all lists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := api.GetStats(context.Background())
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(stats)
			return nil
		}
		fmt.Printf("Lists:       %d\n", stats.TotalLists)
		fmt.Printf("Tasks:       %d\n", stats.TotalTasks)
		fmt.Printf("Pending:     %d\n", stats.TotalPending)
		fmt.Printf("In Progress: %d\n", stats.TotalInProgress)
		fmt.Printf("Completed:   %d\n", stats.TotalCompleted)
		fmt.Printf("Blocked:     %d\n", stats.TotalBlocked)
		fmt.Printf("Cancelled:   %d\n", stats.TotalCancelled)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := api.Health(context.Background())
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(status)
		return nil
	},
}
