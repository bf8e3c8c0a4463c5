package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/groblegark/ktasks/internal/ui"
)

var readyCmd = &cobra.Command{
	Use:   "ready <list-id>",
	Short: "List tasks with no incomplete prerequisites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := api.ReadyTasks(context.Background(), args[0])
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(tasks)
		} else {
			printTaskTable(tasks, len(tasks))
		}
		return nil
	},
}

var blockedCmd = &cobra.Command{
	Use:   "blocked <list-id>",
	Short: "List tasks waiting on incomplete prerequisites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blocked, err := api.BlockedTasks(context.Background(), args[0])
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(blocked)
		} else {
			printBlockedTable(blocked)
		}
		return nil
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <list-id>",
	Short: "Show the critical path through a list's dependency graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := api.CriticalPath(context.Background(), args[0])
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}
		if len(resp.Path) == 0 {
			fmt.Println("no incomplete tasks")
			return nil
		}
		fmt.Printf("%s (%dm)\n", strings.Join(resp.Path, " -> "), resp.Minutes)
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <list-id>",
	Short: "Run full dependency analysis on a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := api.Analyze(context.Background(), args[0])
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(a)
			return nil
		}

		s := a.Summary
		fmt.Printf("List:       %s\n", ui.RenderAccent(a.ListID))
		fmt.Printf("Tasks:      %d total, %d pending, %d in progress, %d completed\n",
			s.TotalTasks, s.TotalPending, s.TotalInProgress, s.TotalCompleted)
		fmt.Printf("Graph:      %d edges, %d ready, %d blocked\n",
			s.EdgeCount, s.ReadyCount, s.BlockedCount)
		for _, cycle := range a.Cycles {
			fmt.Printf("Cycle:      %s\n", strings.Join(cycle, " -> "))
		}
		if len(a.CriticalPath) > 0 {
			fmt.Printf("Critical:   %s (%dm)\n", strings.Join(a.CriticalPath, " -> "), a.CriticalMinutes)
		}
		for _, r := range a.Recommendations {
			fmt.Printf("Advice:     %s\n", r)
		}
		if len(a.ReadyTasks) > 0 {
			fmt.Println("\nReady:")
			printTaskTable(a.ReadyTasks, len(a.ReadyTasks))
		}
		if len(a.BlockedTasks) > 0 {
			fmt.Println("\nBlocked:")
			printBlockedTable(a.BlockedTasks)
		}
		return nil
	},
}
