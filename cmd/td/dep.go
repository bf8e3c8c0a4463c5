package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage task dependencies",
}

var depSetCmd = &cobra.Command{
	Use:   "set <task-id> [prerequisite-id...]",
	Short: "Replace a task's dependency set (no ids clears it)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID := args[0]
		deps := args[1:]

		resp, err := api.SetDependencies(context.Background(), taskID, deps)
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}
		if !resp.Validation.Valid {
			printValidation(resp.Validation.Errors, resp.Validation.Warnings)
			os.Exit(1)
		}
		printTaskDetail(resp.Task)
		printValidation(nil, resp.Validation.Warnings)
		return nil
	},
}

var depValidateCmd = &cobra.Command{
	Use:   "validate <task-id> [prerequisite-id...]",
	Short: "Validate a dependency set without saving it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID := args[0]
		deps := args[1:]

		result, err := api.ValidateDependencies(context.Background(), taskID, deps)
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(result)
			return nil
		}
		printValidation(result.Errors, result.Warnings)
		if result.Valid {
			fmt.Println("ok")
			return nil
		}
		os.Exit(1)
		return nil
	},
}

func init() {
	depCmd.AddCommand(depSetCmd)
	depCmd.AddCommand(depValidateCmd)
}
