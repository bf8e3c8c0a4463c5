package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <list-id>",
	Short: "Render a list's dependency graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		out, err := api.RenderGraph(context.Background(), args[0], format)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	graphCmd.Flags().StringP("format", "f", "tree", "output format (tree, dot, mermaid, json)")
}
