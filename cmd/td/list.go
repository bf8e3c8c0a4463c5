package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/ktasks/internal/client"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Manage task lists",
}

var listCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new task list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		list, err := api.CreateList(context.Background(), &client.CreateListRequest{
			Title:       args[0],
			Description: description,
			CreatedBy:   actor,
		})
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(list)
		} else {
			printListDetail(list)
		}
		return nil
	},
}

var listShowCmd = &cobra.Command{
	Use:   "show <list-id>",
	Short: "Show a task list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := api.GetList(context.Background(), args[0])
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(list)
		} else {
			printListDetail(list)
		}
		return nil
	},
}

var listLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List task lists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		resp, err := api.ListLists(context.Background(), &client.ListListsRequest{
			Search: search,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(resp)
		} else {
			printListTable(resp.Lists, resp.Total)
		}
		return nil
	},
}

var listUpdateCmd = &cobra.Command{
	Use:   "update <list-id>",
	Short: "Update a task list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.UpdateListRequest{}
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			req.Title = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			req.Description = &v
		}

		list, err := api.UpdateList(context.Background(), args[0], req)
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(list)
		} else {
			printListDetail(list)
		}
		return nil
	},
}

var listDeleteCmd = &cobra.Command{
	Use:   "delete <list-id>",
	Short: "Delete a task list and all of its tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.DeleteList(context.Background(), args[0]); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func init() {
	listCreateCmd.Flags().StringP("description", "d", "", "list description")
	listLsCmd.Flags().String("search", "", "filter by title or description substring")
	listLsCmd.Flags().Int("limit", 100, "maximum number of lists to return")
	listLsCmd.Flags().Int("offset", 0, "offset for pagination")
	listUpdateCmd.Flags().String("title", "", "new title")
	listUpdateCmd.Flags().StringP("description", "d", "", "new description")

	listCmd.AddCommand(listCreateCmd)
	listCmd.AddCommand(listShowCmd)
	listCmd.AddCommand(listLsCmd)
	listCmd.AddCommand(listUpdateCmd)
	listCmd.AddCommand(listDeleteCmd)
}
