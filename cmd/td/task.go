package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/groblegark/ktasks/internal/client"
	"github.com/groblegark/ktasks/internal/model"
)

// parseChecklist converts repeated "text" or "text:done" flag values into
// checklist items. A trailing ":done" marks the item complete.
func parseChecklist(items []string) []model.ExitCriterion {
	if len(items) == 0 {
		return nil
	}
	out := make([]model.ExitCriterion, 0, len(items))
	for _, it := range items {
		done := false
		if strings.HasSuffix(it, ":done") {
			done = true
			it = strings.TrimSuffix(it, ":done")
		}
		out = append(out, model.ExitCriterion{Text: it, Done: done})
	}
	return out
}

func parsePlan(items []string) []model.PlanStep {
	criteria := parseChecklist(items)
	if criteria == nil {
		return nil
	}
	out := make([]model.PlanStep, len(criteria))
	for i, c := range criteria {
		out[i] = model.PlanStep{Text: c.Text, Done: c.Done}
	}
	return out
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <list-id> <title>",
	Short: "Create a new task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		parentID, _ := cmd.Flags().GetString("parent")
		priority, _ := cmd.Flags().GetInt("priority")
		deps, _ := cmd.Flags().GetStringSlice("depends-on")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		criteria, _ := cmd.Flags().GetStringArray("criterion")
		plan, _ := cmd.Flags().GetStringArray("step")

		req := &client.CreateTaskRequest{
			ListID:       args[0],
			ParentID:     parentID,
			Title:        args[1],
			Description:  description,
			Priority:     priority,
			Dependencies: deps,
			ExitCriteria: parseChecklist(criteria),
			ActionPlan:   parsePlan(plan),
			Tags:         tags,
			CreatedBy:    actor,
		}
		if cmd.Flags().Changed("estimate") {
			est, _ := cmd.Flags().GetInt("estimate")
			req.EstimatedMinutes = &est
		}

		resp, err := api.CreateTask(context.Background(), req)
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(resp)
		} else {
			printTaskDetail(resp.Task)
			printValidation(nil, resp.Warnings)
		}
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task with its notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := api.GetTask(context.Background(), args[0])
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(task)
		} else {
			printTaskDetail(task)
		}
		return nil
	},
}

var taskLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listID, _ := cmd.Flags().GetString("list")
		status, _ := cmd.Flags().GetStringSlice("status")
		parentID, _ := cmd.Flags().GetString("parent")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		search, _ := cmd.Flags().GetString("search")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		req := &client.ListTasksRequest{
			ListID:   listID,
			Status:   status,
			ParentID: parentID,
			Tags:     tags,
			Search:   search,
			Sort:     sort,
			Limit:    limit,
			Offset:   offset,
		}
		if cmd.Flags().Changed("priority") {
			p, _ := cmd.Flags().GetInt("priority")
			req.Priority = &p
		}

		resp, err := api.ListTasks(context.Background(), req)
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(resp)
		} else {
			printTaskTable(resp.Tasks, resp.Total)
		}
		return nil
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.UpdateTaskRequest{}
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			req.Title = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			req.Description = &v
		}
		if cmd.Flags().Changed("status") {
			v, _ := cmd.Flags().GetString("status")
			req.Status = &v
		}
		if cmd.Flags().Changed("priority") {
			v, _ := cmd.Flags().GetInt("priority")
			req.Priority = &v
		}
		if cmd.Flags().Changed("estimate") {
			v, _ := cmd.Flags().GetInt("estimate")
			req.EstimatedMinutes = &v
		}
		if cmd.Flags().Changed("parent") {
			v, _ := cmd.Flags().GetString("parent")
			req.ParentID = &v
		}
		if cmd.Flags().Changed("tag") {
			v, _ := cmd.Flags().GetStringSlice("tag")
			req.Tags = &v
		}
		if cmd.Flags().Changed("criterion") {
			v, _ := cmd.Flags().GetStringArray("criterion")
			criteria := parseChecklist(v)
			req.ExitCriteria = &criteria
		}
		if cmd.Flags().Changed("step") {
			v, _ := cmd.Flags().GetStringArray("step")
			plan := parsePlan(v)
			req.ActionPlan = &plan
		}

		task, err := api.UpdateTask(context.Background(), args[0], req)
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(task)
		} else {
			printTaskDetail(task)
		}
		return nil
	},
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Mark a task completed and report newly unblocked tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := api.CompleteTask(context.Background(), args[0], actor)
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}
		printTaskDetail(resp.Task)
		if len(resp.Unblocked) > 0 {
			fmt.Printf("Unblocked:   %s\n", strings.Join(resp.Unblocked, ", "))
		}
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.DeleteTask(context.Background(), args[0]); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func init() {
	taskCreateCmd.Flags().StringP("description", "d", "", "task description")
	taskCreateCmd.Flags().String("parent", "", "parent task id")
	taskCreateCmd.Flags().IntP("priority", "p", 2, "task priority")
	taskCreateCmd.Flags().Int("estimate", 0, "estimated effort in minutes")
	taskCreateCmd.Flags().StringSlice("depends-on", nil, "prerequisite task ids (repeatable)")
	taskCreateCmd.Flags().StringSliceP("tag", "t", nil, "tags (repeatable)")
	taskCreateCmd.Flags().StringArrayP("criterion", "c", nil, "exit criterion (repeatable, append :done to mark complete)")
	taskCreateCmd.Flags().StringArray("step", nil, "action plan step (repeatable, append :done to mark complete)")

	taskLsCmd.Flags().StringP("list", "l", "", "filter by list id")
	taskLsCmd.Flags().StringSliceP("status", "s", nil, "filter by status (repeatable)")
	taskLsCmd.Flags().String("parent", "", "filter by parent task id")
	taskLsCmd.Flags().StringSliceP("tag", "t", nil, "filter by tag (repeatable, all must match)")
	taskLsCmd.Flags().IntP("priority", "p", 0, "filter by priority")
	taskLsCmd.Flags().String("search", "", "filter by title or description substring")
	taskLsCmd.Flags().String("sort", "", "sort order (updated_at, priority, title)")
	taskLsCmd.Flags().Int("limit", 200, "maximum number of tasks to return")
	taskLsCmd.Flags().Int("offset", 0, "offset for pagination")

	taskUpdateCmd.Flags().String("title", "", "new title")
	taskUpdateCmd.Flags().StringP("description", "d", "", "new description")
	taskUpdateCmd.Flags().StringP("status", "s", "", "new status")
	taskUpdateCmd.Flags().IntP("priority", "p", 0, "new priority")
	taskUpdateCmd.Flags().Int("estimate", 0, "new effort estimate in minutes")
	taskUpdateCmd.Flags().String("parent", "", "new parent task id (empty to clear)")
	taskUpdateCmd.Flags().StringSliceP("tag", "t", nil, "replace tags")
	taskUpdateCmd.Flags().StringArrayP("criterion", "c", nil, "replace exit criteria")
	taskUpdateCmd.Flags().StringArray("step", nil, "replace action plan")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskLsCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskCompleteCmd)
	taskCmd.AddCommand(taskDeleteCmd)
}
