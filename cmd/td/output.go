package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/groblegark/ktasks/internal/model"
	"github.com/groblegark/ktasks/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printTaskDetail(t *model.Task) {
	fmt.Printf("ID:          %s\n", ui.RenderAccent(t.ID))
	fmt.Printf("List:        %s\n", t.ListID)
	if t.ParentID != "" {
		fmt.Printf("Parent:      %s\n", t.ParentID)
	}
	fmt.Printf("Title:       %s\n", t.Title)
	fmt.Printf("Status:      %s\n", ui.RenderStatus(t.Status))
	fmt.Printf("Priority:    %d\n", t.Priority)
	if t.EstimatedMinutes != nil {
		fmt.Printf("Estimate:    %dm\n", *t.EstimatedMinutes)
	}
	if t.Description != "" {
		fmt.Printf("Description: %s\n", t.Description)
	}
	if len(t.Dependencies) > 0 {
		fmt.Printf("Depends On:  %s\n", strings.Join(t.Dependencies, ", "))
	}
	if len(t.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", strings.Join(t.Tags, ", "))
	}
	for _, c := range t.ExitCriteria {
		fmt.Printf("Criterion:   %s %s\n", checkbox(c.Done), c.Text)
	}
	for _, p := range t.ActionPlan {
		fmt.Printf("Plan:        %s %s\n", checkbox(p.Done), p.Text)
	}
	fmt.Printf("Created By:  %s\n", t.CreatedBy)
	fmt.Printf("Created At:  %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated At:  %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))
	if t.CompletedAt != nil {
		fmt.Printf("Completed:   %s\n", t.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	for _, n := range t.Notes {
		fmt.Printf("Note:        [%s] %s\n", n.Author, n.Text)
	}
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func printTaskTable(tasks []*model.Task, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRI\tDEPS\tTITLE")
	for _, t := range tasks {
		title := t.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", t.ID, ui.RenderStatus(t.Status), t.Priority, len(t.Dependencies), title)
	}
	w.Flush()
	if total > len(tasks) {
		fmt.Println(ui.RenderMuted(fmt.Sprintf("showing %d of %d", len(tasks), total)))
	}
}

func printListDetail(l *model.TaskList) {
	fmt.Printf("ID:          %s\n", ui.RenderAccent(l.ID))
	fmt.Printf("Title:       %s\n", l.Title)
	if l.Description != "" {
		fmt.Printf("Description: %s\n", l.Description)
	}
	fmt.Printf("Tasks:       %d\n", l.TaskCount)
	fmt.Printf("Created By:  %s\n", l.CreatedBy)
	fmt.Printf("Created At:  %s\n", l.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printListTable(lists []*model.TaskList, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASKS\tTITLE")
	for _, l := range lists {
		fmt.Fprintf(w, "%s\t%d\t%s\n", l.ID, l.TaskCount, l.Title)
	}
	w.Flush()
	if total > len(lists) {
		fmt.Println(ui.RenderMuted(fmt.Sprintf("showing %d of %d", len(lists), total)))
	}
}

func printBlockedTable(blocked []model.BlockedTaskInfo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tBLOCKED BY\tTITLE")
	for _, b := range blocked {
		ids := make([]string, len(b.BlockedBy))
		for i, t := range b.BlockedBy {
			ids[i] = t.ID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Task.ID, ui.RenderStatus(b.Task.Status), strings.Join(ids, ","), b.Task.Title)
	}
	w.Flush()
}

func printValidation(errors, warnings []string) {
	for _, e := range errors {
		fmt.Printf("error: %s\n", e)
	}
	for _, wmsg := range warnings {
		fmt.Printf("warning: %s\n", ui.RenderMuted(wmsg))
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
