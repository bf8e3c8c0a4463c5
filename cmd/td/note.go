package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/ktasks/internal/ui"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage task notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <task-id> <text>",
	Short: "Add a note to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		note, err := api.AddNote(context.Background(), args[0], actor, args[1])
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(note)
			return nil
		}
		fmt.Printf("note %d added to %s\n", note.ID, note.TaskID)
		return nil
	},
}

var noteLsCmd = &cobra.Command{
	Use:   "ls <task-id>",
	Short: "List a task's notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, err := api.GetNotes(context.Background(), args[0])
		if err != nil {
			fatalf("%v", err)
		}

		if jsonOutput {
			printJSON(notes)
			return nil
		}
		for _, n := range notes {
			stamp := ui.RenderMuted(n.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Printf("%s [%s] %s\n", stamp, n.Author, n.Text)
		}
		return nil
	},
}

func init() {
	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteLsCmd)
}
