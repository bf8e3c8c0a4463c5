package deps

import (
	"github.com/groblegark/ktasks/internal/model"
)

// Blocked pairs a blocked task with the resolved tasks blocking it.
type Blocked struct {
	Task      *model.Task   `json:"task"`
	BlockedBy []*model.Task `json:"blocked_by"`
}

// ReadyTasks returns the tasks that are actionable right now: not completed,
// with every declared prerequisite completed. Input order is preserved.
// This is a cheap projection; no cycle detection runs.
func ReadyTasks(tasks []*model.Task) []*model.Task {
	g := build(tasks)
	ready := []*model.Task{}
	for _, t := range tasks {
		if n, ok := g.Nodes[t.ID]; ok && n.IsReady {
			ready = append(ready, t)
		}
	}
	return ready
}

// BlockedTasks returns every task that is neither ready nor completed, along
// with the tasks blocking it. Blocker ids that do not resolve to a task in
// the snapshot are skipped. Input order is preserved.
func BlockedTasks(tasks []*model.Task) []Blocked {
	g := build(tasks)
	byID := make(map[string]*model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	blocked := []Blocked{}
	for _, t := range tasks {
		n, ok := g.Nodes[t.ID]
		if !ok || n.IsReady || n.Status == model.StatusCompleted {
			continue
		}
		entry := Blocked{Task: t, BlockedBy: []*model.Task{}}
		for _, id := range n.BlockedBy {
			if blocker, ok := byID[id]; ok {
				entry.BlockedBy = append(entry.BlockedBy, blocker)
			}
		}
		blocked = append(blocked, entry)
	}
	return blocked
}
