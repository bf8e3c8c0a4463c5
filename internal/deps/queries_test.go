package deps

import (
	"testing"

	"github.com/groblegark/ktasks/internal/model"
)

func TestReadyTasks(t *testing.T) {
	tasks := []*model.Task{
		tk("setup", model.StatusPending, 60),
		tk("build", model.StatusPending, 120, "setup"),
		tk("test", model.StatusPending, 90, "build"),
		tk("docs", model.StatusPending, 30, "setup"),
	}

	ready := ReadyTasks(tasks)
	if len(ready) != 1 || ready[0].ID != "setup" {
		t.Errorf("ReadyTasks = %v, want [setup]", ids(ready))
	}
}

func TestReadyTasks_PreservesInputOrder(t *testing.T) {
	tasks := []*model.Task{
		tk("c", model.StatusPending, 0),
		tk("a", model.StatusPending, 0),
		tk("b", model.StatusPending, 0),
	}
	got := ids(ReadyTasks(tasks))
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ReadyTasks order = %v, want %v", got, want)
		}
	}
}

func TestReadyTasks_NoneInFullCycle(t *testing.T) {
	tasks := []*model.Task{
		tk("a", model.StatusPending, 0, "b"),
		tk("b", model.StatusPending, 0, "c"),
		tk("c", model.StatusPending, 0, "a"),
	}
	if ready := ReadyTasks(tasks); len(ready) != 0 {
		t.Errorf("ReadyTasks = %v, want none", ids(ready))
	}
}

func TestBlockedTasks(t *testing.T) {
	tasks := []*model.Task{
		tk("setup", model.StatusPending, 0),
		tk("build", model.StatusPending, 0, "setup"),
		tk("test", model.StatusPending, 0, "build", "ghost"),
	}

	blocked := BlockedTasks(tasks)
	if len(blocked) != 2 {
		t.Fatalf("expected 2 blocked tasks, got %d", len(blocked))
	}

	if blocked[0].Task.ID != "build" {
		t.Errorf("first blocked = %s, want build", blocked[0].Task.ID)
	}
	if len(blocked[0].BlockedBy) != 1 || blocked[0].BlockedBy[0].ID != "setup" {
		t.Errorf("build blockers = %v", ids(blocked[0].BlockedBy))
	}

	// ghost has no task object and is skipped, not an error.
	if blocked[1].Task.ID != "test" {
		t.Errorf("second blocked = %s, want test", blocked[1].Task.ID)
	}
	if len(blocked[1].BlockedBy) != 1 || blocked[1].BlockedBy[0].ID != "build" {
		t.Errorf("test blockers = %v", ids(blocked[1].BlockedBy))
	}
}

func TestBlockedTasks_ExcludesCompletedAndReady(t *testing.T) {
	tasks := []*model.Task{
		tk("done", model.StatusCompleted, 0),
		tk("ready", model.StatusPending, 0, "done"),
		tk("waiting", model.StatusPending, 0, "ready"),
	}
	blocked := BlockedTasks(tasks)
	if len(blocked) != 1 || blocked[0].Task.ID != "waiting" {
		t.Errorf("BlockedTasks = %v, want [waiting]", blockedIDs(blocked))
	}
}

func ids(tasks []*model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func blockedIDs(blocked []Blocked) []string {
	out := make([]string, len(blocked))
	for i, b := range blocked {
		out[i] = b.Task.ID
	}
	return out
}
