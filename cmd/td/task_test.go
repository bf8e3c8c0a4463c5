package main

import (
	"testing"
)

func TestParseChecklist(t *testing.T) {
	got := parseChecklist([]string{"write docs", "ship it:done"})
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Text != "write docs" || got[0].Done {
		t.Errorf("item 0 = %+v, want pending 'write docs'", got[0])
	}
	if got[1].Text != "ship it" || !got[1].Done {
		t.Errorf("item 1 = %+v, want done 'ship it'", got[1])
	}
}

func TestParseChecklist_Empty(t *testing.T) {
	if got := parseChecklist(nil); got != nil {
		t.Errorf("expected nil for empty input, got %+v", got)
	}
}

func TestParsePlan(t *testing.T) {
	got := parsePlan([]string{"step one:done", "step two"})
	if len(got) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(got))
	}
	if !got[0].Done || got[0].Text != "step one" {
		t.Errorf("step 0 = %+v", got[0])
	}
	if got[1].Done || got[1].Text != "step two" {
		t.Errorf("step 1 = %+v", got[1])
	}
}

func TestCheckbox(t *testing.T) {
	if checkbox(true) != "[x]" || checkbox(false) != "[ ]" {
		t.Error("checkbox rendering wrong")
	}
}
