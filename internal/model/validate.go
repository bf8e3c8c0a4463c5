package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateTask checks a Task for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the task is valid.
func ValidateTask(t *Task) error {
	var ve ValidationError

	// Title: required and at most 500 characters.
	title := strings.TrimSpace(t.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > 500 {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 500 characters or fewer"})
	}

	if t.ListID == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "list_id", Message: "is required"})
	}

	// Priority: must be 0-4.
	if t.Priority < 0 || t.Priority > 4 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "priority",
			Message: fmt.Sprintf("must be between 0 and 4, got %d", t.Priority),
		})
	}

	// Status: must be a valid enum value (closed set).
	if !t.Status.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "status",
			Message: fmt.Sprintf("invalid value %q", t.Status),
		})
	}

	// Estimate: when present, must be a positive minute count.
	if t.EstimatedMinutes != nil && *t.EstimatedMinutes <= 0 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "estimated_minutes",
			Message: fmt.Sprintf("must be positive, got %d", *t.EstimatedMinutes),
		})
	}

	// A task cannot be its own parent.
	if t.ParentID != "" && t.ParentID == t.ID {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "parent_id",
			Message: "must not reference the task itself",
		})
	}

	// CompletedAt consistency with Status.
	if t.Status == StatusCompleted && t.CompletedAt == nil {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "completed_at",
			Message: "is required when status is completed",
		})
	}
	if t.Status != StatusCompleted && t.CompletedAt != nil {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "completed_at",
			Message: "must be nil when status is not completed",
		})
	}

	for i, c := range t.ExitCriteria {
		if strings.TrimSpace(c.Text) == "" {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   fmt.Sprintf("exit_criteria[%d]", i),
				Message: "text is required",
			})
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateList checks a TaskList for constraint violations.
func ValidateList(l *TaskList) error {
	var ve ValidationError

	title := strings.TrimSpace(l.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > 200 {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 200 characters or fewer"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
