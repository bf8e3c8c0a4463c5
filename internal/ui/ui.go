// Package ui holds terminal color helpers for the td CLI.
package ui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/groblegark/ktasks/internal/model"
)

// ANSI256 color codes.
const (
	colorGreen  = 114
	colorYellow = 179
	colorRed    = 167
	colorMuted  = 245
	colorAccent = 74
)

var noColor bool

// ShouldUseColor returns true when ANSI colors should be used on stdout.
// It respects NO_COLOR, CLICOLOR_FORCE, CLICOLOR, and TTY detection.
func ShouldUseColor() bool {
	// https://no-color.org — any non-empty value disables color.
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	// CLICOLOR_FORCE=1 forces color even without a TTY.
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	// CLICOLOR=0 explicitly disables color.
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	// Default: color if stdout is a terminal.
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// RenderStatus returns the status string colored by lifecycle stage.
func RenderStatus(s model.Status) string {
	if noColor {
		return string(s)
	}
	code := colorMuted
	switch s {
	case model.StatusCompleted:
		code = colorGreen
	case model.StatusInProgress:
		code = colorAccent
	case model.StatusBlocked:
		code = colorRed
	case model.StatusPending:
		code = colorYellow
	}
	return colorize(code, string(s))
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	if noColor {
		return s
	}
	return colorize(colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return colorize(colorMuted, s)
}

func colorize(code int, s string) string {
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}
