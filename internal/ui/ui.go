// Package ui provides formatted output utilities for the CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/d2verb/legion/internal/protocol"
)

// Color functions for consistent styling.
var (
	Green  = color.New(color.FgGreen).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Blue   = color.New(color.FgBlue).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
)

// Output is the destination for UI output.
// Defaults to os.Stdout but can be overridden for testing.
var Output io.Writer = os.Stdout

// Server states shown by StatusBadge.
const (
	StateRunning     = "running"
	StateUnreachable = "unreachable"
	StateStopped     = "stopped"
)

// FormatEndpoint formats endpoint with blue color.
func FormatEndpoint(endpoint string) string {
	return Blue(endpoint)
}

// StatusBadge returns a colored status indicator with label.
func StatusBadge(state string) string {
	switch state {
	case StateRunning:
		return Green("● Running")
	case StateUnreachable:
		return Yellow("◐ Running (not accepting connections)")
	default:
		return Red("○ Not Running")
	}
}

// ServerStatus contains server information for display.
type ServerStatus struct {
	State   string
	PID     int
	Address string
	LogPath string
}

// PrintStatus prints server status in a formatted style.
func PrintStatus(s ServerStatus) {
	fmt.Fprintf(Output, "%s %s\n", Bold("Status:"), StatusBadge(s.State))

	if s.PID > 0 {
		fmt.Fprintf(Output, "%s %d\n", Bold("PID:"), s.PID)
	}
	if s.Address != "" {
		fmt.Fprintf(Output, "%s %s\n", Bold("Address:"), FormatEndpoint(s.Address))
	}

	fmt.Fprintf(Output, "%s %s\n", Bold("Logs:"), s.LogPath)
}

// FprintResponse prints a server response body. Error bodies are marked;
// a server exit is announced after the body.
func FprintResponse(w io.Writer, result protocol.Result, body string) {
	body = strings.TrimRight(body, "\n")
	switch result {
	case protocol.ResultError:
		FprintError(w, body)
	case protocol.ResultServerExit:
		if body != "" {
			fmt.Fprintln(w, body)
		}
		FprintWarning(w, "server closed the session")
	default:
		if body != "" {
			fmt.Fprintln(w, body)
		}
	}
}

// FprintSuccess prints a success message with green checkmark to w.
func FprintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", Green("✓"), message)
}

// FprintError prints an error message with red X to w.
func FprintError(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", Red("✗"), message)
}

// FprintWarning prints a warning message with yellow exclamation to w.
func FprintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", Yellow("⚠"), message)
}

// FprintInfo prints an info message with blue dot to w.
func FprintInfo(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", Blue("•"), message)
}

// PrintSuccess prints a success message with green checkmark.
func PrintSuccess(message string) {
	FprintSuccess(Output, message)
}

// PrintError prints an error message with red X.
func PrintError(message string) {
	FprintError(Output, message)
}

// PrintWarning prints a warning message with yellow exclamation.
func PrintWarning(message string) {
	FprintWarning(Output, message)
}

// PrintInfo prints an info message with blue dot.
func PrintInfo(message string) {
	FprintInfo(Output, message)
}
