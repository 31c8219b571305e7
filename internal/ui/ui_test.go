package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/d2verb/legion/internal/protocol"
)

func TestStatusBadge(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		state    string
		contains string
	}{
		{
			name:     "running state",
			state:    StateRunning,
			contains: "● Running",
		},
		{
			name:     "unreachable state",
			state:    StateUnreachable,
			contains: "not accepting connections",
		},
		{
			name:     "stopped state",
			state:    StateStopped,
			contains: "○ Not Running",
		},
		{
			name:     "unknown state",
			state:    "bogus",
			contains: "○ Not Running",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StatusBadge(tt.state)
			if !strings.Contains(result, tt.contains) {
				t.Errorf("StatusBadge(%q) = %q, want to contain %q", tt.state, result, tt.contains)
			}
		})
	}
}

func TestPrintStatus(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name       string
		status     ServerStatus
		contains   []string
		notContain []string
	}{
		{
			name: "running server",
			status: ServerStatus{
				State:   StateRunning,
				PID:     4242,
				Address: "localhost:4000",
				LogPath: "/home/user/.legion/logs/server.log",
			},
			contains: []string{"Status:", "● Running", "PID: 4242", "Address: localhost:4000", "Logs: /home/user/.legion/logs/server.log"},
		},
		{
			name: "stopped server",
			status: ServerStatus{
				State:   StateStopped,
				LogPath: "/tmp/server.log",
			},
			contains:   []string{"○ Not Running", "Logs: /tmp/server.log"},
			notContain: []string{"PID:", "Address:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var buf bytes.Buffer
			Output = &buf
			defer func() { Output = os.Stdout }()

			// Act
			PrintStatus(tt.status)

			// Assert
			output := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("output = %q, want to contain %q", output, want)
				}
			}
			for _, unwanted := range tt.notContain {
				if strings.Contains(output, unwanted) {
					t.Errorf("output = %q, should not contain %q", output, unwanted)
				}
			}
		})
	}
}

func TestFprintResponse(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name   string
		result protocol.Result
		body   string
		want   string
	}{
		{
			name:   "ok body printed as is",
			result: protocol.ResultOK,
			body:   "id: 1\nname: Titus\n",
			want:   "id: 1\nname: Titus\n",
		},
		{
			name:   "ok without body prints nothing",
			result: protocol.ResultOK,
			body:   "",
			want:   "",
		},
		{
			name:   "error is marked",
			result: protocol.ResultError,
			body:   "no space marine with id 7",
			want:   "✗ no space marine with id 7\n",
		},
		{
			name:   "server exit announced",
			result: protocol.ResultServerExit,
			body:   "server is shutting down",
			want:   "server is shutting down\n⚠ server closed the session\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			FprintResponse(&buf, tt.result, tt.body)

			if got := buf.String(); got != tt.want {
				t.Errorf("FprintResponse() wrote %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintMessages(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name   string
		print  func(string)
		symbol string
	}{
		{"success", PrintSuccess, "✓"},
		{"error", PrintError, "✗"},
		{"warning", PrintWarning, "⚠"},
		{"info", PrintInfo, "•"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var buf bytes.Buffer
			Output = &buf
			defer func() { Output = os.Stdout }()

			// Act
			tt.print("Operation completed")

			// Assert
			output := buf.String()
			if !strings.Contains(output, tt.symbol) {
				t.Errorf("output = %q, want to contain %q", output, tt.symbol)
			}
			if !strings.Contains(output, "Operation completed") {
				t.Error("Output should contain message")
			}
		})
	}
}

func TestFormatEndpoint(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	if got := FormatEndpoint("127.0.0.1:4000"); got != "127.0.0.1:4000" {
		t.Errorf("FormatEndpoint() = %q, want %q", got, "127.0.0.1:4000")
	}
}
