package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "client:\n  address: example.org:9000\n  reconnect_delay: 1s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// Act
	cfg, paths, err := loadConfig(&Globals{Config: path})

	// Assert
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if paths == nil {
		t.Fatal("paths = nil")
	}
	if cfg.Client.Address != "example.org:9000" {
		t.Errorf("Client.Address = %q, want %q", cfg.Client.Address, "example.org:9000")
	}
	if cfg.Client.ReconnectDelay != time.Second {
		t.Errorf("Client.ReconnectDelay = %v, want 1s", cfg.Client.ReconnectDelay)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("client:\n  max_attempts: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := loadConfig(&Globals{Config: path})

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("loadConfig() error = %v, want ExitError", err)
	}
	if exitErr.Code != exitConfigError {
		t.Errorf("Code = %d, want %d", exitErr.Code, exitConfigError)
	}
}

func TestPick(t *testing.T) {
	tests := []struct {
		override string
		fallback string
		want     string
	}{
		{"", "localhost:54353", "localhost:54353"},
		{"127.0.0.1:7000", "localhost:54353", "127.0.0.1:7000"},
	}

	for _, tt := range tests {
		if got := pick(tt.override, tt.fallback); got != tt.want {
			t.Errorf("pick(%q, %q) = %q, want %q", tt.override, tt.fallback, got, tt.want)
		}
	}
}
