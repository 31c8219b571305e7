package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/d2verb/legion/internal/storage"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Address != DefaultAddress {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, DefaultAddress)
	}
	if cfg.Server.AcceptTimeout != 60*time.Second {
		t.Errorf("Server.AcceptTimeout = %v, want 60s", cfg.Server.AcceptTimeout)
	}
	if cfg.Client.ReconnectDelay != 5*time.Second {
		t.Errorf("Client.ReconnectDelay = %v, want 5s", cfg.Client.ReconnectDelay)
	}
	if cfg.Client.MaxAttempts != 3 {
		t.Errorf("Client.MaxAttempts = %d, want 3", cfg.Client.MaxAttempts)
	}
	if cfg.Server.Storage.Driver != storage.DriverYAML {
		t.Errorf("Server.Storage.Driver = %q, want %q", cfg.Server.Storage.Driver, storage.DriverYAML)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	if err != nil {
		t.Fatalf("GetPaths() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	legionHome := filepath.Join(home, ".legion")
	logsDir := filepath.Join(legionHome, "logs")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Home", paths.Home, legionHome},
		{"Config", paths.Config, filepath.Join(legionHome, "config.yaml")},
		{"PID", paths.PID, filepath.Join(legionHome, "legion.pid")},
		{"Addr", paths.Addr, filepath.Join(legionHome, "legion.addr")},
		{"Logs", paths.Logs, logsDir},
		{"ServerLog", paths.ServerLog, filepath.Join(logsDir, "server.log")},
		{"Data", paths.Data, filepath.Join(legionHome, "marines.yaml")},
		{"BoltData", paths.BoltData, filepath.Join(legionHome, "marines.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestPaths_EnsureDirectories(t *testing.T) {
	// Arrange
	paths := PathsIn(filepath.Join(t.TempDir(), ".legion"))

	// Act
	err := paths.EnsureDirectories()

	// Assert
	if err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}
	for _, dir := range []string{paths.Home, paths.Logs} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("directory %s not created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))

	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  address: 0.0.0.0:7000
  accept_timeout: 2m
  storage:
    driver: bolt
client:
  reconnect_delay: 250ms
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// Act
	cfg, err := Load(path)

	// Assert
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := DefaultConfig()
	want.Server.Address = "0.0.0.0:7000"
	want.Server.AcceptTimeout = 2 * time.Minute
	want.Server.Storage.Driver = storage.DriverBolt
	want.Client.ReconnectDelay = 250 * time.Millisecond
	want.Log.Level = "debug"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshal_LoadsBack(t *testing.T) {
	// Arrange
	cfg := DefaultConfig()
	cfg.Client.ReconnectDelay = 1500 * time.Millisecond
	path := filepath.Join(t.TempDir(), "config.yaml")

	// Act
	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)

	// Assert
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("Load(Marshal()) mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(data), "reconnect_delay: 1.5s") {
		t.Errorf("Marshal() = %q, want duration rendered as 1.5s", data)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"malformed yaml", "server: [", "invalid config"},
		{"unknown driver", "server:\n  storage:\n    driver: sqlite\n", "unknown storage driver"},
		{"zero attempts", "client:\n  max_attempts: 0\n", "max_attempts"},
		{"unknown level", "log:\n  level: loud\n", "unknown log level"},
		{"negative history", "server:\n  history_size: -1\n", "history_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Load() error = %v, want ParseError", err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Load() error = %q, want to contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestConfig_DataPath(t *testing.T) {
	paths := PathsIn("/home/user/.legion")

	tests := []struct {
		name    string
		storage StorageConfig
		want    string
	}{
		{"yaml default", StorageConfig{Driver: storage.DriverYAML}, "/home/user/.legion/marines.yaml"},
		{"bolt default", StorageConfig{Driver: storage.DriverBolt}, "/home/user/.legion/marines.db"},
		{"relative path", StorageConfig{Driver: storage.DriverYAML, Path: "data/army.yaml"}, "/home/user/.legion/data/army.yaml"},
		{"absolute path", StorageConfig{Driver: storage.DriverBolt, Path: "/srv/legion.db"}, "/srv/legion.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Server.Storage = tt.storage

			got, err := cfg.DataPath(paths)

			if err != nil {
				t.Fatalf("DataPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DataPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_LogFile(t *testing.T) {
	paths := PathsIn("/home/user/.legion")
	cfg := DefaultConfig()
	cfg.Log.MaxSizeMB = 5

	got := cfg.LogFile(paths)

	if got.Path != paths.ServerLog {
		t.Errorf("Path = %q, want %q", got.Path, paths.ServerLog)
	}
	if got.MaxSizeMB != 5 {
		t.Errorf("MaxSizeMB = %d, want 5", got.MaxSizeMB)
	}
	if !got.Compress {
		t.Error("Compress = false, want true")
	}
}
