// Package config handles legion paths and settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/d2verb/legion/internal/logging"
	"github.com/d2verb/legion/internal/pathutil"
	"github.com/d2verb/legion/internal/storage"
)

// Defaults
const (
	DefaultAddress        = "localhost:54353"
	DefaultAcceptTimeout  = 60 * time.Second
	DefaultReconnectDelay = 5 * time.Second
	DefaultMaxAttempts    = 3
	DefaultDialTimeout    = 5 * time.Second
	DefaultHistorySize    = 13
	DefaultLogLevel       = "info"
)

// Paths holds common paths used by legion.
type Paths struct {
	Home      string
	Config    string
	PID       string
	Addr      string // address the running server is bound to
	Logs      string
	ServerLog string
	Data      string // default YAML data file
	BoltData  string // default bbolt data file
}

// GetPaths returns the paths for the current user.
func GetPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return PathsIn(filepath.Join(home, ".legion")), nil
}

// PathsIn returns the paths rooted at dir.
func PathsIn(dir string) *Paths {
	logsDir := filepath.Join(dir, "logs")
	return &Paths{
		Home:      dir,
		Config:    filepath.Join(dir, "config.yaml"),
		PID:       filepath.Join(dir, "legion.pid"),
		Addr:      filepath.Join(dir, "legion.addr"),
		Logs:      logsDir,
		ServerLog: filepath.Join(logsDir, "server.log"),
		Data:      filepath.Join(dir, "marines.yaml"),
		BoltData:  filepath.Join(dir, "marines.db"),
	}
}

// EnsureDirectories creates the required directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.Home, p.Logs}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// ServerConfig configures `legion serve`.
type ServerConfig struct {
	Address       string        `yaml:"address"`
	AcceptTimeout time.Duration `yaml:"accept_timeout"`
	HistorySize   int           `yaml:"history_size"`
	Storage       StorageConfig `yaml:"storage"`
}

// StorageConfig selects where the collection is persisted.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"` // relative paths are resolved from the legion home
}

// ClientConfig configures `legion connect`.
type ClientConfig struct {
	Address        string        `yaml:"address"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	MaxAttempts    int           `yaml:"max_attempts"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
}

// LogConfig configures the server log file.
type LogConfig struct {
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Config is the content of config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Log    LogConfig    `yaml:"log"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	logDefaults := logging.DefaultConfig("")
	return &Config{
		Server: ServerConfig{
			Address:       DefaultAddress,
			AcceptTimeout: DefaultAcceptTimeout,
			HistorySize:   DefaultHistorySize,
			Storage:       StorageConfig{Driver: storage.DriverYAML},
		},
		Client: ClientConfig{
			Address:        DefaultAddress,
			ReconnectDelay: DefaultReconnectDelay,
			MaxAttempts:    DefaultMaxAttempts,
			DialTimeout:    DefaultDialTimeout,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSizeMB:  logDefaults.MaxSizeMB,
			MaxBackups: logDefaults.MaxBackups,
			MaxAgeDays: logDefaults.MaxAgeDays,
		},
	}
}

// Load reads the configuration at path. A missing file yields the defaults;
// fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return cfg, nil
}

// Marshal renders cfg as config.yaml content.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// Validate checks values that cannot be corrected at use time.
// Addresses are validated by the server and client themselves.
func (c *Config) Validate() error {
	switch c.Server.Storage.Driver {
	case "", storage.DriverYAML, storage.DriverBolt:
	default:
		return &storage.UnknownDriverError{Driver: c.Server.Storage.Driver}
	}
	if c.Server.HistorySize < 0 {
		return fmt.Errorf("server.history_size must not be negative")
	}
	if c.Client.MaxAttempts < 1 {
		return fmt.Errorf("client.max_attempts must be at least 1")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// DataPath returns the data file for the configured storage driver.
func (c *Config) DataPath(p *Paths) (string, error) {
	if c.Server.Storage.Path != "" {
		return pathutil.ResolvePath(c.Server.Storage.Path, p.Home)
	}
	if c.Server.Storage.Driver == storage.DriverBolt {
		return p.BoltData, nil
	}
	return p.Data, nil
}

// LogFile returns the rotation settings for the server log.
func (c *Config) LogFile(p *Paths) logging.Config {
	cfg := logging.DefaultConfig(p.ServerLog)
	if c.Log.MaxSizeMB > 0 {
		cfg.MaxSizeMB = c.Log.MaxSizeMB
	}
	if c.Log.MaxBackups > 0 {
		cfg.MaxBackups = c.Log.MaxBackups
	}
	if c.Log.MaxAgeDays > 0 {
		cfg.MaxAgeDays = c.Log.MaxAgeDays
	}
	return cfg
}

// ParseError indicates config.yaml could not be used.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
