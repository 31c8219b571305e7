package main

import (
	"errors"
	"fmt"

	"github.com/d2verb/legion/internal/config"
)

func getPaths() (*config.Paths, error) {
	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("get paths: %w", err)
	}
	return paths, nil
}

// loadConfig reads the config file named by --config, or the default one.
func loadConfig(g *Globals) (*config.Config, *config.Paths, error) {
	paths, err := getPaths()
	if err != nil {
		return nil, nil, err
	}

	path := paths.Config
	if g != nil && g.Config != "" {
		path = g.Config
	}

	cfg, err := config.Load(path)
	if err != nil {
		var pe *config.ParseError
		if errors.As(err, &pe) {
			return nil, nil, errInvalidConfig(err)
		}
		return nil, nil, err
	}
	return cfg, paths, nil
}

// pick returns override when set, fallback otherwise.
func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
