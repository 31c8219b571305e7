package main

import (
	"context"
	"fmt"

	"github.com/d2verb/legion/internal/config"
	"github.com/d2verb/legion/internal/editor"
	"github.com/d2verb/legion/internal/pathutil"
	"github.com/d2verb/legion/internal/ui"
)

type EditCmd struct {
	Script string `arg:"" optional:"" help:"Command script to edit (default: config.yaml)" predictor:"script"`
}

func (c *EditCmd) Run(g *Globals) error {
	filePath, seed, err := c.target(g)
	if err != nil {
		return err
	}

	created, err := editor.EnsureFile(filePath, seed)
	if err != nil {
		return err
	}
	if created {
		ui.PrintInfo(fmt.Sprintf("Created %s", filePath))
	}

	ed, err := editor.Find()
	if err != nil {
		return err
	}
	return editor.NewSession(ed).Edit(context.Background(), filePath)
}

// target returns the file to edit and the content for a new file.
// Config files start from the defaults; scripts start empty.
func (c *EditCmd) target(g *Globals) (string, []byte, error) {
	if c.Script != "" {
		filePath, err := pathutil.ResolvePath(c.Script, ".")
		if err != nil {
			return "", nil, fmt.Errorf("resolve script path: %w", err)
		}
		return filePath, nil, nil
	}

	paths, err := getPaths()
	if err != nil {
		return "", nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return "", nil, fmt.Errorf("create directories: %w", err)
	}

	seed, err := config.Marshal(config.DefaultConfig())
	if err != nil {
		return "", nil, err
	}
	return pick(g.Config, paths.Config), seed, nil
}
