package main

import (
	"fmt"

	"github.com/d2verb/legion/internal/ui"
)

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(ui.Output, "legion version %s (%s)\n", version, commit)
	return nil
}
