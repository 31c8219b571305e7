package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

type LogsCmd struct {
	Follow bool `short:"f" help:"Follow log output in real-time (tail -f)"`
}

func (c *LogsCmd) Run() error {
	paths, err := getPaths()
	if err != nil {
		return err
	}

	if _, err := os.Stat(paths.ServerLog); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s\nHint: Start the server first with 'legion start'", paths.ServerLog)
	}

	args := []string{"tail"}
	if c.Follow {
		args = append(args, "-f")
	}
	args = append(args, paths.ServerLog)

	tailPath, err := exec.LookPath("tail")
	if err != nil {
		return fmt.Errorf("tail command not found in PATH (install coreutils or similar)")
	}

	// Replace current process with tail
	return syscall.Exec(tailPath, args, os.Environ())
}
