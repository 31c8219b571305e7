package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/d2verb/legion/internal/daemon"
	"github.com/d2verb/legion/internal/ui"
)

type StopCmd struct{}

func (c *StopCmd) Run(g *Globals) error {
	cfg, paths, err := loadConfig(g)
	if err != nil {
		return err
	}

	status, err := daemon.GetServerStatus(paths.PID, cfg.Server.Address, false)
	if err != nil {
		if errors.Is(err, daemon.ErrInvalidPIDFile) {
			fmt.Println("Warning: stale server state detected")
			fmt.Printf("Manual cleanup may be needed: rm %s\n", paths.PID)
		}
		return fmt.Errorf("check server status: %w", err)
	}

	if !status.Running {
		ui.PrintInfo("Server is not running")
		daemon.RemovePIDFile(paths.PID)
		daemon.RemoveAddrFile(paths.Addr)
		return nil
	}

	process, err := os.FindProcess(status.PID)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	// SIGTERM lets the server save the collection before exiting
	ui.PrintInfo("Stopping server...")
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send SIGTERM: %w", err)
	}

	for i := 0; i < 100; i++ {
		time.Sleep(100 * time.Millisecond)
		running, err := daemon.IsProcessRunning(status.PID)
		if err != nil {
			return fmt.Errorf("check process: %w", err)
		}
		if !running {
			ui.PrintSuccess("Server stopped")
			daemon.RemovePIDFile(paths.PID)
			daemon.RemoveAddrFile(paths.Addr)
			return nil
		}
	}

	ui.PrintWarning("Server did not stop gracefully, forcing...")
	if err := process.Kill(); err != nil {
		return fmt.Errorf("kill server: %w", err)
	}

	daemon.RemovePIDFile(paths.PID)
	daemon.RemoveAddrFile(paths.Addr)
	ui.PrintSuccess("Server stopped")
	return nil
}
