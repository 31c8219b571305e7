package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/d2verb/legion/internal/config"
	"github.com/d2verb/legion/internal/daemon"
	"github.com/d2verb/legion/internal/ui"
)

type StartCmd struct {
	Addr string `help:"Listen address (host:port)" predictor:"address"`
}

func (c *StartCmd) Run(g *Globals) error {
	cfg, paths, err := loadConfig(g)
	if err != nil {
		return err
	}

	status, err := daemon.GetServerStatus(paths.PID, cfg.Server.Address, false)
	if err != nil && !errors.Is(err, daemon.ErrInvalidPIDFile) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if status.Running {
		ui.PrintInfo(fmt.Sprintf("Server is already running (PID: %d)", status.PID))
		return nil
	}
	if status.PID > 0 || errors.Is(err, daemon.ErrInvalidPIDFile) {
		ui.PrintWarning("Cleaning up stale PID file...")
		daemon.RemovePIDFile(paths.PID)
	}

	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	return c.startBackground(g, paths)
}

func (c *StartCmd) startBackground(g *Globals, paths *config.Paths) error {
	// Re-exec ourselves as a detached server
	args := []string{"serve", "--detached"}
	if c.Addr != "" {
		args = append(args, "--addr", c.Addr)
	}
	if g.Config != "" {
		args = append(args, "--config", g.Config)
	}

	cmd := exec.Command(os.Args[0], args...)
	cmd.Env = os.Environ()
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	exited := make(chan struct{})
	go func() {
		cmd.Wait()
		close(exited)
	}()

	// The PID file is written once the socket is bound.
	for i := 0; i < 50; i++ {
		select {
		case <-exited:
			return fmt.Errorf("server exited during startup, check logs: %s", paths.ServerLog)
		case <-time.After(100 * time.Millisecond):
		}
		if pid, err := daemon.ReadPIDFile(paths.PID); err == nil && pid == cmd.Process.Pid {
			ui.PrintSuccess(fmt.Sprintf("Server started (PID: %d)", pid))
			ui.PrintInfo(fmt.Sprintf("Logs: %s", paths.ServerLog))
			return nil
		}
	}

	return fmt.Errorf("server did not start within 5 seconds, check logs: %s", paths.ServerLog)
}
