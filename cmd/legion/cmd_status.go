package main

import (
	"github.com/d2verb/legion/internal/config"
	"github.com/d2verb/legion/internal/daemon"
	"github.com/d2verb/legion/internal/ui"
)

type StatusCmd struct {
	Probe bool `help:"Check that the server accepts connections on the address it is bound to"`
}

func (c *StatusCmd) Run(g *Globals) error {
	cfg, paths, err := loadConfig(g)
	if err != nil {
		return err
	}

	addr := serverAddress(cfg, paths)
	status, err := daemon.GetServerStatus(paths.PID, addr, c.Probe)
	if err != nil {
		return err
	}

	ui.PrintStatus(ui.ServerStatus{
		State:   statusState(status, c.Probe),
		PID:     status.PID,
		Address: addr,
		LogPath: paths.ServerLog,
	})

	if !status.Running {
		return errServerNotRunning()
	}
	return nil
}

// serverAddress returns the address recorded by a running server, falling
// back to the configured one.
func serverAddress(cfg *config.Config, paths *config.Paths) string {
	if addr, err := daemon.ReadAddrFile(paths.Addr); err == nil {
		return addr
	}
	return cfg.Server.Address
}

// statusState maps a server status to a display state.
func statusState(s *daemon.ServerStatus, probed bool) string {
	switch {
	case !s.Running:
		return ui.StateStopped
	case probed && !s.Reachable:
		return ui.StateUnreachable
	default:
		return ui.StateRunning
	}
}
