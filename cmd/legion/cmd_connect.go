package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/d2verb/legion/internal/client"
	"github.com/d2verb/legion/internal/config"
	"github.com/d2verb/legion/internal/logging"
	"github.com/d2verb/legion/internal/script"
	"github.com/d2verb/legion/internal/shell"
)

type ConnectCmd struct {
	Addr    string `short:"a" help:"Server address (host:port)" predictor:"address"`
	Script  string `short:"s" help:"Execute a script before reading standard input" predictor:"script"`
	Verbose bool   `short:"v" help:"Log connection events to stderr"`
}

func (c *ConnectCmd) Run(g *Globals) error {
	cfg, _, err := loadConfig(g)
	if err != nil {
		return err
	}

	stdin := os.Stdin
	interactive := isatty.IsTerminal(stdin.Fd()) || isatty.IsCygwinTerminal(stdin.Fd())

	return c.session(context.Background(), cfg, stdin, os.Stdout, interactive)
}

// session runs one client session reading commands from in.
func (c *ConnectCmd) session(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, interactive bool) error {
	stack := script.New(in, out)
	defer stack.Unwind()

	if c.Script != "" {
		if err := stack.Push(c.Script); err != nil {
			return errScript(c.Script, err)
		}
	}

	cl := client.New(client.Options{
		Addr:           pick(c.Addr, cfg.Client.Address),
		ReconnectDelay: cfg.Client.ReconnectDelay,
		MaxAttempts:    cfg.Client.MaxAttempts,
		DialTimeout:    cfg.Client.DialTimeout,
		Logger:         c.newLogger(),
	}, out)

	err := cl.Run(ctx, shell.New(stack, out, interactive))
	switch {
	case err == nil:
		return nil
	case client.IsConfigurationError(err):
		return errInvalidAddress()
	case errors.Is(err, client.ErrAttemptsExhausted):
		return errServerUnreachable()
	default:
		return err
	}
}

func (c *ConnectCmd) newLogger() *slog.Logger {
	if !c.Verbose {
		return logging.Discard()
	}
	return logging.NewLeveledLogger(os.Stderr, slog.LevelDebug)
}
