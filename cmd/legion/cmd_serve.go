package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/d2verb/legion/internal/collection"
	"github.com/d2verb/legion/internal/command"
	"github.com/d2verb/legion/internal/config"
	"github.com/d2verb/legion/internal/daemon"
	"github.com/d2verb/legion/internal/logging"
	"github.com/d2verb/legion/internal/storage"
	"github.com/d2verb/legion/internal/ui"
)

type ServeCmd struct {
	Addr     string `help:"Listen address (host:port)" predictor:"address"`
	Detached bool   `name:"detached" hidden:"" help:"Log to the log file only (internal)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, paths, err := loadConfig(g)
	if err != nil {
		return err
	}
	addr := pick(c.Addr, cfg.Server.Address)

	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	logWriter := logging.NewRotatingWriter(cfg.LogFile(paths))
	defer logWriter.Close()
	logger, err := c.newLogger(cfg, logWriter)
	if err != nil {
		return errInvalidConfig(err)
	}

	dataPath, err := cfg.DataPath(paths)
	if err != nil {
		return errInvalidConfig(err)
	}
	persister, err := storage.Open(cfg.Server.Storage.Driver, dataPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer persister.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := loadCollection(ctx, persister, logger)
	if err != nil {
		return err
	}

	history := daemon.NewHistory(cfg.Server.HistorySize)
	registry := command.NewDefaultRegistry(command.Deps{
		Store:     store,
		Persister: persister,
		History:   history,
	})
	server := daemon.NewServer(addr, cfg.Server.AcceptTimeout, daemon.NewHandler(registry, history, logger), logger)

	if err := server.Listen(); err != nil {
		if daemon.IsConfigurationError(err) {
			return errInvalidConfig(err)
		}
		return fmt.Errorf("listen: %w", err)
	}

	if err := daemon.WritePIDFile(paths.PID); err != nil {
		server.Close()
		return err
	}
	defer daemon.RemovePIDFile(paths.PID)

	if err := daemon.WriteAddrFile(paths.Addr, server.Addr().String()); err != nil {
		logger.Warn("cannot record listen address", "error", err)
	}
	defer daemon.RemoveAddrFile(paths.Addr)

	if !c.Detached {
		ui.PrintSuccess(fmt.Sprintf("Listening on %s", ui.FormatEndpoint(server.Addr().String())))
		ui.PrintInfo(fmt.Sprintf("Logs: %s", paths.ServerLog))
	}

	serveErr := server.Serve(ctx)

	// The collection survives restarts even without an explicit save.
	if err := persister.Save(context.Background(), store.All()); err != nil {
		logger.Error("save on shutdown failed", "path", dataPath, "error", err)
		if serveErr == nil {
			serveErr = fmt.Errorf("save collection: %w", err)
		}
	} else {
		logger.Info("collection saved", "path", dataPath, "records", store.Len())
	}

	return serveErr
}

// newLogger writes to the log file, and to stderr as well in the foreground.
func (c *ServeCmd) newLogger(cfg *config.Config, file io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	w := file
	if !c.Detached {
		w = io.MultiWriter(os.Stderr, file)
	}
	return logging.NewLeveledLogger(w, level), nil
}

// loadCollection fills a new store from persister. Records that fail
// validation are logged and left out.
func loadCollection(ctx context.Context, persister storage.Persister, logger *slog.Logger) (*collection.Store, error) {
	records, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}

	valid := records[:0:0]
	for i, m := range records {
		if m == nil {
			logger.Warn("dropped empty record", "index", i)
			continue
		}
		if err := m.Validate(); err != nil {
			logger.Warn("dropped invalid record", "id", m.ID, "error", err)
			continue
		}
		valid = append(valid, m)
	}

	store := collection.New()
	if n := store.Load(valid); n > 0 {
		logger.Warn("reassigned record ids", "count", n)
	}
	logger.Info("collection loaded", "records", store.Len())
	return store, nil
}
