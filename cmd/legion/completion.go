package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/posener/complete"

	"github.com/d2verb/legion/internal/config"
)

// newFilePredictor returns a predictor for file path flags.
func newFilePredictor() complete.Predictor {
	return complete.PredictFiles("*")
}

// newScriptPredictor returns a predictor for '--script'.
// Suggests regular files below the directory being typed.
func newScriptPredictor() complete.Predictor {
	return complete.PredictFunc(func(args complete.Args) []string {
		return completeScripts(args.Last)
	})
}

// newAddressPredictor returns a predictor for '--addr'.
// Suggests the addresses named in config.yaml.
func newAddressPredictor() complete.Predictor {
	return complete.PredictFunc(func(args complete.Args) []string {
		paths, err := getPaths()
		if err != nil {
			return nil
		}
		cfg, err := config.Load(paths.Config)
		if err != nil {
			return nil
		}
		return completeAddresses(cfg, args.Last)
	})
}

// completeScripts lists files matching partial. Directories are suggested
// with a trailing separator so completion can descend into them.
func completeScripts(partial string) []string {
	dir, prefix := filepath.Split(partial)
	readDir := dir
	if readDir == "" {
		readDir = "."
	}

	entries, err := os.ReadDir(readDir)
	if err != nil {
		return nil
	}

	var results []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		// Hidden entries only when asked for
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}
		if entry.IsDir() {
			results = append(results, dir+name+string(filepath.Separator))
			continue
		}
		results = append(results, dir+name)
	}
	return results
}

// completeAddresses returns the configured addresses starting with partial.
func completeAddresses(cfg *config.Config, partial string) []string {
	var results []string
	for _, addr := range []string{cfg.Client.Address, cfg.Server.Address, config.DefaultAddress} {
		if addr == "" || !strings.HasPrefix(addr, partial) || slices.Contains(results, addr) {
			continue
		}
		results = append(results, addr)
	}
	return results
}
