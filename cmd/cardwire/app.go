package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/c360studio/cardwire/codegen"
	"github.com/c360studio/cardwire/config"
	"github.com/c360studio/cardwire/discovery"
)

// App runs the cardwire passes against one scan root.
type App struct {
	cfg    *config.Config
	root   string
	logger *slog.Logger
}

// NewApp creates an application for root.
func NewApp(cfg *config.Config, root string, logger *slog.Logger) (*App, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, root: absRoot, logger: logger}, nil
}

// OutputDir returns the generated package directory.
func (a *App) OutputDir() string {
	return a.cfg.OutputDir(a.root)
}

// Owner names the scan root in generated headers: its import path, or the
// slash-separated absolute path outside any module.
func (a *App) Owner() string {
	if mod, err := discovery.FindModule(a.root); err == nil {
		if p, err := mod.ImportPath(a.root); err == nil {
			return p
		}
	}
	return filepath.ToSlash(a.root)
}

// Discover scans the root and returns the discovery set. Invalid card types
// fail the pass with every diagnostic joined.
func (a *App) Discover(ctx context.Context) (*discovery.Set, error) {
	ec := a.cfg.EngineConfig(a.root, a.logger)
	if mod, err := discovery.FindModule(a.OutputDir()); err == nil {
		if p, err := mod.ImportPath(a.OutputDir()); err == nil {
			ec.Importer = p
		}
	}
	engine, err := discovery.NewEngine(ec)
	if err != nil {
		return nil, err
	}
	if err := engine.Scan(ctx, a.root); err != nil {
		return nil, err
	}
	if err := engine.Err(); err != nil {
		return nil, err
	}
	return engine.Set(), nil
}

// Generate discovers card types and writes the registrar. With aggregate
// set, the InitAll entry point is rewritten afterwards.
func (a *App) Generate(ctx context.Context, aggregate bool) (*codegen.File, error) {
	set, err := a.Discover(ctx)
	if err != nil {
		return nil, err
	}

	gen := codegen.New(a.cfg.GeneratorOptions(), a.logger)
	file, err := gen.Generate(set, a.Owner(), a.OutputDir())
	if err != nil {
		return nil, err
	}

	if aggregate {
		if _, err := gen.Aggregate(a.OutputDir()); err != nil {
			return nil, err
		}
	}
	return file, nil
}

// Aggregate rewrites the InitAll entry point of the output package.
func (a *App) Aggregate() (*codegen.Registrars, error) {
	gen := codegen.New(a.cfg.GeneratorOptions(), a.logger)
	return gen.Aggregate(a.OutputDir())
}

// Watch regenerates the registrar whenever Go sources below the root
// change, until ctx is cancelled. Each pass starts from a fresh engine so
// removed types disappear from the output.
func (a *App) Watch(ctx context.Context, aggregate bool) error {
	skip := []string{a.OutputDir()}
	for _, dir := range a.cfg.Scan.SkipDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(a.root, dir)
		}
		skip = append(skip, dir)
	}

	watcher, err := discovery.NewWatcher(discovery.WatcherConfig{
		Root:     a.root,
		SkipDirs: skip,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		return err
	}

	a.regenerate(ctx, aggregate)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			a.logger.Info("Sources changed", "files", len(event.Changes))
			a.regenerate(ctx, aggregate)
		}
	}
}

// regenerate runs one generation pass, logging instead of failing so the
// watch loop survives broken intermediate edits.
func (a *App) regenerate(ctx context.Context, aggregate bool) {
	if _, err := a.Generate(ctx, aggregate); err != nil {
		a.logger.Error("Generation failed", "error", err)
	}
}
