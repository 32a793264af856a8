// vga-app serves the VGA shell: it resolves a visualization configuration
// from the session history, a configUrl query parameter or a file given on
// the command line, and hands it to the <vga-core> host page. Without one it
// shows the introduction, demos and recently opened configurations.
//
// Usage:
//
//	vga-app [--config file] [--listen addr] [--data-dir dir] [--root dir]...
//	        [--pick] [--log-level level] [file.vgaconf ...]
//
// Files named on the command line are opened by the first page load, the way
// an installed app receives files it was launched with.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"vga-app/api"
	"vga-app/files"
	"vga-app/kv"
	"vga-app/loader"
	"vga-app/recent"
	"vga-app/session"
	"vga-app/settings"
	"vga-app/ui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	config   string
	listen   string
	dataDir  string
	roots    []string
	pick     bool
	logLevel string
}

func parseFlags(args []string) (flags, []string, error) {
	var f flags
	flagSet := pflag.NewFlagSet("vga-app", pflag.ContinueOnError)
	flagSet.StringVar(&f.config, "config", os.Getenv("VGA_CONFIG"), "YAML configuration file (default $VGA_CONFIG)")
	flagSet.StringVar(&f.listen, "listen", "", "HTTP listen address, overrides the config file")
	flagSet.StringVar(&f.dataDir, "data-dir", "", "directory for the local store, overrides the config file")
	flagSet.StringArrayVar(&f.roots, "root", nil, "directory configuration files may be opened from (repeatable)")
	flagSet.BoolVar(&f.pick, "pick", false, "choose configuration files on this terminal when a page asks for one")
	flagSet.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vga-app [flags] [file%s ...]\n\n", ".vgaconf")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		return flags{}, nil, err
	}
	return f, flagSet.Args(), nil
}

// loadSettings layers the config file, the environment and the flags.
func loadSettings(f flags) (*settings.Config, error) {
	cfg, err := settings.Load(f.config)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if f.listen != "" {
		cfg.Listen = f.listen
	}
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if len(f.roots) > 0 {
		cfg.Files.Roots = f.roots
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	cfg.Expand()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(args []string) error {
	f, paths, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadSettings(f)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	store, err := kv.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	sessions := session.NewManager(store)
	if err := sessions.Restore(); err != nil {
		logger.Warn("restoring the last session failed", "error", err)
	}
	recents := recent.NewStore(store)
	registry := files.NewRegistry(cfg.Files.Roots, cfg.Files.Extension)

	launch := files.NewLaunchQueue()
	if len(paths) > 0 {
		params := files.LaunchParams{}
		for _, path := range paths {
			h, err := registry.Grant(path)
			if err != nil {
				return fmt.Errorf("cannot open %s: %w", path, err)
			}
			params.Files = append(params.Files, h)
		}
		launch.Enqueue(params)
		logger.Info("launch files queued", "count", len(params.Files))
	}

	var picker files.Picker
	if f.pick {
		picker = &files.PromptPicker{Registry: registry, In: os.Stdin, Out: os.Stderr}
	}

	fetchTimeout, _ := cfg.FetchTimeout()
	origin, err := url.Parse(cfg.Origin())
	if err != nil {
		return fmt.Errorf("public_url: %w", err)
	}
	ld := loader.New(loader.Options{
		Timeout:  fetchTimeout,
		MaxBytes: cfg.Fetch.MaxBytes,
		Origin:   origin,
		Files:    registry,
		Picker:   picker,
		Recents:  recents,
		Records:  sessions,
		Logger:   logger,
	})

	renderer, err := ui.NewRenderer(cfg.Host.ScriptURL)
	if err != nil {
		return fmt.Errorf("loading pages: %w", err)
	}
	router := api.RegisterRoutes(api.Deps{
		Sessions: sessions,
		Loader:   ld,
		Recents:  recents,
		Files:    registry,
		Launch:   launch,
		Renderer: renderer,
		Static:   ui.Static(),
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if idle, _ := cfg.IdleTimeout(); idle > 0 {
		go expireSessions(ctx, sessions, idle, logger)
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("vga-app listening", "addr", cfg.Listen, "origin", origin.String(), "store", cfg.Store.Driver)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// expireSessions drops idle sessions until ctx is done.
func expireSessions(ctx context.Context, sessions *session.Manager, idle time.Duration, logger *slog.Logger) {
	interval := idle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Expire(idle); n > 0 {
				logger.Debug("expired idle sessions", "count", n)
			}
		}
	}
}
