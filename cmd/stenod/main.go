// stenod translates Stenura chord strokes into keystrokes.
//
//	stenod [-config path] [-version]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/writerslogic/stenod/internal/config"
	"github.com/writerslogic/stenod/internal/logging"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to config.toml")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("stenod", Version)
		return
	}

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stenod: load config: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	format := logging.FormatText
	if cfg.Logging.Format == "json" {
		format = logging.FormatJSON
	}
	log, err := logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		Component: "stenod",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "stenod: init logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	logging.SetDefault(log)

	d, err := newDaemon(cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := d.Start(ctx); err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}

	loader.OnChange(func(newCfg *config.Config) {
		log.Info("config reloaded", "retry_interval_ms", newCfg.RetryIntervalMs,
			"poll_interval_ms", newCfg.PollIntervalMs, "max_tries", newCfg.MaxTries)
		d.ApplyConfig(newCfg)
	})
	if err := loader.Watch(); err != nil {
		log.Warn("config hot-reload disabled", "error", err)
	}
	defer loader.Close()

	log.Info("stenod started", "device", cfg.Device, "dictionary", cfg.DictionaryPath)

	statusTicker := time.NewTicker(30 * time.Second)
	defer statusTicker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			break loop
		case <-statusTicker.C:
			log.Info("alive", "strokes", d.StrokeCount())
		case err := <-loader.Errors():
			log.Warn("config reload failed", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := d.Stop(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("stenod stopped")
}
