package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"

	"event-panel/config"
	"event-panel/internal/application"
	"event-panel/internal/infra/backend"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env into the environment, then the first config file
// found: the --config path, ./panel.yaml, ~/.panel/panel.yaml or
// /etc/panel/panel.yaml. With none of them the defaults apply.
func loadConfig(path string) (*config.Config, string, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("loading .env: %w", err)
	}

	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}

	candidates := []string{"panel.yaml"}
	if home, err := homedir.Dir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".panel", "panel.yaml"))
	}
	candidates = append(candidates, "/etc/panel/panel.yaml")

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			cfg, err := config.Load(candidate)
			return cfg, candidate, err
		}
	}

	return config.Default(), "", nil
}

func setupLogger(cfg config.LogConfig, out io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) *backend.Client {
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Username, cfg.Backend.Password, cfg.BackendTimeout(), logger)
	if cfg.Backend.Username != "" {
		if err := client.Login(ctx); err != nil {
			logger.Warn("backend login failed, retrying on first request", "error", err)
		}
	}
	return client
}

func newPanel(
	cfg *config.Config,
	client *backend.Client,
	notifier application.Notifier,
	publisher application.Publisher,
	logger *slog.Logger,
) *application.Panel {
	relays := application.NewRelaySync(cfg.Relays.IDs, cfg.RelayGroups(), client, notifier, publisher, logger)
	monitor := application.NewMonitor(client, client, publisher, logger, cfg.StatusInterval(), cfg.PreviewInterval())
	scenes := application.NewSceneBoard(client, notifier, publisher, logger)
	hymnal := application.NewHymnal(client, notifier, logger)
	return application.NewPanel(relays, monitor, scenes, hymnal, logger)
}
