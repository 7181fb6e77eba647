package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"event-panel/config"
	"event-panel/internal/application"
	"event-panel/internal/domain"
	"event-panel/internal/infra/pushover"
	"event-panel/internal/infra/terminal"
	"event-panel/internal/infra/web"
)

var (
	cfgFile string
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "panel",
	Short:         "panel drives the event room: mixer scenes, preview, ceiling relays and the hymnal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, path, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		cfg, cfgPath = loaded, path
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "panel %s\n", version)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the operator panel: web API, live websocket and pollers",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger(cfg.Log, os.Stdout)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			logger.Info("shutting down")
			cancel()
		}()

		hub := web.NewHub(logger)
		notifiers := application.MultiNotifier{hub, terminal.NewConsole(os.Stdout)}
		if cfg.Pushover.Enabled {
			notifiers = append(notifiers, pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey, cfg.Pushover.ErrorsOnly))
		}

		client := newBackend(ctx, cfg, logger)
		panel := newPanel(cfg, client, notifiers, hub, logger)

		server := web.NewServer(cfg.Web.Addr, cfg.Web.AuthToken, cfg.Web.RateLimit, panel, hub, logger)
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting web server: %w", err)
		}
		defer func() {
			if err := server.Stop(); err != nil {
				logger.Error("stopping web server", "error", err)
			}
		}()

		logger.Info("starting event panel",
			"config", cfgPath,
			"backend", cfg.Backend.URL,
			"addr", cfg.Web.Addr,
			"status_interval", cfg.StatusInterval(),
			"preview_interval", cfg.PreviewInterval(),
		)

		if err := panel.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("panel: %w", err)
		}
		return nil
	},
}

// oneShot builds a panel that prints toasts to the terminal and never
// starts its pollers.
func oneShot(cmd *cobra.Command) (*application.Panel, context.Context) {
	logger := setupLogger(cfg.Log, os.Stderr)
	ctx := cmd.Context()
	client := newBackend(ctx, cfg, logger)
	console := terminal.NewConsole(cmd.OutOrStdout())
	return newPanel(cfg, client, console, application.NoopPublisher{}, logger), ctx
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mixer connection, preview, relays and scenes",
	RunE: func(cmd *cobra.Command, args []string) error {
		panel, ctx := oneShot(cmd)
		monitor := panel.Monitor()

		statusErr := monitor.CheckStatus(ctx)
		monitor.StopPreview()
		if statusErr == nil && monitor.Connection().Connected {
			_ = monitor.RefreshPreview(ctx)
		}

		relayErr := panel.Relays().LoadInitialStatus(ctx)
		sceneErr := panel.Scenes().Load(ctx)

		terminal.RenderState(cmd.OutOrStdout(), panel.Snapshot())
		return errors.Join(statusErr, relayErr, sceneErr)
	},
}

var relayCmd = &cobra.Command{
	Use:   "relay <id> <on|off>",
	Short: "Switch a single relay",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := domain.ParseRelayState(strings.ToLower(args[1]))
		if err != nil {
			return err
		}
		panel, ctx := oneShot(cmd)
		relays := panel.Relays()
		_ = relays.LoadInitialStatus(ctx)

		err = relays.SetIndividual(ctx, args[0], state.On())
		terminal.RenderRelays(cmd.OutOrStdout(), relays.Snapshot())
		return err
	},
}

var groupCmd = &cobra.Command{
	Use:   "group <id> <on|off>",
	Short: "Switch every relay of a ceiling group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := domain.ParseRelayState(strings.ToLower(args[1]))
		if err != nil {
			return err
		}
		panel, ctx := oneShot(cmd)
		relays := panel.Relays()
		_ = relays.LoadInitialStatus(ctx)

		err = relays.SetGroup(ctx, args[0], state.On())
		terminal.RenderRelays(cmd.OutOrStdout(), relays.Snapshot())
		return err
	},
}

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List the mixer scenes",
	RunE: func(cmd *cobra.Command, args []string) error {
		panel, ctx := oneShot(cmd)
		err := panel.Scenes().Load(ctx)
		terminal.RenderScenes(cmd.OutOrStdout(), panel.Scenes().List())
		return err
	},
}

var sceneCmd = &cobra.Command{
	Use:   "scene <name>",
	Short: "Put a scene on air",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		panel, ctx := oneShot(cmd)
		return panel.Scenes().Switch(ctx, strings.Join(args, " "))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search the hymnal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		panel, ctx := oneShot(cmd)
		result, err := panel.Hymnal().Search(ctx, strings.Join(args, " "))
		if errors.Is(err, application.ErrEmptySearchTerm) {
			return err
		}
		terminal.RenderSearch(cmd.OutOrStdout(), result)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./panel.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(scenesCmd)
	rootCmd.AddCommand(sceneCmd)
	rootCmd.AddCommand(searchCmd)
}
