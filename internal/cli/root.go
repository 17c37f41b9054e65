// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/tripplan-tui/internal/backend"
	"github.com/jeranaias/tripplan-tui/internal/config"
	"github.com/jeranaias/tripplan-tui/internal/logging"
	"github.com/jeranaias/tripplan-tui/internal/metrics"
	"github.com/jeranaias/tripplan-tui/internal/session"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// options holds the persistent flags.
type options struct {
	configPath  string
	baseURL     string
	userID      string
	planID      string
	typingMs    int
	verbose     bool
	metricsAddr string
}

// apply copies every flag the user set onto cfg.
func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.Backend.BaseURL = o.baseURL
	}
	if flags.Changed("user-id") {
		cfg.Backend.UserID = o.userID
	}
	if flags.Changed("plan-id") {
		cfg.Backend.PlanID = o.planID
	}
	if flags.Changed("typing-ms") {
		cfg.Stream.TypingIntervalMs = o.typingMs
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = o.metricsAddr
	}
}

// =============================================================================
// APPLICATION
// =============================================================================

// app is what every command shares once flags and config are resolved.
type app struct {
	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger
	metrics *metrics.Metrics
	client  *backend.Client

	// overrides re-applies the command line flags to a reloaded config.
	overrides func(*config.Config)
}

func (a *app) init(cmd *cobra.Command, opts *options) error {
	cfg, path, err := loadConfig(opts.configPath)
	if err != nil {
		if cfg == nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v; using defaults\n", RenderConditional(WarningStyle, "[!]"), err)
	}

	a.overrides = func(c *config.Config) { opts.apply(cmd, c) }
	a.overrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	logFile := cfg.Log.File
	if logFile == "" {
		if logFile, err = config.DefaultLogPath(); err != nil {
			return err
		}
	}
	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    logFile,
		Verbose: opts.verbose,
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.cfgPath = path
	a.logger = logger
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}
	a.client = backend.NewClient(&backend.Config{
		BaseURL:   cfg.Backend.BaseURL,
		ChatPath:  cfg.Backend.ChatPath,
		PlansPath: cfg.Backend.PlansPath,
		Timeout:   cfg.Timeout(),
		UserAgent: "tripplan/" + Version,
	}).WithLogger(logger)
	config.SetGlobal(cfg)

	logger.Info("starting",
		zap.String("command", cmd.CommandPath()),
		zap.String("version", Version),
		zap.String("config", path),
		zap.String("base_url", cfg.Backend.BaseURL))
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// newController builds a session controller from the resolved config.
func (a *app) newController(streamer session.ChatStreamer, tr session.Transcript, panel session.ItineraryPanel) *session.Controller {
	return session.NewController(streamer, tr, panel, session.Options{
		UserID:         a.cfg.Backend.UserID,
		PlanID:         a.cfg.Backend.PlanID,
		TypingInterval: a.cfg.TypingInterval(),
		NoiseThreshold: a.cfg.Stream.NoiseThreshold,
		MaxFrameSize:   a.cfg.Stream.MaxFrameBytes,
		Logger:         a.logger,
		Metrics:        a.metrics,
	})
}

// serveMetrics exposes /metrics until ctx is done. Failures are logged;
// the planner keeps working without its endpoint.
func (a *app) serveMetrics(ctx context.Context) error {
	if a.metrics == nil {
		return nil
	}
	a.logger.Info("metrics endpoint", zap.String("addr", a.cfg.Metrics.Addr))
	if err := a.metrics.Serve(ctx, a.cfg.Metrics.Addr); err != nil {
		a.logger.Warn("metrics endpoint stopped", zap.Error(err))
	}
	return nil
}

// loadConfig loads the file named by --config, or the default files.
// It also returns the path of the file in use ("" for defaults only).
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadFromPath(path)
		return cfg, path, err
	}
	cfg, err := config.Load()
	return cfg, config.ExistingPath(), err
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	a := &app{}

	root := &cobra.Command{
		Use:   "tripplan",
		Short: "Plan trips with a streaming travel assistant",
		Long: `tripplan is a terminal client for the travel planning service.

Run without arguments to open the planner screen: chat on the left,
the itinerary on the right. Use 'tripplan chat' for a line-mode session.`,
		Version:       fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Config commands load and save the file themselves.
			if isConfigCommand(cmd) {
				return nil
			}
			return a.init(cmd, opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), a)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to the config file (default ~/.tripplan/config.toml)")
	flags.StringVar(&opts.baseURL, "base-url", "", "Planning service URL")
	flags.StringVar(&opts.userID, "user-id", "", "User ID sent with every turn")
	flags.StringVar(&opts.planID, "plan-id", "", "Plan to continue and save to")
	flags.IntVar(&opts.typingMs, "typing-ms", 0, "Milliseconds per revealed character (-1 for instant)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	root.AddCommand(
		newChatCommand(a),
		newReplayCommand(a),
		newConfigCommand(opts),
	)
	return root
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" && c.HasParent() && !c.Parent().HasParent() {
			return true
		}
	}
	return false
}

// printError writes err to stderr in the CLI's error style.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %s\n", RenderConditional(ErrorStyle, "Error:"), strings.TrimSpace(err.Error()))
}

// Main runs the CLI and exits non-zero on failure.
func Main() {
	if err := Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}
