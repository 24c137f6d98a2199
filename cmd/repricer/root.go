package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maltedev/cardmarket-repricer/internal/browser"
	"github.com/maltedev/cardmarket-repricer/internal/config"
	"github.com/maltedev/cardmarket-repricer/internal/scraper"
	"github.com/maltedev/cardmarket-repricer/pkg/logger"
)

type options struct {
	envFile  string
	markup   float64
	headless bool
	dryRun   bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "repricer",
		Short:        "Reprice a Cardmarket singles stock from the price trend",
		Long:         "Logs into Cardmarket, walks every page of the seller's singles stock, reads each article's Price Trend and writes it back with an optional percentage markup.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "file with CARDMARKET_* variables, ignored if missing")
	flags.Float64Var(&opts.markup, "markup", 0, "percentage added to the price trend (overrides MARKUP_PERCENT)")
	flags.BoolVar(&opts.headless, "headless", false, "run the browser without a window (overrides BROWSER_HEADLESS)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "compute prices without submitting them (overrides SCRAPER_DRY_RUN)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	return cmd
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("markup") {
		cfg.Pricing.MarkupPercent = opts.markup
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = opts.headless
	}
	if flags.Changed("dry-run") {
		cfg.Scraper.DryRun = opts.dryRun
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
}

func run(cmd *cobra.Command, opts *options) error {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, opts, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).With("run_id", uuid.NewString())
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browserOpts := browser.DefaultOptions()
	browserOpts.Headless = cfg.Browser.Headless
	browserOpts.Timeout = cfg.Browser.Timeout
	browserOpts.ViewportWidth = cfg.Browser.ViewportWidth
	browserOpts.ViewportHeight = cfg.Browser.ViewportHeight
	browserOpts.AcceptLanguage = cfg.Browser.AcceptLanguage
	browserOpts.TimezoneID = cfg.Browser.TimezoneID
	browserOpts.Locale = cfg.Browser.Locale

	b, err := browser.New(browserOpts)
	if err != nil {
		log.Error("failed to initialize browser", "error", err)
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("failed to close browser", "error", err)
		}
	}()

	page, err := b.NewPage()
	if err != nil {
		log.Error("failed to open main page", "error", err)
		return err
	}

	log.Info("starting cardmarket repricer",
		"markup_percent", cfg.Pricing.MarkupPercent, "dry_run", cfg.Scraper.DryRun, "headless", cfg.Browser.Headless)

	summary, err := scraper.New(page, b, cfg, log).Run(ctx)
	if err != nil {
		log.Error("run aborted", "error", err, "updated", summary.Updated, "skipped", summary.Skipped)
		return err
	}

	return nil
}
