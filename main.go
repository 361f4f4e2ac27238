package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eqcrawl/internal/config"
	"eqcrawl/internal/formatter"
	"eqcrawl/internal/output"
	"eqcrawl/internal/scraper"
	_ "eqcrawl/internal/sites/yahoo"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

var (
	site           string
	outputFormat   string
	outputFile     string
	outputDir      string
	diagnosticsDir string
	configPath     string
	logLevel       string
	logFormat      string
	timeout        time.Duration
	maxPages       int
	showUI         bool
	proxyURL       string
	stealth        bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "eqcrawl [REGION]",
		Short:   "Export the Yahoo Finance equity screener for one region",
		Version: version,
		Long: `eqcrawl drives a browser through the Yahoo Finance equity screener,
filters it by region, walks every result page and saves the symbol, name
and price of each listed equity.`,
		Example: `  # Export Argentinian equities to outputs/stocks_argentina.csv
  eqcrawl

  # Another region, two pages only, with a visible browser
  eqcrawl "United Kingdom" --max-pages 2 --showui

  # JSON into a chosen file (format inferred from the extension)
  eqcrawl Spain -o spain.json`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&site, "site", "yahoo.equity", "Site-specific mode")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "csv", "Output format (csv, json, markdown, text, html)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "outputs", "Directory for derived output files")
	rootCmd.Flags().StringVar(&diagnosticsDir, "diagnostics-dir", ".", "Directory for failure screenshots and page snapshots")
	rootCmd.Flags().StringVar(&configPath, "config", os.Getenv("EQCRAWL_CONFIG"), "YAML config file, defaults to EQCRAWL_CONFIG env var")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Overall run deadline (0 for none)")
	rootCmd.Flags().IntVar(&maxPages, "max-pages", -1, "Max pages to paginate (-1 for no limit)")
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "Proxy URL (e.g. http://127.0.0.1:7890), defaults to EQCRAWL_PROXY env var")
	rootCmd.Flags().BoolVar(&stealth, "stealth", true, "Inject anti-detection scripts into the page")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// A missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)

	// If output file is specified but format is not, infer format from file extension
	if outputFile != "" && !cmd.Flags().Changed("format") {
		if inferred := formatter.FromExtension(outputFile); inferred != "" {
			cfg.Output.Format = inferred
		}
	}

	if err := validateFlags(cfg); err != nil {
		return err
	}

	logger, err := initLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	s, ok := scraper.Get(site)
	if !ok {
		return fmt.Errorf("unknown site: %s (available: %v)", site, scraper.Names())
	}

	target := cfg.Crawler.Region
	if len(args) == 1 {
		target = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts := scraper.Options{
		Browser:        cfg.Browser,
		Crawler:        cfg.Crawler,
		Selectors:      cfg.Selectors,
		DiagnosticsDir: cfg.Output.DiagnosticsDir,
		Logger:         logger.With(zap.String("site", s.Name())),
	}
	sink := output.NewFileSink(cfg.Output.Dir, cfg.Output.Format, outputFile, logger)

	start := time.Now()
	if err := s.Scrape(ctx, target, opts, sink); err != nil {
		logger.Error("run failed", zap.String("target", target), zap.Error(err))
		return fmt.Errorf("failed to scrape: %w", err)
	}

	if path := sink.Path(); path != "" {
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", path)
	}
	logger.Info("run finished", zap.String("target", target), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = outputFormat
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = outputDir
	}
	if flags.Changed("diagnostics-dir") {
		cfg.Output.DiagnosticsDir = diagnosticsDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("max-pages") {
		cfg.Crawler.MaxPages = maxPages
	}
	if flags.Changed("showui") {
		cfg.Browser.Headless = !showUI
	}
	if flags.Changed("proxy") {
		cfg.Browser.ProxyURL = proxyURL
	}
	if flags.Changed("stealth") {
		cfg.Browser.Stealth = stealth
	}
}

func validateFlags(cfg *config.Config) error {
	if !formatter.Valid(cfg.Output.Format) {
		return fmt.Errorf("invalid output format: %s", cfg.Output.Format)
	}

	if cfg.Crawler.MaxPages == 0 || cfg.Crawler.MaxPages < -1 {
		return fmt.Errorf("invalid --max-pages: %d", cfg.Crawler.MaxPages)
	}

	validLogFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validLogFormats[cfg.Log.Format] {
		return fmt.Errorf("invalid log format: %s", cfg.Log.Format)
	}

	if timeout < 0 {
		return fmt.Errorf("--timeout must not be negative")
	}

	return nil
}

// initLogger builds a zap logger writing to stderr so stdout stays clean
func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         cfg.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return zapConfig.Build()
}
