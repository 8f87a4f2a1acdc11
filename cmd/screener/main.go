package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/wheelhouse/internal/config"
	"github.com/eddiefleurent/wheelhouse/internal/dashboard"
	"github.com/eddiefleurent/wheelhouse/internal/marketdata"
	"github.com/eddiefleurent/wheelhouse/internal/models"
	"github.com/eddiefleurent/wheelhouse/internal/screener"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Path to configuration file")
		mode       = flag.String("mode", "", "Strategy override: csp, spread, or butterfly")
		watchlist  = flag.String("watchlist", "", "Watchlist override: default, ai-tech, income, or custom")
		preset     = flag.String("preset", "", "Preset override: income or aggressive")
		top        = flag.Int("top", 0, "Top-N override")
		serve      = flag.Bool("serve", false, "Keep serving the dashboard after the scan")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(cfg, *mode, *watchlist, *preset, *top)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	provider, err := newProvider(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize provider")
	}

	scanner := screener.New(provider, screener.Config{
		Mode: cfg.Mode(),
		Filters: screener.Filters{
			MinDelta:         cfg.Scan.MinDelta,
			MaxDelta:         cfg.Scan.MaxDelta,
			MinDTE:           cfg.Scan.MinDTE,
			MaxDTE:           cfg.Scan.MaxDTE,
			MinReturn:        cfg.Scan.MinReturn,
			MinIVRank:        cfg.Scan.MinIVRank,
			MinGrossMargin:   cfg.Fundamentals.MinGrossMargin,
			MinFCFYield:      cfg.Fundamentals.MinFCFYield,
			MinRevenueGrowth: cfg.Fundamentals.MinRevenueGrowth,
			Sector:           cfg.Fundamentals.Sector,
			RiskFreeRate:     cfg.Scan.RiskFreeRate,
		},
		Parallelism: cfg.Scan.Parallelism,
	}, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tickers := cfg.Tickers()
	logger.WithFields(logrus.Fields{
		"mode":      cfg.Scan.Mode,
		"watchlist": cfg.Scan.Watchlist,
		"tickers":   len(tickers),
	}).Info("Starting scan")

	started := time.Now()
	results := scanner.Scan(ctx, tickers)
	topCandidates := screener.Aggregate(results, cfg.Scan.Top)
	elapsed := time.Since(started)

	renderReport(os.Stdout, cfg.Mode(), results, topCandidates, elapsed)

	if cfg.Dashboard.Enabled {
		serveDashboard(ctx, cfg, logger, &dashboard.Snapshot{
			Mode:         cfg.Mode(),
			StartedAt:    started,
			Elapsed:      elapsed,
			Results:      results,
			Top:          topCandidates,
			Fundamentals: scanner.Fundamentals(),
		}, *serve)
	}
}

// applyOverrides layers command-line flags over the file config.
func applyOverrides(cfg *config.Config, mode, watchlist, preset string, top int) {
	if mode != "" {
		cfg.Scan.Mode = mode
	}
	if watchlist != "" {
		cfg.Scan.Watchlist = watchlist
	}
	if preset != "" {
		cfg.Scan.Preset = preset
		cfg.ApplyPreset()
	}
	if top > 0 {
		cfg.Scan.Top = top
	}
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// newProvider builds the configured market-data provider, wrapped in a
// circuit breaker for the networked ones.
func newProvider(cfg *config.Config) (marketdata.Provider, error) {
	switch cfg.Provider.Name {
	case "mock":
		return marketdata.NewMockProvider(), nil
	case "tradier":
		client := marketdata.NewTradierClient(cfg.Provider.APIKey, cfg.Provider.Sandbox)
		return marketdata.NewCircuitBreakerProvider(client), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}

func serveDashboard(ctx context.Context, cfg *config.Config, logger *logrus.Logger, snap *dashboard.Snapshot, block bool) {
	server := dashboard.NewServer(dashboard.Config{Port: cfg.Dashboard.Port}, logger)
	server.SetSnapshot(snap)

	if !block {
		logger.Info("Dashboard snapshot published; pass -serve to keep serving after the scan")
		return
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	logger.Infof("Dashboard serving on :%d, Ctrl-C to exit", cfg.Dashboard.Port)
	select {
	case err := <-errCh:
		logger.WithError(err).Error("Dashboard server stopped")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Dashboard shutdown failed")
		}
	}
}

// strategyLabel maps a mode to its report heading.
func strategyLabel(mode models.StrategyType) string {
	switch mode {
	case models.StrategySpread:
		return "PUT CREDIT SPREADS"
	case models.StrategyButterfly:
		return "BROKEN-WING PUT BUTTERFLIES"
	default:
		return "CASH-SECURED PUTS"
	}
}
