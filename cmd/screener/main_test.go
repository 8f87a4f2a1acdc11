package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/wheelhouse/internal/config"
	"github.com/eddiefleurent/wheelhouse/internal/dashboard"
	"github.com/eddiefleurent/wheelhouse/internal/marketdata"
	"github.com/eddiefleurent/wheelhouse/internal/models"
)

func TestApplyOverrides(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scan.Mode = "csp"
	cfg.Scan.Watchlist = "default"
	cfg.Scan.Top = 25

	applyOverrides(cfg, "spread", "income", "aggressive", 10)

	assert.Equal(t, "spread", cfg.Scan.Mode)
	assert.Equal(t, "income", cfg.Scan.Watchlist)
	assert.Equal(t, "aggressive", cfg.Scan.Preset)
	assert.Equal(t, 10, cfg.Scan.Top)
}

func TestApplyOverridesPresetOverlays(t *testing.T) {
	// A -preset flag must actually overlay the scan settings, not just
	// record the name.
	cfg := &config.Config{}
	cfg.Scan.Mode = "csp"
	cfg.Scan.Watchlist = "default"
	cfg.Scan.MinDelta = 0.15
	cfg.Scan.MaxDelta = 0.35
	cfg.Scan.MinReturn = 0.5
	cfg.Scan.Top = 25

	applyOverrides(cfg, "", "", "aggressive", 0)

	assert.Equal(t, 50.0, cfg.Scan.MinIVRank)
	assert.Equal(t, 1.0, cfg.Scan.MinReturn)
	assert.Equal(t, 0.20, cfg.Scan.MinDelta)
	assert.Equal(t, 0.35, cfg.Scan.MaxDelta)
}

func TestApplyOverridesEmptyKeepsConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scan.Mode = "butterfly"
	cfg.Scan.Top = 25

	applyOverrides(cfg, "", "", "", 0)

	assert.Equal(t, "butterfly", cfg.Scan.Mode)
	assert.Equal(t, 25, cfg.Scan.Top)
}

func TestNewProvider(t *testing.T) {
	mockCfg := &config.Config{Provider: config.ProviderConfig{Name: "mock"}}
	p, err := newProvider(mockCfg)
	require.NoError(t, err)
	_, ok := p.(*marketdata.MockProvider)
	assert.True(t, ok, "mock config should yield the synthetic provider")

	tradierCfg := &config.Config{Provider: config.ProviderConfig{Name: "tradier", APIKey: "k"}}
	p, err = newProvider(tradierCfg)
	require.NoError(t, err)
	_, ok = p.(*marketdata.CircuitBreakerProvider)
	assert.True(t, ok, "tradier should be wrapped in the circuit breaker")

	_, err = newProvider(&config.Config{Provider: config.ProviderConfig{Name: "bogus"}})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, newLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, newLogger("nonsense").GetLevel(), "bad level falls back to info")
}

func TestServeDashboardWithoutServeReturns(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	cfg := &config.Config{}
	cfg.Dashboard.Enabled = true
	cfg.Dashboard.Port = 9090

	serveDashboard(context.Background(), cfg, logger, &dashboard.Snapshot{}, false)

	require.NotEmpty(t, hook.Entries, "should say why the dashboard is not serving")
	assert.Contains(t, hook.LastEntry().Message, "-serve")
}

func TestStrategyLabel(t *testing.T) {
	assert.Equal(t, "CASH-SECURED PUTS", strategyLabel(models.StrategyCSP))
	assert.Equal(t, "PUT CREDIT SPREADS", strategyLabel(models.StrategySpread))
	assert.Equal(t, "BROKEN-WING PUT BUTTERFLIES", strategyLabel(models.StrategyButterfly))
}

func TestRenderReportCSP(t *testing.T) {
	exp := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	ivr := 62.0
	results := []models.ScanResult{
		{Symbol: "NVDA"},
		{Symbol: "BAD", Err: errors.New("no quote")},
	}
	top := []models.Candidate{
		&models.CSPCandidate{
			Symbol: "NVDA", Spot: 130, Strike: 120, Expiration: exp, DTE: 35,
			Bid: 2.30, Mid: 2.35, Greeks: models.Greeks{Delta: -0.22},
			OTMPct: 7.7, MonthlyRet: 1.68, IVRank: &ivr, Quality: 74,
			EarningsRisk: true, Score: 21.3, Limit: 2.35,
		},
	}

	var buf bytes.Buffer
	renderReport(&buf, models.StrategyCSP, results, top, 1200*time.Millisecond)
	out := buf.String()

	assert.Contains(t, out, "CASH-SECURED PUTS")
	assert.Contains(t, out, "scanned 1 tickers (1 failed)")
	assert.Contains(t, out, "BAD: no quote")
	assert.Contains(t, out, "NVDA")
	assert.Contains(t, out, "120.0")
	assert.Contains(t, out, "2026-02-20")
	assert.Contains(t, out, "★★★", "a 21.3 CSP score is three stars")
	assert.Contains(t, out, "!", "earnings risk marker")
}

func TestRenderReportSpread(t *testing.T) {
	exp := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	top := []models.Candidate{
		&models.SpreadCandidate{
			Symbol: "AMD", ShortStrike: 100, LongStrike: 95, Expiration: exp, DTE: 30,
			Credit: 1.40, MaxLoss: 3.60, ReturnOnRisk: 38.9, MonthlyRet: 38.9,
			PoP: 82, Breakeven: 98.60, Score: 36.1, Limit: 1.40,
		},
	}

	var buf bytes.Buffer
	renderReport(&buf, models.StrategySpread, nil, top, time.Second)
	out := buf.String()

	assert.Contains(t, out, "PUT CREDIT SPREADS")
	assert.Contains(t, out, "100/95")
	assert.Contains(t, out, "1.40")
	assert.Contains(t, out, "98.60")
}

func TestRenderReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderReport(&buf, models.StrategyButterfly, []models.ScanResult{{Symbol: "SPY"}}, nil, time.Second)
	assert.Contains(t, buf.String(), "No candidates passed the filters.")
}
