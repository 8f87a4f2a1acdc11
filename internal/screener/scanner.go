package screener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/eddiefleurent/wheelhouse/internal/marketdata"
	"github.com/eddiefleurent/wheelhouse/internal/models"
	"github.com/eddiefleurent/wheelhouse/internal/quality"
	"github.com/eddiefleurent/wheelhouse/internal/volatility"
)

// historyDays is roughly one year of trading days, the window fed to
// the volatility-rank estimator.
const historyDays = 252

// Config holds the scan-level settings.
type Config struct {
	Mode        models.StrategyType
	Filters     Filters
	Parallelism int
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Scanner screens a universe of tickers for one strategy type. Tickers
// are independent: each is fetched, estimated, and enumerated in
// isolation, and a per-ticker failure never aborts the scan.
type Scanner struct {
	provider marketdata.Provider
	cfg      Config
	logger   *logrus.Logger
	funds    *fundCache
}

// New creates a Scanner.
func New(provider marketdata.Provider, cfg Config, logger *logrus.Logger) *Scanner {
	if cfg.Mode == "" {
		cfg.Mode = models.StrategyCSP
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scanner{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		funds:    newFundCache(provider),
	}
}

// fundCache memoizes fundamentals per symbol for the lifetime of one
// scanner. singleflight guarantees a single writer per key: concurrent
// scans of the same symbol share one upstream fetch.
type fundCache struct {
	provider marketdata.Provider
	group    singleflight.Group
	mu       sync.RWMutex
	vals     map[string]*models.Fundamentals
}

func newFundCache(provider marketdata.Provider) *fundCache {
	return &fundCache{
		provider: provider,
		vals:     make(map[string]*models.Fundamentals),
	}
}

// Get returns the cached fundamentals for symbol, fetching at most once
// per key. A fetch error is cached as absent fundamentals: the ticker
// still scans with neutral quality, matching the missing-data rule.
func (c *fundCache) Get(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	c.mu.RLock()
	fund, ok := c.vals[symbol]
	c.mu.RUnlock()
	if ok {
		return fund, nil
	}

	v, err, _ := c.group.Do(symbol, func() (interface{}, error) {
		fund, err := c.provider.GetFundamentals(ctx, symbol)
		if err != nil {
			fund = nil
		}
		c.mu.Lock()
		c.vals[symbol] = fund
		c.mu.Unlock()
		return fund, err
	})
	fund, _ = v.(*models.Fundamentals)
	return fund, err
}

// Snapshot returns a copy of everything cached so far.
func (c *fundCache) Snapshot() map[string]*models.Fundamentals {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*models.Fundamentals, len(c.vals))
	for k, v := range c.vals {
		out[k] = v
	}
	return out
}

// Scan screens the given tickers and returns one result per ticker, in
// input order. Tickers run concurrently up to the configured
// parallelism.
func (s *Scanner) Scan(ctx context.Context, symbols []string) []models.ScanResult {
	runID := uuid.NewString()[:8]
	log := s.logger.WithField("run", runID)
	log.WithFields(logrus.Fields{
		"mode":    s.cfg.Mode,
		"tickers": len(symbols),
	}).Info("starting scan")

	results := make([]models.ScanResult, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)

	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			results[i] = s.scanTicker(gctx, symbol)
			return nil // per-ticker failures are carried in the result
		})
	}
	_ = g.Wait()

	var found, failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			log.WithField("symbol", res.Symbol).WithError(res.Err).Warn("ticker scan failed")
			continue
		}
		found += len(res.Candidates)
	}
	log.WithFields(logrus.Fields{
		"candidates": found,
		"failed":     failed,
	}).Info("scan complete")
	return results
}

// Fundamentals returns the fundamentals gathered during the scan,
// keyed by symbol.
func (s *Scanner) Fundamentals() map[string]*models.Fundamentals {
	return s.funds.Snapshot()
}

// scanTicker screens one ticker end to end. All failures are captured
// in the result; nothing escapes as a panic or aborts sibling tickers.
func (s *Scanner) scanTicker(ctx context.Context, symbol string) models.ScanResult {
	started := s.cfg.Now()
	res := models.ScanResult{Symbol: symbol}
	flt := &s.cfg.Filters
	log := s.logger.WithField("symbol", symbol)

	spot, err := s.provider.GetSpot(ctx, symbol)
	if err != nil {
		res.Err = fmt.Errorf("spot: %w", err)
		return res
	}
	if spot <= 0 {
		res.Err = fmt.Errorf("non-positive spot %.2f", spot)
		return res
	}

	fund, err := s.funds.Get(ctx, symbol)
	if err != nil {
		log.WithError(err).Debug("fundamentals unavailable, scoring neutral")
	}

	// Entry gate: fundamental pre-filter skips the whole ticker before
	// any chain work.
	if ok, reason := flt.PassTicker(fund); !ok {
		log.WithField("reason", reason).Debug("ticker filtered out")
		res.Elapsed = s.cfg.Now().Sub(started)
		return res
	}

	u := &models.Underlying{
		Symbol:       symbol,
		Spot:         spot,
		Fundamentals: fund,
		Quality:      quality.Score(fund),
	}

	if closes, err := s.provider.GetDailyCloses(ctx, symbol, historyDays); err != nil {
		log.WithError(err).Debug("price history unavailable, IV rank unknown")
	} else if rank, err := volatility.Rank(closes); err != nil {
		log.WithError(err).Debug("IV rank not estimable")
	} else {
		u.IVRank = &rank
	}

	if earnings, err := s.provider.GetNextEarnings(ctx, symbol); err != nil {
		log.WithError(err).Debug("earnings date unavailable")
	} else {
		u.NextEarnings = earnings
	}

	expirations, err := s.provider.GetExpirations(ctx, symbol)
	if err != nil {
		res.Err = fmt.Errorf("expirations: %w", err)
		return res
	}

	today := s.cfg.Now().Truncate(24 * time.Hour)
	for _, exp := range expirations {
		dte := int(exp.Truncate(24 * time.Hour).Sub(today).Hours() / 24)
		if !flt.DTEInRange(dte) {
			continue
		}

		puts, err := s.provider.GetPutChain(ctx, symbol, exp)
		if err != nil {
			// One bad expiration does not fail the ticker.
			log.WithError(err).WithField("expiration", exp.Format("2006-01-02")).Debug("chain fetch failed")
			continue
		}
		chain := &models.ChainSnapshot{Expiration: exp, DTE: dte, Puts: puts}
		res.Candidates = append(res.Candidates, s.enumerate(u, chain, today)...)
	}

	// Exit gate: the IV-rank post-filter applies uniformly across
	// strategies; unknown rank fails an active filter.
	if !flt.PassIVRank(u.IVRank) {
		log.WithField("dropped", len(res.Candidates)).Debug("below minimum IV rank")
		res.Candidates = nil
	}

	res.Underlying = u
	res.Elapsed = s.cfg.Now().Sub(started)
	return res
}

func (s *Scanner) enumerate(u *models.Underlying, chain *models.ChainSnapshot, today time.Time) []models.Candidate {
	flt := &s.cfg.Filters
	switch s.cfg.Mode {
	case models.StrategySpread:
		return EnumerateSpreads(u, chain, flt, today)
	case models.StrategyButterfly:
		return EnumerateButterflies(u, chain, flt, today)
	default:
		return EnumerateCSP(u, chain, flt, today)
	}
}
