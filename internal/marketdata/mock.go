package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	"github.com/eddiefleurent/wheelhouse/internal/models"
	"github.com/eddiefleurent/wheelhouse/internal/pricing"
)

// MockProvider serves deterministic synthetic market data derived from
// the symbol name. It exists for offline runs and tests: the same
// symbol always produces the same spot, history, and chains, so scans
// are reproducible.
type MockProvider struct {
	now func() time.Time
}

// NewMockProvider creates a synthetic provider using the real clock.
func NewMockProvider() *MockProvider {
	return &MockProvider{now: time.Now}
}

// NewMockProviderAt creates a synthetic provider pinned to a clock,
// used by tests that need stable DTEs.
func NewMockProviderAt(now func() time.Time) *MockProvider {
	return &MockProvider{now: now}
}

// seed maps a symbol to a stable value in [0,1).
func seed(symbol string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return float64(h.Sum32()%10000) / 10000
}

// baseIV is the symbol's at-the-money implied volatility, 20%-50%.
func baseIV(symbol string) float64 {
	return 0.20 + 0.30*seed(symbol)
}

// GetSpot implements Provider. Prices land between $50 and $450.
func (m *MockProvider) GetSpot(_ context.Context, symbol string) (float64, error) {
	return 50 + 400*seed(symbol), nil
}

// GetDailyCloses implements Provider. The synthetic year has a slow
// sinusoidal volatility regime so the volatility-rank estimator has a
// real range to work with.
func (m *MockProvider) GetDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	spot, _ := m.GetSpot(ctx, symbol)
	s := seed(symbol)

	closes := make([]float64, 0, days)
	price := spot * 0.9
	for i := 0; i < days; i++ {
		mag := 0.004 + 0.012*math.Abs(math.Sin(float64(i)/40+s*math.Pi))
		ret := mag
		if i%2 == 1 {
			ret = -mag
		}
		// Slight upward drift toward the current spot.
		price *= math.Exp(ret + 0.0004)
		closes = append(closes, price)
	}
	return closes, nil
}

var mockSectors = []string{"Technology", "Healthcare", "Financial Services", "Consumer Cyclical", "Industrials"}

// GetFundamentals implements Provider. Every third symbol has no
// fundamentals coverage, which exercises the neutral-quality path.
func (m *MockProvider) GetFundamentals(_ context.Context, symbol string) (*models.Fundamentals, error) {
	s := seed(symbol)
	if int(s*10000)%3 == 0 {
		return nil, nil
	}

	marketCap := 5e9 + 2e12*s
	gross := 25 + 60*s
	operating := 5 + 30*s
	net := 2 + 22*s
	revenue := marketCap / 8
	fcf := marketCap * (0.015 + 0.05*s)
	growth := -5 + 35*s
	pe := 12 + 60*s

	return &models.Fundamentals{
		Symbol:          symbol,
		MarketCap:       &marketCap,
		PERatio:         &pe,
		GrossMargin:     &gross,
		OperatingMargin: &operating,
		NetMargin:       &net,
		FreeCashFlow:    &fcf,
		Revenue:         &revenue,
		RevenueGrowth:   &growth,
		Sector:          mockSectors[int(s*10000)%len(mockSectors)],
	}, nil
}

// GetNextEarnings implements Provider. Roughly half the synthetic
// universe reports within the scan window.
func (m *MockProvider) GetNextEarnings(_ context.Context, symbol string) (*time.Time, error) {
	s := seed(symbol)
	if int(s*10000)%2 == 0 {
		return nil, nil
	}
	d := m.now().AddDate(0, 0, 10+int(s*60))
	return &d, nil
}

// GetExpirations implements Provider: the next ten Fridays.
func (m *MockProvider) GetExpirations(_ context.Context, _ string) ([]time.Time, error) {
	day := m.now().Truncate(24 * time.Hour)
	for day.Weekday() != time.Friday {
		day = day.AddDate(0, 0, 1)
	}
	out := make([]time.Time, 0, 10)
	for i := 0; i < 10; i++ {
		out = append(out, day.AddDate(0, 0, 7*i))
	}
	return out, nil
}

// GetPutChain implements Provider. Strikes cover 50%-105% of spot in
// 2.5% steps, priced off Black-Scholes with a put skew; a few deep OTM
// strikes get an empty book with only a last trade, exercising the
// stale-quote fallback.
func (m *MockProvider) GetPutChain(ctx context.Context, symbol string, expiration time.Time) ([]models.OptionQuote, error) {
	spot, _ := m.GetSpot(ctx, symbol)
	atmIV := baseIV(symbol)
	t := expiration.Sub(m.now()).Hours() / 24 / 365
	if t < 0 {
		t = 0
	}

	var puts []models.OptionQuote
	for pct := 0.50; pct <= 1.0501; pct += 0.025 {
		strike := math.Round(spot*pct*2) / 2 // half-dollar strikes
		if strike <= 0 {
			continue
		}
		// OTM put skew: IV rises as strikes fall.
		iv := atmIV * (1 + 0.8*math.Max(0, (spot-strike)/spot))
		price := pricing.PutPrice(spot, strike, t, pricing.DefaultRiskFreeRate, iv)

		moneyness := math.Abs(spot-strike) / spot
		volume := int64(math.Max(0, 5000*(0.3-moneyness)) * 10)
		oi := volume * 4

		q := models.OptionQuote{
			Strike:       strike,
			ImpliedVol:   iv,
			Volume:       volume,
			OpenInterest: oi,
		}
		switch {
		case price < 0.05:
			// Dead book deep OTM: no bid, stale last only.
			q.LastPrice = math.Max(0.01, math.Round(price*100)/100)
		default:
			q.Bid = math.Round(price*0.96*100) / 100
			q.Ask = math.Round(price*1.04*100) / 100
			q.LastPrice = math.Round(price*100) / 100
		}
		puts = append(puts, q)
	}
	return puts, nil
}

// Ensure MockProvider implements Provider at compile time.
var _ Provider = (*MockProvider)(nil)
