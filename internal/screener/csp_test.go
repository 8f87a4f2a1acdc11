package screener

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/eddiefleurent/wheelhouse/internal/models"
)

var cspToday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

// cspFixture builds one expiration with strikes straddling the delta
// band: at spot 100, 35 DTE, 40% vol the 90 and 95 puts land inside
// [0.15, 0.35] absolute delta while 85 and 98 fall outside.
func cspFixture() (*models.Underlying, *models.ChainSnapshot) {
	u := &models.Underlying{Symbol: "TEST", Spot: 100}
	chain := &models.ChainSnapshot{
		Expiration: cspToday.AddDate(0, 0, 35),
		DTE:        35,
		Puts: []models.OptionQuote{
			{Strike: 85, Bid: 0.50, Ask: 0.56, ImpliedVol: 0.40, Volume: 500, OpenInterest: 1500},
			{Strike: 90, Bid: 1.00, Ask: 1.10, ImpliedVol: 0.40, Volume: 900, OpenInterest: 3000},
			{Strike: 95, Bid: 2.50, Ask: 2.70, ImpliedVol: 0.40, Volume: 1200, OpenInterest: 4200},
			{Strike: 98, Bid: 3.80, Ask: 4.00, ImpliedVol: 0.40, Volume: 300, OpenInterest: 800},
			{Strike: 105, Bid: 7.80, Ask: 8.10, ImpliedVol: 0.40},
		},
	}
	return u, chain
}

func cspFilters() *Filters {
	return &Filters{
		MinDelta:     0.15,
		MaxDelta:     0.35,
		MinDTE:       20,
		MaxDTE:       50,
		MinReturn:    0.5,
		RiskFreeRate: 0.045,
	}
}

func TestEnumerateCSP(t *testing.T) {
	u, chain := cspFixture()
	out := EnumerateCSP(u, chain, cspFilters(), cspToday)

	if len(out) != 2 {
		t.Fatalf("EnumerateCSP() returned %d candidates, want 2 (strikes 90 and 95)", len(out))
	}

	// Descending strike order: 95 first.
	c := out[0].(*models.CSPCandidate)
	if c.Strike != 95 {
		t.Fatalf("first candidate strike = %v, want 95", c.Strike)
	}
	if math.Abs(c.Mid-2.60) > 1e-9 {
		t.Errorf("Mid = %v, want 2.60", c.Mid)
	}
	if math.Abs(c.Premium-260) > 1e-6 {
		t.Errorf("Premium = %v, want 260", c.Premium)
	}
	if c.Capital != 9500 {
		t.Errorf("Capital = %v, want 9500", c.Capital)
	}
	wantMonthly := 2.60 / 95 * (30.0 / 35.0) * 100
	if math.Abs(c.MonthlyRet-wantMonthly) > 1e-9 {
		t.Errorf("MonthlyRet = %v, want %v", c.MonthlyRet, wantMonthly)
	}
	if math.Abs(c.OTMPct-5) > 1e-9 {
		t.Errorf("OTMPct = %v, want 5", c.OTMPct)
	}
	if c.Greeks.Delta >= 0 || math.Abs(c.Greeks.Delta) < 0.15 || math.Abs(c.Greeks.Delta) > 0.35 {
		t.Errorf("Delta = %v, want negative with magnitude in [0.15,0.35]", c.Greeks.Delta)
	}
	if math.Abs(c.Limit-2.60) > 1e-9 {
		t.Errorf("Limit = %v, want mid rounded to tick 2.60", c.Limit)
	}

	if got := out[1].(*models.CSPCandidate).Strike; got != 90 {
		t.Errorf("second candidate strike = %v, want 90", got)
	}
}

func TestEnumerateCSPIdempotent(t *testing.T) {
	u, chain := cspFixture()
	flt := cspFilters()

	first := EnumerateCSP(u, chain, flt, cspToday)
	second := EnumerateCSP(u, chain, flt, cspToday)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different candidate lists")
	}
}

func TestEnumerateCSPRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *models.Underlying, chain *models.ChainSnapshot, flt *Filters)
		want   int
	}{
		{
			name:   "dte outside window",
			mutate: func(u *models.Underlying, c *models.ChainSnapshot, f *Filters) { c.DTE = 10 },
			want:   0,
		},
		{
			name: "zero bid strikes skipped",
			mutate: func(u *models.Underlying, c *models.ChainSnapshot, f *Filters) {
				for i := range c.Puts {
					c.Puts[i].Bid = 0
				}
			},
			want: 0,
		},
		{
			name: "wide spread rejected",
			mutate: func(u *models.Underlying, c *models.ChainSnapshot, f *Filters) {
				// 90 strike: mid 1.20, ratio 0.33 > 0.15.
				c.Puts[1].Bid = 1.00
				c.Puts[1].Ask = 1.40
			},
			want: 1,
		},
		{
			name: "min return drops the far strike",
			mutate: func(u *models.Underlying, c *models.ChainSnapshot, f *Filters) {
				// 90 pays ~1.0% monthly, 95 ~2.35%.
				f.MinReturn = 2.0
			},
			want: 1,
		},
		{
			name: "tighter delta band",
			mutate: func(u *models.Underlying, c *models.ChainSnapshot, f *Filters) {
				f.MinDelta = 0.25
				f.MaxDelta = 0.35
			},
			want: 1, // only the 95
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, chain := cspFixture()
			flt := cspFilters()
			tt.mutate(u, chain, flt)
			out := EnumerateCSP(u, chain, flt, cspToday)
			if len(out) != tt.want {
				t.Errorf("got %d candidates, want %d", len(out), tt.want)
			}
		})
	}
}

func TestEnumerateCSPFallbackSigma(t *testing.T) {
	u, chain := cspFixture()
	for i := range chain.Puts {
		chain.Puts[i].ImpliedVol = 0
	}
	// With the 30% fallback vol the deltas shift but enumeration still
	// works; nothing should panic or emit zero greeks.
	out := EnumerateCSP(u, chain, cspFilters(), cspToday)
	for _, cand := range out {
		c := cand.(*models.CSPCandidate)
		if c.Greeks.Delta == 0 {
			t.Errorf("strike %v: zero delta despite fallback sigma", c.Strike)
		}
		if c.IV != 0 {
			t.Errorf("strike %v: reported IV = %v, want 0 for unknown", c.Strike, c.IV)
		}
	}
}

func TestEnumerateCSPEarningsFlag(t *testing.T) {
	u, chain := cspFixture()
	ed := cspToday.AddDate(0, 0, 14)
	u.NextEarnings = &ed

	out := EnumerateCSP(u, chain, cspFilters(), cspToday)
	if len(out) == 0 {
		t.Fatal("expected candidates")
	}
	for _, cand := range out {
		if !cand.(*models.CSPCandidate).EarningsRisk {
			t.Error("earnings inside the holding window should flag, not filter")
		}
	}
}

func TestEnumerateCSPQualityContribution(t *testing.T) {
	u, chain := cspFixture()
	flt := cspFilters()

	u.Quality = 0
	low := EnumerateCSP(u, chain, flt, cspToday)
	u.Quality = 100
	high := EnumerateCSP(u, chain, flt, cspToday)

	if len(low) == 0 || len(low) != len(high) {
		t.Fatalf("candidate counts differ: %d vs %d", len(low), len(high))
	}
	for i := range low {
		l, h := low[i].CompositeScore(), high[i].CompositeScore()
		// Quality contributes (quality/10)*0.8 points: 8 at 100, 0 at 0.
		if math.Abs((h-l)-8) > 1e-9 {
			t.Errorf("quality swing = %v, want 8", h-l)
		}
	}
}
