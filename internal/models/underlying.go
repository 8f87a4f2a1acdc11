// Package models defines the data types shared across the screener:
// fundamentals, option quotes, chain snapshots, greeks, and the three
// strategy candidate variants. Everything here is scan-scoped and
// immutable once constructed.
package models

import "time"

// Fundamentals is a snapshot of company metrics used for quality scoring
// and pre-filtering. Optional metrics are pointers; nil means the data
// provider had no value, which is distinct from zero.
type Fundamentals struct {
	Symbol          string   `json:"symbol"`
	MarketCap       *float64 `json:"market_cap,omitempty"`
	PERatio         *float64 `json:"pe_ratio,omitempty"`         // trailing, forward as fallback at the boundary
	GrossMargin     *float64 `json:"gross_margin,omitempty"`     // percent
	OperatingMargin *float64 `json:"operating_margin,omitempty"` // percent
	NetMargin       *float64 `json:"net_margin,omitempty"`       // percent
	FreeCashFlow    *float64 `json:"free_cash_flow,omitempty"`
	Revenue         *float64 `json:"revenue,omitempty"`
	RevenueGrowth   *float64 `json:"revenue_growth,omitempty"` // percent YoY
	Sector          string   `json:"sector,omitempty"`
}

// FCFYield returns free-cash-flow yield as a percentage of market cap.
// The second return is false when either input is missing or market cap
// is non-positive.
func (f *Fundamentals) FCFYield() (float64, bool) {
	if f == nil || f.FreeCashFlow == nil || f.MarketCap == nil || *f.MarketCap <= 0 {
		return 0, false
	}
	return *f.FreeCashFlow / *f.MarketCap * 100, true
}

// Underlying bundles everything known about one ticker at scan time.
// Constructed once per ticker per run and read-only afterwards.
type Underlying struct {
	Symbol       string        `json:"symbol"`
	Spot         float64       `json:"spot"`
	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
	Quality      int           `json:"quality"` // 0-100
	IVRank       *float64      `json:"iv_rank,omitempty"`
	NextEarnings *time.Time    `json:"next_earnings,omitempty"`
}

// IVRankFraction returns IV rank scaled to [0,1], or a neutral 0.5 prior
// when the rank could not be estimated.
func (u *Underlying) IVRankFraction() float64 {
	if u.IVRank == nil {
		return 0.5
	}
	return *u.IVRank / 100
}

// EarningsBefore reports whether the next earnings date falls inside
// [today, expiration]. Used as an advisory flag only, never as a filter.
func (u *Underlying) EarningsBefore(today, expiration time.Time) bool {
	if u.NextEarnings == nil {
		return false
	}
	ed := u.NextEarnings.Truncate(24 * time.Hour)
	t := today.Truncate(24 * time.Hour)
	e := expiration.Truncate(24 * time.Hour)
	return !ed.Before(t) && !ed.After(e)
}
