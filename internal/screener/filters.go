// Package screener contains the strategy enumerators, the filter
// pipeline, scan orchestration, and result aggregation.
package screener

import (
	"fmt"
	"strings"

	"github.com/eddiefleurent/wheelhouse/internal/models"
)

// Filters is the full filter configuration consumed by the pipeline:
// ticker-level pre-filters on fundamentals, per-candidate bounds applied
// during enumeration, and the post-enumeration IV-rank gate.
type Filters struct {
	// Per-candidate bounds.
	MinDelta  float64
	MaxDelta  float64
	MinDTE    int
	MaxDTE    int
	MinReturn float64 // minimum monthly-normalized return, percent

	// Post-filter: candidates from tickers with unknown or lower IV
	// rank are dropped when > 0.
	MinIVRank float64

	// Optional fundamental pre-filters. A threshold only rejects when
	// the metric is actually present.
	MinGrossMargin   *float64
	MinFCFYield      *float64
	MinRevenueGrowth *float64
	Sector           string // substring match, case-insensitive

	// RiskFreeRate feeds the pricing engine.
	RiskFreeRate float64
}

// DTEInRange reports whether an expiration's days-to-expiry passes the
// configured window.
func (f *Filters) DTEInRange(dte int) bool {
	return dte >= f.MinDTE && dte <= f.MaxDTE
}

// deltaInRange checks the absolute short-leg delta bounds.
func (f *Filters) deltaInRange(absDelta float64) bool {
	return absDelta >= f.MinDelta && absDelta <= f.MaxDelta
}

// PassTicker applies the fundamental pre-filters. It is cheap and runs
// once per ticker, before any chain is fetched. The returned reason is
// for logging only.
func (f *Filters) PassTicker(fund *models.Fundamentals) (bool, string) {
	if fund == nil {
		// Nothing to judge; the ticker scans with neutral quality.
		return true, ""
	}
	if f.MinGrossMargin != nil && fund.GrossMargin != nil && *fund.GrossMargin < *f.MinGrossMargin {
		return false, fmt.Sprintf("gross margin %.1f%% below %.1f%%", *fund.GrossMargin, *f.MinGrossMargin)
	}
	if f.MinFCFYield != nil {
		if fy, ok := fund.FCFYield(); ok && fy < *f.MinFCFYield {
			return false, fmt.Sprintf("FCF yield %.2f%% below %.2f%%", fy, *f.MinFCFYield)
		}
	}
	if f.MinRevenueGrowth != nil && fund.RevenueGrowth != nil && *fund.RevenueGrowth < *f.MinRevenueGrowth {
		return false, fmt.Sprintf("revenue growth %.1f%% below %.1f%%", *fund.RevenueGrowth, *f.MinRevenueGrowth)
	}
	if f.Sector != "" && !strings.Contains(strings.ToLower(fund.Sector), strings.ToLower(f.Sector)) {
		return false, fmt.Sprintf("sector %q does not match %q", fund.Sector, f.Sector)
	}
	return true, ""
}

// PassIVRank applies the post-enumeration IV-rank gate for a ticker.
// When the filter is active, an unknown rank fails it: the filter asks
// for elevated volatility and "unknown" cannot satisfy that.
func (f *Filters) PassIVRank(ivRank *float64) bool {
	if f.MinIVRank <= 0 {
		return true
	}
	return ivRank != nil && *ivRank >= f.MinIVRank
}
