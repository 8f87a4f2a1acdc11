// Package volatility estimates an IV-rank proxy from realized
// volatility: where today's 30-day annualized vol sits in its trailing
// range. Quoted IV history is rarely available from retail data feeds,
// so realized vol stands in for it.
package volatility

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// rollingWindow is the sample count for each realized-vol reading.
	rollingWindow = 30
	// minReturns is the minimum number of daily log returns required.
	minReturns = 30
	// minRollingSamples is the minimum number of rolling readings
	// required for the min/max range to be meaningful.
	minRollingSamples = 10
	// tradingDaysPerYear annualizes daily volatility.
	tradingDaysPerYear = 252
)

// ErrInsufficientHistory is returned when the close-price history is too
// short to produce a rank. Callers treat the rank as unknown, never as a
// fabricated value.
var ErrInsufficientHistory = errors.New("insufficient price history for volatility rank")

// LogReturns converts daily closes to daily log returns. Non-positive
// closes are skipped since their log is undefined.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i] <= 0 || closes[i-1] <= 0 {
			continue
		}
		out = append(out, math.Log(closes[i]/closes[i-1]))
	}
	return out
}

// RollingAnnualizedVol computes a rolling standard deviation of the
// returns over the given window, annualized by sqrt(252). Result length
// is len(returns)-window+1.
func RollingAnnualizedVol(returns []float64, window int) []float64 {
	if window <= 1 || len(returns) < window {
		return nil
	}
	out := make([]float64, 0, len(returns)-window+1)
	for i := window; i <= len(returns); i++ {
		sd := stat.StdDev(returns[i-window:i], nil)
		out = append(out, sd*math.Sqrt(tradingDaysPerYear))
	}
	return out
}

// Rank estimates the IV-rank proxy from one year of daily closes.
//
// The current 30-day realized vol is ranked against the trailing min/max
// of the same series and scaled to [0,100]. A flat vol range yields the
// neutral 50 rather than dividing by zero.
func Rank(closes []float64) (float64, error) {
	returns := LogReturns(closes)
	if len(returns) < minReturns {
		return 0, ErrInsufficientHistory
	}

	rolling := RollingAnnualizedVol(returns, rollingWindow)
	if len(rolling) < minRollingSamples {
		return 0, ErrInsufficientHistory
	}

	current := rolling[len(rolling)-1]
	lo, hi := rolling[0], rolling[0]
	for _, v := range rolling[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	if hi == lo {
		return 50, nil
	}
	rank := (current - lo) / (hi - lo) * 100
	return math.Max(0, math.Min(100, rank)), nil
}
