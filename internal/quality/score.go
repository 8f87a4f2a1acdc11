// Package quality maps a fundamentals snapshot to a bounded 0-100
// company quality score used as one term of the composite candidate
// scores.
package quality

import "github.com/eddiefleurent/wheelhouse/internal/models"

// NeutralScore is the starting point, and the final score for tickers
// with no fundamentals at all.
const NeutralScore = 50

// Score computes the quality score. Each available metric adjusts the
// neutral baseline independently through tiered rules; missing metrics
// contribute nothing. The result is clipped to [0,100].
func Score(f *models.Fundamentals) int {
	if f == nil {
		return NeutralScore
	}

	score := NeutralScore

	if gm := f.GrossMargin; gm != nil {
		switch {
		case *gm >= 60:
			score += 12
		case *gm >= 40:
			score += 6
		case *gm < 20:
			score -= 8
		}
	}

	if om := f.OperatingMargin; om != nil {
		switch {
		case *om >= 25:
			score += 10
		case *om >= 15:
			score += 5
		case *om < 0:
			score -= 10
		}
	}

	if fy, ok := f.FCFYield(); ok {
		switch {
		case fy >= 5:
			score += 10
		case fy >= 2:
			score += 5
		case fy < 0:
			score -= 8
		}
	}

	if rg := f.RevenueGrowth; rg != nil {
		switch {
		case *rg >= 20:
			score += 10
		case *rg >= 10:
			score += 5
		case *rg < 0:
			score -= 8
		}
	}

	if pe := f.PERatio; pe != nil {
		switch {
		case *pe > 0 && *pe <= 25:
			score += 8
		case *pe > 25 && *pe <= 50:
			score += 2
		case *pe > 100 || *pe < 0:
			score -= 5
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
