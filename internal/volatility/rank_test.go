package volatility

import (
	"errors"
	"math"
	"testing"
)

// closesFromReturns builds a price series realizing the given daily log
// returns, starting at 100.
func closesFromReturns(returns []float64) []float64 {
	closes := make([]float64, 0, len(returns)+1)
	price := 100.0
	closes = append(closes, price)
	for _, r := range returns {
		price *= math.Exp(r)
		closes = append(closes, price)
	}
	return closes
}

// alternating returns a log-return series flipping between +mag and -mag.
func alternating(n int, mag float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = mag
		} else {
			out[i] = -mag
		}
	}
	return out
}

func TestRankInsufficientHistory(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
	}{
		{"empty", nil},
		{"single close", []float64{100}},
		{"too few returns", closesFromReturns(alternating(20, 0.01))},
		{"too few rolling samples", closesFromReturns(alternating(35, 0.01))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Rank(tt.closes)
			if !errors.Is(err, ErrInsufficientHistory) {
				t.Errorf("expected ErrInsufficientHistory, got %v", err)
			}
		})
	}
}

func TestRankFlatVolIsNeutral(t *testing.T) {
	// A constant price has zero vol in every window; min==max must map
	// to the neutral 50, not a division by zero.
	closes := make([]float64, 260)
	for i := range closes {
		closes[i] = 150
	}
	rank, err := Rank(closes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rank != 50 {
		t.Errorf("flat series rank = %v, expected exactly 50", rank)
	}

	// Same for perfectly uniform nonzero returns.
	uniform := make([]float64, 100)
	for i := range uniform {
		uniform[i] = 0.002
	}
	rank, err = Rank(closesFromReturns(uniform))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rank != 50 {
		t.Errorf("uniform-return rank = %v, expected exactly 50", rank)
	}
}

func TestRankExtremes(t *testing.T) {
	// Calm start, violent finish: the latest window is the max -> 100.
	hot := append(alternating(60, 0.002), alternating(60, 0.06)...)
	rank, err := Rank(closesFromReturns(hot))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rank != 100 {
		t.Errorf("rising-vol rank = %v, expected 100", rank)
	}

	// Violent start, calm finish: the latest window is the min -> 0.
	cold := append(alternating(60, 0.06), alternating(60, 0.002)...)
	rank, err = Rank(closesFromReturns(cold))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rank != 0 {
		t.Errorf("falling-vol rank = %v, expected 0", rank)
	}
}

func TestRankStaysInBounds(t *testing.T) {
	// Pseudo-random walk; rank must land in [0,100] for any history.
	seed := 42.0
	next := func() float64 {
		seed = math.Mod(seed*16807, 2147483647)
		return seed/2147483647 - 0.5
	}
	for trial := 0; trial < 25; trial++ {
		returns := make([]float64, 250)
		for i := range returns {
			returns[i] = next() * 0.08
		}
		rank, err := Rank(closesFromReturns(returns))
		if err != nil {
			t.Fatalf("trial %d: unexpected error: %v", trial, err)
		}
		if rank < 0 || rank > 100 {
			t.Fatalf("trial %d: rank %v outside [0,100]", trial, rank)
		}
	}
}

func TestRollingAnnualizedVol(t *testing.T) {
	// 40 returns with a 30 window produce 11 readings, each stddev*sqrt(252).
	returns := alternating(40, 0.01)
	rolling := RollingAnnualizedVol(returns, 30)
	if len(rolling) != 11 {
		t.Fatalf("expected 11 rolling samples, got %d", len(rolling))
	}
	for i, v := range rolling {
		if v <= 0 {
			t.Errorf("rolling[%d] = %v, expected positive", i, v)
		}
	}
}

func TestLogReturnsSkipsNonPositiveCloses(t *testing.T) {
	returns := LogReturns([]float64{100, 0, 110, 121})
	if len(returns) != 1 {
		t.Fatalf("expected 1 usable return, got %d", len(returns))
	}
	if math.Abs(returns[0]-math.Log(1.1)) > 1e-12 {
		t.Errorf("return = %v, expected ln(1.1)", returns[0])
	}
}
