package quality

import (
	"testing"

	"github.com/eddiefleurent/wheelhouse/internal/models"
)

func fp(v float64) *float64 { return &v }

func TestScoreMissingFundamentals(t *testing.T) {
	if got := Score(nil); got != NeutralScore {
		t.Errorf("nil fundamentals score = %d, expected %d", got, NeutralScore)
	}
	if got := Score(&models.Fundamentals{Symbol: "XYZ"}); got != NeutralScore {
		t.Errorf("empty fundamentals score = %d, expected %d", got, NeutralScore)
	}
}

func TestScoreTiers(t *testing.T) {
	tests := []struct {
		name string
		fund models.Fundamentals
		want int
	}{
		{
			name: "excellent software business",
			// 50 +12 (gross) +10 (operating) +10 (fcf yield 6%) +10 (growth) +8 (pe)
			fund: models.Fundamentals{
				GrossMargin:     fp(72),
				OperatingMargin: fp(30),
				MarketCap:       fp(1e12),
				FreeCashFlow:    fp(6e10),
				RevenueGrowth:   fp(25),
				PERatio:         fp(22),
			},
			want: 100,
		},
		{
			name: "middling industrial",
			// 50 +6 (gross 45) +5 (operating 18) +5 (fcf 3%) +5 (growth 12) +2 (pe 30)
			fund: models.Fundamentals{
				GrossMargin:     fp(45),
				OperatingMargin: fp(18),
				MarketCap:       fp(1e10),
				FreeCashFlow:    fp(3e8),
				RevenueGrowth:   fp(12),
				PERatio:         fp(30),
			},
			want: 73,
		},
		{
			name: "deteriorating low-margin business",
			// 50 -8 (gross 15) -10 (operating -5) -8 (fcf -2%) -8 (growth -3) -5 (pe -10)
			fund: models.Fundamentals{
				GrossMargin:     fp(15),
				OperatingMargin: fp(-5),
				MarketCap:       fp(1e9),
				FreeCashFlow:    fp(-2e7),
				RevenueGrowth:   fp(-3),
				PERatio:         fp(-10),
			},
			want: 11,
		},
		{
			name: "only gross margin known",
			fund: models.Fundamentals{GrossMargin: fp(65)},
			want: 62,
		},
		{
			name: "speculative high multiple",
			// 50 +12 -5 (pe 150)
			fund: models.Fundamentals{GrossMargin: fp(80), PERatio: fp(150)},
			want: 57,
		},
		{
			name: "fcf without market cap contributes nothing",
			fund: models.Fundamentals{FreeCashFlow: fp(5e9)},
			want: 50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(&tt.fund); got != tt.want {
				t.Errorf("Score() = %d, expected %d", got, tt.want)
			}
		})
	}
}

func TestScoreAlwaysBounded(t *testing.T) {
	// Even pathological inputs stay inside [0,100].
	worst := models.Fundamentals{
		GrossMargin:     fp(-50),
		OperatingMargin: fp(-120),
		MarketCap:       fp(1e9),
		FreeCashFlow:    fp(-1e10),
		RevenueGrowth:   fp(-90),
		PERatio:         fp(-400),
	}
	if got := Score(&worst); got < 0 || got > 100 {
		t.Errorf("worst-case score %d outside [0,100]", got)
	}
	if got := Score(&worst); got != 11 {
		// 50 -8 -10 -8 -8 -5
		t.Errorf("worst-case score = %d, expected 11", got)
	}
}
