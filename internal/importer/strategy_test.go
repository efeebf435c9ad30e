package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkarlsen/tradescribe/internal/models"
)

func TestClassifyStrategy(t *testing.T) {
	cases := []struct {
		name string
		legs string
		want models.StrategyType
	}{
		{"shares", "", models.StrategyShares},
		{"cash secured put", "STO -1 AAPL 03/20/2026 180 P", models.StrategyCashSecuredPut},
		{"covered call", "STO -1 AAPL 03/20/2026 200 C", models.StrategyCoveredCall},
		{"long call", "BTO 1 NVDA 04/17/2026 900 C", models.StrategyLongCall},
		{"long put", "BTO 1 SPY 04/17/2026 480 P", models.StrategyLongPut},
		{"put vertical", "STO -1 AAPL 03/20/2026 180 P; BTO 1 AAPL 03/20/2026 170 P", models.StrategyVertical},
		{"call calendar", "STO -1 AAPL 03/20/2026 200 C; BTO 1 AAPL 04/17/2026 200 C", models.StrategyCalendar},
		{"strangle", "STO -1 TSLA 03/20/2026 200 P; STO -1 TSLA 03/20/2026 260 C", models.StrategyStrangle},
		{"straddle", "STO -1 TSLA 03/20/2026 230 P; STO -1 TSLA 03/20/2026 230 C", models.StrategyStraddle},
		{"iron condor", "STO -1 SPY 03/20/2026 470 P; BTO 1 SPY 03/20/2026 460 P; STO -1 SPY 03/20/2026 500 C; BTO 1 SPY 03/20/2026 510 C", models.StrategyIronCondor},
		{"pipe separator", "STO -1 AAPL 03/20/2026 180 P|BTO 1 AAPL 03/20/2026 170 P", models.StrategyVertical},
		{"garbage", "three shares of something", models.StrategyUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, label := ClassifyStrategy(tc.legs)
			assert.Equal(t, tc.want, got)
			assert.NotEmpty(t, label)
		})
	}
}
