package bot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"marketlens/models"
)

func TestMarketTypeFor(t *testing.T) {
	tests := []struct {
		symbol   string
		expected models.MarketType
	}{
		{symbol: "BTCUSDT", expected: models.MarketCrypto},
		{symbol: "ETHBTC", expected: models.MarketCrypto},
		{symbol: "SOLUSDC", expected: models.MarketCrypto},
		{symbol: "EUR/USD", expected: models.MarketForex},
		{symbol: "GBP/JPY", expected: models.MarketForex},
		{symbol: "AAPL", expected: models.MarketStock},
		{symbol: "TSLA", expected: models.MarketStock},
		// A bare quote asset is not a pair.
		{symbol: "USDT", expected: models.MarketStock},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			require.Equal(t, tt.expected, MarketTypeFor(tt.symbol))
		})
	}
}

func TestFormatSupportResistance_ErrorResult(t *testing.T) {
	out := FormatSupportResistance(&models.SupportResistanceResult{
		Symbol: "NOPE",
		Error:  "insufficient data for symbol NOPE; ensure sufficient trading history",
	})
	require.Contains(t, out, "NOPE")
	require.Contains(t, out, "insufficient data")
}

func TestFormatDivergence_ConfirmedAndEmpty(t *testing.T) {
	confirmed := &models.DivergenceScanResult{
		Symbol:        "BTCUSDT",
		Timeframe:     "1h",
		CurrentPrice:  65000,
		CurrentRSI:    41.2,
		HasDivergence: true,
		Divergence: &models.Divergence{
			Type:          "Regular Bullish Divergence",
			PricePoints:   [2]models.DivergencePoint{{Index: 20, Value: 100}, {Index: 40, Value: 95}},
			RSIPoints:     [2]models.DivergencePoint{{Index: 20, Value: 28}, {Index: 40, Value: 35}},
			PriceDeltaPct: -5,
			RSIDelta:      7,
			BarsApart:     20,
		},
		Confidence:       "Medium",
		ConfidenceReason: "price delta 6.25x min, RSI delta 1.17x min",
		Reason:           "regular bullish divergence confirmed: lower price low against a higher RSI low",
	}
	out := FormatDivergence(confirmed)
	require.Contains(t, out, "Regular Bullish Divergence")
	require.Contains(t, out, "Medium")

	empty := &models.DivergenceScanResult{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		Reason:    "no divergence: bullish: no price pivots detected; bearish: no price pivots detected",
	}
	out = FormatDivergence(empty)
	require.Contains(t, out, "No divergence found")
	require.Contains(t, out, "no price pivots")
}

func TestFormatRSI_ListsReadingsAndFailures(t *testing.T) {
	result := &models.RSIMultiTimeframeResult{
		Symbol:       "ETHUSDT",
		CurrentPrice: 3200,
		Readings: []models.TimeframeRSI{
			{Timeframe: "1h", RSI: 28.4, Status: "Oversold", Weight: 0.2},
			{Timeframe: "1d", RSI: 55.0, Status: "Neutral", Weight: 0.4},
		},
		OverallRSI:       46.1,
		OverallStatus:    "Neutral",
		Explanation:      "RSI readings span 26.6 points across timeframes — short and long horizons disagree on momentum.",
		FailedTimeframes: []string{"5m", "4h"},
	}
	out := FormatRSI(result)
	require.Contains(t, out, "28.4")
	require.Contains(t, out, "Weighted RSI: 46.1")
	require.Contains(t, out, "5m, 4h")
}
