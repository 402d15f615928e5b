package patterns

import (
	"testing"

	"github.com/stretchr/testify/require"

	"marketlens/models"
)

// rampWithDips builds a strictly rising series with V-shaped dips carved at
// the given indexes, so the dip centers are the only pivot lows.
func rampWithDips(n int, base, slope float64, dips map[int]float64, vStep float64) []float64 {
	series := make([]float64, n)
	for i := range series {
		series[i] = base + slope*float64(i)
	}
	for center, value := range dips {
		series[center] = value
		for k := 1; k <= 5; k++ {
			if center-k >= 0 {
				series[center-k] = value + vStep*float64(k)
			}
			if center+k < n {
				series[center+k] = value + vStep*float64(k)
			}
		}
	}
	return series
}

// rampWithPeaks mirrors rampWithDips on a falling base series with inverted-V
// peaks, so the peak centers are the only pivot highs.
func rampWithPeaks(n int, base, slope float64, peaks map[int]float64, vStep float64) []float64 {
	series := make([]float64, n)
	for i := range series {
		series[i] = base - slope*float64(i)
	}
	for center, value := range peaks {
		series[center] = value
		for k := 1; k <= 5; k++ {
			if center-k >= 0 {
				series[center-k] = value - vStep*float64(k)
			}
			if center+k < n {
				series[center+k] = value - vStep*float64(k)
			}
		}
	}
	return series
}

func bullishFixture() (highs, lows, closes, rsi []float64) {
	// Price pivot-lows of 100 at bar 20 and 95 at bar 40 (delta ~ -5%), RSI
	// pivot-lows of 28 at bar 20 and 35 at bar 40 (delta +7).
	lows = rampWithDips(60, 110, 0.05, map[int]float64{20: 100, 40: 95}, 3)
	rsi = rampWithDips(60, 50, 0.1, map[int]float64{20: 28, 40: 35}, 4)
	highs = make([]float64, len(lows))
	closes = make([]float64, len(lows))
	for i := range lows {
		highs[i] = lows[i] + 2
		closes[i] = lows[i] + 1
	}
	return highs, lows, closes, rsi
}

func TestScanSeries_RegularBullishConfirmed(t *testing.T) {
	highs, lows, closes, rsi := bullishFixture()
	cfg := DefaultConfig(models.MarketCrypto)

	result, err := ScanSeries(highs, lows, closes, rsi, cfg)
	require.NoError(t, err)

	require.True(t, result.HasDivergence)
	require.NotNil(t, result.Divergence)
	require.Nil(t, result.BestCandidate)
	require.Equal(t, "Regular Bullish Divergence", result.Divergence.Type)

	require.Equal(t, 20, result.Divergence.PricePoints[0].Index)
	require.Equal(t, 40, result.Divergence.PricePoints[1].Index)
	require.InDelta(t, -5.0, result.Divergence.PriceDeltaPct, 1e-9)
	require.InDelta(t, 7.0, result.Divergence.RSIDelta, 1e-9)
	require.Equal(t, 20, result.Divergence.BarsApart)

	// Price delta is 6.25x its 0.8% minimum but RSI delta is only ~1.17x its
	// 6.0 minimum, so confidence must be Medium, not High.
	require.Equal(t, "Medium", result.Confidence)
	require.False(t, result.HiddenSupported)
}

func TestScanSeries_RegularBearishConfirmed(t *testing.T) {
	// Higher price high (100 -> 105, +5%) with a lower RSI high (72 -> 62).
	highs := rampWithPeaks(60, 90, 0.05, map[int]float64{20: 100, 40: 105}, 3)
	rsi := rampWithPeaks(60, 50, 0.1, map[int]float64{20: 72, 40: 62}, 4)
	lows := make([]float64, len(highs))
	closes := make([]float64, len(highs))
	for i := range highs {
		lows[i] = highs[i] - 2
		closes[i] = highs[i] - 1
	}

	result, err := ScanSeries(highs, lows, closes, rsi, DefaultConfig(models.MarketCrypto))
	require.NoError(t, err)
	require.True(t, result.HasDivergence)
	require.Equal(t, "Regular Bearish Divergence", result.Divergence.Type)
	require.InDelta(t, 5.0, result.Divergence.PriceDeltaPct, 1e-9)
	require.InDelta(t, -10.0, result.Divergence.RSIDelta, 1e-9)
	// Both deltas exceed 1.5x their minimums.
	require.Equal(t, "High", result.Confidence)
}

func TestScanSeries_BestCandidateBelowRSIThreshold(t *testing.T) {
	// Same price shape but the RSI lows only rise by 4 points: a candidate
	// exists but must not be presented as a confirmed divergence.
	highs, lows, closes, _ := bullishFixture()
	rsi := rampWithDips(60, 50, 0.1, map[int]float64{20: 28, 40: 32}, 4)

	result, err := ScanSeries(highs, lows, closes, rsi, DefaultConfig(models.MarketCrypto))
	require.NoError(t, err)

	require.False(t, result.HasDivergence)
	require.Nil(t, result.Divergence)
	require.NotNil(t, result.BestCandidate)
	require.InDelta(t, 4.0, result.BestCandidate.RSIDelta, 1e-9)
	require.Contains(t, result.Reason, "RSI delta below threshold")
	require.Equal(t, "Low", result.Confidence)
}

func TestScanSeries_StalePivotRejected(t *testing.T) {
	// Pivots early in a 200-bar window: the most recent one is 160 bars old,
	// past the 80-bar recency limit.
	lows := rampWithDips(200, 110, 0.05, map[int]float64{20: 100, 40: 95}, 3)
	rsi := rampWithDips(200, 40, 0.05, map[int]float64{20: 28, 40: 35}, 4)
	highs := make([]float64, len(lows))
	closes := make([]float64, len(lows))
	for i := range lows {
		highs[i] = lows[i] + 2
		closes[i] = lows[i] + 1
	}

	result, err := ScanSeries(highs, lows, closes, rsi, DefaultConfig(models.MarketCrypto))
	require.NoError(t, err)
	require.False(t, result.HasDivergence)
	require.Nil(t, result.BestCandidate)
	require.Contains(t, result.Reason, "too old")
}

func TestScanSeries_NoPivots(t *testing.T) {
	n := 60
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	rsi := make([]float64, n)
	for i := 0; i < n; i++ {
		// Strictly monotonic: no local extrema anywhere.
		lows[i] = 100 + float64(i)
		highs[i] = 102 + float64(i)
		closes[i] = 101 + float64(i)
		rsi[i] = 30 + 0.5*float64(i)
	}

	result, err := ScanSeries(highs, lows, closes, rsi, DefaultConfig(models.MarketCrypto))
	require.NoError(t, err)
	require.False(t, result.HasDivergence)
	require.Contains(t, result.Reason, "no price pivots")
	require.Equal(t, 0, result.PivotMetadata.PriceLows)
	require.Equal(t, 0, result.PivotMetadata.PriceHighs)
}

func TestScanSeries_ForexThreshold(t *testing.T) {
	// A -0.5% lower low confirms on forex (0.25% minimum) but not on crypto
	// (0.8% minimum).
	lows := rampWithDips(60, 1.10, 0.0002, map[int]float64{20: 1.0000, 40: 0.9950}, 0.003)
	rsi := rampWithDips(60, 50, 0.1, map[int]float64{20: 28, 40: 35}, 4)
	highs := make([]float64, len(lows))
	closes := make([]float64, len(lows))
	for i := range lows {
		highs[i] = lows[i] + 0.002
		closes[i] = lows[i] + 0.001
	}

	forex, err := ScanSeries(highs, lows, closes, rsi, DefaultConfig(models.MarketForex))
	require.NoError(t, err)
	require.True(t, forex.HasDivergence)

	crypto, err := ScanSeries(highs, lows, closes, rsi, DefaultConfig(models.MarketCrypto))
	require.NoError(t, err)
	require.False(t, crypto.HasDivergence)
	require.NotNil(t, crypto.BestCandidate)
	require.Contains(t, crypto.Reason, "price delta below threshold")
}

func TestScan_InsufficientCandles(t *testing.T) {
	candles := make([]models.Candle, 49)
	for i := range candles {
		candles[i] = models.Candle{Open: 100, High: 101, Low: 99, Close: 100}
	}

	_, err := Scan(candles, DefaultConfig(models.MarketCrypto))
	require.ErrorIs(t, err, ErrInsufficientCandles)
}

func TestScanSeries_MismatchedLengths(t *testing.T) {
	closes := make([]float64, 60)
	_, err := ScanSeries(make([]float64, 59), make([]float64, 60), closes, nil, DefaultConfig(models.MarketCrypto))
	require.Error(t, err)
}

func TestScan_EndToEnd(t *testing.T) {
	// Scan computes RSI internally; just verify the plumbing produces a
	// structured result with metadata and a reason on organic data.
	candles := make([]models.Candle, 120)
	for i := range candles {
		base := 100 + 10*float64(i%20)/20 + 0.02*float64(i)
		candles[i] = models.Candle{Open: base, High: base + 0.5, Low: base - 0.5, Close: base}
	}

	result, err := Scan(candles, DefaultConfig(models.MarketCrypto))
	require.NoError(t, err)
	require.NotEmpty(t, result.Reason)
	require.NotZero(t, result.CurrentPrice)
	require.Equal(t, 0.8, result.Thresholds.MinPriceDeltaPct)
	require.Equal(t, 6.0, result.Thresholds.MinRSIDelta)
}
