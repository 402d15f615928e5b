package technical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"marketlens/models"
)

func obs(price float64, timeframe string) models.LevelObservation {
	levelType := models.LevelSupport
	return models.LevelObservation{Price: price, Type: levelType, Timeframe: timeframe}
}

func TestClusterLevels_MergesWithinTolerance(t *testing.T) {
	observations := []models.LevelObservation{
		obs(100.0, "1h"),
		obs(100.2, "4h"),
	}

	levels := ClusterLevels(observations, 110, DefaultClusterTolerancePct)
	require.Len(t, levels, 1)

	level := levels[0]
	require.Equal(t, 2, level.Confluence)
	require.True(t, level.Confluent)
	require.ElementsMatch(t, []string{"1h", "4h"}, level.Timeframes)

	// Merged price converges toward the centroid, not either original value.
	mean := (100.0 + 100.2) / 2
	require.InDelta(t, mean, level.Price, 1e-9)
	require.Less(t, math.Abs(level.Price-mean), math.Abs(level.Price-100.0))
	require.Less(t, math.Abs(level.Price-mean), math.Abs(level.Price-100.2))
}

func TestClusterLevels_SeparatesOutsideTolerance(t *testing.T) {
	observations := []models.LevelObservation{
		obs(100.0, "1h"),
		obs(101.0, "4h"),
	}

	levels := ClusterLevels(observations, 110, DefaultClusterTolerancePct)
	require.Len(t, levels, 2)
	for _, level := range levels {
		require.Equal(t, 1, level.Confluence)
		require.False(t, level.Confluent)
	}
}

func TestClusterLevels_TimeframesNeverDuplicated(t *testing.T) {
	observations := []models.LevelObservation{
		obs(100.0, "1h"),
		obs(100.1, "1h"),
		obs(100.2, "1h"),
		obs(100.05, "4h"),
	}

	levels := ClusterLevels(observations, 110, DefaultClusterTolerancePct)
	require.Len(t, levels, 1)
	require.ElementsMatch(t, []string{"1h", "4h"}, levels[0].Timeframes)
	require.Equal(t, 2, levels[0].Confluence)
}

func TestClusterLevels_SortsByConfluenceThenDistance(t *testing.T) {
	observations := []models.LevelObservation{
		obs(90.0, "1d"),  // lone level, far
		obs(99.0, "1h"),  // lone level, near
		obs(120.0, "1h"), // confluent level
		obs(120.1, "4h"),
	}

	levels := ClusterLevels(observations, 100, DefaultClusterTolerancePct)
	require.Len(t, levels, 3)
	require.Equal(t, 2, levels[0].Confluence)
	require.InDelta(t, 120.05, levels[0].Price, 1e-9)
	// Confluence tie broken by distance from current price.
	require.InDelta(t, 99.0, levels[1].Price, 1e-9)
	require.InDelta(t, 90.0, levels[2].Price, 1e-9)
}

func TestClusterLevels_EmptyInput(t *testing.T) {
	require.Empty(t, ClusterLevels(nil, 100, DefaultClusterTolerancePct))
}

func TestAnalyzeLevels_PartitionAndActiveBand(t *testing.T) {
	observations := []models.LevelObservation{
		obs(95.0, "1h"),   // support inside band
		obs(70.0, "1d"),   // support outside ±15% band
		obs(108.0, "4h"),  // resistance inside band
		obs(140.0, "1w"),  // resistance outside band
		obs(98.0, "15m"),  // nearest support
		obs(104.0, "15m"), // nearest resistance
	}

	analysis := AnalyzeLevels(observations, 100, DefaultClusterOptions())

	require.Len(t, analysis.Supports, 2)
	require.InDelta(t, 98.0, analysis.Supports[0].Price, 1e-9, "supports ordered nearest first")
	require.Equal(t, models.LevelSupport, analysis.Supports[0].Type)

	require.Len(t, analysis.Resistances, 2)
	require.InDelta(t, 104.0, analysis.Resistances[0].Price, 1e-9, "resistances ordered nearest first")
	require.Equal(t, models.LevelResistance, analysis.Resistances[0].Type)

	// Macro lists keep the far levels the band filtered out.
	require.Len(t, analysis.MacroSupports, 3)
	require.Len(t, analysis.MacroResistances, 3)
	require.InDelta(t, 70.0, analysis.MacroSupports[2].Price, 1e-9)
	require.InDelta(t, 140.0, analysis.MacroResistances[2].Price, 1e-9)
}

func TestCollectObservations(t *testing.T) {
	candles := make([]models.Candle, 30)
	for i := range candles {
		base := 100 + 0.01*float64(i)
		candles[i] = models.Candle{Open: base, High: base + 1, Low: base - 1, Close: base}
	}
	// Carve one swing high and one swing low.
	candles[10].High = 110
	candles[20].Low = 90

	observations := CollectObservations(candles, "1h", 5)
	require.Len(t, observations, 2)
	require.Equal(t, models.LevelResistance, observations[0].Type)
	require.InDelta(t, 110.0, observations[0].Price, 1e-9)
	require.Equal(t, models.LevelSupport, observations[1].Type)
	require.InDelta(t, 90.0, observations[1].Price, 1e-9)

	require.Empty(t, CollectObservations(candles[:10], "1h", 5))
}
