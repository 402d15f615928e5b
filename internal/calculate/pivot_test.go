package calculate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"marketlens/models"
)

func TestDetectPivots_SingleMaximum(t *testing.T) {
	series := []float64{1, 2, 3, 4, 10, 4, 3, 2, 1}

	highs := DetectPivots(series, 3, 3, models.PivotHigh)
	require.Len(t, highs, 1)
	require.Equal(t, 10.0, highs[4])

	lows := DetectPivots(series, 3, 3, models.PivotLow)
	require.NotContains(t, lows, 4)
}

func TestDetectPivots_MonotonicSeriesHasNone(t *testing.T) {
	series := make([]float64, 20)
	for i := range series {
		series[i] = float64(i) * 1.5
	}

	require.Empty(t, DetectPivots(series, 3, 3, models.PivotHigh))
	require.Empty(t, DetectPivots(series, 3, 3, models.PivotLow))
}

func TestDetectPivots_TiesCount(t *testing.T) {
	// A plateau maximum: never strictly exceeded, so both plateau points
	// qualify as pivot highs.
	series := []float64{1, 2, 5, 5, 2, 1, 0}

	highs := DetectPivots(series, 2, 2, models.PivotHigh)
	require.Contains(t, highs, 2)
	require.Contains(t, highs, 3)
}

func TestDetectPivots_WindowBounds(t *testing.T) {
	// Extremes at the edges have no full window and must never qualify.
	series := []float64{100, 1, 2, 3, 4, 5, 200}

	highs := DetectPivots(series, 2, 2, models.PivotHigh)
	require.NotContains(t, highs, 0)
	require.NotContains(t, highs, 6)
}

func TestDetectPivots_MultipleLows(t *testing.T) {
	series := []float64{5, 4, 1, 4, 5, 6, 5, 4, 2, 4, 5}

	lows := DetectPivots(series, 2, 2, models.PivotLow)
	require.Equal(t, map[int]float64{2: 1, 8: 2}, lows)
	require.Equal(t, []int{2, 8}, SortedPivotIndexes(lows))
}
