package calculate

import (
	"sort"

	"marketlens/models"
)

// DetectPivots finds local extrema in series using a symmetric lookback
// window of left bars before and right bars after each candidate. For
// PivotHigh an index qualifies when its value is never strictly exceeded
// inside the window; PivotLow mirrors with never strictly undercut. Ties
// count as pivots. The result maps the original series index to its value,
// since pivots are sparse.
func DetectPivots(series []float64, left, right int, kind models.PivotKind) map[int]float64 {
	pivots := make(map[int]float64)
	if left < 0 || right < 0 {
		return pivots
	}

	for i := left; i < len(series)-right; i++ {
		center := series[i]
		isPivot := true
		for j := i - left; j <= i+right; j++ {
			if j == i {
				continue
			}
			if kind == models.PivotHigh && series[j] > center {
				isPivot = false
				break
			}
			if kind == models.PivotLow && series[j] < center {
				isPivot = false
				break
			}
		}
		if isPivot {
			pivots[i] = center
		}
	}
	return pivots
}

// SortedPivotIndexes returns the pivot indexes in ascending order.
func SortedPivotIndexes(pivots map[int]float64) []int {
	indexes := make([]int, 0, len(pivots))
	for idx := range pivots {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes
}

// Closes extracts close prices from candles, oldest first.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices from candles, oldest first.
func Highs(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices from candles, oldest first.
func Lows(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}
