package calculate

// RSISeries computes a rolling RSI value for every index from period to the
// end of closes (oldest first). Each value averages the gains and losses of
// the period deltas ending at that index, so series[i] corresponds to
// closes[i+period]. Returns nil when fewer than period+1 prices are
// available; callers must treat that as insufficient data, not as zeros.
func RSISeries(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	series := make([]float64, 0, len(closes)-period)
	for i := period; i < len(closes); i++ {
		var gains, losses float64
		for j := i - period + 1; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				gains += change
			} else {
				losses -= change
			}
		}
		series = append(series, rsiFromAverages(gains/float64(period), losses/float64(period)))
	}
	return series
}

// rsiFromAverages applies the RSI formula to one window's averages. A flat
// window (both averages zero) reads as neutral 50, not as an extreme; a pure
// uptrend (zero average loss) reads as 100.
func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgGain == 0 && avgLoss == 0 {
		return 50.0
	}
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// LatestRSI returns the most recent rolling RSI value, with ok=false when the
// input is too short to produce one.
func LatestRSI(closes []float64, period int) (float64, bool) {
	series := RSISeries(closes, period)
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

