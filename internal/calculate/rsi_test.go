package calculate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRSISeries_MonotonicUp(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	series := RSISeries(closes, 14)
	require.Len(t, series, len(closes)-14)
	for _, v := range series {
		require.Equal(t, 100.0, v, "pure uptrend must read RSI 100")
	}
}

func TestRSISeries_MonotonicDown(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}

	series := RSISeries(closes, 14)
	require.Len(t, series, len(closes)-14)
	for _, v := range series {
		// avg_gain=0 branch, not the avg_loss=0 one
		require.Equal(t, 0.0, v, "pure downtrend must read RSI 0")
	}
}

func TestRSISeries_FlatPrices(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 1.2345
	}

	series := RSISeries(closes, 14)
	require.Len(t, series, 6)
	for _, v := range series {
		require.Equal(t, 50.0, v, "flat prices must read neutral 50, not an extreme")
	}
}

func TestRSISeries_InsufficientData(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		period int
	}{
		{name: "empty input", closes: nil, period: 14},
		{name: "exactly period prices", closes: make([]float64, 14), period: 14},
		{name: "one short of minimum", closes: make([]float64, 10), period: 10},
		{name: "zero period", closes: []float64{1, 2, 3}, period: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Empty(t, RSISeries(tt.closes, tt.period))
		})
	}
}

func TestRSISeries_Alignment(t *testing.T) {
	// 16 closes, period 14: two values, one per window ending at index 14 and 15.
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	closes[15] = closes[14] - 5 // last delta is a loss

	series := RSISeries(closes, 14)
	require.Len(t, series, 2)
	require.Equal(t, 100.0, series[0])
	require.Less(t, series[1], 100.0, "window containing a loss must drop below 100")
	require.Greater(t, series[1], 0.0)
}

func TestLatestRSI(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 50 + float64(i)
	}

	v, ok := LatestRSI(closes, 14)
	require.True(t, ok)
	require.Equal(t, 100.0, v)

	_, ok = LatestRSI(closes[:10], 14)
	require.False(t, ok)
}
