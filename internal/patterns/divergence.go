package patterns

import (
	"errors"
	"fmt"
	"math"

	"marketlens/internal/calculate"
	"marketlens/models"
)

const (
	// TypeRegularBullish labels a lower price low with a higher RSI low.
	TypeRegularBullish = "Regular Bullish Divergence"
	// TypeRegularBearish labels a higher price high with a lower RSI high.
	TypeRegularBearish = "Regular Bearish Divergence"

	// MinScanCandles is the hard floor below which a scan refuses to run.
	MinScanCandles = 50
)

// ErrInsufficientCandles is returned when a scan has fewer than
// MinScanCandles usable candles. No partial analysis is produced.
var ErrInsufficientCandles = errors.New("insufficient candles for divergence scan")

// Config holds the scan parameters. Thresholds depend on the market type:
// forex moves in smaller percentage increments than crypto or stocks.
type Config struct {
	RSIPeriod          int
	PivotLeft          int
	PivotRight         int
	MaxAgeBars         int
	MinBarsApart       int
	MatchToleranceBars int
	MinPriceDeltaPct   float64
	MinRSIDelta        float64
}

// DefaultConfig returns the standard scan parameters for a market type.
func DefaultConfig(market models.MarketType) Config {
	cfg := Config{
		RSIPeriod:          14,
		PivotLeft:          5,
		PivotRight:         5,
		MaxAgeBars:         80,
		MinBarsApart:       10,
		MatchToleranceBars: 10,
		MinPriceDeltaPct:   0.8,
		MinRSIDelta:        6.0,
	}
	if market == models.MarketForex {
		cfg.MinPriceDeltaPct = 0.25
	}
	return cfg
}

// Scan runs a full divergence scan over one symbol+timeframe's candles,
// computing the RSI series internally. Fewer than MinScanCandles candles is
// an explicit error, never a partial result.
func Scan(candles []models.Candle, cfg Config) (*models.DivergenceScanResult, error) {
	if len(candles) < MinScanCandles {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCandles, len(candles), MinScanCandles)
	}
	closes := calculate.Closes(candles)
	rsi := calculate.RSISeries(closes, cfg.RSIPeriod)
	return ScanSeries(calculate.Highs(candles), calculate.Lows(candles), closes, rsi, cfg)
}

// ScanSeries runs the divergence state machine over precomputed series. The
// RSI series may be shorter than the price series; index i of rsi then maps
// to candle index i + (len(closes) - len(rsi)). Regular bullish is evaluated
// before regular bearish and only the first confirmed type is reported.
// Hidden divergence variants are not implemented, which the result flags
// explicitly rather than skipping in silence.
func ScanSeries(highs, lows, closes, rsi []float64, cfg Config) (*models.DivergenceScanResult, error) {
	if len(closes) < MinScanCandles {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCandles, len(closes), MinScanCandles)
	}
	if len(highs) != len(closes) || len(lows) != len(closes) {
		return nil, errors.New("mismatched series lengths")
	}

	result := &models.DivergenceScanResult{
		HiddenSupported: false,
		Thresholds: models.DivergenceThresholds{
			MinPriceDeltaPct:   cfg.MinPriceDeltaPct,
			MinRSIDelta:        cfg.MinRSIDelta,
			MaxAgeBars:         cfg.MaxAgeBars,
			MinBarsApart:       cfg.MinBarsApart,
			MatchToleranceBars: cfg.MatchToleranceBars,
		},
	}
	result.CurrentPrice = closes[len(closes)-1]
	if len(rsi) > 0 {
		result.CurrentRSI = rsi[len(rsi)-1]
	}

	rsiOffset := len(closes) - len(rsi)

	priceLows := calculate.DetectPivots(lows, cfg.PivotLeft, cfg.PivotRight, models.PivotLow)
	priceHighs := calculate.DetectPivots(highs, cfg.PivotLeft, cfg.PivotRight, models.PivotHigh)
	rsiLows := shiftPivots(calculate.DetectPivots(rsi, cfg.PivotLeft, cfg.PivotRight, models.PivotLow), rsiOffset)
	rsiHighs := shiftPivots(calculate.DetectPivots(rsi, cfg.PivotLeft, cfg.PivotRight, models.PivotHigh), rsiOffset)

	result.PivotMetadata = models.PivotMetadata{
		PriceHighs: len(priceHighs),
		PriceLows:  len(priceLows),
		RSIHighs:   len(rsiHighs),
		RSILows:    len(rsiLows),
	}

	lastIndex := len(closes) - 1

	bullish, bullishReason := detectRegular(priceLows, rsiLows, lastIndex, cfg, true)
	if bullish != nil && confirmed(bullish, cfg) {
		result.HasDivergence = true
		result.Divergence = bullish
		result.Reason = "regular bullish divergence confirmed: lower price low against a higher RSI low"
		result.Confidence, result.ConfidenceReason = confidence(bullish, cfg)
		return result, nil
	}

	bearish, bearishReason := detectRegular(priceHighs, rsiHighs, lastIndex, cfg, false)
	if bearish != nil && confirmed(bearish, cfg) {
		result.HasDivergence = true
		result.Divergence = bearish
		result.Reason = "regular bearish divergence confirmed: higher price high against a lower RSI high"
		result.Confidence, result.ConfidenceReason = confidence(bearish, cfg)
		return result, nil
	}

	// Nothing confirmed: keep the highest-priority unconfirmed candidate
	// for diagnostics and explain why the scan came up empty.
	switch {
	case bullish != nil:
		result.BestCandidate = bullish
		result.Reason = thresholdReason(bullish, cfg)
		result.Confidence, result.ConfidenceReason = confidence(bullish, cfg)
	case bearish != nil:
		result.BestCandidate = bearish
		result.Reason = thresholdReason(bearish, cfg)
		result.Confidence, result.ConfidenceReason = confidence(bearish, cfg)
	default:
		result.Reason = fmt.Sprintf("no divergence: %s; %s", bullishReason, bearishReason)
	}
	return result, nil
}

// detectRegular walks the two most recent price pivots of one side and tries
// to pair them with matching RSI pivots. It returns a candidate when the
// geometric conditions hold (the threshold check happens later), or a reason
// string describing the first condition that failed.
func detectRegular(pricePivots, rsiPivots map[int]float64, lastIndex int, cfg Config, bullish bool) (*models.Divergence, string) {
	side := "bullish"
	if !bullish {
		side = "bearish"
	}

	indexes := calculate.SortedPivotIndexes(pricePivots)
	if len(indexes) == 0 {
		return nil, side + ": no price pivots detected"
	}
	if len(indexes) < 2 {
		return nil, side + ": too few price pivots (need 2)"
	}

	p1 := indexes[len(indexes)-2]
	p2 := indexes[len(indexes)-1]

	if age := lastIndex - p2; age > cfg.MaxAgeBars {
		return nil, fmt.Sprintf("%s: last pivot too old (%d bars, max %d)", side, age, cfg.MaxAgeBars)
	}
	barsApart := p2 - p1
	if barsApart < cfg.MinBarsApart {
		return nil, fmt.Sprintf("%s: pivots too close together (%d bars, min %d)", side, barsApart, cfg.MinBarsApart)
	}

	price1 := pricePivots[p1]
	price2 := pricePivots[p2]
	priceDeltaPct := (price2 - price1) / price1 * 100

	// Regular bullish needs a lower low; regular bearish a higher high.
	if bullish && priceDeltaPct >= 0 {
		return nil, side + ": price did not make a lower low"
	}
	if !bullish && priceDeltaPct <= 0 {
		return nil, side + ": price did not make a higher high"
	}

	r1, rsi1, ok1 := closestPivot(rsiPivots, p1, cfg.MatchToleranceBars)
	r2, rsi2, ok2 := closestPivot(rsiPivots, p2, cfg.MatchToleranceBars)
	if !ok1 || !ok2 {
		return nil, side + ": no matching RSI pivot within tolerance"
	}

	rsiDelta := rsi2 - rsi1

	// The oscillator must disagree with price: a higher low for bullish, a
	// lower high for bearish.
	if bullish && rsiDelta <= 0 {
		return nil, side + ": RSI did not make a higher low"
	}
	if !bullish && rsiDelta >= 0 {
		return nil, side + ": RSI did not make a lower high"
	}

	divType := TypeRegularBullish
	if !bullish {
		divType = TypeRegularBearish
	}
	return &models.Divergence{
		Type: divType,
		PricePoints: [2]models.DivergencePoint{
			{Index: p1, Value: price1},
			{Index: p2, Value: price2},
		},
		RSIPoints: [2]models.DivergencePoint{
			{Index: r1, Value: rsi1},
			{Index: r2, Value: rsi2},
		},
		PriceDeltaPct: priceDeltaPct,
		RSIDelta:      rsiDelta,
		BarsApart:     barsApart,
	}, ""
}

// closestPivot finds the pivot nearest to target within tolerance bars.
func closestPivot(pivots map[int]float64, target, tolerance int) (int, float64, bool) {
	bestIdx, bestDist := -1, tolerance+1
	for idx := range pivots {
		dist := idx - target
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			bestDist = dist
			bestIdx = idx
		}
	}
	if bestIdx < 0 {
		return 0, 0, false
	}
	return bestIdx, pivots[bestIdx], true
}

func confirmed(d *models.Divergence, cfg Config) bool {
	return math.Abs(d.PriceDeltaPct) >= cfg.MinPriceDeltaPct && math.Abs(d.RSIDelta) >= cfg.MinRSIDelta
}

// confidence grades a candidate against its thresholds: High when both deltas
// exceed 1.5x their minimum, Low when either sits within 10% of its minimum,
// Medium otherwise.
func confidence(d *models.Divergence, cfg Config) (string, string) {
	priceRatio := math.Abs(d.PriceDeltaPct) / cfg.MinPriceDeltaPct
	rsiRatio := math.Abs(d.RSIDelta) / cfg.MinRSIDelta
	reason := fmt.Sprintf("price delta %.2fx min, RSI delta %.2fx min", priceRatio, rsiRatio)

	switch {
	case priceRatio > 1.5 && rsiRatio > 1.5:
		return "High", reason
	case priceRatio < 1.1 || rsiRatio < 1.1:
		return "Low", reason
	default:
		return "Medium", reason
	}
}

// thresholdReason names which delta kept a candidate below confirmation.
func thresholdReason(d *models.Divergence, cfg Config) string {
	priceOK := math.Abs(d.PriceDeltaPct) >= cfg.MinPriceDeltaPct
	rsiOK := math.Abs(d.RSIDelta) >= cfg.MinRSIDelta
	switch {
	case !priceOK && !rsiOK:
		return fmt.Sprintf("candidate found but both deltas below thresholds: |price| %.2f%% < %.2f%% and |RSI| %.2f < %.2f",
			math.Abs(d.PriceDeltaPct), cfg.MinPriceDeltaPct, math.Abs(d.RSIDelta), cfg.MinRSIDelta)
	case !priceOK:
		return fmt.Sprintf("candidate found but price delta below threshold: |price| %.2f%% < %.2f%%",
			math.Abs(d.PriceDeltaPct), cfg.MinPriceDeltaPct)
	default:
		return fmt.Sprintf("candidate found but RSI delta below threshold: |RSI| %.2f < %.2f",
			math.Abs(d.RSIDelta), cfg.MinRSIDelta)
	}
}

func shiftPivots(pivots map[int]float64, offset int) map[int]float64 {
	if offset == 0 {
		return pivots
	}
	shifted := make(map[int]float64, len(pivots))
	for idx, v := range pivots {
		shifted[idx+offset] = v
	}
	return shifted
}
