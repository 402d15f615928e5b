package rsimtf

import (
	"context"
	"fmt"

	talib "github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"marketlens/internal/calculate"
	"marketlens/models"
)

// Timeframe weights bias toward higher timeframes: longer horizons carry more
// predictive weight. They sum to 1.0.
var timeframeWeights = []struct {
	Timeframe string
	Weight    float64
}{
	{Timeframe: "5m", Weight: 0.10},
	{Timeframe: "1h", Weight: 0.20},
	{Timeframe: "4h", Weight: 0.30},
	{Timeframe: "1d", Weight: 0.40},
}

const (
	oversoldThreshold   = 30.0
	overboughtThreshold = 70.0
	dispersionSpread    = 25.0

	candleFetchLimit = 120
	trendEMAPeriod   = 50
	atrPeriod        = 14
)

// Aggregator computes RSI(14) independently per timeframe and folds the
// readings into one weighted value with a deterministic explanation.
type Aggregator struct {
	source models.CandleSource
	period int
	logger zerolog.Logger
}

// New creates an aggregator over the given candle source.
func New(source models.CandleSource, rsiPeriod int) *Aggregator {
	return &Aggregator{
		source: source,
		period: rsiPeriod,
		logger: log.With().Str("component", "rsi_aggregator").Logger(),
	}
}

// Analyze fetches candles for every configured timeframe, computes the
// per-timeframe RSI readings, and produces the weighted overall value. A
// timeframe that fails to fetch or lacks history is dropped from the weighted
// sum (the divisor shrinks to the weights actually present, no
// renormalization of the missing terms) and recorded as failed. When every
// timeframe fails the result carries an explicit error instead of a
// fabricated neutral reading.
func (a *Aggregator) Analyze(ctx context.Context, symbol string) *models.RSIMultiTimeframeResult {
	result := &models.RSIMultiTimeframeResult{
		Symbol:           symbol,
		FailedTimeframes: []string{},
	}

	var (
		weightedSum float64
		weightTotal float64
		dailyCloses []float64
		dailyHighs  []float64
		dailyLows   []float64
	)

	for _, entry := range timeframeWeights {
		candles, err := a.source.GetCandles(ctx, symbol, entry.Timeframe, candleFetchLimit)
		if err != nil {
			a.logger.Warn().Err(err).Str("symbol", symbol).Str("timeframe", entry.Timeframe).Msg("Candle fetch failed")
			candles = nil
		}

		closes := calculate.Closes(candles)
		rsi, ok := calculate.LatestRSI(closes, a.period)
		if !ok {
			result.FailedTimeframes = append(result.FailedTimeframes, entry.Timeframe)
			continue
		}

		if entry.Timeframe == "1d" {
			dailyCloses = closes
			dailyHighs = calculate.Highs(candles)
			dailyLows = calculate.Lows(candles)
		}
		if len(candles) > 0 {
			result.CurrentPrice = candles[len(candles)-1].Close
		}

		result.Readings = append(result.Readings, models.TimeframeRSI{
			Timeframe: entry.Timeframe,
			RSI:       rsi,
			Status:    Classify(rsi),
			Weight:    entry.Weight,
		})
		weightedSum += rsi * entry.Weight
		weightTotal += entry.Weight
	}

	if len(result.Readings) == 0 {
		result.Error = fmt.Sprintf("insufficient data for symbol %s; ensure sufficient trading history", symbol)
		return result
	}

	result.OverallRSI = weightedSum / weightTotal
	result.OverallStatus = Classify(result.OverallRSI)
	result.Explanation = Explain(result.Readings)
	result.Insight = a.insight(result.OverallRSI, result.OverallStatus, dailyCloses, dailyHighs, dailyLows)
	return result
}

// Classify maps an RSI value onto the standard zones.
func Classify(rsi float64) string {
	switch {
	case rsi < oversoldThreshold:
		return "Oversold"
	case rsi > overboughtThreshold:
		return "Overbought"
	default:
		return "Neutral"
	}
}

// Explain produces one of four canned explanations from the available
// readings: majority-oversold, majority-overbought, high-dispersion, or
// clustered. The rule is deterministic so formatters and tests can rely on
// the exact wording.
func Explain(readings []models.TimeframeRSI) string {
	counts := lo.CountValuesBy(readings, func(r models.TimeframeRSI) string { return r.Status })
	available := len(readings)

	values := lo.Map(readings, func(r models.TimeframeRSI, _ int) float64 { return r.RSI })
	spread := lo.Max(values) - lo.Min(values)

	switch {
	case counts["Oversold"]*2 > available:
		return fmt.Sprintf("%d of %d timeframes are oversold — downside momentum looks stretched across horizons.",
			counts["Oversold"], available)
	case counts["Overbought"]*2 > available:
		return fmt.Sprintf("%d of %d timeframes are overbought — upside momentum looks stretched across horizons.",
			counts["Overbought"], available)
	case spread >= dispersionSpread:
		return fmt.Sprintf("RSI readings span %.1f points across timeframes — short and long horizons disagree on momentum.", spread)
	default:
		return fmt.Sprintf("RSI readings cluster within %.1f points — momentum is broadly consistent across timeframes.", spread)
	}
}

// insight adds daily trend and volatility context around the weighted RSI.
// EMA(50) direction and ATR(14) come from the daily candles when enough
// history survived the fetch; otherwise the line degrades to the RSI alone.
func (a *Aggregator) insight(overallRSI float64, status string, closes, highs, lows []float64) string {
	if len(closes) <= trendEMAPeriod || len(closes) <= atrPeriod {
		return fmt.Sprintf("Weighted RSI %.1f (%s); daily trend context unavailable.", overallRSI, status)
	}

	ema := talib.Ema(closes, trendEMAPeriod)
	atr := talib.Atr(highs, lows, closes, atrPeriod)
	lastClose := closes[len(closes)-1]
	lastEMA := ema[len(ema)-1]
	volPct := atr[len(atr)-1] / lastClose * 100

	trend := "below"
	if lastClose > lastEMA {
		trend = "above"
	}

	switch {
	case status == "Oversold" && trend == "above":
		return fmt.Sprintf("Weighted RSI %.1f is oversold while price holds above the daily EMA(50) — often a pullback, not a reversal (ATR %.1f%%).", overallRSI, volPct)
	case status == "Oversold":
		return fmt.Sprintf("Weighted RSI %.1f is oversold inside a daily downtrend — bounces tend to be weak without confirmation (ATR %.1f%%).", overallRSI, volPct)
	case status == "Overbought" && trend == "above":
		return fmt.Sprintf("Weighted RSI %.1f is overbought with price above the daily EMA(50) — extended moves can stay extended (ATR %.1f%%).", overallRSI, volPct)
	case status == "Overbought":
		return fmt.Sprintf("Weighted RSI %.1f is overbought against a daily downtrend — relief rallies often exhaust here (ATR %.1f%%).", overallRSI, volPct)
	default:
		return fmt.Sprintf("Weighted RSI %.1f is neutral; price is %s the daily EMA(50) with %.1f%% average true range.", overallRSI, trend, volPct)
	}
}

// Timeframes lists the configured timeframes in weighting order.
func Timeframes() []string {
	out := make([]string, len(timeframeWeights))
	for i, entry := range timeframeWeights {
		out[i] = entry.Timeframe
	}
	return out
}
