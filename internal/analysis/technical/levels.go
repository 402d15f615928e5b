package technical

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"marketlens/internal/calculate"
	"marketlens/models"
)

// DefaultClusterTolerancePct is the relative merge tolerance between a pivot
// observation and a cluster's running average, in percent.
const DefaultClusterTolerancePct = 0.3

// DefaultActiveBandPct bounds the display band around the current price, in
// percent. Levels outside it are only reported in the macro lists.
const DefaultActiveBandPct = 15.0

// ClusterOptions parameterizes the level clustering engine.
type ClusterOptions struct {
	TolerancePct  float64
	ActiveBandPct float64
}

// DefaultClusterOptions returns the standard tolerances.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{
		TolerancePct:  DefaultClusterTolerancePct,
		ActiveBandPct: DefaultActiveBandPct,
	}
}

// LevelAnalysis is the clustered view of all pivot observations relative to
// the current price. Supports and Resistances hold only levels inside the
// active band, nearest first; the macro slices are the unfiltered lists.
type LevelAnalysis struct {
	Supports         []models.Level
	Resistances      []models.Level
	MacroSupports    []models.Level
	MacroResistances []models.Level
	Confluent        []models.Level
}

// cluster accumulates observations as a (sum, count) pair so the average is
// derived on read instead of incrementally updated.
type cluster struct {
	sum        float64
	count      int
	timeframes []string
}

func (c *cluster) average() float64 {
	return c.sum / float64(c.count)
}

func (c *cluster) add(obs models.LevelObservation) {
	c.sum += obs.Price
	c.count++
	c.timeframes = append(c.timeframes, obs.Timeframe)
}

// ClusterLevels merges nearby pivot observations gathered across timeframes
// into confluence-ranked levels. An observation joins the first cluster whose
// running average is within the relative tolerance of its price; otherwise it
// starts a new cluster, so two finished levels never overlap within the
// tolerance. Confluence counts distinct contributing timeframes. The result
// is sorted by confluence descending, ties broken by distance from the
// current price ascending.
func ClusterLevels(observations []models.LevelObservation, currentPrice, tolerancePct float64) []models.Level {
	if len(observations) == 0 {
		return nil
	}

	var clusters []*cluster
	for _, obs := range observations {
		joined := false
		for _, c := range clusters {
			avg := c.average()
			if avg == 0 {
				continue
			}
			if math.Abs(obs.Price-avg)/avg*100 <= tolerancePct {
				c.add(obs)
				joined = true
				break
			}
		}
		if !joined {
			clusters = append(clusters, &cluster{sum: obs.Price, count: 1, timeframes: []string{obs.Timeframe}})
		}
	}

	levels := make([]models.Level, 0, len(clusters))
	for _, c := range clusters {
		timeframes := lo.Uniq(c.timeframes)
		price := c.average()
		levelType := models.LevelSupport
		if price > currentPrice {
			levelType = models.LevelResistance
		}
		levels = append(levels, models.Level{
			Price:      price,
			Type:       levelType,
			Timeframes: timeframes,
			Confluence: len(timeframes),
			Confluent:  len(timeframes) >= 2,
		})
	}

	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].Confluence != levels[j].Confluence {
			return levels[i].Confluence > levels[j].Confluence
		}
		return math.Abs(levels[i].Price-currentPrice) < math.Abs(levels[j].Price-currentPrice)
	})
	return levels
}

// AnalyzeLevels clusters the observations and partitions the result around
// the current price: supports below, resistances above, each re-sorted by
// proximity to price and filtered to the active band, with the unfiltered
// macro lists kept alongside. Empty input yields an empty analysis, not an
// error.
func AnalyzeLevels(observations []models.LevelObservation, currentPrice float64, opts ClusterOptions) LevelAnalysis {
	levels := ClusterLevels(observations, currentPrice, opts.TolerancePct)

	var analysis LevelAnalysis
	for _, level := range levels {
		if level.Confluent {
			analysis.Confluent = append(analysis.Confluent, level)
		}
		switch {
		case level.Price < currentPrice:
			analysis.MacroSupports = append(analysis.MacroSupports, level)
		case level.Price > currentPrice:
			analysis.MacroResistances = append(analysis.MacroResistances, level)
		}
	}

	byProximity := func(side []models.Level) {
		sort.SliceStable(side, func(i, j int) bool {
			return math.Abs(side[i].Price-currentPrice) < math.Abs(side[j].Price-currentPrice)
		})
	}
	byProximity(analysis.MacroSupports)
	byProximity(analysis.MacroResistances)

	band := currentPrice * opts.ActiveBandPct / 100
	inBand := func(level models.Level, _ int) bool {
		return math.Abs(level.Price-currentPrice) <= band
	}
	analysis.Supports = lo.Filter(analysis.MacroSupports, inBand)
	analysis.Resistances = lo.Filter(analysis.MacroResistances, inBand)

	return analysis
}

// CollectObservations detects pivot highs and lows on a timeframe's candles
// and tags them as resistance and support observations for the clustering
// engine. Highs are detected on the high series, lows on the low series,
// using a symmetric window of `window` bars each side.
func CollectObservations(candles []models.Candle, timeframe string, window int) []models.LevelObservation {
	if len(candles) < window*2+1 {
		return nil
	}

	highs := calculate.DetectPivots(calculate.Highs(candles), window, window, models.PivotHigh)
	lows := calculate.DetectPivots(calculate.Lows(candles), window, window, models.PivotLow)

	observations := make([]models.LevelObservation, 0, len(highs)+len(lows))
	for _, idx := range calculate.SortedPivotIndexes(highs) {
		observations = append(observations, models.LevelObservation{
			Price:     highs[idx],
			Type:      models.LevelResistance,
			Timeframe: timeframe,
		})
	}
	for _, idx := range calculate.SortedPivotIndexes(lows) {
		observations = append(observations, models.LevelObservation{
			Price:     lows[idx],
			Type:      models.LevelSupport,
			Timeframe: timeframe,
		})
	}
	return observations
}
