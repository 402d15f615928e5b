package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"marketlens/internal/analysis/rsimtf"
	"marketlens/internal/analysis/technical"
	"marketlens/internal/marketdata"
	"marketlens/internal/patterns"
	"marketlens/models"
)

// srTimeframes are the timeframes mined for support/resistance pivots, up to
// six per call.
var srTimeframes = []string{"15m", "1h", "4h", "1d", "3d", "1w"}

// Options collects the tunables of the analysis service.
type Options struct {
	RSIPeriod           int
	PivotWindow         int
	ClusterTolerancePct float64
	ActiveBandPct       float64
	DivergenceLookback  int
	CacheTTL            time.Duration
}

// DefaultOptions returns the reference parameters.
func DefaultOptions() Options {
	return Options{
		RSIPeriod:           14,
		PivotWindow:         5,
		ClusterTolerancePct: technical.DefaultClusterTolerancePct,
		ActiveBandPct:       technical.DefaultActiveBandPct,
		DivergenceLookback:  200,
		CacheTTL:            240 * time.Second,
	}
}

// Service exposes the three analysis operations to the delivery layer. Each
// call is request-scoped and pure given its candle inputs; the only shared
// state is the injected cache.
type Service struct {
	router *marketdata.Router
	cache  models.Cache
	opts   Options
	logger zerolog.Logger
}

// New wires the analysis service.
func New(router *marketdata.Router, cache models.Cache, opts Options) *Service {
	return &Service{
		router: router,
		cache:  cache,
		opts:   opts,
		logger: log.With().Str("component", "analyze").Logger(),
	}
}

// SupportResistance clusters pivots from up to six timeframes into
// confluence-ranked levels around the current price. Results are memoized
// per (symbol, market, macro flag) for the cache TTL.
func (s *Service) SupportResistance(ctx context.Context, symbol string, market models.MarketType, showMacro bool) *models.SupportResistanceResult {
	key := fmt.Sprintf("sr:%s:%s:%t", market, symbol, showMacro)

	var result models.SupportResistanceResult
	err := s.cache.GetOrCompute(key, s.opts.CacheTTL, &result, func() (any, error) {
		return s.computeSupportResistance(ctx, symbol, market, showMacro), nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Support/resistance analysis failed")
		return &models.SupportResistanceResult{Symbol: symbol, Error: err.Error()}
	}
	return &result
}

func (s *Service) computeSupportResistance(ctx context.Context, symbol string, market models.MarketType, showMacro bool) *models.SupportResistanceResult {
	result := &models.SupportResistanceResult{Symbol: symbol}
	source := s.router.Source(market)

	var observations []models.LevelObservation
	for _, timeframe := range srTimeframes {
		candles, err := source.GetCandles(ctx, symbol, timeframe, s.opts.DivergenceLookback)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Str("timeframe", timeframe).Msg("Candle fetch failed")
			candles = nil
		}
		if len(candles) < s.opts.PivotWindow*2+1 {
			result.FailedTimeframes = append(result.FailedTimeframes, timeframe)
			continue
		}
		observations = append(observations, technical.CollectObservations(candles, timeframe, s.opts.PivotWindow)...)
		// Current price tracks the close of the smallest timeframe that
		// produced data.
		if result.CurrentPrice == 0 && len(candles) > 0 {
			result.CurrentPrice = candles[len(candles)-1].Close
		}
	}

	if len(observations) == 0 || result.CurrentPrice == 0 {
		result.Error = fmt.Sprintf("insufficient data for symbol %s; ensure sufficient trading history", symbol)
		return result
	}

	analysis := technical.AnalyzeLevels(observations, result.CurrentPrice, technical.ClusterOptions{
		TolerancePct:  s.opts.ClusterTolerancePct,
		ActiveBandPct: s.opts.ActiveBandPct,
	})

	result.Supports = analysis.Supports
	result.Resistances = analysis.Resistances
	result.ConfluentLevels = analysis.Confluent
	if len(analysis.Supports) > 0 {
		result.NearestSupport = &analysis.Supports[0]
	}
	if len(analysis.Resistances) > 0 {
		result.NearestResistance = &analysis.Resistances[0]
	}

	result.LevelsByTimeframe = make(map[string][]models.Level)
	allLevels := append(append([]models.Level{}, analysis.MacroSupports...), analysis.MacroResistances...)
	for _, timeframe := range srTimeframes {
		levels := lo.Filter(allLevels, func(level models.Level, _ int) bool {
			return lo.Contains(level.Timeframes, timeframe)
		})
		if len(levels) > 0 {
			result.LevelsByTimeframe[timeframe] = levels
		}
	}

	if showMacro {
		result.MacroSupports = analysis.MacroSupports
		result.MacroResistances = analysis.MacroResistances
	}
	return result
}

// RSIMultiTimeframe computes the weighted multi-timeframe RSI reading,
// memoized per (symbol, market).
func (s *Service) RSIMultiTimeframe(ctx context.Context, symbol string, market models.MarketType) *models.RSIMultiTimeframeResult {
	key := fmt.Sprintf("rsi:%s:%s", market, symbol)

	var result models.RSIMultiTimeframeResult
	err := s.cache.GetOrCompute(key, s.opts.CacheTTL, &result, func() (any, error) {
		aggregator := rsimtf.New(s.router.Bind(market), s.opts.RSIPeriod)
		return aggregator.Analyze(ctx, symbol), nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("RSI analysis failed")
		return &models.RSIMultiTimeframeResult{Symbol: symbol, Error: err.Error()}
	}
	return &result
}

// DivergenceScan runs the regular bullish/bearish divergence scanner on one
// timeframe, memoized per (symbol, market, timeframe). Fetch failures are
// treated as insufficient data for the scan, not as a distinct fault.
func (s *Service) DivergenceScan(ctx context.Context, symbol string, market models.MarketType, timeframe string) *models.DivergenceScanResult {
	key := fmt.Sprintf("div:%s:%s:%s", market, symbol, timeframe)

	var result models.DivergenceScanResult
	err := s.cache.GetOrCompute(key, s.opts.CacheTTL, &result, func() (any, error) {
		return s.computeDivergence(ctx, symbol, market, timeframe), nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Divergence scan failed")
		return &models.DivergenceScanResult{Symbol: symbol, Timeframe: timeframe, Error: err.Error()}
	}
	return &result
}

func (s *Service) computeDivergence(ctx context.Context, symbol string, market models.MarketType, timeframe string) *models.DivergenceScanResult {
	source := s.router.Source(market)

	candles, err := source.GetCandles(ctx, symbol, timeframe, s.opts.DivergenceLookback)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Str("timeframe", timeframe).Msg("Candle fetch failed")
		candles = nil
	}

	cfg := patterns.DefaultConfig(market)
	cfg.RSIPeriod = s.opts.RSIPeriod

	result, err := patterns.Scan(candles, cfg)
	if err != nil {
		return &models.DivergenceScanResult{
			Symbol:    symbol,
			Timeframe: timeframe,
			Error:     fmt.Sprintf("insufficient data for %s on %s: %v", symbol, timeframe, err),
		}
	}

	result.Symbol = symbol
	result.Timeframe = timeframe
	return result
}
