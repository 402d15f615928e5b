package models

import (
	"time"
)

// MarketType identifies which venue class a symbol trades on. It selects the
// candle source and the divergence confirmation thresholds.
type MarketType string

const (
	MarketCrypto MarketType = "crypto"
	MarketForex  MarketType = "forex"
	MarketStock  MarketType = "stock"
)

// Candle represents a single OHLCV bar. Immutable once fetched.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// PivotKind distinguishes local maxima from local minima.
type PivotKind string

const (
	PivotHigh PivotKind = "high"
	PivotLow  PivotKind = "low"
)

// Pivot is a local extremum in a numeric series, identified by its index in
// the series it was detected on. Pivots are derived data, recomputed on every
// analysis call.
type Pivot struct {
	Index int       `json:"index"`
	Value float64   `json:"value"`
	Kind  PivotKind `json:"kind"`
}

// LevelType tags a pivot observation as a support or resistance candidate.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)

// LevelObservation is one tagged pivot price gathered from one timeframe,
// the raw input of the clustering engine.
type LevelObservation struct {
	Price     float64   `json:"price"`
	Type      LevelType `json:"type"`
	Timeframe string    `json:"timeframe"`
}

// Level is a clustered support/resistance candidate. Price is the centroid of
// all contributing pivot prices; Timeframes is deduplicated; Confluence is the
// count of distinct contributing timeframes.
type Level struct {
	Price      float64   `json:"price"`
	Type       LevelType `json:"type"`
	Timeframes []string  `json:"timeframes"`
	Confluence int       `json:"confluence"`
	Confluent  bool      `json:"confluent"`
}

// TimeframeRSI is one timeframe's RSI reading inside the weighted aggregate.
type TimeframeRSI struct {
	Timeframe string  `json:"timeframe"`
	RSI       float64 `json:"rsi"`
	Status    string  `json:"status"` // Oversold, Overbought, Neutral
	Weight    float64 `json:"weight"`
}

// SupportResistanceResult is the structured output of the level analysis.
// Supports and Resistances are limited to the active band around the current
// price, nearest first; the macro lists are unfiltered and only populated when
// requested.
type SupportResistanceResult struct {
	Symbol            string             `json:"symbol"`
	CurrentPrice      float64            `json:"current_price"`
	NearestSupport    *Level             `json:"nearest_support,omitempty"`
	NearestResistance *Level             `json:"nearest_resistance,omitempty"`
	Supports          []Level            `json:"supports"`
	Resistances       []Level            `json:"resistances"`
	ConfluentLevels   []Level            `json:"confluent_levels"`
	LevelsByTimeframe map[string][]Level `json:"levels_by_timeframe"`
	MacroSupports     []Level            `json:"macro_supports,omitempty"`
	MacroResistances  []Level            `json:"macro_resistances,omitempty"`
	FailedTimeframes  []string           `json:"failed_timeframes,omitempty"`
	Error             string             `json:"error,omitempty"`
}

// RSIMultiTimeframeResult is the structured output of the weighted RSI
// heatmap. OverallRSI divides by the sum of the weights that actually
// produced a reading; failed timeframes are listed, never silently dropped.
type RSIMultiTimeframeResult struct {
	Symbol           string         `json:"symbol"`
	CurrentPrice     float64        `json:"current_price"`
	Readings         []TimeframeRSI `json:"rsi_by_timeframe"`
	OverallRSI       float64        `json:"overall_rsi"`
	OverallStatus    string         `json:"overall_status"`
	Explanation      string         `json:"overall_explanation"`
	Insight          string         `json:"insight"`
	FailedTimeframes []string       `json:"failed_timeframes"`
	Error            string         `json:"error,omitempty"`
}

// DivergencePoint is one matched pivot inside a divergence, indexed in candle
// space.
type DivergencePoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// Divergence describes a regular bullish or bearish price/RSI divergence
// candidate. The same shape serves confirmed divergences and best candidates
// that failed the confirmation thresholds.
type Divergence struct {
	Type          string             `json:"type"`
	PricePoints   [2]DivergencePoint `json:"price_points"`
	RSIPoints     [2]DivergencePoint `json:"rsi_points"`
	PriceDeltaPct float64            `json:"price_delta_pct"`
	RSIDelta      float64            `json:"rsi_delta"`
	BarsApart     int                `json:"bars_apart"`
}

// PivotMetadata reports how many pivots fed a divergence scan, for caller
// transparency when no signal is found.
type PivotMetadata struct {
	PriceHighs int `json:"price_highs"`
	PriceLows  int `json:"price_lows"`
	RSIHighs   int `json:"rsi_highs"`
	RSILows    int `json:"rsi_lows"`
}

// DivergenceThresholds echoes the confirmation parameters a scan ran with.
type DivergenceThresholds struct {
	MinPriceDeltaPct   float64 `json:"min_price_delta_pct"`
	MinRSIDelta        float64 `json:"min_rsi_delta"`
	MaxAgeBars         int     `json:"max_age_bars"`
	MinBarsApart       int     `json:"min_bars_apart"`
	MatchToleranceBars int     `json:"match_tolerance_bars"`
}

// DivergenceScanResult is the structured output of one divergence scan.
// Reason always explains the outcome, including why nothing was confirmed.
// Hidden divergence types are not implemented and flagged as such.
type DivergenceScanResult struct {
	Symbol           string               `json:"symbol"`
	Timeframe        string               `json:"timeframe"`
	CurrentPrice     float64              `json:"current_price"`
	CurrentRSI       float64              `json:"current_rsi"`
	HasDivergence    bool                 `json:"has_divergence"`
	Divergence       *Divergence          `json:"divergence,omitempty"`
	BestCandidate    *Divergence          `json:"best_candidate,omitempty"`
	HiddenSupported  bool                 `json:"hidden_supported"`
	PivotMetadata    PivotMetadata        `json:"pivot_metadata"`
	Thresholds       DivergenceThresholds `json:"thresholds"`
	Confidence       string               `json:"confidence,omitempty"`
	ConfidenceReason string               `json:"confidence_reason,omitempty"`
	Reason           string               `json:"reason"`
	Error            string               `json:"error,omitempty"`
}
