package models

import (
	"context"
	"time"
)

// CandleSource supplies OHLCV history for a symbol and timeframe, oldest
// first. An empty slice means "no data" and is not an error; errors are
// reserved for transport-level faults.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error)
}

// Cache memoizes analysis results under a TTL. On a miss the compute function
// runs and its value is stored; on a hit dest is populated from the stored
// entry. Concurrent callers may briefly duplicate one computation per TTL
// window; strict single-flight is not required.
type Cache interface {
	GetOrCompute(key string, ttl time.Duration, dest any, compute func() (any, error)) error
}
