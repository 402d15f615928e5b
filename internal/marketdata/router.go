package marketdata

import (
	"context"

	"marketlens/models"
)

// Router selects a candle source per market type: crypto symbols come from
// Binance, forex and stocks from Twelve Data.
type Router struct {
	crypto     models.CandleSource
	forexStock models.CandleSource
}

// NewRouter wires the per-market sources.
func NewRouter(crypto, forexStock models.CandleSource) *Router {
	return &Router{crypto: crypto, forexStock: forexStock}
}

// Source returns the candle source backing the given market type.
func (r *Router) Source(market models.MarketType) models.CandleSource {
	if market == models.MarketCrypto {
		return r.crypto
	}
	return r.forexStock
}

// MarketSource binds a router to one market type so consumers that expect a
// plain candle source (the RSI aggregator, for one) can use the right feed
// without knowing about routing.
type MarketSource struct {
	router *Router
	market models.MarketType
}

// Bind fixes the market type of a router-backed source.
func (r *Router) Bind(market models.MarketType) *MarketSource {
	return &MarketSource{router: r, market: market}
}

// GetCandles implements models.CandleSource.
func (s *MarketSource) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	return s.router.Source(s.market).GetCandles(ctx, symbol, timeframe, limit)
}
