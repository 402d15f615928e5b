package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goBinance "github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketlens/models"
)

// Client fetches spot klines from Binance and adapts them to the candle
// source port. Crypto symbols use Binance's native interval strings, which
// match the timeframe names used across the engine ("5m", "1h", "4h", "1d").
type Client struct {
	api    *goBinance.Client
	logger zerolog.Logger
}

// New creates a Binance candle source. Keys may be empty: kline endpoints
// are public.
func New(apiKey, secretKey string) *Client {
	return &Client{
		api:    goBinance.NewClient(apiKey, secretKey),
		logger: log.With().Str("component", "binance_client").Logger(),
	}
}

// GetCandles returns up to limit klines for symbol at the given timeframe,
// oldest first. An unknown symbol yields an empty slice via the API's empty
// response; transport failures surface as errors.
func (c *Client) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	klines, err := c.api.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", symbol, timeframe, err)
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := parseKline(k)
		if err != nil {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Skipping malformed kline")
			continue
		}
		candles = append(candles, candle)
	}

	c.logger.Debug().Str("symbol", symbol).Str("timeframe", timeframe).Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}

func parseKline(k *goBinance.Kline) (models.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parsing open: %w", err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parsing high: %w", err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parsing low: %w", err)
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parsing close: %w", err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parsing volume: %w", err)
	}

	return models.Candle{
		OpenTime: time.UnixMilli(k.OpenTime),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
	}, nil
}
