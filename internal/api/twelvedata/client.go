package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "marketlens/internal/platform/http"
	"marketlens/models"
)

const baseURL = "https://api.twelvedata.com/time_series"

// intervalMap translates engine timeframes to Twelve Data interval names.
// Timeframes the API does not serve are simply absent; requesting one yields
// an empty candle slice, which the engine records as a failed timeframe.
// There is no synthetic fallback: missing history is reported, not invented.
var intervalMap = map[string]string{
	"5m":  "5min",
	"15m": "15min",
	"1h":  "1h",
	"4h":  "4h",
	"1d":  "1day",
	"1w":  "1week",
}

// Client fetches forex and stock candles from Twelve Data through the shared
// rate-limited retrying HTTP client.
type Client struct {
	http   *platformhttp.Client
	apiKey string
	logger zerolog.Logger
}

// timeSeriesResponse is the wire shape of the time_series endpoint.
type timeSeriesResponse struct {
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   float64 `json:"volume,string,omitempty"`
	} `json:"values"`
	Status string `json:"status"`
}

// New creates a Twelve Data candle source.
func New(apiKey string, httpClient *platformhttp.Client) *Client {
	return &Client{
		http:   httpClient,
		apiKey: apiKey,
		logger: log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// GetCandles returns up to limit candles, oldest first. API-level errors and
// unsupported intervals produce an empty slice with no error, matching the
// source contract that only transport faults are errors.
func (c *Client) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	interval, ok := intervalMap[timeframe]
	if !ok {
		c.logger.Debug().Str("timeframe", timeframe).Msg("Timeframe not served by Twelve Data")
		return nil, nil
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("outputsize", fmt.Sprint(limit))
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("twelvedata request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if data.Status == "error" || len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", symbol).Str("interval", interval).Msg("No candles in response")
		return nil, nil
	}

	// Sort candles by datetime (oldest first for proper calculations)
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	candles := make([]models.Candle, 0, len(data.Values))
	for _, v := range data.Values {
		openTime, _ := time.Parse("2006-01-02 15:04:05", v.Datetime)
		if openTime.IsZero() {
			openTime, _ = time.Parse("2006-01-02", v.Datetime)
		}
		candles = append(candles, models.Candle{
			OpenTime: openTime,
			Open:     v.Open,
			High:     v.High,
			Low:      v.Low,
			Close:    v.Close,
			Volume:   v.Volume,
		})
	}

	c.logger.Debug().Str("symbol", symbol).Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}
