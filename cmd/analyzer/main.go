package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketlens/internal/analyze"
	"marketlens/internal/api/binance"
	"marketlens/internal/api/twelvedata"
	"marketlens/internal/bot"
	"marketlens/internal/cache"
	"marketlens/internal/config"
	"marketlens/internal/marketdata"
	platformhttp "marketlens/internal/platform/http"
	"marketlens/models"
)

func main() {
	symbol := flag.String("symbol", "BTCUSDT", "symbol to analyze, e.g. BTCUSDT, EUR/USD, AAPL")
	market := flag.String("market", "", "market type override: crypto, forex or stock (inferred from the symbol when empty)")
	timeframe := flag.String("timeframe", "1h", "timeframe for the divergence scan")
	macro := flag.Bool("macro", false, "include macro levels in the support/resistance output")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)

	sym := strings.ToUpper(strings.TrimSpace(*symbol))
	marketType := resolveMarket(*market, sym)

	log.Info().Str("symbol", sym).Str("market", string(marketType)).Msg("Starting analysis")

	service, cleanup := buildService(cfg)
	defer cleanup()

	sr := service.SupportResistance(ctx, sym, marketType, *macro)
	printSupportResistance(sr)

	rsi := service.RSIMultiTimeframe(ctx, sym, marketType)
	printRSI(rsi)

	div := service.DivergenceScan(ctx, sym, marketType, *timeframe)
	printDivergence(div)
}

func buildService(cfg *config.Config) (*analyze.Service, func()) {
	memCache, err := cache.NewMemory()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache")
	}

	httpClient := platformhttp.NewClient(platformhttp.ClientOptions{
		Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})
	router := marketdata.NewRouter(
		binance.New(cfg.BinanceAPIKey, cfg.BinanceSecretKey),
		twelvedata.New(cfg.TwelveAPIKey, httpClient),
	)

	service := analyze.New(router, memCache, analyze.Options{
		RSIPeriod:           cfg.RSIPeriod,
		PivotWindow:         cfg.PivotWindow,
		ClusterTolerancePct: cfg.ClusterTolerancePct,
		ActiveBandPct:       cfg.ActiveBandPct,
		DivergenceLookback:  cfg.DivergenceLookback,
		CacheTTL:            time.Duration(cfg.CacheTTLSeconds) * time.Second,
	})
	return service, func() { memCache.Close() }
}

func resolveMarket(override, symbol string) models.MarketType {
	switch strings.ToLower(override) {
	case "crypto":
		return models.MarketCrypto
	case "forex":
		return models.MarketForex
	case "stock":
		return models.MarketStock
	case "":
		return bot.MarketTypeFor(symbol)
	default:
		log.Fatal().Str("market", override).Msg("Unknown market type, use crypto, forex or stock")
		return models.MarketStock
	}
}

func printSupportResistance(result *models.SupportResistanceResult) {
	fmt.Println("\n===== SUPPORT / RESISTANCE =====")
	if result.Error != "" {
		fmt.Printf("Error: %s\n", result.Error)
		return
	}

	fmt.Printf("Current Price: %.5f\n", result.CurrentPrice)
	if result.NearestResistance != nil {
		fmt.Printf("Nearest Resistance: %.5f (confluence %d: %s)\n",
			result.NearestResistance.Price, result.NearestResistance.Confluence,
			strings.Join(result.NearestResistance.Timeframes, ", "))
	}
	if result.NearestSupport != nil {
		fmt.Printf("Nearest Support: %.5f (confluence %d: %s)\n",
			result.NearestSupport.Price, result.NearestSupport.Confluence,
			strings.Join(result.NearestSupport.Timeframes, ", "))
	}

	if len(result.ConfluentLevels) > 0 {
		fmt.Println("\nConfluent Levels:")
		for _, level := range result.ConfluentLevels {
			fmt.Printf("  %-10s %.5f  x%d (%s)\n",
				level.Type, level.Price, level.Confluence, strings.Join(level.Timeframes, ", "))
		}
	}

	if len(result.MacroResistances) > 0 || len(result.MacroSupports) > 0 {
		fmt.Println("\nMacro Levels:")
		for _, level := range result.MacroResistances {
			fmt.Printf("  R %.5f\n", level.Price)
		}
		for _, level := range result.MacroSupports {
			fmt.Printf("  S %.5f\n", level.Price)
		}
	}

	if len(result.FailedTimeframes) > 0 {
		fmt.Printf("\nNo data for: %s\n", strings.Join(result.FailedTimeframes, ", "))
	}
}

func printRSI(result *models.RSIMultiTimeframeResult) {
	fmt.Println("\n===== MULTI-TIMEFRAME RSI =====")
	if result.Error != "" {
		fmt.Printf("Error: %s\n", result.Error)
		return
	}

	for _, reading := range result.Readings {
		fmt.Printf("  %-4s RSI %.1f (%s, weight %.2f)\n",
			reading.Timeframe, reading.RSI, reading.Status, reading.Weight)
	}
	fmt.Printf("\nWeighted RSI: %.1f (%s)\n", result.OverallRSI, result.OverallStatus)
	fmt.Println(result.Explanation)
	if result.Insight != "" {
		fmt.Println(result.Insight)
	}
	if len(result.FailedTimeframes) > 0 {
		fmt.Printf("No data for: %s\n", strings.Join(result.FailedTimeframes, ", "))
	}
}

func printDivergence(result *models.DivergenceScanResult) {
	fmt.Println("\n===== DIVERGENCE SCAN =====")
	if result.Error != "" {
		fmt.Printf("Error: %s\n", result.Error)
		return
	}

	fmt.Printf("Timeframe: %s | Price: %.5f | RSI: %.1f\n",
		result.Timeframe, result.CurrentPrice, result.CurrentRSI)

	switch {
	case result.HasDivergence:
		d := result.Divergence
		fmt.Printf("\n%s\n", d.Type)
		fmt.Printf("Price: %.5f -> %.5f (%+.2f%%)\n",
			d.PricePoints[0].Value, d.PricePoints[1].Value, d.PriceDeltaPct)
		fmt.Printf("RSI: %.1f -> %.1f (%+.1f)\n",
			d.RSIPoints[0].Value, d.RSIPoints[1].Value, d.RSIDelta)
		fmt.Printf("Confidence: %s (%s)\n", result.Confidence, result.ConfidenceReason)
	case result.BestCandidate != nil:
		fmt.Printf("\nUnconfirmed candidate: %s\n", result.BestCandidate.Type)
		fmt.Println(result.Reason)
	default:
		fmt.Printf("\nNo divergence found.\n%s\n", result.Reason)
	}

	fmt.Printf("\nPivots: %d price lows, %d price highs, %d RSI lows, %d RSI highs\n",
		result.PivotMetadata.PriceLows, result.PivotMetadata.PriceHighs,
		result.PivotMetadata.RSILows, result.PivotMetadata.RSIHighs)
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
		os.Exit(0)
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}
