package main

import (
	"context"
	"os"
	"os/signal"
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
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting MarketLens bot")

	if cfg.TelegramToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	memCache, err := cache.NewMemory()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache")
	}
	defer memCache.Close()

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

	tgBot, err := bot.New(cfg.TelegramToken, service)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}

	if err := tgBot.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("Bot stopped")
	}
	log.Info().Msg("Bot stopped")
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
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
