package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketlens/internal/analyze"
	"marketlens/models"
)

var supportedDivTimeframes = map[string]bool{
	"5m": true, "15m": true, "1h": true, "4h": true, "1d": true,
}

// Bot dispatches Telegram commands to the analysis service and renders the
// structured results. It holds no analysis state of its own.
type Bot struct {
	api     *tgbotapi.BotAPI
	service *analyze.Service
	logger  zerolog.Logger
}

// New connects to the Telegram API.
func New(token string, service *analyze.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	return &Bot{
		api:     api,
		service: service,
		logger:  log.With().Str("component", "bot").Logger(),
	}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info().Str("username", b.api.Self.UserName).Msg("Bot started")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())

	var text string
	switch msg.Command() {
	case "start", "help":
		text = helpText
	case "sr":
		text = b.handleSupportResistance(ctx, args, false)
	case "srmacro":
		text = b.handleSupportResistance(ctx, args, true)
	case "rsi":
		text = b.handleRSI(ctx, args)
	case "div":
		text = b.handleDivergence(ctx, args)
	default:
		text = "Unknown command. Try /help."
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send message")
	}
}

func (b *Bot) handleSupportResistance(ctx context.Context, args []string, macro bool) string {
	if len(args) < 1 {
		return "Usage: /sr SYMBOL — e.g. /sr BTCUSDT or /sr EUR/USD"
	}
	symbol := normalizeSymbol(args[0])
	return FormatSupportResistance(b.service.SupportResistance(ctx, symbol, MarketTypeFor(symbol), macro))
}

func (b *Bot) handleRSI(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return "Usage: /rsi SYMBOL — e.g. /rsi ETHUSDT"
	}
	symbol := normalizeSymbol(args[0])
	return FormatRSI(b.service.RSIMultiTimeframe(ctx, symbol, MarketTypeFor(symbol)))
}

func (b *Bot) handleDivergence(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return "Usage: /div SYMBOL [TIMEFRAME] — e.g. /div BTCUSDT 4h"
	}
	symbol := normalizeSymbol(args[0])
	timeframe := "1h"
	if len(args) > 1 {
		timeframe = strings.ToLower(args[1])
		if !supportedDivTimeframes[timeframe] {
			return fmt.Sprintf("Unsupported timeframe %q. Use one of: 5m, 15m, 1h, 4h, 1d.", timeframe)
		}
	}
	return FormatDivergence(b.service.DivergenceScan(ctx, symbol, MarketTypeFor(symbol), timeframe))
}

func normalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// MarketTypeFor infers the market type from the symbol's shape: slash pairs
// trade forex, known quote-asset suffixes trade crypto, everything else is a
// stock ticker.
func MarketTypeFor(symbol string) models.MarketType {
	if strings.Contains(symbol, "/") {
		return models.MarketForex
	}
	for _, quote := range []string{"USDT", "USDC", "BUSD", "BTC", "ETH"} {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			return models.MarketCrypto
		}
	}
	return models.MarketStock
}

const helpText = `<b>MarketLens</b> — technical structure assistant

/sr SYMBOL — support/resistance levels with timeframe confluence
/srmacro SYMBOL — same, including far macro levels
/rsi SYMBOL — weighted multi-timeframe RSI heatmap
/div SYMBOL [TF] — RSI/price divergence scan (default 1h)

Symbols: BTCUSDT (crypto), EUR/USD (forex), AAPL (stock).`
