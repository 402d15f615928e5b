package bot

import (
	"fmt"
	"strings"

	"marketlens/models"
)

// Formatting renders the engine's structured results into Telegram HTML.
// All signal wording comes from the results themselves; this layer only lays
// it out.

func formatPrice(price float64) string {
	switch {
	case price >= 1000:
		return fmt.Sprintf("%.2f", price)
	case price >= 1:
		return fmt.Sprintf("%.4f", price)
	default:
		return fmt.Sprintf("%.6f", price)
	}
}

// FormatSupportResistance renders a support/resistance analysis.
func FormatSupportResistance(result *models.SupportResistanceResult) string {
	if result.Error != "" {
		return fmt.Sprintf("⚠️ <b>%s</b>\n%s", result.Symbol, result.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%s — Key Levels</b>\n", result.Symbol)
	fmt.Fprintf(&b, "Price: <code>%s</code>\n\n", formatPrice(result.CurrentPrice))

	if result.NearestResistance != nil {
		fmt.Fprintf(&b, "🔴 Nearest resistance: <code>%s</code>%s\n",
			formatPrice(result.NearestResistance.Price), confluenceTag(*result.NearestResistance))
	}
	if result.NearestSupport != nil {
		fmt.Fprintf(&b, "🟢 Nearest support: <code>%s</code>%s\n",
			formatPrice(result.NearestSupport.Price), confluenceTag(*result.NearestSupport))
	}

	if len(result.ConfluentLevels) > 0 {
		b.WriteString("\n<b>Confluent levels</b>\n")
		for _, level := range result.ConfluentLevels {
			fmt.Fprintf(&b, "• <code>%s</code> — %d timeframes (%s)\n",
				formatPrice(level.Price), level.Confluence, strings.Join(level.Timeframes, ", "))
		}
	}

	if len(result.MacroSupports) > 0 || len(result.MacroResistances) > 0 {
		b.WriteString("\n<b>Macro levels</b>\n")
		for _, level := range result.MacroResistances {
			fmt.Fprintf(&b, "▫️ R <code>%s</code>\n", formatPrice(level.Price))
		}
		for _, level := range result.MacroSupports {
			fmt.Fprintf(&b, "▪️ S <code>%s</code>\n", formatPrice(level.Price))
		}
	}

	if len(result.FailedTimeframes) > 0 {
		fmt.Fprintf(&b, "\n<i>No data: %s</i>\n", strings.Join(result.FailedTimeframes, ", "))
	}
	return b.String()
}

func confluenceTag(level models.Level) string {
	if !level.Confluent {
		return ""
	}
	return fmt.Sprintf(" ⭐ x%d", level.Confluence)
}

func statusEmoji(status string) string {
	switch status {
	case "Oversold":
		return "🟢"
	case "Overbought":
		return "🔴"
	default:
		return "⚪️"
	}
}

// FormatRSI renders a multi-timeframe RSI heatmap.
func FormatRSI(result *models.RSIMultiTimeframeResult) string {
	if result.Error != "" {
		return fmt.Sprintf("⚠️ <b>%s</b>\n%s", result.Symbol, result.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📈 <b>%s — RSI Heatmap</b>\n", result.Symbol)
	fmt.Fprintf(&b, "Price: <code>%s</code>\n\n", formatPrice(result.CurrentPrice))

	for _, reading := range result.Readings {
		fmt.Fprintf(&b, "%s %s: <code>%.1f</code> (%s)\n",
			statusEmoji(reading.Status), reading.Timeframe, reading.RSI, reading.Status)
	}

	fmt.Fprintf(&b, "\n<b>Weighted RSI: %.1f (%s)</b>\n", result.OverallRSI, result.OverallStatus)
	fmt.Fprintf(&b, "%s\n", result.Explanation)
	if result.Insight != "" {
		fmt.Fprintf(&b, "\n💡 %s\n", result.Insight)
	}
	if len(result.FailedTimeframes) > 0 {
		fmt.Fprintf(&b, "\n<i>No data: %s</i>\n", strings.Join(result.FailedTimeframes, ", "))
	}
	return b.String()
}

// FormatDivergence renders a divergence scan.
func FormatDivergence(result *models.DivergenceScanResult) string {
	if result.Error != "" {
		return fmt.Sprintf("⚠️ <b>%s</b>\n%s", result.Symbol, result.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 <b>%s — Divergence (%s)</b>\n", result.Symbol, result.Timeframe)
	fmt.Fprintf(&b, "Price: <code>%s</code> | RSI: <code>%.1f</code>\n\n", formatPrice(result.CurrentPrice), result.CurrentRSI)

	switch {
	case result.HasDivergence:
		d := result.Divergence
		fmt.Fprintf(&b, "🚨 <b>%s</b>\n", d.Type)
		fmt.Fprintf(&b, "Price: <code>%s</code> → <code>%s</code> (%+.2f%%)\n",
			formatPrice(d.PricePoints[0].Value), formatPrice(d.PricePoints[1].Value), d.PriceDeltaPct)
		fmt.Fprintf(&b, "RSI: <code>%.1f</code> → <code>%.1f</code> (%+.1f)\n",
			d.RSIPoints[0].Value, d.RSIPoints[1].Value, d.RSIDelta)
		fmt.Fprintf(&b, "Confidence: <b>%s</b> (%s)\n", result.Confidence, result.ConfidenceReason)
	case result.BestCandidate != nil:
		d := result.BestCandidate
		fmt.Fprintf(&b, "👀 Unconfirmed candidate: %s\n", d.Type)
		fmt.Fprintf(&b, "%s\n", result.Reason)
	default:
		fmt.Fprintf(&b, "No divergence found.\n%s\n", result.Reason)
	}

	fmt.Fprintf(&b, "\n<i>Pivots: %d price lows, %d price highs</i>\n",
		result.PivotMetadata.PriceLows, result.PivotMetadata.PriceHighs)
	return b.String()
}
