package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"MarketLens/internal/model"
)

func actionIcon(a model.Action) string {
	switch a {
	case model.ActionBuy:
		return "🟢"
	case model.ActionSell:
		return "🔴"
	default:
		return "⚪"
	}
}

func formatValue(v model.Value) string {
	if f, ok := v.Float(); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return "n/a"
}

// FormatAdvice renders a single report as a Telegram HTML message.
func FormatAdvice(r *model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s %s\n\n", html.EscapeString(r.Symbol), r.Range, r.Interval))

	if q := r.Quote; q != nil {
		b.WriteString(fmt.Sprintf("Price: %.2f %s (%+.2f, %+.2f%%)\n", q.Price, q.Currency, q.Change, q.ChangePercent))
		if q.High52w > 0 && q.Low52w > 0 {
			b.WriteString(fmt.Sprintf("52w: %.2f - %.2f (position %.0f%%)\n", q.Low52w, q.High52w, q.Position52w*100))
		}
	}

	latest := r.Indicators.Latest()
	b.WriteString(fmt.Sprintf("RSI: %s | MACD hist: %s\n", formatValue(latest.RSI), formatValue(latest.MACDHist)))
	b.WriteString(fmt.Sprintf("BB: %s / %s / %s\n\n", formatValue(latest.BBLower), formatValue(latest.BBMiddle), formatValue(latest.BBUpper)))

	b.WriteString(fmt.Sprintf("%s <b>%s</b> (score %d, %s)\n", actionIcon(r.Advice.Action), r.Advice.Action, r.Advice.Score, r.Engine))
	b.WriteString(html.EscapeString(r.Advice.Reason))
	b.WriteString("\n")

	for _, f := range r.Advice.Factors {
		b.WriteString(fmt.Sprintf("  %s(%s): %+.2f (×%.2f) = %+.3f\n",
			f.Name, html.EscapeString(f.Commentary), f.RawScore, f.Weight, f.Weighted))
	}
	return b.String()
}

// FormatActionChange announces that a symbol's recommendation flipped since the last scan.
func FormatActionChange(prev model.Action, r *model.Report) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>%s</b>: %s %s → %s %s\n\n",
		html.EscapeString(r.Symbol), actionIcon(prev), prev, actionIcon(r.Advice.Action), r.Advice.Action))
	b.WriteString(FormatAdvice(r))
	return b.String()
}

// FormatScanSummary lists one line per scanned symbol plus any failures.
func FormatScanSummary(reports []*model.Report, failed []string, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Watchlist scan</b> | %s\n\n", at.Format("2006-01-02 15:04")))
	if len(reports) == 0 && len(failed) == 0 {
		b.WriteString("Watchlist is empty.\n")
		return b.String()
	}
	for _, r := range reports {
		price := "n/a"
		if r.Quote != nil {
			price = fmt.Sprintf("%.2f", r.Quote.Price)
		}
		b.WriteString(fmt.Sprintf("%s %-6s %s  %s (%d)\n",
			actionIcon(r.Advice.Action), html.EscapeString(r.Symbol), price, r.Advice.Action, r.Advice.Score))
	}
	if len(failed) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ failed: %s\n", html.EscapeString(strings.Join(failed, ", "))))
	}
	return b.String()
}
