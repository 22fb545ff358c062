package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"MarketLens/internal/analysis"
	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/strategy"

	"github.com/spf13/cobra"
)

var (
	analyzeRange    string
	analyzeInterval string
	analyzeEngine   string
	analyzeJSON     bool
	analyzeAI       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <symbol>",
	Short: "Compute indicators and advice for one symbol",
	Example: `  marketlens analyze AAPL
  marketlens analyze ^GSPC --range 1y --engine factor
  marketlens analyze MSFT --json --ai`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeRange, "range", "r", "", "history range (1d, 5d, 1mo, 3mo, 6mo, 1y, 5y)")
	analyzeCmd.Flags().StringVarP(&analyzeInterval, "interval", "i", "", "bar interval (1m, 5m, 15m, 1h, 1d, 1wk)")
	analyzeCmd.Flags().StringVarP(&analyzeEngine, "engine", "e", "", "advice engine (trend, factor); defaults to config")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the latest indicator snapshot and advice as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeAI, "ai", false, "also ask the configured OpenAI model for an opinion")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine := cfg.Advice.Engine
	if analyzeEngine != "" {
		engine = analyzeEngine
	}
	advisor, err := strategy.New(engine)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	col := collector.NewCollector(newFetcher(cfg), cfg.Indicators, advisor, nil)
	rep, err := col.Collect(ctx, args[0], analyzeRange, analyzeInterval)
	if err != nil {
		return err
	}

	var opinion *analysis.Result
	if analyzeAI {
		an := analysis.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
		indicators, err := json.Marshal(rep.Indicators.Latest())
		if err != nil {
			return fmt.Errorf("encode indicators: %w", err)
		}
		price := rep.Quote.Price
		opinion, err = an.Analyze(ctx, analysis.Request{Symbol: rep.Symbol, Price: &price, Indicators: indicators})
		if err != nil {
			return fmt.Errorf("ai analysis: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Symbol   string               `json:"symbol"`
			Quote    *model.Quote         `json:"quote"`
			Latest   model.Snapshot       `json:"latest"`
			Advice   model.Recommendation `json:"advice"`
			Analysis *analysis.Result     `json:"analysis,omitempty"`
		}{rep.Symbol, rep.Quote, rep.Indicators.Latest(), rep.Advice, opinion})
	}
	printReport(out, rep, opinion)
	return nil
}

func printReport(w io.Writer, rep *model.Report, opinion *analysis.Result) {
	val := func(v model.Value) string {
		if f, ok := v.Float(); ok {
			return fmt.Sprintf("%.2f", f)
		}
		return "-"
	}
	latest := rep.Indicators.Latest()

	fmt.Fprintf(w, "%s  %s/%s  (%d bars)\n", rep.Symbol, rep.Range, rep.Interval, rep.Bars.Len())
	if q := rep.Quote; q != nil {
		fmt.Fprintf(w, "  Price      %.2f (%+.2f%%)  52w %.2f - %.2f\n", q.Price, q.ChangePercent, q.Low52w, q.High52w)
	}
	fmt.Fprintf(w, "  EMA        fast %s  slow %s\n", val(latest.EMAFast), val(latest.EMASlow))
	fmt.Fprintf(w, "  RSI        %s\n", val(latest.RSI))
	fmt.Fprintf(w, "  Bollinger  %s / %s / %s\n", val(latest.BBLower), val(latest.BBMiddle), val(latest.BBUpper))
	fmt.Fprintf(w, "  MACD       line %s  signal %s  hist %s\n", val(latest.MACDLine), val(latest.MACDSignal), val(latest.MACDHist))
	fmt.Fprintf(w, "  Advice     %s (%d, %s) %s\n", rep.Advice.Action, rep.Advice.Score, rep.Engine, rep.Advice.Reason)
	for _, f := range rep.Advice.Factors {
		fmt.Fprintf(w, "    %-10s %+.2f x %.2f = %+.3f  %s\n", f.Name, f.RawScore, f.Weight, f.Weighted, f.Commentary)
	}
	if opinion != nil {
		fmt.Fprintf(w, "  AI         %s (confidence %.0f) %s\n", opinion.Recommendation, opinion.Confidence, opinion.Reasoning)
	}
}
