package cmd

import (
	"fmt"
	"log"
	"os"

	"MarketLens/internal/collector"
	"MarketLens/internal/config"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "marketlens",
	Short: "Market dashboard backend: quotes, technical indicators and trade advice",
	Long: `MarketLens fetches quotes and price history, computes SMA, EMA, RSI,
Bollinger Bands and MACD, and reduces them to a BUY / SELL / HOLD recommendation.

It can serve the dashboard JSON API, scan a watchlist on a schedule and push
changes to Telegram, or analyze a single symbol from the command line.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", def, "path to YAML config file")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// newFetcher picks the self-hosted bar service when configured, else Yahoo.
func newFetcher(cfg *config.Config) collector.Fetcher {
	if cfg.DataSource.BaseURL != "" {
		return collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	return collector.NewYahooFetcher(cfg.Proxy)
}
