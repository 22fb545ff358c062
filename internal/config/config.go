package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"MarketLens/internal/calculator"
	"MarketLens/internal/collector"
	"MarketLens/internal/strategy"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DataSource struct {
		BaseURL string `yaml:"base_url"` // empty selects Yahoo Finance
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Watchlist struct {
		Symbols  []string `yaml:"symbols"`
		Range    string   `yaml:"range"`
		Interval string   `yaml:"interval"`
	} `yaml:"watchlist"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Advice struct {
		Engine string `yaml:"engine"` // "trend" or "factor"
	} `yaml:"advice"`
	Indicators calculator.Params `yaml:"indicators"`
	OpenAI     struct {
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"openai"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file and a .env file next to the working
// directory, then applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the process environment.
	_ = godotenv.Load()

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("MARKETLENS_ADDR", &cfg.Server.Addr)
	str("DATA_SOURCE_BASE_URL", &cfg.DataSource.BaseURL)
	str("DATA_SOURCE_API_KEY", &cfg.DataSource.APIKey)
	str("WATCHLIST_RANGE", &cfg.Watchlist.Range)
	str("WATCHLIST_INTERVAL", &cfg.Watchlist.Interval)
	str("CRON_SCAN", &cfg.Schedule.ScanCron)
	str("ADVICE_ENGINE", &cfg.Advice.Engine)
	str("OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	str("OPENAI_MODEL", &cfg.OpenAI.Model)
	str("OPENAI_BASE_URL", &cfg.OpenAI.BaseURL)
	str("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	str("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	str("SQLITE_PATH", &cfg.Database.SQLitePath)
	str("HTTPS_PROXY", &cfg.Proxy)

	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Watchlist.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("RSI_PERIOD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indicators.RSIPeriod = n
		}
	}
	if v := os.Getenv("BB_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Indicators.BBMultiplier = f
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if len(cfg.Watchlist.Symbols) == 0 {
		cfg.Watchlist.Symbols = []string{"AAPL", "MSFT", "NVDA"}
	}
	cfg.Watchlist.Symbols = splitSymbols(strings.Join(cfg.Watchlist.Symbols, ","))
	if cfg.Watchlist.Range == "" {
		cfg.Watchlist.Range = "3mo"
	}
	if cfg.Watchlist.Interval == "" {
		cfg.Watchlist.Interval = collector.DefaultInterval
	}
	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 30 16 * * 1-5"
	}
	if cfg.Advice.Engine == "" {
		cfg.Advice.Engine = "trend"
	}
	cfg.Indicators = cfg.Indicators.WithDefaults()
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/marketlens.db"
	}
}

// splitSymbols upper-cases, trims and de-duplicates a comma separated list.
func splitSymbols(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(s, ",") {
		sym := strings.ToUpper(strings.TrimSpace(part))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	if _, _, err := collector.NormalizeWindow(c.Watchlist.Range, c.Watchlist.Interval); err != nil {
		return fmt.Errorf("watchlist: %w", err)
	}
	if _, err := strategy.New(c.Advice.Engine); err != nil {
		return fmt.Errorf("advice: %w", err)
	}
	p := c.Indicators
	if p.RSIPeriod <= 0 || p.BBPeriod <= 0 || p.MACDFast <= 0 || p.MACDSlow <= 0 || p.MACDSignal <= 0 {
		return fmt.Errorf("indicators: periods must be positive")
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("indicators: macd_fast (%d) must be below macd_slow (%d)", p.MACDFast, p.MACDSlow)
	}
	if p.BBMultiplier <= 0 {
		return fmt.Errorf("indicators: bb_multiplier must be positive")
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Schedule.ScanCron); err != nil {
		return fmt.Errorf("schedule.scan_cron: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
