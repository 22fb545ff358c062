package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"MarketLens/internal/analysis"
	"MarketLens/internal/api"
	"MarketLens/internal/collector"
	"MarketLens/internal/metrics"
	"MarketLens/internal/notifier"
	"MarketLens/internal/recorder"
	"MarketLens/internal/scheduler"
	"MarketLens/internal/strategy"

	"github.com/spf13/cobra"
)

var (
	serveAddr   string
	serveNoScan bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API and run the watchlist scanner",
	Long: `Start the HTTP API (stock detail, quotes, market overview, AI analysis,
health and Prometheus metrics) together with the cron watchlist scan and the
Telegram command listener.

Set RUN_ON_START=true to scan the watchlist once at startup.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveNoScan, "no-scan", false, "disable the scheduled watchlist scan")
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("[INFO] MarketLens starting...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	fetcher := newFetcher(cfg)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	advisor, err := strategy.New(cfg.Advice.Engine)
	if err != nil {
		return err
	}
	m := metrics.New()
	col := collector.NewCollector(fetcher, cfg.Indicators, advisor, m)

	analyzer := analysis.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	if analyzer == nil {
		log.Println("[WARN] OPENAI_API_KEY not set, /api/ai-analysis disabled")
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, col, tn, rec, m)
	sched.Watchlist = cfg.Watchlist.Symbols
	sched.Range = cfg.Watchlist.Range
	sched.Interval = cfg.Watchlist.Interval

	if !serveNoScan {
		if err := sched.RegisterAll(cfg.Schedule.ScanCron); err != nil {
			return fmt.Errorf("register cron tasks: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		log.Printf("[INFO] watchlist %v scanned on %q", cfg.Watchlist.Symbols, cfg.Schedule.ScanCron)
	}

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	} else {
		log.Println("[WARN] Telegram not configured, alerts are logged only")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, scanning watchlist now")
		go sched.ScanNow()
	}

	srv := api.NewServer(col, analyzer, m, fetcher.Name())
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		return err
	}
	log.Println("[INFO] MarketLens stopped")
	return nil
}
