package scheduler

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
	"MarketLens/internal/notifier"
	"MarketLens/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Reporter produces a full report for one symbol. *collector.Collector satisfies it.
type Reporter interface {
	Collect(ctx context.Context, symbol, rng, interval string) (*model.Report, error)
}

// Sender delivers alert text. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// ScanResult summarizes one pass over the watchlist.
type ScanResult struct {
	Reports []*model.Report
	Failed  []string
	Changes int
	At      time.Time
}

// Scheduler runs the periodic watchlist scan and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector Reporter
	Notifier  Sender
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Watchlist []string
	Range     string
	Interval  string
	Ctx       context.Context

	scanMu sync.Mutex
}

// NewScheduler creates a new Scheduler. A nil recorder disables change detection.
func NewScheduler(ctx context.Context, col Reporter, sender Sender, rec recorder.Recorder, m *metrics.Metrics) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  sender,
		Recorder:  rec,
		Metrics:   m,
		Ctx:       ctx,
	}
}

// RegisterAll registers the watchlist scan.
func (s *Scheduler) RegisterAll(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// ScanNow runs a scan immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) ScanNow() *ScanResult {
	return s.Scan(s.Ctx)
}

func (s *Scheduler) scanTask() {
	res := s.Scan(s.Ctx)
	if len(res.Failed) > 0 && len(res.Reports) == 0 {
		s.trySend(fmt.Sprintf("❌ watchlist scan failed for every symbol: %s", strings.Join(res.Failed, ", ")))
	}
}

// Scan collects every watchlist symbol, records the advice and alerts when a
// symbol's action differs from the one recorded on the previous scan.
// Degraded reports count as failures. Concurrent calls are serialized.
func (s *Scheduler) Scan(ctx context.Context) *ScanResult {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	log.Printf("[INFO] scanning %d symbols (%s/%s)", len(s.Watchlist), s.Range, s.Interval)
	res := &ScanResult{At: time.Now()}
	for _, sym := range s.Watchlist {
		if ctx.Err() != nil {
			break
		}
		rep, err := s.Collector.Collect(ctx, sym, s.Range, s.Interval)
		if err != nil {
			log.Printf("[ERROR] scan %s: %v", sym, err)
			res.Failed = append(res.Failed, sym)
			continue
		}
		if rep.Degraded {
			// neutral fallback advice is not a real recommendation
			log.Printf("[WARN] scan %s: no usable bars, skipping record", rep.Symbol)
			res.Failed = append(res.Failed, sym)
			continue
		}
		res.Reports = append(res.Reports, rep)
		if s.track(ctx, rep) {
			res.Changes++
		}
	}
	s.Metrics.CountScan(res.Changes)
	log.Printf("[INFO] scan done: %d ok, %d failed, %d changed", len(res.Reports), len(res.Failed), res.Changes)
	return res
}

// track records rep and reports whether its action changed since the last record.
func (s *Scheduler) track(ctx context.Context, rep *model.Report) bool {
	prev, seen, err := s.Recorder.LastAction(rep.Symbol)
	if err != nil {
		log.Printf("[ERROR] last action %s: %v", rep.Symbol, err)
	}
	if err := s.Recorder.RecordAdvice(recorder.SnapshotFromReport(rep)); err != nil {
		log.Printf("[ERROR] record advice %s: %v", rep.Symbol, err)
	}
	if !seen || prev == rep.Advice.Action {
		return false
	}
	log.Printf("[INFO] %s action changed %s -> %s", rep.Symbol, prev, rep.Advice.Action)
	s.trySendCtx(ctx, notifier.FormatActionChange(prev, rep))
	return true
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Telegram appends @botname to commands in group chats.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/advice":
		if len(fields) < 2 {
			return "usage: /advice SYMBOL"
		}
		rep, err := s.Collector.Collect(ctx, fields[1], s.Range, s.Interval)
		if err != nil {
			return fmt.Sprintf("❌ %s: %v", strings.ToUpper(fields[1]), err)
		}
		return notifier.FormatAdvice(rep)
	case "/history":
		if len(fields) < 2 {
			return "usage: /history SYMBOL"
		}
		return s.historyText(fields[1])
	case "/watchlist":
		return s.watchlistText()
	case "/scan":
		res := s.Scan(ctx)
		return notifier.FormatScanSummary(res.Reports, res.Failed, res.At)
	default:
		return helpText
	}
}

const helpText = "Available commands:\n• /advice SYMBOL\n• /history SYMBOL\n• /watchlist\n• /scan"

const historyLimit = 10

func (s *Scheduler) watchlistText() string {
	if len(s.Watchlist) == 0 {
		return "Watchlist is empty."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("👀 <b>Watchlist</b> (%s/%s)\n", s.Range, s.Interval))
	for _, sym := range s.Watchlist {
		last := "-"
		if action, ok, err := s.Recorder.LastAction(sym); err == nil && ok {
			last = string(action)
		}
		b.WriteString(fmt.Sprintf("• %s: %s\n", sym, last))
	}
	return b.String()
}

func (s *Scheduler) historyText(symbol string) string {
	symbol = strings.ToUpper(symbol)
	snaps, err := s.Recorder.History(symbol, historyLimit)
	if err != nil {
		log.Printf("[ERROR] history %s: %v", symbol, err)
		return fmt.Sprintf("❌ %s: %v", html.EscapeString(symbol), err)
	}
	if len(snaps) == 0 {
		return fmt.Sprintf("No recorded advice for %s.", html.EscapeString(symbol))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕘 <b>%s</b> last %d scans\n", html.EscapeString(symbol), len(snaps)))
	for _, snap := range snaps {
		b.WriteString(fmt.Sprintf("%s %s (%d) @ %.2f\n",
			snap.Timestamp.Format("2006-01-02 15:04"), snap.Action, snap.Score, snap.Price))
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	s.trySendCtx(s.Ctx, text)
}

func (s *Scheduler) trySendCtx(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
