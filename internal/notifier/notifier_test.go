package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"MarketLens/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []map[string]string
	failures int
	updates  string
}

func (f *fakeBot) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if f.failures > 0 {
				f.failures--
				http.Error(w, `{"ok":false}`, http.StatusTooManyRequests)
				return
			}
			var payload map[string]string
			_ = json.NewDecoder(r.Body).Decode(&payload)
			f.sent = append(f.sent, payload)
			_, _ = w.Write([]byte(`{"ok":true}`))
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			_, _ = w.Write([]byte(f.updates))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.BaseURL = srv.URL
	return tn
}

func TestSend(t *testing.T) {
	bot := &fakeBot{}
	tn := newTestNotifier(bot.server(t))

	require.NoError(t, tn.Send(context.Background(), "<b>hi</b>"))
	require.Len(t, bot.sent, 1)
	assert.Equal(t, "42", bot.sent[0]["chat_id"])
	assert.Equal(t, "HTML", bot.sent[0]["parse_mode"])
	assert.Equal(t, "<b>hi</b>", bot.sent[0]["text"])
}

func TestSendDisabledIsNoop(t *testing.T) {
	tn := NewTelegramNotifier("", "", "")
	assert.False(t, tn.Enabled())
	assert.NoError(t, tn.Send(context.Background(), "dropped"))

	var nilNotifier *TelegramNotifier
	assert.False(t, nilNotifier.Enabled())
}

func TestSendWithRetryRecovers(t *testing.T) {
	bot := &fakeBot{failures: 1}
	tn := newTestNotifier(bot.server(t))

	require.NoError(t, tn.SendWithRetry(context.Background(), "retry me", 2))
	assert.Len(t, bot.sent, 1)
}

func TestSendWithRetryHonorsContext(t *testing.T) {
	bot := &fakeBot{failures: 10}
	tn := newTestNotifier(bot.server(t))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := tn.SendWithRetry(ctx, "never", 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPollDispatchesCommands(t *testing.T) {
	bot := &fakeBot{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /advice aapl "}},
		{"update_id":8},
		{"update_id":9,"message":{"text":"/noreply"}}
	]}`}
	srv := bot.server(t)
	tn := newTestNotifier(srv)

	var got []string
	next, err := tn.poll(context.Background(), srv.Client(), 0, func(_ context.Context, cmd string) string {
		got = append(got, cmd)
		if cmd == "/noreply" {
			return ""
		}
		return "reply to " + cmd
	})
	require.NoError(t, err)
	assert.Equal(t, 10, next)
	assert.Equal(t, []string{"/advice aapl", "/noreply"}, got)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, "reply to /advice aapl", bot.sent[0]["text"])
}

func sampleReport() *model.Report {
	q := &model.Quote{Symbol: "AAPL", Price: 110, Currency: "USD", High52w: 120, Low52w: 80, Position52w: 0.75}
	q.SetPreviousClose(100)
	return &model.Report{
		Symbol:   "AAPL",
		Range:    "1mo",
		Interval: "1d",
		Engine:   "trend",
		Quote:    q,
		Indicators: &model.IndicatorSet{
			RSI: model.Series{model.Some(64.25)},
		},
		Advice: model.Recommendation{
			Action: model.ActionBuy,
			Reason: "Strong upward trend detected (+12.0% over period).",
			Score:  75,
		},
	}
}

func TestFormatAdvice(t *testing.T) {
	msg := FormatAdvice(sampleReport())
	assert.Contains(t, msg, "<b>AAPL</b> | 1mo 1d")
	assert.Contains(t, msg, "Price: 110.00 USD (+10.00, +10.00%)")
	assert.Contains(t, msg, "position 75%")
	assert.Contains(t, msg, "RSI: 64.25 | MACD hist: n/a")
	assert.Contains(t, msg, "🟢 <b>BUY</b> (score 75, trend)")
	assert.Contains(t, msg, "(+12.0% over period)")
}

func TestFormatActionChange(t *testing.T) {
	msg := FormatActionChange(model.ActionHold, sampleReport())
	assert.True(t, strings.HasPrefix(msg, "🔔 <b>AAPL</b>: ⚪ HOLD → 🟢 BUY"), msg)
}

func TestFormatScanSummary(t *testing.T) {
	at := time.Date(2024, 5, 1, 16, 30, 0, 0, time.UTC)
	msg := FormatScanSummary([]*model.Report{sampleReport()}, []string{"BAD<1>"}, at)
	assert.Contains(t, msg, "2024-05-01 16:30")
	assert.Contains(t, msg, "AAPL")
	assert.Contains(t, msg, "BUY (75)")
	assert.Contains(t, msg, "failed: BAD&lt;1&gt;")

	assert.Contains(t, FormatScanSummary(nil, nil, at), "Watchlist is empty.")
}
