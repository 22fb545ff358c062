package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"MarketLens/internal/model"
)

// RESTFetcher implements Fetcher against a self-hosted bar service.
//
//	GET {base}/api/v1/bars?symbol=S&interval=I&range=R -> [{timestamp, open, high, low, close, volume}]
//	GET {base}/api/v1/quote?symbol=S                   -> model.Quote JSON
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar service. Close may be null.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

func (f *RESTFetcher) FetchBars(ctx context.Context, symbol, rng, interval string) ([]model.OHLCV, error) {
	bars, err := f.fetchBars(ctx, symbol, rng, interval)
	if err == nil || interval != "1wk" {
		return bars, err
	}
	// Some deployments only serve daily bars; aggregate them into weeks.
	daily, dailyErr := f.fetchBars(ctx, symbol, rng, "1d")
	if dailyErr != nil {
		return nil, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr)
	}
	return aggregateDailyToWeekly(daily), nil
}

func (f *RESTFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	endpoint := fmt.Sprintf("%s/api/v1/quote?symbol=%s", f.BaseURL, url.QueryEscape(symbol))
	var q model.Quote
	if err := f.getJSON(ctx, endpoint, &q); err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	if q.PreviousClose != 0 && q.Change == 0 {
		q.SetPreviousClose(q.PreviousClose)
	}
	q.FetchedAt = time.Now()
	return &q, nil
}

func (f *RESTFetcher) fetchBars(ctx context.Context, symbol, rng, interval string) ([]model.OHLCV, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars?symbol=%s&interval=%s&range=%s",
		f.BaseURL, url.QueryEscape(symbol), url.QueryEscape(interval), url.QueryEscape(rng))
	var rb []restBar
	if err := f.getJSON(ctx, endpoint, &rb); err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	raw := make([]model.RawBar, len(rb))
	for i, b := range rb {
		raw[i] = model.RawBar{
			Time: time.Unix(b.Timestamp, 0).UTC(),
			Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		}
	}
	bars := model.FilterMissing(raw)
	// Ensure chronological order
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *RESTFetcher) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// aggregateDailyToWeekly folds daily bars into ISO weeks.
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	var weekly []model.OHLCV
	var week model.OHLCV
	started := false

	for _, d := range daily {
		if started && isoWeekKey(d.Time) == isoWeekKey(week.Time) {
			week.High = max(week.High, d.High)
			week.Low = min(week.Low, d.Low)
			week.Close = d.Close
			week.Volume += d.Volume
			continue
		}
		if started {
			weekly = append(weekly, week)
		}
		week = d
		started = true
	}
	if started {
		weekly = append(weekly, week)
	}
	return weekly
}

func isoWeekKey(t time.Time) int {
	y, w := t.ISOWeek()
	return y*100 + w
}
