package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MarketLens/internal/model"
)

// Screener is implemented by fetchers that can run a predefined stock screen
// such as "day_gainers" or "most_actives".
type Screener interface {
	Screen(ctx context.Context, screenID string, count int) ([]model.Quote, error)
}

// yahooScreen is the response of the predefined screener endpoint. Quote rows
// use the same field names as model.Quote.
type yahooScreen struct {
	Finance struct {
		Result []struct {
			ID     string        `json:"id"`
			Quotes []model.Quote `json:"quotes"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"finance"`
}

// Screen runs a predefined Yahoo screener.
func (f *YahooFetcher) Screen(ctx context.Context, screenID string, count int) ([]model.Quote, error) {
	u := fmt.Sprintf("%s/v1/finance/screener/predefined/saved?scrIds=%s&count=%d&formatted=false&lang=en-US&region=US",
		f.BaseURL, url.QueryEscape(screenID), count)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo screener: %w", err)
	}
	defer resp.Body.Close()

	var raw yahooScreen
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("yahoo screener: status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("yahoo screener decode: %w", err)
	}
	if e := raw.Finance.Error; e != nil {
		return nil, fmt.Errorf("yahoo screener error (%s): %s", e.Code, e.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo screener: status %d", resp.StatusCode)
	}
	if len(raw.Finance.Result) == 0 {
		return nil, fmt.Errorf("yahoo screener %s: %w", screenID, ErrNoData)
	}

	now := time.Now()
	quotes := raw.Finance.Result[0].Quotes
	for i := range quotes {
		quotes[i].FetchedAt = now
		if quotes[i].ShortName == "" {
			quotes[i].ShortName = firstNonEmpty(quotes[i].LongName, quotes[i].Symbol)
		}
	}
	return quotes, nil
}

// Screen runs a predefined screen through the configured fetcher.
func (c *Collector) Screen(ctx context.Context, screenID string, count int) ([]model.Quote, error) {
	screenID = strings.TrimSpace(screenID)
	if screenID == "" {
		return nil, ErrEmptyQuery
	}
	s, ok := c.Fetcher.(Screener)
	if !ok {
		return nil, fmt.Errorf("screen via %s: %w", c.Fetcher.Name(), ErrUnsupported)
	}
	start := time.Now()
	quotes, err := s.Screen(ctx, screenID, count)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), "screener", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("screen %s: %w", screenID, err)
	}
	return quotes, nil
}
