package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MarketLens/internal/model"
)

// Searcher is implemented by fetchers that can look up symbols and headlines.
type Searcher interface {
	Search(ctx context.Context, query string, quotesCount, newsCount int) (*model.SearchResults, error)
}

var (
	ErrEmptyQuery  = errors.New("query is required")
	ErrUnsupported = errors.New("not supported by this data source")
)

const searchQuotesCount = 10

// yahooSearch is the response of the v1 search endpoint.
type yahooSearch struct {
	Quotes []model.SearchQuote `json:"quotes"`
	News   []struct {
		UUID                string   `json:"uuid"`
		Title               string   `json:"title"`
		Publisher           string   `json:"publisher"`
		Link                string   `json:"link"`
		ProviderPublishTime int64    `json:"providerPublishTime"`
		RelatedTickers      []string `json:"relatedTickers"`
	} `json:"news"`
}

// Search queries the Yahoo Finance v1 search API.
func (f *YahooFetcher) Search(ctx context.Context, query string, quotesCount, newsCount int) (*model.SearchResults, error) {
	u := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=%d&newsCount=%d",
		f.BaseURL, url.QueryEscape(query), quotesCount, newsCount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo search: status %d", resp.StatusCode)
	}

	var raw yahooSearch
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("yahoo search decode: %w", err)
	}

	res := &model.SearchResults{
		Quotes: make([]model.SearchQuote, 0, len(raw.Quotes)),
		News:   make([]model.NewsItem, 0, len(raw.News)),
	}
	for _, q := range raw.Quotes {
		// news-only and fund-family hits come back without a symbol
		if q.Symbol != "" {
			res.Quotes = append(res.Quotes, q)
		}
	}
	for _, n := range raw.News {
		res.News = append(res.News, model.NewsItem{
			UUID:           n.UUID,
			Title:          n.Title,
			Publisher:      n.Publisher,
			Link:           n.Link,
			PublishedAt:    time.Unix(n.ProviderPublishTime, 0).UTC(),
			RelatedTickers: n.RelatedTickers,
		})
	}
	return res, nil
}

// Search returns instruments matching query.
func (c *Collector) Search(ctx context.Context, query string) ([]model.SearchQuote, error) {
	res, err := c.search(ctx, query, searchQuotesCount, 0)
	if err != nil {
		return nil, err
	}
	return res.Quotes, nil
}

// News returns up to count headlines for query.
func (c *Collector) News(ctx context.Context, query string, count int) ([]model.NewsItem, error) {
	res, err := c.search(ctx, query, 0, count)
	if err != nil {
		return nil, err
	}
	return res.News, nil
}

func (c *Collector) search(ctx context.Context, query string, quotesCount, newsCount int) (*model.SearchResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	s, ok := c.Fetcher.(Searcher)
	if !ok {
		return nil, fmt.Errorf("search via %s: %w", c.Fetcher.Name(), ErrUnsupported)
	}
	start := time.Now()
	res, err := s.Search(ctx, query, quotesCount, newsCount)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), "search", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return res, nil
}
