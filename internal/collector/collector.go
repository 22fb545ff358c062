package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"MarketLens/internal/calculator"
	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
	"MarketLens/internal/strategy"
)

var ErrEmptySymbol = errors.New("symbol is required")

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	Bars      []model.OHLCV
	QuoteErr  error
	BarsErr   error
	SearchErr error // also fails Screen
	Calls     int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _, _, _ string) ([]model.OHLCV, error) {
	m.Calls++
	if m.BarsErr != nil {
		return nil, m.BarsErr
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return generateMockBars(m.Price, 60), nil
}

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	m.Calls++
	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	q := &model.Quote{Symbol: symbol, ShortName: symbol, LongName: symbol, Price: m.Price, FetchedAt: time.Now()}
	q.SetPreviousClose(m.Price * 0.99)
	return q, nil
}

// Search echoes query as a single equity match followed by numbered headlines.
func (m *MockFetcher) Search(_ context.Context, query string, quotesCount, newsCount int) (*model.SearchResults, error) {
	m.Calls++
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	res := &model.SearchResults{Quotes: []model.SearchQuote{}, News: []model.NewsItem{}}
	sym := strings.ToUpper(query)
	if quotesCount > 0 {
		res.Quotes = append(res.Quotes, model.SearchQuote{Symbol: sym, ShortName: sym, Exchange: "MOCK", QuoteType: "EQUITY"})
	}
	for i := 0; i < newsCount; i++ {
		res.News = append(res.News, model.NewsItem{
			UUID:           fmt.Sprintf("%s-%d", sym, i),
			Title:          fmt.Sprintf("%s headline %d", sym, i+1),
			Publisher:      "mock",
			PublishedAt:    time.Now().Add(-time.Duration(i) * time.Hour),
			RelatedTickers: []string{sym},
		})
	}
	return res, nil
}

// Screen returns count quotes named after screenID with ascending prices.
func (m *MockFetcher) Screen(_ context.Context, screenID string, count int) ([]model.Quote, error) {
	m.Calls++
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	quotes := make([]model.Quote, count)
	for i := range quotes {
		quotes[i] = model.Quote{Symbol: fmt.Sprintf("%s-%d", screenID, i+1), ShortName: screenID, Price: m.Price + float64(i), FetchedAt: time.Now()}
	}
	return quotes, nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector orchestrates data fetching, indicator computation and advice.
type Collector struct {
	Fetcher Fetcher
	Params  calculator.Params
	Advisor strategy.Advisor
	Metrics *metrics.Metrics
}

// NewCollector creates a new Collector. A nil advisor means the trend advisor.
func NewCollector(fetcher Fetcher, params calculator.Params, advisor strategy.Advisor, m *metrics.Metrics) *Collector {
	if advisor == nil {
		advisor = strategy.TrendAdvisor{}
	}
	return &Collector{Fetcher: fetcher, Params: params.WithDefaults(), Advisor: advisor, Metrics: m}
}

// Collect fetches the quote and bars for symbol and computes indicators and advice.
// Short or missing history degrades the report instead of failing it.
func (c *Collector) Collect(ctx context.Context, symbol, rng, interval string) (*model.Report, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrEmptySymbol
	}
	rng, interval, err := NormalizeWindow(rng, interval)
	if err != nil {
		return nil, err
	}

	quote, err := c.fetchQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}

	var series model.BarSeries
	degraded := false
	raw, err := c.fetchBars(ctx, symbol, rng, interval)
	if err != nil {
		log.Printf("[WARN] %s bars unavailable (%s/%s): %v", symbol, rng, interval, err)
		degraded = true
	} else if series, err = model.NewBarSeries(symbol, raw); err != nil {
		log.Printf("[WARN] %s bars rejected: %v", symbol, err)
		series = model.BarSeries{Symbol: symbol}
		degraded = true
	}

	report := &model.Report{
		Symbol:      symbol,
		Range:       rng,
		Interval:    interval,
		Engine:      c.Advisor.Name(),
		Quote:       quote,
		Bars:        series,
		Degraded:    degraded,
		GeneratedAt: time.Now(),
	}

	if series.Len() > 0 {
		start := time.Now()
		set, err := calculator.Compute(series, c.Params)
		c.Metrics.ObserveCompute(time.Since(start))
		if err != nil {
			log.Printf("[WARN] %s indicators skipped: %v", symbol, err)
		} else {
			report.Indicators = set
		}
		fillRange(quote, series.Bars())
	}

	report.Advice = c.Advisor.Advise(strategy.Input{Bars: series, Indicators: report.Indicators})
	c.Metrics.CountAdvice(string(report.Advice.Action))
	return report, nil
}

// Quotes fetches quotes for several symbols, skipping the ones that fail.
func (c *Collector) Quotes(ctx context.Context, symbols []string) []model.Quote {
	quotes := make([]model.Quote, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		q, err := c.fetchQuote(ctx, s)
		if err != nil {
			log.Printf("[WARN] quote %s: %v", s, err)
			continue
		}
		quotes = append(quotes, *q)
	}
	return quotes
}

func (c *Collector) fetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	start := time.Now()
	q, err := c.Fetcher.FetchQuote(ctx, symbol)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), "quote", time.Since(start), err)
	return q, err
}

func (c *Collector) fetchBars(ctx context.Context, symbol, rng, interval string) ([]model.OHLCV, error) {
	start := time.Now()
	bars, err := c.Fetcher.FetchBars(ctx, symbol, rng, interval)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), "bars", time.Since(start), err)
	return bars, err
}

// fillRange backfills 52-week extremes the provider left out and positions the price.
func fillRange(q *model.Quote, bars []model.OHLCV) {
	if q.High52w == 0 || q.Low52w == 0 {
		high, low, err := calculator.Range(bars, calculator.TradingDays52w)
		if err != nil {
			return
		}
		if q.High52w == 0 {
			q.High52w = high
		}
		if q.Low52w == 0 {
			q.Low52w = low
		}
	}
	if pos, err := calculator.Position(q.Price, q.High52w, q.Low52w); err != nil {
		log.Printf("[WARN] %s 52-week position: %v", q.Symbol, err)
		q.Position52w = 0.5
	} else {
		q.Position52w = pos
	}
}
