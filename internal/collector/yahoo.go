package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"MarketLens/internal/model"
)

const (
	yahooBaseURL   = "https://query1.finance.yahoo.com"
	yahooUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// YahooFetcher implements Fetcher using the Yahoo Finance v8 chart API.
type YahooFetcher struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL:   yahooBaseURL,
		UserAgent: yahooUserAgent,
		Client:    newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"DJI":    "^DJI",
			"NASDAQ": "^IXIC",
		},
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooMeta is the per-symbol summary Yahoo attaches to every chart response.
type yahooMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	ExchangeName       string  `json:"exchangeName"`
	ShortName          string  `json:"shortName"`
	LongName           string  `json:"longName"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
	PreviousClose      float64 `json:"previousClose"`
	DayHigh            float64 `json:"regularMarketDayHigh"`
	DayLow             float64 `json:"regularMarketDayLow"`
	Volume             float64 `json:"regularMarketVolume"`
	FiftyTwoWeekHigh   float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow    float64 `json:"fiftyTwoWeekLow"`
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta       yahooMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func pick(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) (*yahooMeta, []model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), url.QueryEscape(interval), url.QueryEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
		}
		return nil, nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, nil, fmt.Errorf("yahoo api error (%s): %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	raw := make([]model.RawBar, len(result.Timestamp))
	if len(result.Indicators.Quote) > 0 {
		quote := result.Indicators.Quote[0]
		for i, ts := range result.Timestamp {
			raw[i] = model.RawBar{
				Time:   time.Unix(ts, 0).UTC(),
				Open:   pick(quote.Open, i),
				High:   pick(quote.High, i),
				Low:    pick(quote.Low, i),
				Close:  pick(quote.Close, i),
				Volume: pick(quote.Volume, i),
			}
		}
	}

	// null closes are holidays and halted sessions
	bars := model.FilterMissing(raw)
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return &result.Meta, bars, nil
}

// FetchBars returns bars for a Yahoo range/interval pair, e.g. ("1y", "1d").
func (f *YahooFetcher) FetchBars(ctx context.Context, symbol, rng, interval string) ([]model.OHLCV, error) {
	_, bars, err := f.fetchChart(ctx, symbol, interval, rng)
	if err != nil {
		return nil, err
	}
	return bars, nil
}

// FetchQuote builds a quote from the chart meta of a one-day request.
func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	meta, bars, err := f.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}
	price := meta.RegularMarketPrice
	if price == 0 && len(bars) > 0 {
		price = bars[len(bars)-1].Close
	}
	if price == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}

	q := &model.Quote{
		Symbol:    meta.Symbol,
		ShortName: firstNonEmpty(meta.ShortName, meta.LongName, meta.Symbol, symbol),
		LongName:  firstNonEmpty(meta.LongName, meta.ShortName, meta.Symbol, symbol),
		Currency:  meta.Currency,
		Exchange:  meta.ExchangeName,
		Price:     price,
		DayHigh:   meta.DayHigh,
		DayLow:    meta.DayLow,
		Volume:    meta.Volume,
		High52w:   meta.FiftyTwoWeekHigh,
		Low52w:    meta.FiftyTwoWeekLow,
		FetchedAt: time.Now(),
	}
	if q.Symbol == "" {
		q.Symbol = strings.ToUpper(symbol)
	}
	if len(bars) > 0 {
		q.Open = bars[0].Open
	}
	prev := meta.ChartPreviousClose
	if prev == 0 {
		prev = meta.PreviousClose
	}
	q.SetPreviousClose(prev)
	return q, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
