package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MarketLens/internal/analysis"
	"MarketLens/internal/calculator"
	"MarketLens/internal/collector"
	"MarketLens/internal/metrics"
	"MarketLens/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func risingBars(n int, from, to float64) []model.OHLCV {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		p := from + (to-from)*float64(i)/float64(n-1)
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: p, High: p, Low: p, Close: p, Volume: 1000}
	}
	return bars
}

func newTestServer(t *testing.T, fetcher *collector.MockFetcher, an *analysis.Analyzer) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	col := collector.NewCollector(fetcher, calculator.DefaultParams(), nil, m)
	srv := httptest.NewServer(NewServer(col, an, m, fetcher.Name()).Routes())
	t.Cleanup(srv.Close)
	return srv, m
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestStockEndpoint(t *testing.T) {
	srv, m := newTestServer(t, &collector.MockFetcher{Price: 120, Bars: risingBars(40, 100, 120)}, nil)

	var body struct {
		Symbol     string              `json:"symbol"`
		Range      string              `json:"range"`
		Interval   string              `json:"interval"`
		Quote      model.Quote         `json:"quote"`
		Historical []map[string]any    `json:"historical"`
		Indicators []map[string]any    `json:"indicators"`
		Latest     map[string]*float64 `json:"latest"`
		Advice     map[string]any      `json:"advice"`
	}
	resp := getJSON(t, srv.URL+"/api/stock/aapl?range=3mo", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "AAPL", body.Symbol)
	assert.Equal(t, "3mo", body.Range)
	assert.Equal(t, "1d", body.Interval)
	assert.Equal(t, 120.0, body.Quote.Price)
	assert.Len(t, body.Historical, 40)
	require.Len(t, body.Indicators, 40)
	assert.Nil(t, body.Indicators[0]["rsi"], "RSI warm-up is null")
	assert.NotNil(t, body.Indicators[39]["rsi"])
	assert.NotNil(t, body.Latest["macdHist"])
	assert.Equal(t, "BUY", body.Advice["action"])
	assert.Equal(t, 75.0, body.Advice["score"])
	assert.Equal(t, "Strong upward trend detected (+20.0% over period).", body.Advice["reason"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET /api/stock/{symbol}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdviceTotal.WithLabelValues("BUY")))
}

func TestStockEndpointDegradesWithoutBars(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 50, BarsErr: errors.New("chart down")}, nil)

	var body struct {
		Historical []any          `json:"historical"`
		Indicators []any          `json:"indicators"`
		Advice     map[string]any `json:"advice"`
		Latest     map[string]any `json:"latest"`
		Degraded   bool           `json:"degraded"`
	}
	resp := getJSON(t, srv.URL+"/api/stock/MSFT", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body.Historical)
	assert.Empty(t, body.Historical)
	assert.Empty(t, body.Indicators)
	assert.Equal(t, "HOLD", body.Advice["action"])
	assert.Equal(t, "Market conditions are neutral.", body.Advice["reason"])
	assert.Nil(t, body.Latest["rsi"])
	assert.True(t, body.Degraded)
}

func TestStockEndpointErrors(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 50}, nil)

	resp := getJSON(t, srv.URL+"/api/stock/AAPL?range=2w", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/api/stock/AAPL?interval=3m", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	failing, _ := newTestServer(t, &collector.MockFetcher{QuoteErr: errors.New("upstream 500")}, nil)
	var body map[string]string
	resp = getJSON(t, failing.URL+"/api/stock/AAPL", &body)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Failed to fetch stock data", body["error"])
	assert.Contains(t, body["details"], "upstream 500")
}

func TestQuotesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 100}, nil)

	resp := getJSON(t, srv.URL+"/api/quotes", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var quotes []map[string]any
	resp = getJSON(t, srv.URL+"/api/quotes?symbols=aapl,,msft", &quotes)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, quotes, 2)
	assert.Equal(t, "AAPL", quotes[0]["symbol"])
	assert.Equal(t, 100.0, quotes[0]["regularMarketPrice"])
	assert.InDelta(t, 1.0101, quotes[0]["regularMarketChangePercent"], 1e-3)

	quotes = nil
	resp = getJSON(t, srv.URL+"/api/quotes?symbols=,", &quotes)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, quotes)
	assert.Empty(t, quotes)
}

func TestMarketEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 5000}, nil)

	var quotes []map[string]any
	resp := getJSON(t, srv.URL+"/api/market", &quotes)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, quotes, 3)
	assert.Equal(t, "^GSPC", quotes[0]["symbol"])
	assert.Equal(t, "S&P 500", quotes[0]["shortName"])
	assert.Equal(t, "Nasdaq", quotes[2]["shortName"])
}

func TestAnalysisEndpoint(t *testing.T) {
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant",
			"content":"{\"recommendation\":\"HOLD\",\"reasoning\":\"Mixed signals.\",\"confidence\":55}"}}]}`))
	}))
	defer llm.Close()

	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 1}, analysis.New("sk-test", llm.URL, ""))

	post := func(body string) (*http.Response, map[string]any) {
		resp, err := http.Post(srv.URL+"/api/ai-analysis", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp, out
	}

	resp, out := post(`{"symbol":"AAPL","price":189.2,"indicators":{"rsi":55}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HOLD", out["recommendation"])
	assert.Equal(t, 55.0, out["confidence"])

	resp, out = post(`{"price":10}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "stock symbol is required", out["error"])

	resp, out = post(`{"symbol":"AAPL","price":"ten"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid JSON", out["error"])

	resp, _ = post(`{"symbol":"AAPL"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalysisEndpointNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 1}, nil)
	resp, err := http.Post(srv.URL+"/api/ai-analysis", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealthPreflightAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 1}, nil)

	var health map[string]any
	resp := getJSON(t, srv.URL+"/api/health", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "mock", health["source"])
	assert.Equal(t, false, health["analysis"])

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/stock/AAPL", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")

	resp, err = http.Post(srv.URL+"/api/health", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
