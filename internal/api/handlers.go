package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"MarketLens/internal/analysis"
	"MarketLens/internal/model"
)

// MarketIndices are the headline indices shown on the overview.
var MarketIndices = []string{"^GSPC", "^DJI", "^IXIC"}

var indexNames = map[string]string{
	"^GSPC": "S&P 500",
	"^DJI":  "Dow Jones",
	"^IXIC": "Nasdaq",
}

type stockResponse struct {
	Symbol     string               `json:"symbol"`
	Range      string               `json:"range"`
	Interval   string               `json:"interval"`
	Engine     string               `json:"engine"`
	Quote      *model.Quote         `json:"quote"`
	Historical []model.OHLCV        `json:"historical"`
	Indicators []model.ChartPoint   `json:"indicators"`
	Latest     model.Snapshot       `json:"latest"`
	Advice     model.Recommendation `json:"advice"`
	Degraded   bool                 `json:"degraded"`
}

// quoteSummary is the trimmed quote returned by list endpoints.
type quoteSummary struct {
	Symbol        string  `json:"symbol"`
	ShortName     string  `json:"shortName"`
	Price         float64 `json:"regularMarketPrice"`
	Change        float64 `json:"regularMarketChange"`
	ChangePercent float64 `json:"regularMarketChangePercent"`
}

func summarize(quotes []model.Quote) []quoteSummary {
	out := make([]quoteSummary, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, quoteSummary{
			Symbol:        q.Symbol,
			ShortName:     q.ShortName,
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	writeJSON(w, code, body)
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rep, err := s.Service.Collect(r.Context(), r.PathValue("symbol"), q.Get("range"), q.Get("interval"))
	if err != nil {
		code := errorStatus(err)
		msg := "Failed to fetch stock data"
		if code == http.StatusBadRequest {
			msg = "Invalid request"
		}
		log.Printf("[ERROR] stock %s: %v", r.PathValue("symbol"), err)
		writeError(w, code, msg, err)
		return
	}

	writeJSON(w, http.StatusOK, stockResponse{
		Symbol:     rep.Symbol,
		Range:      rep.Range,
		Interval:   rep.Interval,
		Engine:     rep.Engine,
		Quote:      rep.Quote,
		Historical: rep.Bars.Bars(),
		Indicators: rep.Indicators.Points(rep.Bars),
		Latest:     rep.Indicators.Latest(),
		Advice:     rep.Advice,
		Degraded:   rep.Degraded,
	})
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Query().Get("symbols")
	if param == "" {
		writeError(w, http.StatusBadRequest, "Symbols parameter is required", nil)
		return
	}
	var symbols []string
	for _, sym := range strings.Split(param, ",") {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	writeJSON(w, http.StatusOK, summarize(s.Service.Quotes(r.Context(), symbols)))
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	quotes := s.Service.Quotes(r.Context(), MarketIndices)
	for i := range quotes {
		if name, ok := indexNames[quotes[i].Symbol]; ok {
			quotes[i].ShortName = name
		}
	}
	writeJSON(w, http.StatusOK, summarize(quotes))
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.Analyzer == nil {
		writeError(w, http.StatusInternalServerError, "OpenAI API key is not configured", nil)
		return
	}
	var req analysis.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	res, err := s.Analyzer.Analyze(r.Context(), req)
	if err != nil {
		code := errorStatus(err)
		log.Printf("[ERROR] ai analysis %s: %v", req.Symbol, err)
		msg := "Failed to generate analysis"
		if errors.Is(err, analysis.ErrInvalidRequest) {
			msg = strings.TrimPrefix(err.Error(), analysis.ErrInvalidRequest.Error()+": ")
		}
		writeError(w, code, msg, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"source":   s.Source,
		"analysis": s.Analyzer != nil,
		"uptime":   time.Since(s.Started).Round(time.Second).String(),
	})
}
