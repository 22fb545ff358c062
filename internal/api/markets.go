package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"MarketLens/internal/model"
)

// Sector is a SPDR sector ETF shown on the sector heatmap.
type Sector struct {
	Symbol string
	Name   string
}

var Sectors = []Sector{
	{"XLK", "Technology"},
	{"XLF", "Financials"},
	{"XLV", "Healthcare"},
	{"XLE", "Energy"},
	{"XLY", "Cons. Discret."},
	{"XLP", "Cons. Staples"},
	{"XLI", "Industrials"},
	{"XLU", "Utilities"},
	{"XLB", "Materials"},
	{"XLRE", "Real Estate"},
	{"XLC", "Comm. Services"},
}

var CryptoSymbols = []string{"BTC-USD", "ETH-USD", "SOL-USD", "BNB-USD", "XRP-USD", "ADA-USD", "DOGE-USD", "DOT-USD"}

// screenerIDs maps the dashboard's screener tabs to predefined screens.
var screenerIDs = map[string]string{
	"tech":       "ms_technology",
	"finance":    "ms_financial_services",
	"healthcare": "ms_healthcare",
	"energy":     "ms_energy",
	"losers":     "day_losers",
	"active":     "most_actives",
}

const (
	defaultScreen    = "day_gainers"
	moversCount      = 5
	screenerCount    = 20
	symbolNewsCount  = 5
	generalNewsCount = 10
	// market-wide headlines come from a search for this term
	generalNewsQuery = "US"
)

type sectorQuote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

type compareSide struct {
	Quote   *model.Quote         `json:"quote"`
	History []model.OHLCV        `json:"history"`
	Advice  model.Recommendation `json:"advice"`
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	symbols := make([]string, len(Sectors))
	names := make(map[string]string, len(Sectors))
	for i, sec := range Sectors {
		symbols[i] = sec.Symbol
		names[sec.Symbol] = sec.Name
	}
	quotes := s.Service.Quotes(r.Context(), symbols)
	out := make([]sectorQuote, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, sectorQuote{
			Symbol:        q.Symbol,
			Name:          names[q.Symbol],
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCrypto(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, summarize(s.Service.Quotes(r.Context(), CryptoSymbols)))
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sym1, sym2 := strings.TrimSpace(q.Get("symbol1")), strings.TrimSpace(q.Get("symbol2"))
	if sym1 == "" || sym2 == "" {
		writeError(w, http.StatusBadRequest, "Symbols are required", nil)
		return
	}

	out := make(map[string]compareSide, 2)
	for i, sym := range []string{sym1, sym2} {
		rep, err := s.Service.Collect(r.Context(), sym, q.Get("range"), q.Get("interval"))
		if err != nil {
			log.Printf("[ERROR] compare %s: %v", sym, err)
			writeError(w, errorStatus(err), "Failed to fetch comparison data", err)
			return
		}
		out[fmt.Sprintf("symbol%d", i+1)] = compareSide{Quote: rep.Quote, History: rep.Bars.Bars(), Advice: rep.Advice}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, `Query parameter "q" is required`, nil)
		return
	}
	quotes, err := s.Service.Search(r.Context(), query)
	if err != nil {
		log.Printf("[ERROR] search %q: %v", query, err)
		writeError(w, errorStatus(err), "Failed to search stocks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": quotes})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "Symbol is required", nil)
		return
	}
	s.writeNews(w, r, symbol, symbolNewsCount)
}

func (s *Server) handleGeneralNews(w http.ResponseWriter, r *http.Request) {
	s.writeNews(w, r, generalNewsQuery, generalNewsCount)
}

func (s *Server) writeNews(w http.ResponseWriter, r *http.Request, query string, count int) {
	news, err := s.Service.News(r.Context(), query, count)
	if err != nil {
		log.Printf("[ERROR] news %s: %v", query, err)
		writeError(w, errorStatus(err), "Failed to fetch news", err)
		return
	}
	writeJSON(w, http.StatusOK, news)
}

func (s *Server) handleMovers(w http.ResponseWriter, r *http.Request) {
	out := make(map[string][]quoteSummary, 3)
	for key, id := range map[string]string{"gainers": "day_gainers", "losers": "day_losers", "active": "most_actives"} {
		quotes, err := s.Service.Screen(r.Context(), id, moversCount)
		if err != nil {
			log.Printf("[ERROR] movers %s: %v", id, err)
			writeError(w, errorStatus(err), "Failed to fetch market data", err)
			return
		}
		out[key] = summarize(quotes)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleScreener(w http.ResponseWriter, r *http.Request) {
	id, ok := screenerIDs[r.URL.Query().Get("sector")]
	if !ok {
		id = defaultScreen
	}
	quotes, err := s.Service.Screen(r.Context(), id, screenerCount)
	if err != nil {
		log.Printf("[ERROR] screener %s: %v", id, err)
		writeError(w, errorStatus(err), "Failed to fetch screener data", err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(quotes))
}
