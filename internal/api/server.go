// Package api serves the dashboard's JSON endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"MarketLens/internal/analysis"
	"MarketLens/internal/collector"
	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
)

// Service is the subset of *collector.Collector the handlers need.
type Service interface {
	Collect(ctx context.Context, symbol, rng, interval string) (*model.Report, error)
	Quotes(ctx context.Context, symbols []string) []model.Quote
	Search(ctx context.Context, query string) ([]model.SearchQuote, error)
	News(ctx context.Context, query string, count int) ([]model.NewsItem, error)
	Screen(ctx context.Context, screenID string, count int) ([]model.Quote, error)
}

// Server wires handlers to the collector, the optional analyzer and metrics.
type Server struct {
	Service  Service
	Analyzer *analysis.Analyzer // nil when no OpenAI key is configured
	Metrics  *metrics.Metrics
	Source   string
	Started  time.Time
}

func NewServer(svc Service, an *analysis.Analyzer, m *metrics.Metrics, source string) *Server {
	return &Server{Service: svc, Analyzer: an, Metrics: m, Source: source, Started: time.Now()}
}

// Routes returns the full handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "GET /api/stock/{symbol}", s.handleStock)
	s.handle(mux, "GET /api/stock/search", s.handleSearch)
	s.handle(mux, "GET /api/quotes", s.handleQuotes)
	s.handle(mux, "GET /api/market", s.handleMarket)
	s.handle(mux, "GET /api/market/movers", s.handleMovers)
	s.handle(mux, "GET /api/screener", s.handleScreener)
	s.handle(mux, "GET /api/sectors", s.handleSectors)
	s.handle(mux, "GET /api/crypto", s.handleCrypto)
	s.handle(mux, "GET /api/compare", s.handleCompare)
	s.handle(mux, "GET /api/news", s.handleNews)
	s.handle(mux, "GET /api/news/general", s.handleGeneralNews)
	s.handle(mux, "POST /api/ai-analysis", s.handleAnalysis)
	s.handle(mux, "GET /api/health", s.handleHealth)
	mux.HandleFunc("OPTIONS /api/", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("GET /metrics", s.Metrics.Handler())
	return mux
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, withCORS(h)))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] http server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Println("[INFO] http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, collector.ErrEmptySymbol),
		errors.Is(err, collector.ErrInvalidRange),
		errors.Is(err, collector.ErrInvalidInterval),
		errors.Is(err, collector.ErrEmptyQuery),
		errors.Is(err, analysis.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, collector.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, analysis.ErrNotConfigured):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
