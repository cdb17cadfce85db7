// Package api provides the HTTP REST API server for futuresagent.
//
// It exposes the symbol catalog, indicator snapshots, report generation,
// the run archive, and a WebSocket stream of workflow progress.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/futuresagent/internal/agent"
	"github.com/seenimoa/futuresagent/internal/config"
	"github.com/seenimoa/futuresagent/internal/datasource"
	"github.com/seenimoa/futuresagent/internal/history"
	"github.com/seenimoa/futuresagent/internal/infra"
	"github.com/seenimoa/futuresagent/internal/pipeline"
	"github.com/seenimoa/futuresagent/pkg/models"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

// analyzeTimeout bounds one POST /analyze run.
const analyzeTimeout = 5 * time.Minute

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	runner  *pipeline.Runner
	wsHub   *WSHub
	version string
	log     *slog.Logger
}

// NewServer creates a configured API server with all routes and middleware.
// runner.History may be nil; /reports then returns an empty list.
func NewServer(cfg *config.Config, runner *pipeline.Runner, version string) *Server {
	if version == "" {
		version = "dev"
	}
	srv := &Server{
		cfg:     cfg,
		runner:  runner,
		wsHub:   NewWSHub(),
		version: version,
		log:     infra.Logger().With("component", "api"),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server and shuts it down gracefully on
// SIGINT/SIGTERM or when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: analyzeTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-done:
	case <-ctx.Done():
	}
	s.log.Info("shutting down api server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/symbols", s.handleSymbols)
		r.With(middleware.Timeout(30*time.Second)).Get("/symbols/{code}/indicators", s.handleIndicators)

		r.Post("/analyze", s.handleAnalyze)
		r.Get("/reports", s.handleReports)

		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)
	})

	r.Get("/ws", s.handleWebSocket)

	return r
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Symbol  string `json:"symbol"`
	Keyword string `json:"keyword,omitempty"`
}

// AnalyzeResponse is the data of a finished analysis.
type AnalyzeResponse struct {
	RunID      string   `json:"run_id"`
	Symbol     string   `json:"symbol"`
	Name       string   `json:"name"`
	Keyword    string   `json:"keyword"`
	Succeeded  int      `json:"succeeded"`
	Total      int      `json:"total"`
	DurationMS int64    `json:"duration_ms"`
	ReportPath string   `json:"report_path,omitempty"`
	Markdown   string   `json:"markdown"`
	Errors     []string `json:"errors,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := utils.NowCST()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":        "ok",
			"version":       s.version,
			"market_status": utils.MarketStatus(now, false),
			"time_cst":      utils.FormatDateTimeCST(now),
			"ws_clients":    s.wsHub.ClientCount(),
		},
	})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	ex := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("exchange")))
	var syms []models.Symbol
	if ex == "" {
		syms = datasource.Symbols()
	} else {
		syms = datasource.SymbolsByExchange(models.Exchange(ex))
	}
	if syms == nil {
		syms = []models.Symbol{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: syms})
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	snap, err := s.runner.Analyzer.Snapshot(r.Context(), code)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: snap})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	out, err := s.runner.Analyze(ctx, agent.Request{
		Symbol:  req.Symbol,
		Keyword: req.Keyword,
		OnEvent: s.broadcastEvent,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	res := out.Result
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: AnalyzeResponse{
			RunID:      res.RunID,
			Symbol:     res.Symbol.Code,
			Name:       res.Symbol.Name,
			Keyword:    res.Keyword,
			Succeeded:  res.Succeeded(),
			Total:      res.Total(),
			DurationMS: res.Duration().Milliseconds(),
			ReportPath: out.Path(),
			Markdown:   out.Report.Markdown(),
			Errors:     res.Errors,
		},
	})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	opts := history.ListOptions{Symbol: datasource.NormalizeCode(r.URL.Query().Get("symbol"))}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = n
	}

	runs := []history.Run{}
	if s.runner.History != nil {
		got, err := s.runner.History.ListRuns(r.Context(), opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if got != nil {
			runs = got
		}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: runs})
}

// broadcastEvent forwards workflow progress to WebSocket clients.
func (s *Server) broadcastEvent(ev agent.Event) {
	s.wsHub.Broadcast(WSMessage{Type: string(ev.Type), Data: ev})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, datasource.ErrUnsupportedSymbol):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, datasource.ErrNoData), errors.Is(err, datasource.ErrRateLimited):
		return http.StatusBadGateway
	default:
		var httpErr *datasource.ErrHTTP
		if errors.As(err, &httpErr) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		infra.Logger().Warn("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
