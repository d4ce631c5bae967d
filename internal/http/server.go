// Package http serves the ledger pages: the entry form, the raw table, the
// per-date report with CSV export and the aggregated dashboards. Every page
// is a thin consumer of the core pipeline; handlers never parse raw text
// themselves.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lancamentos/internal/cache"
	"lancamentos/internal/core"
	"lancamentos/internal/sheets"
	appweb "lancamentos/web"
)

type Server struct {
	http.Server
	templates   *template.Template
	reader      sheets.LedgerReader
	appender    sheets.LedgerAppender
	rateLimiter *rateLimiter

	// Snapshot of the loaded ledger for the read-side pages; every append
	// invalidates it.
	ledgerCache *cache.Snapshot[core.Ledger]
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, reader sheets.LedgerReader, appender sheets.LedgerAppender, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		reader:      reader,
		appender:    appender,
		rateLimiter: newRateLimiter(),
		ledgerCache: cache.NewSnapshot[core.Ledger](cacheTTL),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withPageHeaders("form", s.handleIndex))
	mux.HandleFunc("/lancamentos", s.withPageHeaders("create", s.handleCreateRecord))
	mux.HandleFunc("/base", s.withPageHeaders("base", s.handleBase))
	mux.HandleFunc("/relatorios", s.withPageHeaders("report", s.handleReport))
	mux.HandleFunc("/relatorios/export", s.withPageHeaders("export", s.handleReportCSV))
	mux.HandleFunc("/dashboards", s.withPageHeaders("dashboard", s.handleDashboard))
	mux.HandleFunc("/api/resumo", s.withPageHeaders("summary", s.handleSummary))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	s.RegisterOnShutdown(s.rateLimiter.stop)

	return s
}

// Simple in-memory rate limiter for the write path. Entries are keyed by
// client-reported addresses, so the map is pruned periodically to keep an
// abusive caller from growing it without bound.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries idle for more than 10 minutes.
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop shuts down the cleanup goroutine.
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.lastRequest) > time.Minute {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	// Allow up to 60 writes per minute per client.
	client.requests++
	client.lastRequest = now
	return client.requests <= 60
}

// withPageHeaders adds security headers, rate limiting on writes, request
// logging and metrics to a handler.
func (s *Server) withPageHeaders(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Limite de requisições excedido. Tente novamente em instantes.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		timer := time.Now()
		next(rw, r)

		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(timer).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// loadLedger returns the ledger, from the snapshot cache when fresh. Load
// gets a short timeout so a stuck file read cannot hang a page.
func (s *Server) loadLedger(ctx context.Context) (core.Ledger, error) {
	if ledger, ok := s.ledgerCache.Get(); ok {
		return ledger, nil
	}
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	ledger, err := s.reader.Load(cctx)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}
	s.ledgerCache.Set(ledger)
	ledgerRecords.Set(float64(len(ledger.Records)))
	return ledger, nil
}

// renderLedgerError turns a load failure into the right refusal page:
// an unresolved schema lists the columns it found and stops, anything else is
// an internal error.
func (s *Server) renderLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	var serr *sheets.UnresolvedSchemaError
	if errors.As(err, &serr) {
		slog.WarnContext(r.Context(), "Refusing unresolved ledger schema", "columns", serr.Columns)
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "erro.html", errorPage{
			Title:   "Colunas não identificadas",
			Message: "Não foi possível identificar as colunas de data/valor no arquivo.",
			Columns: serr.Columns,
		})
		return
	}
	slog.ErrorContext(r.Context(), "Ledger load error", "error", err)
	w.WriteHeader(http.StatusInternalServerError)
	s.render(w, r, "erro.html", errorPage{
		Title:   "Erro ao carregar os dados",
		Message: "Não foi possível ler o arquivo de lançamentos.",
	})
}

type errorPage struct {
	Title   string
	Message string
	Columns []string
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
	}
}
