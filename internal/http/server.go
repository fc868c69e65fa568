// Package http exposes the ledger over a JSON API protected by basic auth.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/insight"
	applog "ledger/internal/log"
	"ledger/internal/services"
)

type Server struct {
	http.Server
	users       *services.UserService
	ledgers     map[core.Kind]*services.LedgerService
	insight     *insight.Client
	rateLimiter *rateLimiter
	logger      *applog.Logger
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// The insight client may be nil; the insight endpoint then reports the
// feature as unavailable.
func NewServer(addr string, users *services.UserService, expenses, incomes *services.LedgerService, insightClient *insight.Client, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		users: users,
		ledgers: map[core.Kind]*services.LedgerService{
			core.KindExpense: expenses,
			core.KindIncome:  incomes,
		},
		insight:     insightClient,
		rateLimiter: newRateLimiter(),
		logger:      logger.WithComponent(applog.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	for _, kind := range []core.Kind{core.KindExpense, core.KindIncome} {
		kind := kind
		base := "/api/" + string(kind) + "s"
		mux.HandleFunc("GET "+base, s.protect(s.handleList(kind)))
		mux.HandleFunc("POST "+base, s.protect(s.handleCreate(kind)))
		mux.HandleFunc("PUT "+base+"/{id}", s.protect(s.handleUpdate(kind)))
		mux.HandleFunc("DELETE "+base+"/{id}", s.protect(s.handleDelete(kind)))
		mux.HandleFunc("GET "+base+"/summary", s.protect(s.handleSummary(kind)))
		mux.HandleFunc("GET "+base+"/categories", s.protect(s.handleCategories(kind)))
		mux.HandleFunc("GET /api/export/"+string(kind)+"s.csv", s.protect(s.handleExportCSV(kind)))
		mux.HandleFunc("GET /api/export/"+string(kind)+"s.json", s.protect(s.handleExportJSON(kind)))
		mux.HandleFunc("POST /api/import/"+string(kind)+"s", s.protect(s.handleImport(kind)))
	}

	mux.HandleFunc("GET /api/report", s.protect(s.handleReport))
	mux.HandleFunc("POST /api/insight", s.protect(s.handleInsight))

	return s
}

// protect wraps a handler with request logging, rate limiting, and basic
// auth. The authenticated user lands in the request context.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := clientAddr(r)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(r.Context(), "rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="ledger"`)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := s.users.Authenticate(r.Context(), username, password)
		if err != nil {
			s.logger.WarnContext(r.Context(), "authentication failed",
				applog.FieldUser, username,
				applog.FieldClientIP, clientIP)
			w.Header().Set("WWW-Authenticate", `Basic realm="ledger"`)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r.WithContext(withUser(r.Context(), user)))

		s.logger.InfoContext(r.Context(), "request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldUser, user.Username)
	}
}

func clientAddr(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type contextKey string

const userContextKey contextKey = "user"

func withUser(ctx context.Context, u *core.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func userFrom(ctx context.Context) *core.User {
	u, _ := ctx.Value(userContextKey).(*core.User)
	return u
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Simple in-memory rate limiter for mutating requests.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{clients: make(map[string]*clientInfo)}
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= 60
}
