package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"parcela/internal/core"
	applog "parcela/internal/log"
	"parcela/internal/services"
)

// Server is the JSON API server for transactions, forecasts and accounts.
type Server struct {
	http.Server

	transactions *services.TransactionService
	mutations    *services.MutationController
	forecasts    *services.ForecastEstimator
	auth         *services.Authenticator

	rateLimiter  *rateLimiter
	logs         *applog.StructuredLogger
	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
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

// startCleanup runs periodic cleanup to remove stale client entries
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

// cleanupStaleEntries removes client entries older than 10 minutes
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

// stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, ts *services.TransactionService, mc *services.MutationController, fe *services.ForecastEstimator, auth *services.Authenticator) *Server {
	mux := http.NewServeMux()
	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
		transactions: ts,
		mutations:    mc,
		forecasts:    fe,
		auth:         auth,
		logs:         applog.NewStructuredLogger(logger),
		rateLimiter:  newRateLimiter(),
	}

	// Every request carries a context logger tagged with a fresh request id;
	// the handlers and the structured logger pick it up from there.
	s.Server.Handler = applog.Middleware(logger)(
		applog.RequestIDMiddleware(func(*http.Request) string { return generateRequestID() })(mux))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /register", s.withRequestLogging(s.handleRegister))
	mux.HandleFunc("POST /login", s.withRequestLogging(s.handleLogin))

	mux.HandleFunc("POST /transactions", s.withRequestLogging(s.requireAuth(s.handleCreateTransaction)))
	mux.HandleFunc("GET /transactions", s.withRequestLogging(s.requireAuth(s.handleListTransactions)))
	mux.HandleFunc("PATCH /transactions/{id}", s.withRequestLogging(s.requireAuth(s.handleEditTransaction)))
	mux.HandleFunc("DELETE /transactions/{id}", s.withRequestLogging(s.requireAuth(s.handleDeleteTransaction)))
	mux.HandleFunc("GET /forecast", s.withRequestLogging(s.requireAuth(s.handleForecast)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withRequestLogging adds rate limiting and request logging to a handler.
func (s *Server) withRequestLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		ctx := r.Context()
		s.logs.LogHTTPStart(ctx, r, clientIP)

		// Rate limit mutating requests only
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				applog.NewFields().WithClientIP(clientIP).WithHTTPRequest(r.Method, r.URL.Path, "", "").ToSlice()...)
			w.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logs.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

// authedHandler receives the verified account alongside the request.
type authedHandler func(w http.ResponseWriter, r *http.Request, user core.User)

// requireAuth verifies Basic credentials on every request. There is no
// session state; each call re-checks the password hash.
func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="parcela"`)
			ErrorResponse(http.StatusUnauthorized, "credentials required").Write(w)
			return
		}

		user, err := s.auth.VerifyCredentials(r.Context(), name, password)
		if err != nil {
			s.writeDomainError(w, r, err, applog.OpAuth)
			return
		}

		next(w, r, user)
	}
}

// writeDomainError maps the error onto the response. Errors surfacing as a
// 500 are storage or broker failures rather than request mistakes, so those
// get logged with the failing operation before the opaque body goes out.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	resp := DomainErrorResponse(err)
	if resp.statusCode == http.StatusInternalServerError {
		s.logs.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, operation, applog.NewFields())
	}
	resp.Write(w)
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
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
