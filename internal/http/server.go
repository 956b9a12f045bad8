package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	applog "moneybuddy/internal/log"
	"moneybuddy/internal/services"
	appweb "moneybuddy/web"
)

// Pinger reports whether the persistence backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	templates      *template.Template
	svc            *services.FinanceService
	pinger         Pinger
	rateLimiter    *rateLimiter
	metrics        *securityMetrics
	logger         *applog.Logger
	events         *applog.StructuredLogger
	importMaxBytes int64
	startedAt      time.Time
	shutdownOnce   sync.Once
}

type Option func(*Server)

// WithPinger enables the store check in /readyz.
func WithPinger(p Pinger) Option {
	return func(s *Server) { s.pinger = p }
}

// WithLogger replaces the default component logger.
func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithImportLimit caps multipart upload bodies.
func WithImportLimit(maxBytes int64) Option {
	return func(s *Server) { s.importMaxBytes = maxBytes }
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.FinanceService, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:            svc,
		rateLimiter:    newRateLimiter(),
		metrics:        &securityMetrics{},
		importMaxBytes: 5 << 20,
		startedAt:      time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.New(applog.Config{
			Component: applog.ComponentHTTP,
			Handler:   slog.Default().Handler(),
		})
	}
	s.events = applog.NewStructuredLogger(s.logger)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// route registers a page handler behind the security wrapper with its
	// request logger tagged by component.
	route := func(pattern, component string, h http.HandlerFunc) {
		mux.Handle(pattern, applog.ComponentMiddleware(component)(s.withSecurityHeaders(h)))
	}

	route("/", applog.ComponentHTTP, s.handleIndex)
	route("/transactions", applog.ComponentLedger, s.handleCreateTransaction)
	route("/transactions/delete", applog.ComponentLedger, s.handleDeleteTransaction)
	route("/transactions/import", applog.ComponentImport, s.handleImportFile)
	route("/transactions/import/sheet", applog.ComponentImport, s.handleImportSheet)
	route("/ui/summary", applog.ComponentLedger, s.handleSummary)
	route("/ui/transactions", applog.ComponentLedger, s.handleTransactionList)
	route("/api/transactions", applog.ComponentLedger, s.handleTransactionsAPI)

	route("/goals", applog.ComponentGoals, s.handleGoals)
	route("/goals/progress", applog.ComponentGoals, s.handleGoalProgress)
	route("/goals/delete", applog.ComponentGoals, s.handleDeleteGoal)
	route("/goals/template", applog.ComponentGoals, s.handleGoalTemplate)
	route("/api/goals", applog.ComponentGoals, s.handleGoalsAPI)

	route("/learn", applog.ComponentHTTP, s.handleLearn)
	route("/advice", applog.ComponentHTTP, s.handleAdvice)

	s.Handler = applog.Middleware(s.logger)(mux)
	return s
}

// Shutdown stops the rate limiter and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := uuid.NewString()

		reqFields := applog.NewFields().WithRequestID(requestID).WithClientIP(clientIP)
		reqLogger := applog.FromContext(r.Context()).With(reqFields.ToSlice()...)
		ctx := applog.NewContext(r.Context(), reqLogger)
		r = r.WithContext(ctx)

		s.events.LogHTTPStart(ctx, r, clientIP)

		if reason := flagSuspicious(r, s.metrics); reason != "" {
			reqLogger.WarnContext(ctx, "Suspicious request",
				"reason", reason,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.UserAgent())
		}

		if policy, limited := policyFor(r); limited {
			if ok, wait := s.rateLimiter.allow(policy, clientIP); !ok {
				s.metrics.rateLimitHits.Add(1)
				reqLogger.WarnContext(ctx, "Rate limit exceeded", "policy", policy.name, applog.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}

		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.events.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
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

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks templates and the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]any{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.pinger == nil {
		checks["store"] = "not_configured"
	} else if err := s.pinger.Ping(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.activeClients(),
		"hits":           s.metrics.snapshot().RateLimitHits,
		"suspicious":     s.metrics.snapshot().SuspiciousRequests,
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
