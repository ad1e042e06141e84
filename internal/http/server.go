package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"kakeibo/internal/holiday"
	applog "kakeibo/internal/log"
	"kakeibo/internal/middleware/ratelimit"
	"kakeibo/internal/middleware/security"
	"kakeibo/internal/services"
)

// Pinger reports storage liveness for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the server serves from.
type Deps struct {
	Transactions   *services.TransactionService
	Budgets        *services.BudgetService
	Categories     *services.CategoryService
	PaymentMethods *services.PaymentMethodService
	Holidays       *holiday.Client
	Ready          Pinger
	Logger         *applog.Logger

	// Write requests per client IP per minute.
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	transactions   *services.TransactionService
	budgets        *services.BudgetService
	categories     *services.CategoryService
	paymentMethods *services.PaymentMethodService
	holidays       *holiday.Client
	ready          Pinger
	logger         *applog.Logger

	limiter      *ratelimit.Limiter
	clientIPs    *security.IPExtractor
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &Server{
		transactions:   deps.Transactions,
		budgets:        deps.Budgets,
		categories:     deps.Categories,
		paymentMethods: deps.PaymentMethods,
		holidays:       deps.Holidays,
		ready:          deps.Ready,
		logger:         logger,
		limiter:        ratelimit.New(deps.RateLimitPerMinute),
		clientIPs:      security.NewIPExtractor(),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/v1/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/v1/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/v1/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/v1/summary/monthly", s.handleMonthlySummary)
	mux.HandleFunc("GET /api/v1/summary/daily", s.handleDayDetail)
	mux.HandleFunc("GET /api/v1/stats/monthly", s.handleMonthlyStats)

	mux.HandleFunc("GET /api/v1/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/v1/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/v1/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PUT /api/v1/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/v1/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /api/v1/subcategories", s.handleCreateSubCategory)
	mux.HandleFunc("GET /api/v1/subcategories/{id}", s.handleGetSubCategory)
	mux.HandleFunc("PUT /api/v1/subcategories/{id}", s.handleUpdateSubCategory)
	mux.HandleFunc("DELETE /api/v1/subcategories/{id}", s.handleDeleteSubCategory)

	mux.HandleFunc("GET /api/v1/payment-methods", s.handleListPaymentMethods)
	mux.HandleFunc("POST /api/v1/payment-methods", s.handleCreatePaymentMethod)
	mux.HandleFunc("GET /api/v1/payment-methods/{id}", s.handleGetPaymentMethod)
	mux.HandleFunc("PUT /api/v1/payment-methods/{id}", s.handleUpdatePaymentMethod)
	mux.HandleFunc("DELETE /api/v1/payment-methods/{id}", s.handleDeletePaymentMethod)

	mux.HandleFunc("GET /api/v1/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/v1/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/v1/budgets/active", s.handleActiveBudgets)
	mux.HandleFunc("GET /api/v1/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("PUT /api/v1/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/v1/budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("GET /api/v1/budgets/{id}/progress", s.handleBudgetProgress)

	mux.HandleFunc("GET /api/v1/form-data", s.handleFormData)
	mux.HandleFunc("GET /api/v1/holidays", s.handleHolidays)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	handler := applog.Middleware(logger)(s.withMiddleware(mux))

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// withMiddleware adds request IDs, security headers, write rate limiting and
// request logging around every route.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := s.clientIPs.ClientIP(r)

		requestID := generateRequestID()
		ctx := applog.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		if security.Probe(r) {
			s.logger.WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.String())
		}

		if isWrite(r.Method) && !s.limiter.Allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		security.SetHeaders(w)

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.status,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// statusWriter captures the status code for the request log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// Shutdown stops the background limiter before draining connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready.Ping(r.Context()); err != nil {
			s.logger.ErrorContext(r.Context(), "Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unreachable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
