// Package api - Thin HTTP layer over core/billing and core/taxinfo.
// The API is ONLY responsible for: input decoding, delegation to the core,
// error classification and output serialization.
// The API NEVER performs billing logic.
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"reviewpay/core/billing"
	"reviewpay/core/taxinfo"
	"reviewpay/db"
	"reviewpay/internal/errors"
	"reviewpay/internal/logging"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// Options configures a Server. Calculator defaults to billing.Default();
// TaxInfo and Store must both be set for /v1/tax-info to be served.
type Options struct {
	Version    string
	Calculator *billing.Calculator
	TaxInfo    *taxinfo.Service
	Store      db.TaxInfoStore
	Logger     *zap.Logger

	// TaxInfoRate and TaxInfoBurst limit registrations across all clients
	TaxInfoRate  rate.Limit
	TaxInfoBurst int
}

// Server is the API server
type Server struct {
	router  chi.Router
	version string
	calc    *billing.Calculator
	taxInfo *taxinfo.Service
	store   db.TaxInfoStore
	limiter *rate.Limiter
	metrics *metrics
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	calc := opts.Calculator
	if calc == nil {
		calc = billing.Default()
	}
	burst := opts.TaxInfoBurst
	if burst <= 0 {
		burst = 1
	}

	s := &Server{
		router:  chi.NewRouter(),
		version: opts.Version,
		calc:    calc,
		taxInfo: opts.TaxInfo,
		store:   opts.Store,
		limiter: rate.NewLimiter(opts.TaxInfoRate, burst),
		metrics: newMetrics(),
		logger:  logging.OrNop(opts.Logger).Named("api"),
		tracer:  otel.Tracer("reviewpay/api"),
	}

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(instrument(s.metrics, s.logger))
	r.Use(traced(s.tracer))

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/billing", func(r chi.Router) {
			r.Post("/campaign", s.handleCampaign)
			r.Post("/compare", s.handleCompare)
			r.Post("/platforms", s.handlePlatforms)
		})
		r.Route("/payouts", func(r chi.Router) {
			r.Post("/calculate", s.handlePayout)
			r.Post("/required-gross", s.handleRequiredGross)
			r.Post("/withdrawal-check", s.handleWithdrawalCheck)
		})
		if s.taxInfo != nil && s.store != nil {
			r.Post("/tax-info", s.handleTaxInfo)
		}
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "reviewpay",
		"api_version": "v1",
	}, http.StatusOK)
}

// decode reads a single JSON object, rejecting unknown fields.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, "INVALID_JSON", "request body is not valid JSON for this endpoint", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code, message string, status int) {
	s.writeJSON(w, ErrorBody{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: RequestID(r.Context()),
	}}, status)
}

// writeFailure classifies err. Decryption, configuration and internal
// failures get a generic message; the detail goes to the log only.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	errType := errors.TypeOf(err)

	message := err.Error()
	var e *errors.Error
	if stderrors.As(err, &e) {
		message = e.Message
	}
	switch errType {
	case errors.TypeDecryption, errors.TypeConfig, errors.TypeEncryption, errors.TypeInternal:
		s.logger.Error("request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("type", string(errType)),
			zap.Error(err),
		)
		message = http.StatusText(status)
	}
	s.writeError(w, r, string(errType), message, status)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

