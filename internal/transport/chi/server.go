package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/incident"
	"github.com/kailas-cloud/soclens/internal/telemetry"
	healthuc "github.com/kailas-cloud/soclens/internal/usecase/health"
	"github.com/kailas-cloud/soclens/internal/usecase/predict"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server holds the HTTP handlers of the dashboard API.
type Server struct {
	session       Session
	health        HealthChecker
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(sess Session, health HealthChecker) *Server {
	return &Server{
		session:       sess,
		health:        health,
		errorHandlers: defaultErrorHandlers(),
	}
}

// HealthCheck handles GET /health. A degraded session still answers 200.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// GetCapabilities handles GET /api/v1/capabilities.
func (s *Server) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	def, maxK := s.session.TopKBounds()
	writeJSON(w, http.StatusOK, NewCapabilitiesResponse(s.session.Capabilities(r.Context()), def, maxK))
}

// ListIncidents handles GET /api/v1/incidents.
func (s *Server) ListIncidents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, total, err := s.session.Incidents(r.Context(), filterFromQuery(r), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]IncidentResponse, len(records))
	for i := range records {
		items[i] = incidentToResponse(&records[i])
	}
	writeJSON(w, http.StatusOK, IncidentListResponse{Items: items, Total: total})
}

// GetStats handles GET /api/v1/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Stats(r.Context(), filterFromQuery(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(st))
}

// GetOptions handles GET /api/v1/options.
func (s *Server) GetOptions(w http.ResponseWriter, r *http.Request) {
	filters, predictor, err := s.session.Options(r.Context(), filterFromQuery(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, optionsToResponse(filters, predictor))
}

// Predict handles POST /api/v1/predict.
func (s *Server) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, span := telemetry.StartSpan(r.Context(), "predict", "severity prediction")
	defer span.End()

	p, err := s.session.Predict(ctx, predict.Request{
		Description: req.Description,
		ThreatType:  req.ThreatType,
		Status:      req.Status,
		AssetType:   req.AssetType,
		Department:  req.Department,
		DayOfWeek:   req.DayOfWeek,
		Hour:        req.Hour,
		Month:       req.Month,
	})
	if err != nil {
		span.SetError(err)
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewPredictResponse(p))
}

// Retrieve handles POST /api/v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, span := telemetry.StartSpan(r.Context(), "retrieve", "similarity retrieval")
	defer span.End()

	res, err := s.session.Retrieve(ctx, req.Query, req.TopK)
	var ce *domain.CapabilityError
	switch {
	case errors.As(err, &ce):
		writeJSON(w, http.StatusOK, NewRetrieveUnavailable(ce.Missing))
		return
	case err != nil:
		span.SetError(err)
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewRetrieveResponse(res))
}

func filterFromQuery(r *http.Request) incident.Filter {
	q := r.URL.Query()
	return incident.Filter{
		Severity:   q.Get("severity"),
		ThreatType: q.Get("threat_type"),
		Department: q.Get("department"),
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
