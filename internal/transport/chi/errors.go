package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/logger"
	"github.com/kailas-cloud/soclens/internal/telemetry"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, r *http.Request, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrCorpusUnavailable, http.StatusServiceUnavailable, CodeCorpusUnavailable),
		configurationErrorHandler,
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation and layout errors carry their full text.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrFeatureMismatch) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrCorpusUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrCapabilityUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, _ *http.Request, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// configurationErrorHandler reports incompatible artifacts. They are never
// absorbed into a degraded answer.
func configurationErrorHandler(w http.ResponseWriter, r *http.Request, err error, msg string) bool {
	if !errors.Is(err, domain.ErrFeatureMismatch) {
		return false
	}
	logger.FromContext(r.Context()).Error("configuration error", zap.Error(err))
	telemetry.CaptureError(r.Context(), err, map[string]string{"code": string(CodeConfigurationError)})
	writeError(w, http.StatusInternalServerError, CodeConfigurationError, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, r, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	telemetry.CaptureError(r.Context(), err, map[string]string{"code": string(CodeInternalError)})
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
