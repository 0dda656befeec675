package health

import (
	"context"

	"github.com/kailas-cloud/soclens/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; some actions are unavailable.
	Degraded Status = "degraded"
	// Unhealthy indicates the corpus is unavailable and nothing can be served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates an optional capability that is not loaded.
	CheckMissing CheckResult = "missing"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	corpus    CorpusChecker
	caps      CapabilityReporter
	cache     Pinger
	embedding EmbeddingChecker
}

// New creates a Service. cache and embedding can be nil.
func New(corpus CorpusChecker, caps CapabilityReporter, cache Pinger, embedding EmbeddingChecker) *Service {
	return &Service{corpus: corpus, caps: caps, cache: cache, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	corpusOK := s.corpus.CorpusReady(ctx) == nil
	checks["corpus"] = result(corpusOK)

	for _, c := range []domain.Capability{
		domain.CapTextEncoder,
		domain.CapCategoricalEncoder,
		domain.CapNumericScaler,
		domain.CapSeverityClassifier,
		domain.CapHighCriticalClassifier,
		domain.CapRetrievalEncoder,
	} {
		checks[string(c)] = CheckOK
	}
	for _, c := range s.caps.Missing(ctx) {
		checks[string(c)] = CheckMissing
	}

	if s.cache != nil {
		checks["cache"] = result(s.cache.Ping(ctx) == nil)
	}
	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx) == nil)
	}

	if !corpusOK {
		return Report{Status: Unhealthy, Checks: checks}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}
	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
