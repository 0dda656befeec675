package health

import (
	"context"

	"github.com/kailas-cloud/soclens/internal/domain"
)

// CorpusChecker reports whether the incident corpus could be loaded.
type CorpusChecker interface {
	CorpusReady(ctx context.Context) error
}

// CapabilityReporter lists the pre-trained capabilities that are absent.
type CapabilityReporter interface {
	Missing(ctx context.Context) []domain.Capability
}

// Pinger checks an optional backing store (matrix cache KV).
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
