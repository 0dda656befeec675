package retrieve

import (
	"context"

	"github.com/kailas-cloud/soclens/internal/domain"
)

// MatrixCache stores encoded corpus matrices keyed by corpus fingerprint and
// encoder identity. A nil MatrixCache disables caching.
type MatrixCache interface {
	Get(ctx context.Context, key string) ([]domain.SparseVector, bool)
	Put(ctx context.Context, key string, rows []domain.SparseVector)
}
