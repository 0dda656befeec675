package retrieve

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/incident"
	"github.com/kailas-cloud/soclens/internal/domain/similarity"
	"github.com/kailas-cloud/soclens/internal/metrics"
)

// Service ranks corpus records by inner-product similarity to a query.
type Service struct {
	encoder domain.TextEncoder
	cache   MatrixCache
	logger  *zap.Logger
}

// New creates a retriever. cache may be nil.
func New(encoder domain.TextEncoder, cache MatrixCache, logger *zap.Logger) *Service {
	return &Service{encoder: encoder, cache: cache, logger: logger}
}

// Available reports whether a retrieval encoder is wired.
func (s *Service) Available() bool { return !domain.IsAbsent(s.encoder) }

// Retrieve returns the top-k records of corpus most similar to query.
// Result length is min(k, corpus size). Equal scores keep corpus order.
func (s *Service) Retrieve(
	ctx context.Context, corpus incident.Corpus, query string, k int,
) (similarity.Result, error) {
	if k < 1 {
		return similarity.Result{}, fmt.Errorf("%w: top_k must be at least 1, got %d", domain.ErrInvalidRequest, k)
	}
	if !s.Available() {
		return similarity.Result{}, &domain.CapabilityError{
			Action:  "similarity retrieval",
			Missing: []domain.Capability{domain.CapRetrievalEncoder},
		}
	}

	start := time.Now()
	defer func() {
		metrics.RetrievalDuration.WithLabelValues(s.encoder.Identity()).Observe(time.Since(start).Seconds())
	}()

	matrix, err := s.corpusMatrix(ctx, corpus)
	if err != nil {
		return similarity.Result{}, err
	}

	q, err := s.encoder.Encode(ctx, query)
	if err != nil {
		return similarity.Result{}, fmt.Errorf("encode query: %w", err)
	}

	order := make([]int, len(matrix))
	scores := make([]float64, len(matrix))
	for i, row := range matrix {
		order[i] = i
		scores[i] = row.Dot(q)
	}
	// stable sort keeps ascending corpus position among equal scores
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case scores[a] > scores[b]:
			return -1
		case scores[a] < scores[b]:
			return 1
		default:
			return 0
		}
	})

	n := min(k, len(order))
	hits := make([]similarity.Hit, n)
	for rank := range n {
		i := order[rank]
		hits[rank] = similarity.NewHit(corpus.At(i), scores[i])
	}
	return similarity.NewResult(hits), nil
}

// corpusMatrix encodes every corpus description, consulting the cache first.
func (s *Service) corpusMatrix(ctx context.Context, corpus incident.Corpus) ([]domain.SparseVector, error) {
	key := corpus.Fingerprint() + ":" + s.encoder.Identity()

	if s.cache != nil {
		if rows, ok := s.cache.Get(ctx, key); ok && len(rows) == corpus.Len() {
			return rows, nil
		}
	}

	rows, err := domain.EncodeAll(ctx, s.encoder, corpus.Descriptions())
	if err != nil {
		return nil, fmt.Errorf("encode corpus: %w", err)
	}

	s.logger.Debug("Encoded corpus matrix",
		zap.String("encoder", s.encoder.Identity()),
		zap.String("corpus", corpus.Fingerprint()),
		zap.Int("rows", len(rows)),
	)

	if s.cache != nil {
		s.cache.Put(ctx, key, rows)
	}
	return rows, nil
}
