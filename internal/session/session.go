// Package session holds the read-only state of one running dashboard: the
// pre-trained artifacts and the incident corpus, both resolved lazily on
// first use and never mutated afterwards.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/artifact"
	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/incident"
	domplaybook "github.com/kailas-cloud/soclens/internal/domain/playbook"
	"github.com/kailas-cloud/soclens/internal/domain/prediction"
	"github.com/kailas-cloud/soclens/internal/domain/similarity"
	"github.com/kailas-cloud/soclens/internal/metrics"
	"github.com/kailas-cloud/soclens/internal/repository/corpus"
	"github.com/kailas-cloud/soclens/internal/usecase/dashboard"
	"github.com/kailas-cloud/soclens/internal/usecase/playbook"
	"github.com/kailas-cloud/soclens/internal/usecase/predict"
	"github.com/kailas-cloud/soclens/internal/usecase/retrieve"
)

// Defaults for retrieval bounds.
const (
	DefaultTopK = 8
	MaxTopK     = 20
)

// Options configures a Session.
type Options struct {
	Artifacts artifact.Source
	Files     artifact.Files
	Corpus    corpus.Loader
	// Dense replaces the TF-IDF artifact as the retrieval encoder when set.
	Dense domain.TextEncoder
	// MatrixCache is optional.
	MatrixCache retrieve.MatrixCache
	// Playbook defaults to the built-in rule set.
	Playbook     *playbook.Engine
	PreviewRows  int
	MaxDailyDays int
	DefaultTopK  int
	MaxTopK      int
	// Strict makes Warm fail on a feature layout mismatch.
	Strict bool
	Logger *zap.Logger
}

// Session is safe for concurrent use.
type Session struct {
	opts      Options
	logger    *zap.Logger
	dashboard *dashboard.Service
	playbook  *playbook.Engine

	artifactsOnce sync.Once
	artifacts     *artifact.Set

	corpusOnce sync.Once
	corpus     incident.Corpus
	corpusErr  error

	servicesOnce sync.Once
	predictor    *predict.Service
	predictErr   error
	retriever    *retrieve.Service
}

// New creates a Session. Nothing is loaded until first use or Warm.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Playbook == nil {
		opts.Playbook = playbook.Default()
	}
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = DefaultTopK
	}
	if opts.MaxTopK <= 0 {
		opts.MaxTopK = MaxTopK
	}
	return &Session{
		opts:      opts,
		logger:    opts.Logger,
		dashboard: dashboard.New(opts.PreviewRows).WithMaxDailyDays(opts.MaxDailyDays),
		playbook:  opts.Playbook,
	}
}

// Warm resolves artifacts, corpus and services eagerly. A missing corpus or
// artifact only degrades the session; a feature layout mismatch is returned
// when the session is strict.
func (s *Session) Warm(ctx context.Context) error {
	if _, err := s.Corpus(ctx); err != nil {
		s.logger.Warn("Corpus unavailable", zap.Error(err))
	}
	s.services(ctx)
	if s.predictErr != nil {
		s.logger.Error("Classifier configuration error", zap.Error(s.predictErr))
		if s.opts.Strict {
			return s.predictErr
		}
	}
	return nil
}

// Artifacts returns the resolved artifact set.
func (s *Session) Artifacts(ctx context.Context) *artifact.Set {
	s.artifactsOnce.Do(func() {
		s.artifacts = artifact.Load(context.WithoutCancel(ctx), s.opts.Artifacts, s.opts.Files, s.logger)
	})
	return s.artifacts
}

// Corpus returns the full incident corpus.
func (s *Session) Corpus(ctx context.Context) (incident.Corpus, error) {
	s.corpusOnce.Do(func() {
		if s.opts.Corpus == nil {
			s.corpusErr = fmt.Errorf("%w: no corpus source configured", domain.ErrCorpusUnavailable)
			return
		}
		s.corpus, s.corpusErr = s.opts.Corpus.Load(context.WithoutCancel(ctx))
		if s.corpusErr == nil {
			s.logger.Info("Corpus loaded",
				zap.String("source", s.corpus.Source()),
				zap.Int("records", s.corpus.Len()),
			)
		}
	})
	return s.corpus, s.corpusErr
}

// CorpusReady implements health.CorpusChecker.
func (s *Session) CorpusReady(ctx context.Context) error {
	_, err := s.Corpus(ctx)
	return err
}

func (s *Session) services(ctx context.Context) {
	s.servicesOnce.Do(func() {
		set := s.Artifacts(ctx)

		s.predictor, s.predictErr = predict.New(predict.Capabilities{
			Text:         set.Text,
			Categorical:  set.Categorical,
			Numeric:      set.Numeric,
			Severity:     set.Severity,
			HighCritical: set.HighCritical,
		}, s.logger)

		enc := domain.TextEncoder(set.Text)
		if s.opts.Dense != nil {
			enc = s.opts.Dense
		}
		s.retriever = retrieve.New(enc, s.opts.MatrixCache, s.logger)
		if !s.retriever.Available() {
			s.logger.Warn("Similarity retrieval unavailable", zap.String("missing", string(domain.CapRetrievalEncoder)))
		}

		for _, st := range s.capabilities(set) {
			metrics.SetCapability(string(st.Capability), st.Available)
		}
	})
}

// Capabilities reports every capability with its availability.
func (s *Session) Capabilities(ctx context.Context) []artifact.Status {
	s.services(ctx)
	return s.capabilities(s.Artifacts(ctx))
}

func (s *Session) capabilities(set *artifact.Set) []artifact.Status {
	out := set.Statuses()
	st := artifact.Status{Capability: domain.CapRetrievalEncoder, Available: s.retriever.Available()}
	switch {
	case s.opts.Dense != nil:
		st.Artifact = s.opts.Dense.Identity()
	default:
		st.Artifact = s.opts.Files.TextEncoder
		if !st.Available {
			st.Reason = "text encoder artifact not loaded"
		}
	}
	return append(out, st)
}

// Missing implements health.CapabilityReporter.
func (s *Session) Missing(ctx context.Context) []domain.Capability {
	var out []domain.Capability
	for _, st := range s.Capabilities(ctx) {
		if !st.Available {
			out = append(out, st.Capability)
		}
	}
	return out
}

// Predict classifies one hypothetical incident. Missing capabilities yield an
// unavailable prediction; a feature layout mismatch is a configuration error.
func (s *Session) Predict(ctx context.Context, req predict.Request) (prediction.Prediction, error) {
	s.services(ctx)
	if s.predictErr != nil {
		metrics.PredictionsTotal.WithLabelValues("error").Inc()
		return prediction.Prediction{}, s.predictErr
	}

	p, err := s.predictor.Predict(ctx, req)
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		metrics.PredictionsTotal.WithLabelValues("invalid").Inc()
	case err != nil:
		metrics.PredictionsTotal.WithLabelValues("error").Inc()
	case !p.Available():
		metrics.PredictionsTotal.WithLabelValues("unavailable").Inc()
	default:
		metrics.PredictionsTotal.WithLabelValues("ok").Inc()
	}
	return p, err
}

// Retrieval is a similarity result with its playbook recommendation.
type Retrieval struct {
	Result         similarity.Result
	Recommendation domplaybook.Recommendation
}

// Retrieve ranks the full corpus against query. k == 0 uses the default;
// k outside 1..MaxTopK is invalid.
func (s *Session) Retrieve(ctx context.Context, query string, k int) (Retrieval, error) {
	if k == 0 {
		k = s.opts.DefaultTopK
	}
	if k < 1 || k > s.opts.MaxTopK {
		return Retrieval{}, fmt.Errorf("%w: top_k must be between 1 and %d, got %d",
			domain.ErrInvalidRequest, s.opts.MaxTopK, k)
	}

	s.services(ctx)
	if !s.retriever.Available() {
		return Retrieval{}, &domain.CapabilityError{
			Action:  "similarity retrieval",
			Missing: []domain.Capability{domain.CapRetrievalEncoder},
		}
	}

	c, err := s.Corpus(ctx)
	if err != nil {
		return Retrieval{}, err
	}

	res, err := s.retriever.Retrieve(ctx, c, query, k)
	if err != nil {
		return Retrieval{}, err
	}
	return Retrieval{Result: res, Recommendation: s.playbook.RecommendFor(res)}, nil
}

// Incidents returns the preview rows of the filtered view and its size.
func (s *Session) Incidents(ctx context.Context, f incident.Filter, limit int) ([]incident.Record, int, error) {
	view, err := s.view(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return s.dashboard.Preview(view, limit), view.Len(), nil
}

// Stats summarises the filtered view.
func (s *Session) Stats(ctx context.Context, f incident.Filter) (dashboard.Stats, error) {
	view, err := s.view(ctx, f)
	if err != nil {
		return dashboard.Stats{}, err
	}
	return s.dashboard.Stats(view), nil
}

// Options lists filter values over the full corpus and predictor form values
// over the filtered view.
func (s *Session) Options(
	ctx context.Context, f incident.Filter,
) (dashboard.FilterOptions, dashboard.PredictorOptions, error) {
	c, err := s.Corpus(ctx)
	if err != nil {
		return dashboard.FilterOptions{}, dashboard.PredictorOptions{}, err
	}
	return s.dashboard.FilterOptions(c), s.dashboard.PredictorOptions(c.Filter(f)), nil
}

// Rules returns the active playbook rules.
func (s *Session) Rules() []domplaybook.Rule { return s.playbook.Rules() }

// TopKBounds returns the default and maximum top-k.
func (s *Session) TopKBounds() (int, int) { return s.opts.DefaultTopK, s.opts.MaxTopK }

func (s *Session) view(ctx context.Context, f incident.Filter) (incident.Corpus, error) {
	c, err := s.Corpus(ctx)
	if err != nil {
		return incident.Corpus{}, err
	}
	return c.Filter(f), nil
}
