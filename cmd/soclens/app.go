package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/artifact"
	"github.com/kailas-cloud/soclens/internal/config"
	"github.com/kailas-cloud/soclens/internal/db"
	dbRedis "github.com/kailas-cloud/soclens/internal/db/redis"
	logpkg "github.com/kailas-cloud/soclens/internal/logger"
	"github.com/kailas-cloud/soclens/internal/metrics"
	"github.com/kailas-cloud/soclens/internal/repository/corpus"
	"github.com/kailas-cloud/soclens/internal/repository/matrixcache"
	"github.com/kailas-cloud/soclens/internal/session"
	"github.com/kailas-cloud/soclens/internal/telemetry"
	openaiEnc "github.com/kailas-cloud/soclens/internal/transport/openai"
	healthuc "github.com/kailas-cloud/soclens/internal/usecase/health"
	"github.com/kailas-cloud/soclens/internal/usecase/playbook"
	"github.com/kailas-cloud/soclens/internal/version"
)

// app is the composition root shared by every command.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	session *session.Session
	health  *healthuc.Service
	closers []func()
}

func newApp(ctx context.Context) (*app, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{env: env, cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	sentryEnv := cfg.Sentry.Environment
	if sentryEnv == "" {
		sentryEnv = env
	}
	flush := telemetry.Init(telemetry.Config{
		DSN:         cfg.Sentry.DSN,
		Environment: sentryEnv,
		SampleRate:  cfg.Sentry.SampleRate,
		Release:     "soclens@" + version.Version,
	}, logger)
	a.closers = append(a.closers, flush)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	if err := a.build(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(ctx context.Context) error {
	cfg := a.cfg

	src, err := a.artifactSource(ctx)
	if err != nil {
		return err
	}

	loader, err := a.corpusLoader(ctx)
	if err != nil {
		return err
	}

	engine := playbook.Default()
	if cfg.Playbook.RulesFile != "" {
		engine, err = playbook.LoadFile(cfg.Playbook.RulesFile)
		if err != nil {
			return fmt.Errorf("failed to load playbook rules: %w", err)
		}
	}

	opts := session.Options{
		Artifacts:    src,
		Files:        artifactFiles(cfg.Artifacts.Files),
		Corpus:       loader,
		Playbook:     engine,
		PreviewRows:  cfg.Dashboard.PreviewRows,
		MaxDailyDays: cfg.Dashboard.MaxDailyDays,
		DefaultTopK:  cfg.Retrieval.DefaultTopK,
		MaxTopK:      cfg.Retrieval.MaxTopK,
		Strict:       cfg.Artifacts.Strict,
		Logger:       a.logger,
	}

	// Pass nil interfaces (not typed nil pointers) for optional components.
	var (
		cachePinger healthuc.Pinger
		embChecker  healthuc.EmbeddingChecker
	)

	if cfg.Retrieval.Encoder == config.EncoderOpenAI {
		enc := openaiEnc.NewEncoder(&openaiEnc.Config{
			APIKey:       cfg.Embedding.APIKey,
			BaseURL:      cfg.Embedding.BaseURL,
			Model:        cfg.Embedding.Model,
			Dimensions:   cfg.Embedding.Dimensions,
			Provider:     cfg.Embedding.Provider,
			MaxBatchSize: cfg.Embedding.MaxBatchSize,
			Logger:       a.logger,
		})
		opts.Dense = enc
		embChecker = enc
		a.logger.Info("Dense retrieval encoder configured",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
		)
	}

	if cfg.Retrieval.CacheMatrix {
		ttl := time.Duration(cfg.Retrieval.CacheTTLSec) * time.Second
		switch cfg.Retrieval.CacheStore {
		case config.CacheRedis:
			store, err := a.redisStore(ctx)
			if err != nil {
				return err
			}
			opts.MatrixCache = matrixcache.New(store, ttl, cfg.Retrieval.CacheMaxEntries, metrics.MatrixCacheTotal, a.logger)
			cachePinger = store
		default:
			opts.MatrixCache = matrixcache.New(nil, ttl, cfg.Retrieval.CacheMaxEntries, metrics.MatrixCacheTotal, a.logger)
		}
	}

	a.session = session.New(opts)
	a.health = healthuc.New(a.session, a.session, cachePinger, embChecker)
	return nil
}

func (a *app) artifactSource(ctx context.Context) (artifact.Source, error) {
	c := a.cfg.Artifacts
	if c.Source != config.ArtifactsS3 {
		a.logger.Info("Artifact source", zap.String("dir", c.Dir))
		return artifact.NewDirSource(c.Dir), nil
	}

	src, err := artifact.NewS3Source(ctx, artifact.S3Config{
		Endpoint:        c.S3.Endpoint,
		Region:          c.S3.Region,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
		Bucket:          c.S3.Bucket,
		Prefix:          c.S3.Prefix,
		UsePathStyle:    c.S3.UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 artifact source: %w", err)
	}
	a.logger.Info("Artifact source", zap.String("source", src.Name()))
	return src, nil
}

func (a *app) corpusLoader(ctx context.Context) (corpus.Loader, error) {
	c := a.cfg.Corpus
	if c.Source != config.CorpusPostgres {
		return corpus.NewCSVLoader(c.Path, a.logger), nil
	}

	pool, err := corpus.OpenPool(ctx, c.DSN, c.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus database: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	return corpus.NewPostgresLoader(pool, c.Table, a.logger), nil
}

func (a *app) redisStore(ctx context.Context) (db.Store, error) {
	db := a.cfg.Database
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    db.Addrs,
		Password: db.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix cache store: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	if err := store.WaitForReady(ctx, time.Duration(db.ReadinessTimeout)*time.Second); err != nil {
		return nil, fmt.Errorf("matrix cache store not ready: %w", err)
	}
	a.logger.Info("Connected to matrix cache store", zap.Strings("addrs", db.Addrs))
	return store, nil
}

// close runs closers in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// artifactFiles overlays configured names on the defaults.
func artifactFiles(c config.ArtifactFiles) artifact.Files {
	f := artifact.DefaultFiles()
	for _, o := range []struct {
		dst *string
		v   string
	}{
		{&f.TextEncoder, c.TextEncoder},
		{&f.CategoricalEncoder, c.CategoricalEncoder},
		{&f.NumericScaler, c.NumericScaler},
		{&f.SeverityClassifier, c.SeverityClassifier},
		{&f.HighCriticalClassifier, c.HighCriticalClassifier},
	} {
		if o.v != "" {
			*o.dst = o.v
		}
	}
	return f
}
