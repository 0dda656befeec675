package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, CorpusCSV, cfg.Corpus.Source)
	assert.Equal(t, ArtifactsDir, cfg.Artifacts.Source)
	assert.Equal(t, EncoderTFIDF, cfg.Retrieval.Encoder)
	assert.Equal(t, 8, cfg.Retrieval.DefaultTopK)
	assert.Equal(t, 20, cfg.Retrieval.MaxTopK)
	assert.Equal(t, CacheMemory, cfg.Retrieval.CacheStore)
	assert.Equal(t, 30, cfg.Dashboard.PreviewRows)
	assert.Equal(t, 730, cfg.Dashboard.MaxDailyDays)
	require.NoError(t, cfg.Validate())
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	require.Error(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown corpus source",
			mutate:  func(c *Config) { c.Corpus.Source = "sqlite" },
			wantErr: `corpus.source must be "csv" or "postgres", got "sqlite"`,
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.Corpus.Source = CorpusPostgres
				c.Corpus.DSN = ""
			},
			wantErr: "corpus.dsn is required for postgres source",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.Artifacts.Source = ArtifactsS3 },
			wantErr: "artifacts.s3.bucket is required for s3 source",
		},
		{
			name:    "unknown encoder",
			mutate:  func(c *Config) { c.Retrieval.Encoder = "bm25" },
			wantErr: `retrieval.encoder must be "tfidf" or "openai", got "bm25"`,
		},
		{
			name:    "openai without credentials",
			mutate:  func(c *Config) { c.Retrieval.Encoder = EncoderOpenAI },
			wantErr: "embedding.api_key or embedding.base_url is required for openai encoder",
		},
		{
			name:    "default top k above max",
			mutate:  func(c *Config) { c.Retrieval.DefaultTopK = 25 },
			wantErr: "retrieval.default_top_k (25) must not exceed retrieval.max_top_k (20)",
		},
		{
			name: "redis cache without addrs",
			mutate: func(c *Config) {
				c.Retrieval.CacheMatrix = true
				c.Retrieval.CacheStore = CacheRedis
			},
			wantErr: "database.addrs is required for redis matrix cache",
		},
		{
			name:    "sample rate above one",
			mutate:  func(c *Config) { c.Sentry.SampleRate = 1.5 },
			wantErr: "sentry.sample_rate must be between 0 and 1, got 1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestValidate_RedisCacheDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.CacheStore = CacheRedis

	assert.NoError(t, cfg.Validate())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SOCLENS_TEST_TOKEN", "secret")

	got := expandEnvVars([]byte("a: ${SOCLENS_TEST_TOKEN}\nb: ${SOCLENS_TEST_UNSET:-fallback}\nc: ${SOCLENS_TEST_UNSET}"))

	assert.Equal(t, "a: secret\nb: fallback\nc: ", string(got))
}

func TestLoad_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("SOCLENS_HTTP_PORT", "9191")
	t.Setenv("SOCLENS_CORPUS_PATH", "/data/incidents.csv")
	t.Setenv("SOCLENS_API_KEYS", "k1,k2")

	cfg, err := Load("no-such-environment")
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.HTTP.Port)
	assert.Equal(t, "/data/incidents.csv", cfg.Corpus.Path)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
	assert.Equal(t, EncoderTFIDF, cfg.Retrieval.Encoder)
}

func TestLoad_InvalidOverride(t *testing.T) {
	t.Setenv("SOCLENS_CORPUS_SOURCE", "parquet")

	_, err := Load("no-such-environment")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	assert.Equal(t, "local", GetEnv())

	t.Setenv("ENV", "prod")
	assert.Equal(t, "prod", GetEnv())
}
