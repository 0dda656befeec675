package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides (SOCLENS_HTTP_PORT, ...).
const EnvPrefix = "SOCLENS"

// Config holds the soclens configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Playbook  PlaybookConfig  `yaml:"playbook"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Sentry    SentryConfig    `yaml:"sentry"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Corpus sources.
const (
	CorpusCSV      = "csv"
	CorpusPostgres = "postgres"
)

// CorpusConfig selects where the incident corpus is read from.
type CorpusConfig struct {
	Source   string `yaml:"source"` // csv, postgres (default: csv)
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	Table    string `yaml:"table"`
	MaxConns int32  `yaml:"max_conns"`
}

// Artifact sources.
const (
	ArtifactsDir = "dir"
	ArtifactsS3  = "s3"
)

// ArtifactsConfig holds pre-trained artifact settings.
type ArtifactsConfig struct {
	Source string        `yaml:"source"` // dir, s3 (default: dir)
	Dir    string        `yaml:"dir"`
	S3     S3Config      `yaml:"s3"`
	Files  ArtifactFiles `yaml:"files"`
	Strict bool          `yaml:"strict"` // fail startup on feature layout mismatch
}

// S3Config holds S3-compatible bucket settings.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// ArtifactFiles names the artifact documents. Empty names keep the defaults.
type ArtifactFiles struct {
	TextEncoder            string `yaml:"text_encoder"`
	CategoricalEncoder     string `yaml:"categorical_encoder"`
	NumericScaler          string `yaml:"numeric_scaler"`
	SeverityClassifier     string `yaml:"severity_classifier"`
	HighCriticalClassifier string `yaml:"high_critical_classifier"`
}

// Retrieval encoders.
const (
	EncoderTFIDF  = "tfidf"
	EncoderOpenAI = "openai"
)

// Matrix cache stores.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// RetrievalConfig holds similarity retrieval settings.
type RetrievalConfig struct {
	Encoder         string `yaml:"encoder"` // tfidf, openai (default: tfidf)
	DefaultTopK     int    `yaml:"default_top_k"`
	MaxTopK         int    `yaml:"max_top_k"`
	CacheMatrix     bool   `yaml:"cache_matrix"`
	CacheStore      string `yaml:"cache_store"` // memory, redis (default: memory)
	CacheTTLSec     int    `yaml:"cache_ttl_sec"`
	CacheMaxEntries int    `yaml:"cache_max_entries"`
}

// EmbeddingConfig holds the dense embedding provider settings.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	Dimensions   int    `yaml:"dimensions"`
	MaxBatchSize int    `yaml:"max_batch_size"`
}

// DatabaseConfig holds Redis/Valkey connection settings for the matrix cache.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PlaybookConfig holds playbook rule settings.
type PlaybookConfig struct {
	RulesFile string `yaml:"rules_file"` // empty: built-in rules
}

// DashboardConfig holds dashboard view settings.
type DashboardConfig struct {
	PreviewRows  int `yaml:"preview_rows"`
	MaxDailyDays int `yaml:"max_daily_days"` // daily volume window ending at the latest incident
}

// SentryConfig holds error reporting settings.
type SentryConfig struct {
	DSN         string  `yaml:"dsn"`
	Environment string  `yaml:"environment"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// overrides are environment variables applied on top of the YAML file.
// Zero values leave the file setting untouched.
type overrides struct {
	HTTPPort         int      `envconfig:"HTTP_PORT"`
	LogLevel         string   `envconfig:"LOG_LEVEL"`
	APIKeys          []string `envconfig:"API_KEYS"`
	CorpusSource     string   `envconfig:"CORPUS_SOURCE"`
	CorpusPath       string   `envconfig:"CORPUS_PATH"`
	CorpusDSN        string   `envconfig:"CORPUS_DSN"`
	CorpusTable      string   `envconfig:"CORPUS_TABLE"`
	ArtifactsSource  string   `envconfig:"ARTIFACTS_SOURCE"`
	ArtifactsDir     string   `envconfig:"ARTIFACTS_DIR"`
	ArtifactsBucket  string   `envconfig:"ARTIFACTS_S3_BUCKET"`
	ArtifactsPrefix  string   `envconfig:"ARTIFACTS_S3_PREFIX"`
	RetrievalEncoder string   `envconfig:"RETRIEVAL_ENCODER"`
	EmbeddingAPIKey  string   `envconfig:"EMBEDDING_API_KEY"`
	EmbeddingModel   string   `envconfig:"EMBEDDING_MODEL"`
	DatabaseAddrs    []string `envconfig:"DATABASE_ADDRS"`
	PlaybookRules    string   `envconfig:"PLAYBOOK_RULES_FILE"`
	SentryDSN        string   `envconfig:"SENTRY_DSN"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod),
// then applies SOCLENS_* environment overrides. A missing file is not an error:
// the configuration is then built from defaults and the environment alone.
func Load(env string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config

	configPath := findConfigPath(env)
	data, err := os.ReadFile(filepath.Clean(configPath))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	default:
		// Substitute env variables of the form ${VAR}
		data = expandEnvVars(data)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

func (c *Config) applyEnv() error {
	var o overrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}

	setInt(&c.HTTP.Port, o.HTTPPort)
	setString(&c.Logging.Level, o.LogLevel)
	if len(o.APIKeys) > 0 {
		c.Auth.APIKeys = o.APIKeys
	}
	setString(&c.Corpus.Source, o.CorpusSource)
	setString(&c.Corpus.Path, o.CorpusPath)
	setString(&c.Corpus.DSN, o.CorpusDSN)
	setString(&c.Corpus.Table, o.CorpusTable)
	setString(&c.Artifacts.Source, o.ArtifactsSource)
	setString(&c.Artifacts.Dir, o.ArtifactsDir)
	setString(&c.Artifacts.S3.Bucket, o.ArtifactsBucket)
	setString(&c.Artifacts.S3.Prefix, o.ArtifactsPrefix)
	setString(&c.Retrieval.Encoder, o.RetrievalEncoder)
	setString(&c.Embedding.APIKey, o.EmbeddingAPIKey)
	setString(&c.Embedding.Model, o.EmbeddingModel)
	if len(o.DatabaseAddrs) > 0 {
		c.Database.Addrs = o.DatabaseAddrs
	}
	setString(&c.Playbook.RulesFile, o.PlaybookRules)
	setString(&c.Sentry.DSN, o.SentryDSN)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Corpus.Source == "" {
		c.Corpus.Source = CorpusCSV
	}
	if c.Corpus.Path == "" {
		c.Corpus.Path = "cybersecurity_incidents.csv"
	}
	if c.Corpus.Table == "" {
		c.Corpus.Table = "incidents"
	}
	if c.Corpus.MaxConns <= 0 {
		c.Corpus.MaxConns = 4
	}
	if c.Artifacts.Source == "" {
		c.Artifacts.Source = ArtifactsDir
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "."
	}
	if c.Retrieval.Encoder == "" {
		c.Retrieval.Encoder = EncoderTFIDF
	}
	if c.Retrieval.DefaultTopK <= 0 {
		c.Retrieval.DefaultTopK = 8
	}
	if c.Retrieval.MaxTopK <= 0 {
		c.Retrieval.MaxTopK = 20
	}
	if c.Retrieval.CacheStore == "" {
		c.Retrieval.CacheStore = CacheMemory
	}
	if c.Retrieval.CacheTTLSec <= 0 {
		c.Retrieval.CacheTTLSec = 3600
	}
	if c.Retrieval.CacheMaxEntries <= 0 {
		c.Retrieval.CacheMaxEntries = 4
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Dashboard.PreviewRows <= 0 {
		c.Dashboard.PreviewRows = 30
	}
	if c.Dashboard.MaxDailyDays <= 0 {
		c.Dashboard.MaxDailyDays = 730
	}
	if c.Sentry.SampleRate <= 0 {
		c.Sentry.SampleRate = 1.0
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Corpus.Source {
	case CorpusCSV:
		if c.Corpus.Path == "" {
			return fmt.Errorf("corpus.path is required for csv source")
		}
	case CorpusPostgres:
		if c.Corpus.DSN == "" {
			return fmt.Errorf("corpus.dsn is required for postgres source")
		}
	default:
		return fmt.Errorf("corpus.source must be %q or %q, got %q", CorpusCSV, CorpusPostgres, c.Corpus.Source)
	}

	switch c.Artifacts.Source {
	case ArtifactsDir:
	case ArtifactsS3:
		if c.Artifacts.S3.Bucket == "" {
			return fmt.Errorf("artifacts.s3.bucket is required for s3 source")
		}
	default:
		return fmt.Errorf("artifacts.source must be %q or %q, got %q", ArtifactsDir, ArtifactsS3, c.Artifacts.Source)
	}

	switch c.Retrieval.Encoder {
	case EncoderTFIDF:
	case EncoderOpenAI:
		if c.Embedding.APIKey == "" && c.Embedding.BaseURL == "" {
			return fmt.Errorf("embedding.api_key or embedding.base_url is required for openai encoder")
		}
	default:
		return fmt.Errorf("retrieval.encoder must be %q or %q, got %q", EncoderTFIDF, EncoderOpenAI, c.Retrieval.Encoder)
	}
	if c.Retrieval.DefaultTopK > c.Retrieval.MaxTopK {
		return fmt.Errorf(
			"retrieval.default_top_k (%d) must not exceed retrieval.max_top_k (%d)",
			c.Retrieval.DefaultTopK, c.Retrieval.MaxTopK,
		)
	}

	switch c.Retrieval.CacheStore {
	case CacheMemory:
	case CacheRedis:
		if c.Retrieval.CacheMatrix && len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for redis matrix cache")
		}
	default:
		return fmt.Errorf("retrieval.cache_store must be %q or %q, got %q", CacheMemory, CacheRedis, c.Retrieval.CacheStore)
	}

	if c.Sentry.SampleRate > 1 {
		return fmt.Errorf("sentry.sample_rate must be between 0 and 1, got %g", c.Sentry.SampleRate)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
