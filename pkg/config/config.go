package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// LLM configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Ingest configuration
	Ingest IngestConfig `mapstructure:"ingest"`

	// QA configuration
	QA QAConfig `mapstructure:"qa"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
	MinRequests      uint32  `mapstructure:"min_requests"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath    string `mapstructure:"parquet_path"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	// Optional least-privilege credential used for generated queries.
	ReadUsername string `mapstructure:"read_username"`
	ReadPassword string `mapstructure:"read_password"`
}

// LLMConfig holds the language model configuration. The inline model
// settings describe the default provider; Providers adds named extras that
// RouterRules can send individual pipeline stages to.
type LLMConfig struct {
	LLMModelConfig `mapstructure:",squash"`

	MaxRetries    int                       `mapstructure:"max_retries"`
	TokenUsageDir string                    `mapstructure:"token_usage_dir"`
	Providers     map[string]LLMModelConfig `mapstructure:"providers"`
	RouterRules   []RouterRule              `mapstructure:"router_rules"`
}

// LLMModelConfig holds configuration for a specific model
type LLMModelConfig struct {
	Provider    string  `mapstructure:"provider"` // gemini, openai
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// RouterRule sends one pipeline stage to a named provider.
type RouterRule struct {
	Stage    string `mapstructure:"stage"`    // cypher_generation, answer_synthesis
	Provider string `mapstructure:"provider"` // key in llm.providers, or "default"
	Fallback string `mapstructure:"fallback"` // optional fallback provider key
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // embedeverything, openai
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
	CacheDir   string `mapstructure:"cache_dir"` // badger cache, disabled when empty
}

// IngestConfig holds ingestion settings
type IngestConfig struct {
	Constraints bool   `mapstructure:"constraints"`
	VectorIndex bool   `mapstructure:"vector_index"`
	IndexName   string `mapstructure:"index_name"`
	// CheckpointDir holds resumable progress files; empty uses the temp dir.
	CheckpointDir   string `mapstructure:"checkpoint_dir"`
	CheckpointEvery int    `mapstructure:"checkpoint_every"`
}

// QAConfig holds question answering settings
type QAConfig struct {
	ValidateQueries bool   `mapstructure:"validate_queries"`
	MaxContextRows  int    `mapstructure:"max_context_rows"`
	EnsureASCII     bool   `mapstructure:"ensure_ascii"`
	ExemplarsPath   string `mapstructure:"exemplars_path"`
}

// Load loads configuration from the global viper instance, which the CLI
// has pointed at the config file, and from environment variables.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration from v and environment variables.
func LoadFrom(v *viper.Viper) (*Config, error) {
	// Set defaults
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	// Database defaults
	v.SetDefault("database.uri", "bolt://localhost:7687")
	v.SetDefault("database.username", "neo4j")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "neo4j")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.max_retries", 2)

	v.SetDefault("embedding.provider", "embedeverything")
	v.SetDefault("embedding.model", "sentence-transformers/all-MiniLM-L6-v2")
	v.SetDefault("embedding.dimensions", 384)

	v.SetDefault("ingest.constraints", true)
	v.SetDefault("ingest.vector_index", true)
	v.SetDefault("ingest.index_name", "football_players_embeddings")
	v.SetDefault("ingest.checkpoint_every", 100)

	v.SetDefault("qa.validate_queries", true)
	v.SetDefault("qa.max_context_rows", 100)
	v.SetDefault("qa.ensure_ascii", false)

	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", 60)
	v.SetDefault("circuit_breaker.timeout", 30)
	v.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)
	v.SetDefault("circuit_breaker.min_requests", 3)

	v.SetDefault("telemetry.metrics_enabled", true)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		v.SetDefault("telemetry.parquet_path", filepath.Join(home, ".footballkg", "telemetry"))
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) error {
	setString := func(dst *string, key string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}

	// Database credentials
	setString(&config.Database.URI, "NEO4J_URI")
	setString(&config.Database.Username, "NEO4J_USERNAME")
	setString(&config.Database.Password, "NEO4J_PASSWORD")
	setString(&config.Database.Database, "NEO4J_DATABASE")
	setString(&config.Database.ReadUsername, "NEO4J_READ_USERNAME")
	setString(&config.Database.ReadPassword, "NEO4J_READ_PASSWORD")

	setString(&config.Embedding.Model, "EMBEDDING_MODEL")

	// The provider may change below, so the matching key is chosen afterwards.
	setString(&config.LLM.Provider, "LLM_PROVIDER")
	setString(&config.LLM.Model, "LLM_MODEL")
	switch config.LLM.Provider {
	case "gemini":
		setString(&config.LLM.APIKey, "GOOGLE_API_KEY")
	case "openai":
		setString(&config.LLM.APIKey, "OPENAI_API_KEY")
	}
	if config.Embedding.Provider == "openai" {
		setString(&config.Embedding.APIKey, "OPENAI_API_KEY")
	}

	// Server settings
	setString(&config.Server.Host, "SERVER_HOST")
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}

	// Telemetry settings
	setString(&config.Telemetry.ParquetPath, "TELEMETRY_PARQUET_PATH")
	return nil
}
