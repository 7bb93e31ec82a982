// Package config parses the HCL configuration file for the server.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the server configuration.
type Config struct {
	Server     *Server     `hcl:"server,block"`
	Database   *Database   `hcl:"database,block"`
	Search     *Search     `hcl:"search,block"`
	Embeddings *Embeddings `hcl:"embeddings,block"`
	Auth       *Auth       `hcl:"auth,block"`

	// LogLevel is the minimum log level (trace, debug, info, warn, error).
	LogLevel string `hcl:"log_level,optional"`
}

// Server configures the HTTP listener.
type Server struct {
	// Addr is the address to bind to, e.g. "127.0.0.1:8000".
	Addr string `hcl:"addr,optional"`
}

// Database configures the record store connection.
type Database struct {
	// Driver is "postgres" or "sqlite".
	Driver string `hcl:"driver,optional"`

	// PostgreSQL settings.
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`

	// SQLite settings.
	Path string `hcl:"path,optional"`
}

// Search configures the hybrid search core.
type Search struct {
	// Provider is the keyword search backend: "bleve" or "meilisearch".
	Provider string `hcl:"provider,optional"`

	// IndexPath is the Bleve index directory.
	IndexPath string `hcl:"index_path,optional"`

	// Meilisearch settings.
	MeilisearchHost   string `hcl:"meilisearch_host,optional"`
	MeilisearchAPIKey string `hcl:"meilisearch_api_key,optional"`

	// SemanticWeight and KeywordWeight are the RRF fusion weights.
	// Defaults: 0.6 / 0.4.
	SemanticWeight float64 `hcl:"semantic_weight,optional"`
	KeywordWeight  float64 `hcl:"keyword_weight,optional"`

	// RRFK is the RRF damping constant. Default: 60.
	RRFK int `hcl:"rrf_k,optional"`

	// CacheTTLSeconds enables the short-lived result cache when positive.
	CacheTTLSeconds int `hcl:"cache_ttl_seconds,optional"`
}

// Embeddings configures the embedding provider.
type Embeddings struct {
	// Provider is "voyage", "gemini", or "mock".
	Provider string `hcl:"provider,optional"`

	// Model overrides the provider default model.
	Model string `hcl:"model,optional"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `hcl:"api_key_env,optional"`

	// TimeoutSeconds bounds the query-embedding call. Default: 5.
	TimeoutSeconds int `hcl:"timeout_seconds,optional"`
}

// Auth configures request authentication.
type Auth struct {
	// JWTSecretEnv names the environment variable holding the HMAC secret
	// used to verify bearer tokens.
	JWTSecretEnv string `hcl:"jwt_secret_env,optional"`
}

// NewConfig parses an HCL configuration file and applies defaults.
func NewConfig(filename string) (*Config, error) {
	cfg := &Config{}
	if err := hclsimple.DecodeFile(filename, nil, cfg); err != nil {
		return nil, fmt.Errorf("error parsing configuration file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a zero-config setup: SQLite record store, in-memory Bleve
// index, mock embeddings.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8000"
	}

	if c.Database == nil {
		c.Database = &Database{}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "covenant.db"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}

	if c.Search == nil {
		c.Search = &Search{}
	}
	if c.Search.Provider == "" {
		c.Search.Provider = "bleve"
	}
	if c.Search.SemanticWeight == 0 && c.Search.KeywordWeight == 0 {
		c.Search.SemanticWeight = 0.6
		c.Search.KeywordWeight = 0.4
	}
	if c.Search.RRFK == 0 {
		c.Search.RRFK = 60
	}

	if c.Embeddings == nil {
		c.Embeddings = &Embeddings{}
	}
	if c.Embeddings.Provider == "" {
		c.Embeddings.Provider = "mock"
	}
	if c.Embeddings.TimeoutSeconds == 0 {
		c.Embeddings.TimeoutSeconds = 5
	}

	if c.Auth == nil {
		c.Auth = &Auth{}
	}
	if c.Auth.JWTSecretEnv == "" {
		c.Auth.JWTSecretEnv = "COVENANT_JWT_SECRET"
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// EmbeddingAPIKey resolves the embedding provider API key from the
// environment.
func (c *Config) EmbeddingAPIKey() string {
	if c.Embeddings == nil || c.Embeddings.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Embeddings.APIKeyEnv)
}

// JWTSecret resolves the bearer token secret from the environment.
func (c *Config) JWTSecret() string {
	if c.Auth == nil || c.Auth.JWTSecretEnv == "" {
		return ""
	}
	return os.Getenv(c.Auth.JWTSecretEnv)
}

// EmbedTimeout returns the query-embedding timeout as a duration.
func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.Embeddings.TimeoutSeconds) * time.Second
}

// CacheTTL returns the result cache TTL; zero disables caching.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Search.CacheTTLSeconds) * time.Second
}
