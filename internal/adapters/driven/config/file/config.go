// Package file loads service configuration from a TOML file with
// environment variable overrides. Configuration problems are fatal at
// startup; nothing here is consulted per request.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

// Embedding provider names accepted in the config.
const (
	ProviderGemini = "gemini"
	ProviderNVIDIA = "nvidia"
)

// Store backend names accepted in the config.
const (
	StoreSupabase = "supabase"
	StoreSQLite   = "sqlite"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Store     StoreConfig     `toml:"store"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
}

// ServerConfig configures the HTTP shell.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StoreConfig selects and configures the entry store backend.
type StoreConfig struct {
	// Backend is "supabase" or "sqlite".
	Backend string `toml:"backend"`

	// Supabase settings.
	ProjectURL string `toml:"project_url"`
	AnonKey    string `toml:"anon_key"`
	Table      string `toml:"table"`

	// SQLite settings.
	Path string `toml:"path"`
}

// EmbeddingConfig selects and configures the embedding provider. An empty
// provider disables semantic search.
type EmbeddingConfig struct {
	// Provider is "gemini", "nvidia", or empty.
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
}

// LLMConfig configures the optional synthesis model. An empty API key
// selects the deterministic report builder.
type LLMConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// PipelineConfig tunes retrieval behaviour.
type PipelineConfig struct {
	// MinResults is the sparse-results threshold that triggers the single
	// broadened retry (default 3).
	MinResults int `toml:"min_results"`

	// Metric is the default similarity metric: cosine, ip, or l2.
	Metric string `toml:"metric"`
}

// Default values applied after loading.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8000
)

// Load reads the TOML file at path (if it exists), applies environment
// overrides, fills defaults, and validates. An empty path defaults to
// ~/.introspect/config.toml.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: getting home directory: %v", domain.ErrConfiguration, err)
		}
		path = filepath.Join(home, ".introspect", "config.toml")
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrConfiguration, path, err)
		}
	case os.IsNotExist(err):
		// No file is fine; env vars can carry everything.
	default:
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrConfiguration, path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays INTROSPECT_* environment variables onto the config.
// Env always wins over the file.
func (c *Config) applyEnv() {
	envString(&c.Server.Host, "INTROSPECT_HOST")
	envInt(&c.Server.Port, "INTROSPECT_PORT")

	envString(&c.Store.Backend, "INTROSPECT_STORE_BACKEND")
	envString(&c.Store.ProjectURL, "SUPABASE_URL")
	envString(&c.Store.AnonKey, "SUPABASE_ANON_KEY")
	envString(&c.Store.Table, "INTROSPECT_STORE_TABLE")
	envString(&c.Store.Path, "INTROSPECT_SQLITE_PATH")

	envString(&c.Embedding.Provider, "INTROSPECT_EMBEDDING_PROVIDER")
	envString(&c.Embedding.APIKey, "INTROSPECT_EMBEDDING_API_KEY")
	envString(&c.Embedding.Model, "INTROSPECT_EMBEDDING_MODEL")
	envString(&c.Embedding.BaseURL, "INTROSPECT_EMBEDDING_BASE_URL")

	envString(&c.LLM.APIKey, "INTROSPECT_LLM_API_KEY")
	envString(&c.LLM.Model, "INTROSPECT_LLM_MODEL")
	envString(&c.LLM.BaseURL, "INTROSPECT_LLM_BASE_URL")

	envInt(&c.Pipeline.MinResults, "INTROSPECT_MIN_RESULTS")
	envString(&c.Pipeline.Metric, "INTROSPECT_METRIC")
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Store.Backend == "" {
		if c.Store.ProjectURL != "" {
			c.Store.Backend = StoreSupabase
		} else {
			c.Store.Backend = StoreSQLite
		}
	}
	if c.Pipeline.Metric == "" {
		c.Pipeline.Metric = string(domain.MetricCosine)
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreSupabase:
		if c.Store.ProjectURL == "" {
			return fmt.Errorf("%w: store.project_url is required for the supabase backend", domain.ErrConfiguration)
		}
		if c.Store.AnonKey == "" {
			return fmt.Errorf("%w: store.anon_key is required for the supabase backend", domain.ErrConfiguration)
		}
	case StoreSQLite:
		// Path may be empty; the store falls back to its default location.
	default:
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrConfiguration, c.Store.Backend)
	}

	switch c.Embedding.Provider {
	case "", ProviderGemini, ProviderNVIDIA:
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrConfiguration, c.Embedding.Provider)
	}
	if c.Embedding.Provider != "" && c.Embedding.APIKey == "" {
		return fmt.Errorf("%w: embedding.api_key is required when a provider is set", domain.ErrConfiguration)
	}

	switch domain.Metric(c.Pipeline.Metric) {
	case domain.MetricCosine, domain.MetricInnerProduct, domain.MetricL2:
	default:
		return fmt.Errorf("%w: pipeline.metric must be one of cosine, ip, l2", domain.ErrConfiguration)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", domain.ErrConfiguration, c.Server.Port)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
