// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine"`
	Policy     PolicyConfig     `mapstructure:"policy" yaml:"policy"`
	Trace      TraceConfig      `mapstructure:"trace" yaml:"trace"`
	Simulation SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// EngineConfig tunes the round scheduler.
type EngineConfig struct {
	// ResolveConcurrency caps how many agents' policy calls may be in
	// flight at once during the resolution phase.
	ResolveConcurrency int `mapstructure:"resolve_concurrency" yaml:"resolve_concurrency"`
	// PolicyTimeout bounds a single decision gateway call. A timed-out
	// call converts to a PolicyUnavailable outcome for that agent only.
	PolicyTimeout time.Duration `mapstructure:"policy_timeout" yaml:"policy_timeout"`
}

// PolicyProvider selects the decision policy backend.
type PolicyProvider string

const (
	ProviderScripted PolicyProvider = "scripted"
	ProviderGemini   PolicyProvider = "gemini"
)

// PolicyConfig configures the decision policy gateway.
type PolicyConfig struct {
	Provider PolicyProvider `mapstructure:"provider" yaml:"provider"`
	LLM      LLMModelConfig `mapstructure:"llm" yaml:"llm"`
	// RateLimit caps gateway calls per second across all agents. Zero
	// disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// LLMModelConfig defines the configuration for a single LLM backend.
type LLMModelConfig struct {
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// TraceBackend selects where action records are persisted.
type TraceBackend string

const (
	TraceBackendJSONL    TraceBackend = "jsonl"
	TraceBackendPostgres TraceBackend = "postgres"
	TraceBackendMemory   TraceBackend = "memory"
)

// TraceConfig configures the persistence sink for action records.
type TraceConfig struct {
	Backend TraceBackend `mapstructure:"backend" yaml:"backend"`
	// Path is the JSONL output file when the jsonl backend is selected.
	Path string `mapstructure:"path" yaml:"path"`
	// DatabaseURL is the postgres connection string for the postgres backend.
	DatabaseURL string `mapstructure:"database_url" yaml:"-"`
	// BufferSize is the number of records buffered before an implicit flush.
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size"`
}

// SimulationConfig describes one simulation run.
type SimulationConfig struct {
	// ProfileFile points at the agent profile data used to materialize the
	// agent graph. Its format is a loading concern, not a core one.
	ProfileFile string `mapstructure:"profile_file" yaml:"profile_file"`
	Rounds      int    `mapstructure:"rounds" yaml:"rounds"`
	// AvailableActions is the configured enumeration of permitted action
	// kinds. Empty means all known kinds are permitted.
	AvailableActions []string `mapstructure:"available_actions" yaml:"available_actions"`
	// FeedSize bounds the feed excerpt handed to decision policies.
	FeedSize int `mapstructure:"feed_size" yaml:"feed_size"`
	// TrendSize bounds the trending index returned by TREND actions.
	TrendSize int `mapstructure:"trend_size" yaml:"trend_size"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "agorasim")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Engine --
	v.SetDefault("engine.resolve_concurrency", 16)
	v.SetDefault("engine.policy_timeout", "30s")

	// -- Policy --
	v.SetDefault("policy.provider", "scripted")
	v.SetDefault("policy.rate_limit", 2.0)
	v.SetDefault("policy.llm.model", "gemini-2.5-flash")
	v.SetDefault("policy.llm.api_timeout", "60s")
	v.SetDefault("policy.llm.temperature", 0.7)
	v.SetDefault("policy.llm.max_tokens", 1024)

	// -- Trace --
	v.SetDefault("trace.backend", "jsonl")
	v.SetDefault("trace.path", "trace.jsonl")
	v.SetDefault("trace.buffer_size", 256)

	// -- Simulation --
	v.SetDefault("simulation.rounds", 10)
	v.SetDefault("simulation.feed_size", 20)
	v.SetDefault("simulation.trend_size", 10)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults, but fail loudly rather than run
		// with a half-populated config.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	v.BindEnv("policy.llm.api_key", "AGORASIM_LLM_API_KEY")
	v.BindEnv("trace.database_url", "AGORASIM_DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Engine.ResolveConcurrency <= 0 {
		return fmt.Errorf("engine.resolve_concurrency must be a positive integer")
	}
	if c.Engine.PolicyTimeout <= 0 {
		return fmt.Errorf("engine.policy_timeout must be a positive duration")
	}
	switch c.Policy.Provider {
	case ProviderScripted:
	case ProviderGemini:
		if c.Policy.LLM.APIKey == "" {
			return fmt.Errorf("policy.llm.api_key is required for the gemini provider (set AGORASIM_LLM_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown policy provider %q", c.Policy.Provider)
	}
	switch c.Trace.Backend {
	case TraceBackendJSONL:
		if c.Trace.Path == "" {
			return fmt.Errorf("trace.path is required for the jsonl backend")
		}
	case TraceBackendPostgres:
		if c.Trace.DatabaseURL == "" {
			return fmt.Errorf("trace.database_url is required for the postgres backend (set AGORASIM_DATABASE_URL)")
		}
	case TraceBackendMemory:
	default:
		return fmt.Errorf("unknown trace backend %q", c.Trace.Backend)
	}
	if _, err := c.Simulation.ActionSet(); err != nil {
		return err
	}
	return nil
}

// ActionSet resolves the configured available-action names into typed
// action kinds. An empty configuration permits every known kind.
func (s *SimulationConfig) ActionSet() ([]schemas.ActionType, error) {
	if len(s.AvailableActions) == 0 {
		return schemas.AllActionTypes(), nil
	}
	known := make(map[schemas.ActionType]struct{}, len(schemas.AllActionTypes()))
	for _, t := range schemas.AllActionTypes() {
		known[t] = struct{}{}
	}
	out := make([]schemas.ActionType, 0, len(s.AvailableActions))
	for _, name := range s.AvailableActions {
		t := schemas.ActionType(name)
		if _, ok := known[t]; !ok {
			return nil, fmt.Errorf("simulation.available_actions contains unknown action %q", name)
		}
		out = append(out, t)
	}
	return out, nil
}
