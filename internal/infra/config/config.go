package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ghst-moe/internal/domain"
)

// EnvConfigPath overrides the config file path when set.
const EnvConfigPath = "GHSTMOE_CONFIG"

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig holds OpenTelemetry settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // stdout, noop
}

// WeightsConfig mirrors usecase.ScoringWeights in the config file.
// Zero values mean "use the default constant".
type WeightsConfig struct {
	KeywordHit         float64 `yaml:"keyword_hit"`
	KeywordCap         float64 `yaml:"keyword_cap"`
	ExpertiseHit       float64 `yaml:"expertise_hit"`
	SpecializationHit  float64 `yaml:"specialization_hit"`
	DomainHit          float64 `yaml:"domain_hit"`
	PreferredBoost     float64 `yaml:"preferred_boost"`
	FavoriteBoost      float64 `yaml:"favorite_boost"`
	PrimaryDomainBoost float64 `yaml:"primary_domain_boost"`
}

// RouterConfig holds routing defaults and scoring weights.
type RouterConfig struct {
	TopK      int           `yaml:"top_k"`
	Threshold float64       `yaml:"threshold"`
	Weights   WeightsConfig `yaml:"weights"`
}

// BreakerConfig configures the per-expert circuit breaker.
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"` // consecutive failures before opening
	Timeout     time.Duration `yaml:"timeout"`      // open-state duration before half-open
	Interval    time.Duration `yaml:"interval"`     // closed-state failure reset period
}

// OrchestratorConfig holds integration-layer settings.
type OrchestratorConfig struct {
	ExpertTimeout  time.Duration `yaml:"expert_timeout"`   // per-expert analysis deadline
	OverallTimeout time.Duration `yaml:"overall_timeout"`  // whole-consultation deadline
	InvokeRate     float64       `yaml:"invoke_rate"`      // analyzer invocations per second, 0 = unlimited
	InvokeBurst    int           `yaml:"invoke_burst"`     // rate limiter burst
	Breaker        BreakerConfig `yaml:"breaker"`
}

// StoreConfig holds persistence settings. An empty Path disables the
// SQLite store entirely.
type StoreConfig struct {
	Path          string `yaml:"path"`
	FlushSchedule string `yaml:"flush_schedule"` // cron spec for periodic snapshots, e.g. "@every 5m"
}

// Config is the top-level application configuration.
type Config struct {
	Logger       LoggerConfig            `yaml:"logger"`
	Tracer       TracerConfig            `yaml:"tracer"`
	Router       RouterConfig            `yaml:"router"`
	Orchestrator OrchestratorConfig      `yaml:"orchestrator"`
	Store        StoreConfig             `yaml:"store"`
	SeedBuiltin  *bool                   `yaml:"seed_builtin,omitempty"` // nil = true
	Experts      []domain.ExpertMetadata `yaml:"experts,omitempty"`      // extra experts registered at startup
}

// Defaults returns a config with working defaults for every section.
func Defaults() *Config {
	return &Config{
		Logger: LoggerConfig{Level: "info", Format: "text", Output: "stderr"},
		Tracer: TracerConfig{Enabled: false, Exporter: "noop"},
		Router: RouterConfig{TopK: 3, Threshold: 0.1},
		Orchestrator: OrchestratorConfig{
			ExpertTimeout:  10 * time.Second,
			OverallTimeout: 30 * time.Second,
			InvokeBurst:    4,
			Breaker:        BreakerConfig{Enabled: true},
		},
	}
}

// SeedBuiltinExperts reports whether the builtin roster should be
// registered at startup (default true).
func (c *Config) SeedBuiltinExperts() bool {
	return c.SeedBuiltin == nil || *c.SeedBuiltin
}

// Load reads the config at path, falling back to defaults when the file
// does not exist. The GHSTMOE_CONFIG env var overrides path when set.
func Load(path string) (*Config, error) {
	if env := os.Getenv(EnvConfigPath); env != "" {
		path = env
	}

	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, domain.WrapOp("config.Load", fmt.Errorf("%w: %v", domain.ErrConfigLoad, err))
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.WrapOp("config.Load", fmt.Errorf("%w: parse: %v", domain.ErrConfigLoad, err))
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func Validate(cfg *Config) error {
	if cfg.Router.TopK < 0 {
		return domain.NewDomainError("config.Validate", domain.ErrInvalidInput, "router.top_k must be >= 0")
	}
	if cfg.Router.Threshold < 0 || cfg.Router.Threshold > 1 {
		return domain.NewDomainError("config.Validate", domain.ErrInvalidInput, "router.threshold must be in [0,1]")
	}
	if cfg.Orchestrator.ExpertTimeout < 0 || cfg.Orchestrator.OverallTimeout < 0 {
		return domain.NewDomainError("config.Validate", domain.ErrInvalidInput, "orchestrator timeouts must be >= 0")
	}
	if cfg.Orchestrator.InvokeRate < 0 {
		return domain.NewDomainError("config.Validate", domain.ErrInvalidInput, "orchestrator.invoke_rate must be >= 0")
	}
	for _, e := range cfg.Experts {
		if err := e.Validate(); err != nil {
			return domain.WrapOp("config.Validate", err)
		}
	}
	return nil
}
