package config

import (
	"time"

	"github.com/jonesrussell/audit-engine/internal/logging"
)

// Default configuration values.
const (
	defaultServiceName     = "audit-engine"
	defaultServiceVersion  = "1.0.0"
	defaultServicePort     = 8090
	defaultConcurrency     = 2
	defaultQueueSize       = 32
	defaultAuditsPerMinute = 6

	defaultResearchEndpoint  = "https://inference.nc-ai.net/v1/research"
	defaultResearchModel     = "sonar-deep-research"
	defaultResearchTimeout   = 4 * time.Minute
	defaultSynthesisEndpoint = "https://inference.nc-ai.net/v1/generate"
	defaultSynthesisModel    = "report-writer-xl"
	defaultSynthesisTimeout  = 8 * time.Minute

	defaultCaptureTimeout = 90 * time.Second
	defaultRedisURL       = "localhost:6379"
	defaultRedisTimeout   = 5 * time.Second
	defaultPDFTimeout     = 2 * time.Minute
	defaultMailPort       = 587
)

// Config holds all configuration for the audit engine.
type Config struct {
	Service Service        `yaml:"service"`
	Models  Models         `yaml:"models"`
	Capture Capture        `yaml:"capture"`
	Redis   Redis          `yaml:"redis"`
	PDF     PDF            `yaml:"pdf"`
	Mail    Mail           `yaml:"mail"`
	Logging logging.Config `yaml:"logging"`
	Auth    Auth           `yaml:"auth"`
}

// Service holds service-level configuration.
type Service struct {
	Name            string `yaml:"name"`
	Version         string `yaml:"version"`
	Port            int    `env:"AUDIT_ENGINE_PORT"        yaml:"port"`
	Debug           bool   `env:"APP_DEBUG"                yaml:"debug"`
	Concurrency     int    `env:"AUDIT_CONCURRENCY"        yaml:"concurrency"`
	QueueSize       int    `yaml:"queue_size"`
	AuditsPerMinute int    `yaml:"audits_per_minute"`
}

// Models holds configuration for both inference endpoints.
type Models struct {
	Research  ModelEndpoint `yaml:"research"`
	Synthesis ModelEndpoint `yaml:"synthesis"`
}

// ModelEndpoint holds configuration for one remote inference endpoint.
// APIKey carries the provider key resolved from the environment; an empty
// research key sends the run down the fallback path.
type ModelEndpoint struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
	APIKey   string        `yaml:"-"`
}

// Capture holds capture worker configuration. An empty WorkerURL disables
// dispatch entirely.
type Capture struct {
	WorkerURL string        `env:"CAPTURE_WORKER_URL" yaml:"worker_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Redis holds Redis connection configuration.
type Redis struct {
	URL      string        `env:"REDIS_URL"      yaml:"url"`
	Password string        `env:"REDIS_PASSWORD" yaml:"password"`
	Database int           `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

// PDF holds HTML-to-PDF converter sidecar configuration.
type PDF struct {
	ServiceURL string        `env:"PDF_SERVICE_URL" yaml:"service_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Mail holds outbound SMTP configuration.
type Mail struct {
	Host     string `env:"SMTP_HOST"     yaml:"host"`
	Port     int    `env:"SMTP_PORT"     yaml:"port"`
	Username string `env:"SMTP_USERNAME" yaml:"username"`
	Password string `env:"SMTP_PASSWORD" yaml:"password"`
	From     string `env:"MAIL_FROM"     yaml:"from"`
}

// Auth holds authentication configuration for admin routes.
type Auth struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// keyOverrides carries the API keys, which only ever come from the
// environment, never from the YAML file.
type keyOverrides struct {
	ResearchKey  string `env:"RESEARCH_API_KEY"`
	SynthesisKey string `env:"SYNTHESIS_API_KEY"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	setDefaults(cfg)
	// Re-apply env overrides after defaults (env always wins).
	applyEnvOverrides(cfg)

	var keys keyOverrides
	applyEnvOverrides(&keys)
	cfg.Models.Research.APIKey = keys.ResearchKey
	cfg.Models.Synthesis.APIKey = keys.SynthesisKey

	return cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setModelDefaults(&cfg.Models)

	if cfg.Capture.Timeout == 0 {
		cfg.Capture.Timeout = defaultCaptureTimeout
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = defaultRedisURL
	}
	if cfg.Redis.Timeout == 0 {
		cfg.Redis.Timeout = defaultRedisTimeout
	}
	if cfg.PDF.Timeout == 0 {
		cfg.PDF.Timeout = defaultPDFTimeout
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = defaultMailPort
	}
	cfg.Logging.SetDefaults()
}

func setServiceDefaults(s *Service) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.Concurrency == 0 {
		s.Concurrency = defaultConcurrency
	}
	if s.QueueSize == 0 {
		s.QueueSize = defaultQueueSize
	}
	if s.AuditsPerMinute == 0 {
		s.AuditsPerMinute = defaultAuditsPerMinute
	}
}

func setModelDefaults(m *Models) {
	if m.Research.Endpoint == "" {
		m.Research.Endpoint = defaultResearchEndpoint
	}
	if m.Research.Model == "" {
		m.Research.Model = defaultResearchModel
	}
	if m.Research.Timeout == 0 {
		m.Research.Timeout = defaultResearchTimeout
	}
	if m.Synthesis.Endpoint == "" {
		m.Synthesis.Endpoint = defaultSynthesisEndpoint
	}
	if m.Synthesis.Model == "" {
		m.Synthesis.Model = defaultSynthesisModel
	}
	if m.Synthesis.Timeout == 0 {
		m.Synthesis.Timeout = defaultSynthesisTimeout
	}
}
