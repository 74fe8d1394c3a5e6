package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

const (
	// DefaultConfigFile is the default path to the analyzer's configuration file.
	DefaultConfigFile = "/etc/resume-analyzer/config.yaml"
)

// Config is the analyzer agent configuration. Values are read from the
// environment first and may be overridden by an optional YAML file.
type Config struct {
	// ServiceURL is the base URL of the scoring service.
	ServiceURL string `json:"service-url" envconfig:"RESUME_ANALYZER_SERVICE_URL" default:"http://localhost:8000" validate:"required,url"`

	// StatusAddress is the listen address of the local status server.
	// Empty disables the server.
	StatusAddress string `json:"status-address" envconfig:"RESUME_ANALYZER_STATUS_ADDRESS" default:""`

	// PollInterval is the interval between two status polls.
	PollInterval time.Duration `json:"poll-interval" envconfig:"RESUME_ANALYZER_POLL_INTERVAL" default:"2s" validate:"gt=0"`

	// MaxPollAttempts caps the status polls before the job is failed with a
	// timeout.
	MaxPollAttempts int `json:"max-poll-attempts" envconfig:"RESUME_ANALYZER_MAX_POLL_ATTEMPTS" default:"30" validate:"gt=0"`

	// SubmitRetryCap is the number of submission retries after the initial
	// attempt.
	SubmitRetryCap int `json:"submit-retry-cap" envconfig:"RESUME_ANALYZER_SUBMIT_RETRY_CAP" default:"2" validate:"gte=0"`

	// HealthCheckInterval is the interval between two service reachability
	// probes.
	HealthCheckInterval time.Duration `json:"health-check-interval" envconfig:"RESUME_ANALYZER_HEALTH_CHECK_INTERVAL" default:"10s" validate:"gt=0"`

	// DebounceInterval is the quiet period before an edited field is
	// re-validated.
	DebounceInterval time.Duration `json:"debounce-interval" envconfig:"RESUME_ANALYZER_DEBOUNCE_INTERVAL" default:"300ms" validate:"gt=0"`

	// MaxFileSize is the upload size limit in bytes.
	MaxFileSize int64 `json:"max-file-size" envconfig:"RESUME_ANALYZER_MAX_FILE_SIZE" default:"10485760" validate:"gt=0"`

	// LogLevel can be "debug", "info", "warn" or "error"; any other value is
	// treated as "info".
	LogLevel string `json:"log-level" envconfig:"RESUME_ANALYZER_LOG_LEVEL" default:"info"`
}

// New builds a config from the environment.
func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfigFile overlays the config with values from a YAML file.
func (cfg *Config) ParseConfigFile(cfgFile string) error {
	contents, err := os.ReadFile(cfgFile)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return errors.Wrap(err, "failed to unmarshal config file")
	}
	return nil
}

// Validate checks the loaded configuration.
func (cfg *Config) Validate() error {
	return validator.New().Struct(cfg)
}

func (cfg *Config) String() string {
	contents, err := json.Marshal(cfg)
	if err != nil {
		return "<error>"
	}
	return string(contents)
}
