package client

import (
	"net"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

const (
	// DefaultRequestTimeout is the per-request timeout applied to every call
	// issued by the transport client.
	DefaultRequestTimeout = 30 * time.Second
)

// Config holds the information needed to connect to the analyzer service.
type Config struct {
	Service Service `json:"service"`
}

// Service contains information on how to reach the analyzer service.
type Service struct {
	// Server is the URL of the service (the part before /upload, /analyze...).
	Server string `json:"server"`
}

func (c *Config) Equal(c2 *Config) bool {
	if c == c2 {
		return true
	}
	if c == nil || c2 == nil {
		return false
	}
	return c.Service.Server == c2.Service.Server
}

func (c *Config) DeepCopy() *Config {
	if c == nil {
		return nil
	}
	c2 := *c
	return &c2
}

func NewDefault() *Config {
	return &Config{}
}

func (c *Config) Validate() error {
	if c.Service.Server == "" {
		return errors.New("service.server is required")
	}
	return nil
}

// ParseConfigFile reads a client config from a YAML file.
func ParseConfigFile(filename string) (*Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "reading client config")
	}
	config := NewDefault()
	if err := yaml.Unmarshal(contents, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling client config")
	}
	return config, nil
}

// NewHTTPClientFromConfig returns a new HTTP client from the given config.
func NewHTTPClientFromConfig(config *Config) (*http.Client, error) {
	httpClient := &http.Client{
		Timeout: DefaultRequestTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	return httpClient, nil
}
