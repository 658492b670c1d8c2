package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "OAIHEALTH_CONFIG"
	logLevelEnv   = "OAIHEALTH_LOG_LEVEL"
	logFormatEnv  = "OAIHEALTH_LOG_FORMAT"
	serverAddrEnv = "OAIHEALTH_SERVER_ADDR"
	userAgentEnv  = "OAIHEALTH_USER_AGENT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig    `yaml:"logging"`
	HTTP      HTTPConfig       `yaml:"http"`
	Harvest   HarvestConfig    `yaml:"harvest"`
	Report    ReportConfig     `yaml:"report"`
	Server    ServerConfig     `yaml:"server"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig tunes the OAI-PMH client.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
}

// HarvestConfig holds harvest defaults.
type HarvestConfig struct {
	DefaultLimit int `yaml:"defaultLimit"`
}

// ReportConfig sizes the report sections.
type ReportConfig struct {
	TopN          int `yaml:"topN"`
	HistogramBins int `yaml:"histogramBins"`
	TriageLimit   int `yaml:"triageLimit"`
}

// ServerConfig describes the HTTP API listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// EndpointConfig names a repository so it can be addressed by name.
type EndpointConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads YAML configuration from path, or from $OAIHEALTH_CONFIG when
// path is empty, and applies environment overrides. Without a file the
// defaults are used.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	var errs []error
	if c.Harvest.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("harvest.defaultLimit must be positive, got %d", c.Harvest.DefaultLimit))
	}
	if c.HTTP.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http.timeout must not be negative, got %s", c.HTTP.Timeout))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	seen := map[string]bool{}
	for i, ep := range c.Endpoints {
		if ep.Name == "" || ep.URL == "" {
			errs = append(errs, fmt.Errorf("endpoints[%d]: name and url are required", i))
			continue
		}
		if seen[ep.Name] {
			errs = append(errs, fmt.Errorf("endpoints[%d]: duplicate name %q", i, ep.Name))
		}
		seen[ep.Name] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ResolveEndpoint maps a configured name to its URL; anything else is
// returned trimmed as a URL.
func (c Config) ResolveEndpoint(nameOrURL string) string {
	nameOrURL = strings.TrimSpace(nameOrURL)
	for _, ep := range c.Endpoints {
		if ep.Name == nameOrURL {
			return ep.URL
		}
	}
	return nameOrURL
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}

	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(userAgentEnv); v != "" {
		c.HTTP.UserAgent = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.HTTP.Timeout != 0 {
		base.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.UserAgent != "" {
		base.HTTP.UserAgent = override.HTTP.UserAgent
	}

	if override.Harvest.DefaultLimit != 0 {
		base.Harvest.DefaultLimit = override.Harvest.DefaultLimit
	}

	if override.Report.TopN != 0 {
		base.Report.TopN = override.Report.TopN
	}
	if override.Report.HistogramBins != 0 {
		base.Report.HistogramBins = override.Report.HistogramBins
	}
	if override.Report.TriageLimit != 0 {
		base.Report.TriageLimit = override.Report.TriageLimit
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if len(override.Endpoints) > 0 {
		base.Endpoints = override.Endpoints
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		HTTP:    HTTPConfig{Timeout: 60 * time.Second, UserAgent: "OAIHealthCheck/1.0"},
		Harvest: HarvestConfig{DefaultLimit: 500},
		Report:  ReportConfig{TopN: 10, HistogramBins: 10, TriageLimit: 50},
		Server:  ServerConfig{Addr: ":8080"},
	}
}
