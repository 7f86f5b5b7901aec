// Package config loads the daemon's configuration from a YAML file, an
// environment-variable overlay, and (for promptivd itself) CLI flag
// overrides, in that order of increasing precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Seconds is a time.Duration that is always expressed in whole seconds on
// the wire, matching the CLI contract ("timeouts in whole seconds"). Unlike
// time.Duration's own YAML/JSON encoding, a plain integer such as
// `dispatch_timeout: 2` means 2s, not 2ns.
type Seconds time.Duration

// Duration returns the underlying time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s)
}

// UnmarshalYAML accepts a bare integer or float number of seconds.
func (s *Seconds) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var secs float64
	if err := unmarshal(&secs); err != nil {
		return err
	}
	*s = Seconds(secs * float64(time.Second))
	return nil
}

// MarshalYAML renders the duration back out as a whole number of seconds.
func (s Seconds) MarshalYAML() (interface{}, error) {
	return time.Duration(s).Seconds(), nil
}

// UnmarshalJSON accepts a bare JSON number of seconds.
func (s *Seconds) UnmarshalJSON(data []byte) error {
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return err
	}
	*s = Seconds(secs * float64(time.Second))
	return nil
}

// MarshalJSON renders the duration as a JSON number of seconds, used by
// --validate-config output.
func (s Seconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(s).Seconds())
}

// ServerConfig mirrors the "server" section of the config file.
type ServerConfig struct {
	BindAddr              string        `json:"bind_addr" yaml:"bind_addr"`
	RequireSink           bool          `json:"require_sink" yaml:"require_sink"`
	SupersedeOnRegister   bool          `json:"supersede_on_register" yaml:"supersede_on_register"`
	MaxJobBytes           int64         `json:"max_job_bytes" yaml:"max_job_bytes"`
	WebsocketPingInterval Seconds       `json:"websocket_ping_interval" yaml:"websocket_ping_interval"`
	WebsocketPongTimeout  Seconds       `json:"websocket_pong_timeout" yaml:"websocket_pong_timeout"`
	MaxMissedPings        int           `json:"max_missed_pings" yaml:"max_missed_pings"`
	DispatchTimeout       Seconds       `json:"dispatch_timeout" yaml:"dispatch_timeout"`
	OutboundQueueCapacity int           `json:"outbound_queue_capacity" yaml:"outbound_queue_capacity"`
}

// RateLimitConfig controls the per-submitter-client ingress token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
}

// AuditConfig controls the best-effort audit log backend.
type AuditConfig struct {
	Driver        string   `json:"driver" yaml:"driver"` // sqlite, postgres, mysql, mongodb
	DSN           string   `json:"dsn" yaml:"dsn"`
	QueueCapacity int      `json:"queue_capacity" yaml:"queue_capacity"`
	Compress      bool     `json:"compress" yaml:"compress"`
	RedactPaths   []string `json:"redact_paths" yaml:"redact_paths"`
}

// OTLPConfig controls optional OpenTelemetry trace/metric export.
type OTLPConfig struct {
	Endpoint    string            `json:"endpoint" yaml:"endpoint"`
	Protocol    string            `json:"protocol" yaml:"protocol"` // grpc or http
	Insecure    bool              `json:"insecure" yaml:"insecure"`
	Headers     map[string]string `json:"headers" yaml:"headers"`
	ServiceName string            `json:"service_name" yaml:"service_name"`
}

// ObservabilityConfig groups the optional tracing/metrics sections.
type ObservabilityConfig struct {
	OTLP OTLPConfig `json:"otlp" yaml:"otlp"`
}

// Config is the top-level daemon configuration.
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	RateLimit     RateLimitConfig     `json:"rate_limit" yaml:"rate_limit"`
	Audit         AuditConfig         `json:"audit" yaml:"audit"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
	LogLevel      string              `json:"log_level" yaml:"log_level"`
	LogFormat     string              `json:"log_format" yaml:"log_format"` // json or pretty
}

// Default returns the configuration used when no file is present, matching
// the defaults pinned by the spec.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddr:              "127.0.0.1:8787",
			RequireSink:           false,
			SupersedeOnRegister:   true,
			MaxJobBytes:           128 * 1024,
			WebsocketPingInterval: Seconds(15 * time.Second),
			WebsocketPongTimeout:  Seconds(10 * time.Second),
			MaxMissedPings:        3,
			DispatchTimeout:       Seconds(30 * time.Second),
			OutboundQueueCapacity: 256,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Audit: AuditConfig{
			Driver:        "sqlite",
			DSN:           "promptivd-audit.db",
			QueueCapacity: 1024,
			Compress:      false,
		},
		LogLevel:  "info",
		LogFormat: "pretty",
	}
}

// Load reads a YAML config file at path, applying environment variable
// substitution to ${VAR} and ${VAR:-default} references before parsing, and
// layers the result over Default(). A missing file is not an error; Default
// alone is returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	content := SubstituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes cfg back out as YAML, used by --init-config.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfigPath returns the conventional location for promptivd.yaml:
// $XDG_CONFIG_HOME/promptivd/promptivd.yaml, falling back to
// ~/.config/promptivd/promptivd.yaml.
func DefaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "promptivd", "promptivd.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "promptivd.yaml"
	}
	return filepath.Join(home, ".config", "promptivd", "promptivd.yaml")
}

// Validate checks invariants that can't be expressed as zero-value-safe
// defaults.
func (c *Config) Validate() error {
	if c.Server.BindAddr == "" {
		return fmt.Errorf("server.bind_addr must not be empty")
	}
	if c.Server.MaxJobBytes <= 0 {
		return fmt.Errorf("server.max_job_bytes must be positive")
	}
	if c.Server.MaxMissedPings <= 0 {
		return fmt.Errorf("server.max_missed_pings must be positive")
	}
	if c.Server.OutboundQueueCapacity <= 0 {
		return fmt.Errorf("server.outbound_queue_capacity must be positive")
	}
	switch c.Audit.Driver {
	case "sqlite", "postgres", "mysql", "mongodb", "":
	default:
		return fmt.Errorf("audit.driver %q is not supported", c.Audit.Driver)
	}
	return nil
}

// ApplyEnvOverrides overlays PROMPTIVD_-prefixed environment variables onto
// cfg, matching the env surface named in the CLI contract plus a handful of
// equally-named extensions for the ambient sections.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PROMPTIVD_SERVER_BIND_ADDR"); v != "" {
		c.Server.BindAddr = v
	}
	if v := os.Getenv("PROMPTIVD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PROMPTIVD_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("PROMPTIVD_REQUIRE_SINK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Server.RequireSink = b
		}
	}
	if v := os.Getenv("PROMPTIVD_AUDIT_DRIVER"); v != "" {
		c.Audit.Driver = v
	}
	if v := os.Getenv("PROMPTIVD_AUDIT_DSN"); v != "" {
		c.Audit.DSN = v
	}
	if v := os.Getenv("PROMPTIVD_OTLP_ENDPOINT"); v != "" {
		c.Observability.OTLP.Endpoint = v
	}
}

var envRegex = regexp.MustCompile(`\$\{(\w+)(?::-([^}]*))?\}`)

// SubstituteEnvVars replaces ${VAR} and ${VAR:-default} references in input
// with the corresponding environment variable, or the default when unset.
func SubstituteEnvVars(input string) string {
	return envRegex.ReplaceAllStringFunc(input, func(m string) string {
		matches := envRegex.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		name := matches[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		if len(matches) > 2 && strings.Contains(m, ":-") {
			return matches[2]
		}
		return m
	})
}

// JSON renders the resolved configuration for --validate-config.
func (c *Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
