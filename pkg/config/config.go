// Package config loads the service configuration from a YAML or TOML file
// and applies environment overrides.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/stratnet/pkg/api/middleware"
	"github.com/dd0wney/stratnet/pkg/artifact"
	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/engine"
	tlspkg "github.com/dd0wney/stratnet/pkg/tls"
	"github.com/dd0wney/stratnet/pkg/validation"
	"github.com/dd0wney/stratnet/pkg/visualization"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig                   `yaml:"server" toml:"server"`
	Log       LogConfig                      `yaml:"log" toml:"log"`
	Viewport  visualization.Viewport         `yaml:"viewport" toml:"viewport"`
	Layout    LayoutConfig                   `yaml:"layout" toml:"layout"`
	Forces    visualization.DistanceSettings `yaml:"forces" toml:"forces"`
	Feed      FeedConfig                     `yaml:"feed" toml:"feed"`
	Import    ImportConfig                   `yaml:"import" toml:"import"`
	Artifact  ArtifactConfig                 `yaml:"artifact" toml:"artifact"`
	RateLimit RateLimitConfig                `yaml:"ratelimit" toml:"ratelimit"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host" toml:"host"`
	Port            int           `yaml:"port" toml:"port"`
	CORSOrigins     []string      `yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	TrustedProxies  string        `yaml:"trusted_proxies" toml:"trusted_proxies"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" toml:"max_body_bytes"`
	GraphQLMaxDepth int           `yaml:"graphql_max_depth" toml:"graphql_max_depth"`
	ReadTimeout     time.Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" toml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	TLS             tlspkg.Config `yaml:"tls" toml:"tls"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// LayoutConfig controls placement and the tick loop.
type LayoutConfig struct {
	Seed         int64         `yaml:"seed" toml:"seed"`
	TickInterval time.Duration `yaml:"tick_interval" toml:"tick_interval"`
	LinkTypes    []string      `yaml:"link_types" toml:"link_types"` // Visible flow types; empty shows all
	Author       string        `yaml:"author" toml:"author"`
	DataFile     string        `yaml:"data_file" toml:"data_file"` // Imported over the seed at startup

	// DragTimeout releases drags idle this long. Zero never does.
	DragTimeout time.Duration `yaml:"drag_timeout" toml:"drag_timeout"`
}

type FeedConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Listen  string `yaml:"listen" toml:"listen"`
}

type ImportConfig struct {
	WatchDir string        `yaml:"watch_dir" toml:"watch_dir"`
	Debounce time.Duration `yaml:"debounce" toml:"debounce"`
}

// ArtifactConfig selects where exports are written. An S3 bucket takes
// precedence over a directory; with neither, artifact export is disabled.
type ArtifactConfig struct {
	Dir      string            `yaml:"dir" toml:"dir"`
	Compress bool              `yaml:"compress" toml:"compress"`
	S3       artifact.S3Config `yaml:"s3" toml:"s3"`
}

// Kind returns "s3", "file" or "" when no sink is configured.
func (a ArtifactConfig) Kind() string {
	switch {
	case a.S3.Bucket != "":
		return "s3"
	case a.Dir != "":
		return "file"
	default:
		return ""
	}
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" toml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int     `yaml:"burst" toml:"burst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	rl := middleware.DefaultRateLimitConfig()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			MaxBodyBytes:    10 << 20,
			GraphQLMaxDepth: 5,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			TLS:             tlspkg.DefaultConfig(),
		},
		Log:      LogConfig{Level: "info"},
		Viewport: visualization.Viewport{Width: 1000, Height: 1000},
		Layout: LayoutConfig{
			Seed:         1,
			TickInterval: engine.DefaultTickInterval,
			Author:       "stratnet",
			DragTimeout:  engine.DefaultConfig().DragTimeout,
		},
		Forces: visualization.DefaultDistances(),
		Feed:   FeedConfig{Listen: "tcp://127.0.0.1:7070"},
		Import: ImportConfig{Debounce: 250 * time.Millisecond},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: rl.RequestsPerSecond,
			Burst:             rl.BurstSize,
		},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	default:
		return fmt.Errorf("unsupported config format %q (want .yaml, .yml or .toml)", ext)
	}
	return nil
}

// ApplyEnv overrides fields from the environment. STRATNET_PORT wins over
// PORT.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, key := range []string{"PORT", "STRATNET_PORT"} {
		if v, ok := lookup(key); ok && v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			c.Server.Port = port
		}
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("TRUSTED_PROXIES"); ok {
		c.Server.TrustedProxies = v
	}
	if cert, ok := lookup("STRATNET_TLS_CERT"); ok && cert != "" {
		c.Server.TLS.Enabled = true
		c.Server.TLS.CertFile = cert
		c.Server.TLS.KeyFile, _ = lookup("STRATNET_TLS_KEY")
	}
	if v, ok := lookup("STRATNET_FEED_LISTEN"); ok && v != "" {
		c.Feed.Enabled = true
		c.Feed.Listen = v
	}
	if v, ok := lookup("STRATNET_IMPORT_DIR"); ok {
		c.Import.WatchDir = v
	}
	if v, ok := lookup("STRATNET_ARTIFACT_DIR"); ok {
		c.Artifact.Dir = v
	}
	if v, ok := lookup("STRATNET_S3_BUCKET"); ok {
		c.Artifact.S3.Bucket = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	v := validation.NewConfigValidator("config")

	v.RangeInt("server.port", c.Server.Port, 1, 65535).
		Custom("server.max_body_bytes", func() error {
			if c.Server.MaxBodyBytes <= 0 {
				return fmt.Errorf("value %d must be positive", c.Server.MaxBodyBytes)
			}
			return nil
		}).
		RangeInt("server.graphql_max_depth", c.Server.GraphQLMaxDepth, 1, 20).
		Custom("server.trusted_proxies", func() error {
			_, err := middleware.ParseTrustedProxies(c.Server.TrustedProxies)
			return err
		}).
		OneOf("log.level", c.Log.Level, []string{"debug", "info", "warn", "warning", "error"})

	v.When(c.Server.TLS.Enabled, func(v *validation.ConfigValidator) {
		tc := c.Server.TLS
		v.Custom("server.tls", func() error {
			if (tc.CertFile == "") != (tc.KeyFile == "") {
				return fmt.Errorf("cert_file and key_file must be set together")
			}
			if tc.CertFile == "" && !tc.AutoGenerate {
				return fmt.Errorf("cert_file and key_file are required unless auto_generate is set")
			}
			return nil
		})
	})

	v.PositiveFloat("viewport.width", c.Viewport.Width).
		PositiveFloat("viewport.height", c.Viewport.Height)

	v.RangeDuration("layout.tick_interval", c.Layout.TickInterval, time.Millisecond, time.Second).
		Custom("layout.link_types", func() error {
			_, err := c.LinkTypes()
			return err
		}).
		Custom("forces", c.Forces.Validate)

	v.When(c.Feed.Enabled, func(v *validation.ConfigValidator) {
		v.Required("feed.listen", c.Feed.Listen)
	})
	v.When(c.Import.WatchDir != "", func(v *validation.ConfigValidator) {
		v.RangeDuration("import.debounce", c.Import.Debounce, 10*time.Millisecond, time.Minute)
	})
	v.When(c.RateLimit.Enabled, func(v *validation.ConfigValidator) {
		v.PositiveFloat("ratelimit.requests_per_second", c.RateLimit.RequestsPerSecond).
			Positive("ratelimit.burst", c.RateLimit.Burst)
	})

	return v.Validate()
}

// LinkTypes parses the configured visible flow types. Nil means all.
func (c *Config) LinkTypes() ([]catalog.LinkType, error) {
	if len(c.Layout.LinkTypes) == 0 {
		return nil, nil
	}
	out := make([]catalog.LinkType, 0, len(c.Layout.LinkTypes))
	for _, s := range c.Layout.LinkTypes {
		lt := catalog.LinkType(s)
		if !lt.Known() {
			return nil, fmt.Errorf("%w: %q", visualization.ErrUnknownLinkType, s)
		}
		out = append(out, lt)
	}
	return out, nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Engine builds the engine configuration. Call after Validate.
func (c *Config) Engine() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Viewport = c.Viewport
	cfg.Distances = c.Forces
	cfg.Seed = c.Layout.Seed
	cfg.Author = validation.DefaultOr(c.Layout.Author, cfg.Author)
	cfg.Enabled, _ = c.LinkTypes()
	cfg.DragTimeout = c.Layout.DragTimeout
	return cfg
}

// RateLimiter returns the limiter configuration, or false when disabled.
func (c *Config) RateLimiter() (*middleware.RateLimitConfig, bool) {
	rl := middleware.DefaultRateLimitConfig()
	rl.RequestsPerSecond = c.RateLimit.RequestsPerSecond
	rl.BurstSize = c.RateLimit.Burst
	return rl, c.RateLimit.Enabled
}

// CORS returns the CORS configuration for the configured origins.
func (c *Config) CORS() *middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = c.Server.CORSOrigins
	return cors
}
