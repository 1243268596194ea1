package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/visualization"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.Artifact.Kind() != "" {
		t.Errorf("artifact kind = %q, want disabled", cfg.Artifact.Kind())
	}
}

const yamlConfig = `
server:
  port: 9000
  cors_allowed_origins: ["https://app.example.com"]
  shutdown_timeout: 3s
viewport:
  width: 1600
  height: 900
layout:
  seed: 42
  tick_interval: 33ms
  drag_timeout: 2s
  link_types: [grant-flow]
forces:
  structure: 160
  service-flow: 80
artifact:
  dir: /var/lib/stratnet
  compress: true
`

const tomlConfig = `
[server]
port = 9000
cors_allowed_origins = ["https://app.example.com"]
shutdown_timeout = "3s"

[viewport]
width = 1600.0
height = 900.0

[layout]
seed = 42
tick_interval = "33ms"
drag_timeout = "2s"
link_types = ["grant-flow"]

[forces]
structure = 160.0
service-flow = 80.0

[artifact]
dir = "/var/lib/stratnet"
compress = true
`

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"yaml", "stratnet.yaml", yamlConfig},
		{"yml", "stratnet.yml", yamlConfig},
		{"toml", "stratnet.toml", tomlConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load(writeFile(t, tt.file, tt.body), noEnv)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}

			if cfg.Server.Port != 9000 || cfg.Server.ShutdownTimeout != 3*time.Second {
				t.Errorf("server = %+v", cfg.Server)
			}
			if len(cfg.Server.CORSOrigins) != 1 {
				t.Errorf("origins = %v", cfg.Server.CORSOrigins)
			}
			if cfg.Viewport != (visualization.Viewport{Width: 1600, Height: 900}) {
				t.Errorf("viewport = %+v", cfg.Viewport)
			}
			if cfg.Layout.Seed != 42 || cfg.Layout.TickInterval != 33*time.Millisecond || cfg.Engine().DragTimeout != 2*time.Second {
				t.Errorf("layout = %+v", cfg.Layout)
			}
			if cfg.Forces.Structure != 160 || cfg.Forces.ServiceFlow != 80 || cfg.Forces.GrantFlow != 100 {
				t.Errorf("forces = %+v", cfg.Forces)
			}
			if cfg.Artifact.Kind() != "file" || !cfg.Artifact.Compress {
				t.Errorf("artifact = %+v", cfg.Artifact)
			}
			// Untouched sections keep their defaults.
			if cfg.Server.MaxBodyBytes != 10<<20 || cfg.Log.Level != "info" {
				t.Errorf("defaults lost: %+v %+v", cfg.Server, cfg.Log)
			}

			ec := cfg.Engine()
			if ec.Seed != 42 || ec.Distances.Structure != 160 || ec.Author != "stratnet" {
				t.Errorf("engine config = %+v", ec)
			}
			if len(ec.Enabled) != 1 || ec.Enabled[0] != catalog.LinkGrantFlow {
				t.Errorf("enabled = %v", ec.Enabled)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantMsg string
	}{
		{"unknown extension", "stratnet.ini", "port=1", "unsupported config format"},
		{"bad yaml", "stratnet.yaml", "server: [", "failed to parse"},
		{"bad toml", "stratnet.toml", "[server", "failed to parse"},
		{"invalid values", "stratnet.yaml", "server:\n  port: 0\nviewport:\n  width: -1\n", "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(writeFile(t, tt.file, tt.body), noEnv)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %v, want %q", err, tt.wantMsg)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("STRATNET_PORT", "9300")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9300 {
		t.Errorf("port = %d, want 9300", cfg.Server.Port)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name  string
		vars  map[string]string
		check func(t *testing.T, c *Config)
	}{
		{
			name: "PORT",
			vars: map[string]string{"PORT": "9100"},
			check: func(t *testing.T, c *Config) {
				if c.Server.Port != 9100 {
					t.Errorf("port = %d", c.Server.Port)
				}
			},
		},
		{
			name: "STRATNET_PORT wins",
			vars: map[string]string{"PORT": "9100", "STRATNET_PORT": "9200"},
			check: func(t *testing.T, c *Config) {
				if c.Server.Port != 9200 {
					t.Errorf("port = %d", c.Server.Port)
				}
			},
		},
		{
			name: "origins and log level",
			vars: map[string]string{"CORS_ALLOWED_ORIGINS": " https://a.example , ,https://b.example", "LOG_LEVEL": "DEBUG"},
			check: func(t *testing.T, c *Config) {
				if len(c.Server.CORSOrigins) != 2 || c.Server.CORSOrigins[1] != "https://b.example" {
					t.Errorf("origins = %v", c.Server.CORSOrigins)
				}
				if c.Log.Level != "debug" {
					t.Errorf("level = %q", c.Log.Level)
				}
				if got := c.CORS().AllowedOrigins; len(got) != 2 {
					t.Errorf("CORS() origins = %v", got)
				}
			},
		},
		{
			name: "feed and sinks",
			vars: map[string]string{"STRATNET_FEED_LISTEN": "tcp://0.0.0.0:7171", "STRATNET_S3_BUCKET": "exports", "STRATNET_ARTIFACT_DIR": "/tmp/out"},
			check: func(t *testing.T, c *Config) {
				if !c.Feed.Enabled || c.Feed.Listen != "tcp://0.0.0.0:7171" {
					t.Errorf("feed = %+v", c.Feed)
				}
				if c.Artifact.Kind() != "s3" {
					t.Errorf("artifact kind = %q", c.Artifact.Kind())
				}
			},
		},
		{
			name: "tls key pair",
			vars: map[string]string{"STRATNET_TLS_CERT": "/etc/stratnet/tls.crt", "STRATNET_TLS_KEY": "/etc/stratnet/tls.key"},
			check: func(t *testing.T, c *Config) {
				if !c.Server.TLS.Enabled || c.Server.TLS.KeyFile != "/etc/stratnet/tls.key" {
					t.Errorf("tls = %+v", c.Server.TLS)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.ApplyEnv(env(tt.vars)); err != nil {
				t.Fatalf("ApplyEnv() error: %v", err)
			}
			tt.check(t, cfg)
		})
	}

	if err := Default().ApplyEnv(env(map[string]string{"PORT": "http"})); err == nil {
		t.Error("ApplyEnv() with a non-numeric port should fail")
	}
	if err := Default().ApplyEnv(noEnv); err != nil {
		t.Errorf("ApplyEnv() with empty environment: %v", err)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	cfg.Log.Level = "loud"
	cfg.Layout.TickInterval = 0
	cfg.Layout.LinkTypes = []string{"carrier-pigeon"}
	cfg.Forces.Structure = -1
	cfg.Feed.Enabled = true
	cfg.Feed.Listen = ""
	cfg.RateLimit.Burst = 0
	cfg.Server.TrustedProxies = "not-an-ip"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	for _, field := range []string{
		"server.port", "log.level", "layout.tick_interval", "layout.link_types",
		"forces", "feed.listen", "ratelimit.burst", "server.trusted_proxies",
	} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s: %v", field, err)
		}
	}
	if !errors.Is(err, visualization.ErrInvalidDistance) {
		t.Errorf("error should wrap ErrInvalidDistance: %v", err)
	}
}

func TestRateLimiter(t *testing.T) {
	cfg := Default()
	cfg.RateLimit.RequestsPerSecond = 5
	cfg.RateLimit.Burst = 7

	rl, enabled := cfg.RateLimiter()
	if !enabled || rl.RequestsPerSecond != 5 || rl.BurstSize != 7 {
		t.Errorf("RateLimiter() = %+v, %v", rl, enabled)
	}

	cfg.RateLimit.Enabled = false
	if _, enabled := cfg.RateLimiter(); enabled {
		t.Error("disabled rate limit reported enabled")
	}
}

func TestValidateTLS(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"disabled", func(c *Config) {}, false},
		{"auto generated", func(c *Config) { c.Server.TLS.Enabled = true }, false},
		{"key pair", func(c *Config) {
			c.Server.TLS.Enabled = true
			c.Server.TLS.CertFile, c.Server.TLS.KeyFile = "tls.crt", "tls.key"
		}, false},
		{"cert without key", func(c *Config) {
			c.Server.TLS.Enabled = true
			c.Server.TLS.CertFile = "tls.crt"
		}, true},
		{"nothing to serve", func(c *Config) {
			c.Server.TLS.Enabled = true
			c.Server.TLS.AutoGenerate = false
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "server.tls") {
				t.Errorf("error does not mention server.tls: %v", err)
			}
		})
	}
}
