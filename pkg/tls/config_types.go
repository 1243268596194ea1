// Package tls builds the listener TLS configuration for the layout service,
// loading a key pair from disk or generating a self-signed one for local use.
package tls

import (
	"crypto/tls"
	"time"
)

// Config holds TLS configuration options
type Config struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	CertFile string `yaml:"cert_file" toml:"cert_file"`
	KeyFile  string `yaml:"key_file" toml:"key_file"`
	CAFile   string `yaml:"ca_file" toml:"ca_file"` // Enables client certificate verification

	// Used only when CertFile/KeyFile are empty
	AutoGenerate bool          `yaml:"auto_generate" toml:"auto_generate"`
	Hosts        []string      `yaml:"hosts" toml:"hosts"`
	ValidFor     time.Duration `yaml:"valid_for" toml:"valid_for"`
}

// DefaultConfig returns TLS disabled, with self-signed generation for
// localhost when it is switched on.
func DefaultConfig() Config {
	return Config{
		AutoGenerate: true,
		Hosts:        []string{"localhost", "127.0.0.1"},
		ValidFor:     30 * 24 * time.Hour,
	}
}

// CertificateInfo holds certificate metadata
type CertificateInfo struct {
	Subject   string
	NotBefore time.Time
	NotAfter  time.Time
	DNSNames  []string
	IPs       []string
}

// ExpiresIn returns the time until certificate expiration
func (ci *CertificateInfo) ExpiresIn() time.Duration {
	return time.Until(ci.NotAfter)
}

// SecureCipherSuites lists the TLS 1.2 suites offered. TLS 1.3 suites are
// not configurable.
func SecureCipherSuites() []uint16 {
	return []uint16{
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
	}
}
