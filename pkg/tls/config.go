package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertificate means TLS is on but there is neither a key pair on disk
// nor permission to generate one.
var ErrNoCertificate = errors.New("tls: no certificate configured and auto_generate is off")

// Load builds the listener configuration. It returns nil, nil when TLS is
// disabled so callers can pass the result straight through.
func Load(cfg Config) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	cert, err := keyPair(cfg)
	if err != nil {
		return nil, err
	}
	out := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CipherSuites: SecureCipherSuites(),
	}
	if cfg.CAFile == "" {
		return out, nil
	}
	if out.ClientCAs, err = LoadCAPool(cfg.CAFile); err != nil {
		return nil, err
	}
	// Offered client certificates must chain to the CA; none is required.
	out.ClientAuth = tls.VerifyClientCertIfGiven
	return out, nil
}

// keyPair prefers files on disk and falls back to a fresh self-signed pair.
func keyPair(cfg Config) (tls.Certificate, error) {
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("tls: load key pair %s: %w", cfg.CertFile, err)
		}
		return cert, nil
	}
	if !cfg.AutoGenerate {
		return tls.Certificate{}, ErrNoCertificate
	}
	cert, err := GenerateSelfSigned(cfg.Hosts, cfg.ValidFor)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tls: generate self-signed: %w", err)
	}
	return cert, nil
}

// LoadCAPool reads PEM certificates from caFile into a pool.
func LoadCAPool(caFile string) (*x509.CertPool, error) {
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("tls: read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("tls: %s holds no PEM certificates", caFile)
	}
	return pool, nil
}

// ReadCertificateInfo describes the first certificate in a PEM file.
func ReadCertificateInfo(certFile string) (*CertificateInfo, error) {
	data, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("tls: read certificate: %w", err)
	}
	var cert *x509.Certificate
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != "CERTIFICATE" {
			continue
		}
		if cert, err = x509.ParseCertificate(block.Bytes); err != nil {
			return nil, fmt.Errorf("tls: parse certificate: %w", err)
		}
		break
	}
	if cert == nil {
		return nil, fmt.Errorf("tls: %s holds no PEM certificate", certFile)
	}

	info := &CertificateInfo{
		Subject:   cert.Subject.String(),
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
		DNSNames:  cert.DNSNames,
	}
	for _, ip := range cert.IPAddresses {
		info.IPs = append(info.IPs, ip.String())
	}
	return info, nil
}
