package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// ServerTLSConfig loads or generates the listener certificate. It returns
// nil when TLS is disabled. With AutoGenerate and both file paths set, a
// missing pair is generated and written there first, so the certificate
// survives restarts and can be handed to peers as their CAFile.
func ServerTLSConfig(cfg Config) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var cert tls.Certificate
	var err error

	switch {
	case cfg.CertFile != "" && cfg.KeyFile != "":
		if cfg.AutoGenerate {
			if err := ensureKeyPair(cfg); err != nil {
				return nil, err
			}
		}
		cert, err = tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
		}
	case cfg.AutoGenerate:
		cfg.ApplyDefaults()
		cert, err = GenerateSelfSignedCert(cfg.Hosts, cfg.ValidFor)
		if err != nil {
			return nil, fmt.Errorf("failed to generate self-signed certificate: %w", err)
		}
	default:
		return nil, errors.New("TLS enabled but no certificate provided and auto-generation disabled")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CipherSuites: SecureCipherSuites(),
	}, nil
}

func ensureKeyPair(cfg Config) error {
	_, certErr := os.Stat(cfg.CertFile)
	_, keyErr := os.Stat(cfg.KeyFile)
	if certErr == nil && keyErr == nil {
		return nil
	}
	if certErr != nil && !errors.Is(certErr, os.ErrNotExist) {
		return fmt.Errorf("failed to stat TLS certificate: %w", certErr)
	}
	cfg.ApplyDefaults()
	if err := GenerateAndSaveCertificate(cfg.Hosts, cfg.ValidFor, cfg.CertFile, cfg.KeyFile); err != nil {
		return fmt.Errorf("failed to write self-signed certificate: %w", err)
	}
	return nil
}

// ClientTLSConfig builds the settings used when dialing peers. It returns
// nil when TLS is disabled.
func ClientTLSConfig(cfg Config) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CAFile != "" {
		pool, err := LoadCAPool(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load CA certificate: %w", err)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// LoadCAPool loads a CA certificate pool from a PEM file
func LoadCAPool(caFile string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	certPool := x509.NewCertPool()
	if !certPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA certificate")
	}

	return certPool, nil
}
