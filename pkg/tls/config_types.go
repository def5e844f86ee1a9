// Package tls builds the TLS settings for the node listener and for the
// connections a node opens to its peers.
package tls

import (
	"crypto/tls"
	"time"

	"github.com/dd0wney/cluso-synonyms/pkg/validation"
)

// Config holds TLS configuration options. The same settings serve both
// directions: a node presents CertFile/KeyFile to clients and trusts CAFile
// when it dials peers.
type Config struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"` // trusted roots for peer connections; system pool when empty

	// Generate a self-signed pair: in memory without CertFile/KeyFile,
	// otherwise written to them when they do not exist yet
	AutoGenerate bool          `yaml:"auto_generate"`
	Hosts        []string      `yaml:"hosts"`
	ValidFor     time.Duration `yaml:"valid_for"`

	InsecureSkipVerify bool `yaml:"insecure_skip_verify"` // peers only, NOT for production
}

// DefaultConfig returns TLS disabled with self-signed fallback settings.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		AutoGenerate: false,
		Hosts:        []string{"localhost", "127.0.0.1"},
		ValidFor:     365 * 24 * time.Hour,
	}
}

// Validate checks that an enabled configuration can produce a certificate.
func (c *Config) Validate() error {
	v := validation.NewConfigValidator("server.tls")
	v.When(c.Enabled, func(v *validation.ConfigValidator) {
		if !c.AutoGenerate {
			v.Required("cert_file", c.CertFile).Required("key_file", c.KeyFile)
		} else {
			v.Positive("hosts", int64(len(c.Hosts))).AtLeast("valid_for", c.ValidFor, time.Hour)
		}
	})
	return v.Validate()
}

// ApplyDefaults fills zero-valued generation fields.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if len(c.Hosts) == 0 {
		c.Hosts = d.Hosts
	}
	c.ValidFor = validation.PositiveOr(c.ValidFor, d.ValidFor)
}

// SecureCipherSuites returns the TLS 1.2 suites offered alongside TLS 1.3.
func SecureCipherSuites() []uint16 {
	return []uint16{
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	}
}
