package server

import (
	"errors"
	"time"

	tlspkg "github.com/dd0wney/cluso-synonyms/pkg/tls"
	"github.com/dd0wney/cluso-synonyms/pkg/validation"
)

// Config holds HTTP listener settings.
type Config struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	TLS             tlspkg.Config `yaml:"tls"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxBodyBytes:    10 << 20,
		CORSOrigins:     []string{"*"},
		TLS:             tlspkg.DefaultConfig(),
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	v := validation.NewConfigValidator("server")
	v.ListenAddr("addr", c.Addr).
		AtLeast("read_timeout", c.ReadTimeout, time.Millisecond).
		AtLeast("write_timeout", c.WriteTimeout, time.Millisecond).
		AtLeast("idle_timeout", c.IdleTimeout, time.Millisecond).
		AtLeast("shutdown_timeout", c.ShutdownTimeout, time.Millisecond).
		Positive("max_body_bytes", c.MaxBodyBytes)
	return errors.Join(v.Validate(), c.TLS.Validate())
}

// ApplyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	c.Addr = validation.Or(c.Addr, d.Addr)
	c.ReadTimeout = validation.PositiveOr(c.ReadTimeout, d.ReadTimeout)
	c.WriteTimeout = validation.PositiveOr(c.WriteTimeout, d.WriteTimeout)
	c.IdleTimeout = validation.PositiveOr(c.IdleTimeout, d.IdleTimeout)
	c.ShutdownTimeout = validation.PositiveOr(c.ShutdownTimeout, d.ShutdownTimeout)
	c.MaxBodyBytes = validation.PositiveOr(c.MaxBodyBytes, d.MaxBodyBytes)
	if c.CORSOrigins == nil {
		c.CORSOrigins = d.CORSOrigins
	}
	c.TLS.ApplyDefaults()
}
