package replication

import (
	"time"

	"github.com/dd0wney/cluso-synonyms/pkg/validation"
)

// Config holds synchronizer settings.
type Config struct {
	Interval                time.Duration `yaml:"interval"`                  // period of the background cycle
	RequestTimeout          time.Duration `yaml:"request_timeout"`           // per single-write delivery
	ImportTimeout           time.Duration `yaml:"import_timeout"`            // per full transfer
	MaxConcurrentDeliveries int           `yaml:"max_concurrent_deliveries"` // fan-out width
	CompressImports         bool          `yaml:"compress_imports"`          // snappy-encode full transfers
	BacklogWarning          int           `yaml:"backlog_warning"`           // pending batches before health degrades
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Interval:                10 * time.Second,
		RequestTimeout:          5 * time.Second,
		ImportTimeout:           60 * time.Second,
		MaxConcurrentDeliveries: 16,
		CompressImports:         true,
		BacklogWarning:          1000,
	}
}

// Validate validates the replication configuration
func (c *Config) Validate() error {
	v := validation.NewConfigValidator("replication")
	v.AtLeast("interval", c.Interval, 10*time.Millisecond).
		AtLeast("request_timeout", c.RequestTimeout, time.Millisecond).
		AtLeast("import_timeout", c.ImportTimeout, time.Millisecond).
		IntBetween("max_concurrent_deliveries", c.MaxConcurrentDeliveries, 1, 1024).
		Positive("backlog_warning", int64(c.BacklogWarning))
	return v.Validate()
}

// ApplyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	c.Interval = validation.PositiveOr(c.Interval, d.Interval)
	c.RequestTimeout = validation.PositiveOr(c.RequestTimeout, d.RequestTimeout)
	c.ImportTimeout = validation.PositiveOr(c.ImportTimeout, d.ImportTimeout)
	c.MaxConcurrentDeliveries = validation.PositiveOr(c.MaxConcurrentDeliveries, d.MaxConcurrentDeliveries)
	c.BacklogWarning = validation.PositiveOr(c.BacklogWarning, d.BacklogWarning)
}
