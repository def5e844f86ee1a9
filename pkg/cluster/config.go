package cluster

import "golang.org/x/exp/slices"

// Config is an optional static membership applied at startup, so a node can
// join without an operator call to the cluster endpoint.
type Config struct {
	Self    string   `yaml:"self"`
	Members []string `yaml:"members"`
}

// DefaultConfig returns an empty configuration: membership is left to the
// operator.
func DefaultConfig() Config {
	return Config{}
}

// IsSet reports whether a static membership was configured.
func (c *Config) IsSet() bool {
	return c.Self != "" || len(c.Members) > 0
}

// Validate checks a configured membership. An unset configuration is valid.
func (c *Config) Validate() error {
	if !c.IsSet() {
		return nil
	}
	if c.Self == "" {
		return ErrMissingSelf
	}
	if len(c.Members) == 0 {
		return ErrNoMembers
	}
	for _, m := range c.Members {
		if m == "" {
			return ErrInvalidAddress
		}
	}
	if !slices.Contains(c.Members, c.Self) {
		return ErrSelfNotMember
	}
	return nil
}

// Apply defines the configured membership on r. It is a no-op when unset.
func (c *Config) Apply(r *Registry) error {
	if !c.IsSet() {
		return nil
	}
	if err := c.Validate(); err != nil {
		return err
	}
	return r.SetMembers(c.Self, c.Members)
}
