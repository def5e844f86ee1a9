// Package config loads node configuration: built-in defaults, then an
// optional YAML file, then environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-synonyms/pkg/cluster"
	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/replication"
	"github.com/dd0wney/cluso-synonyms/pkg/server"
	"github.com/dd0wney/cluso-synonyms/pkg/synonyms"
	"github.com/dd0wney/cluso-synonyms/pkg/validation"
)

// Environment overrides
const (
	EnvAddr     = "SYNONYMDB_ADDR"
	EnvSelf     = "SYNONYMDB_SELF"
	EnvMembers  = "SYNONYMDB_MEMBERS" // comma separated
	EnvLogLevel = "LOG_LEVEL"
)

var envVarPattern = regexp.MustCompile(`\${([^}]+)}`)

// Config is the full node configuration.
type Config struct {
	Server      server.Config      `yaml:"server"`
	Store       StoreConfig        `yaml:"store"`
	Replication replication.Config `yaml:"replication"`
	Cluster     cluster.Config     `yaml:"cluster"`
	Logging     LoggingConfig      `yaml:"logging"`
}

// StoreConfig selects the collation used to order synonyms.
type StoreConfig struct {
	Locale string `yaml:"locale"`
}

// Tag parses the configured locale.
func (c StoreConfig) Tag() (language.Tag, error) {
	return language.Parse(c.Locale)
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  logging.Level `yaml:"level"`
	Output string        `yaml:"output"` // stdout, stderr or a file path
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:      server.DefaultConfig(),
		Store:       StoreConfig{Locale: synonyms.DefaultLocale.String()},
		Replication: replication.DefaultConfig(),
		Cluster:     cluster.DefaultConfig(),
		Logging:     LoggingConfig{Level: logging.InfoLevel, Output: "stdout"},
	}
}

// Load builds the configuration from defaults, the file at path (if any)
// and the process environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(raw); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// decode overlays YAML onto c. Unknown keys are rejected.
func (c *Config) decode(raw []byte) error {
	expanded, err := ExpandEnvStrict(string(raw))
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// ExpandEnvStrict replaces ${NAME} references and fails on unset variables.
func ExpandEnvStrict(s string) (string, error) {
	for _, m := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(m[1]); !ok {
			return "", fmt.Errorf("environment variable %s is not set", m[1])
		}
	}
	return os.ExpandEnv(s), nil
}

// ApplyEnv applies environment overrides read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvSelf); ok && v != "" {
		c.Cluster.Self = v
	}
	if v, ok := lookup(EnvMembers); ok && v != "" {
		c.Cluster.Members = splitList(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		level, err := logging.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		c.Logging.Level = level
	}
	return nil
}

// ApplyDefaults fills zero-valued fields left by a sparse file.
func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Replication.ApplyDefaults()
	c.Store.Locale = validation.Or(c.Store.Locale, synonyms.DefaultLocale.String())
	c.Logging.Output = validation.Or(c.Logging.Output, "stdout")
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	store := validation.NewConfigValidator("store").
		Locale("locale", c.Store.Locale)
	clusterCfg := validation.NewConfigValidator("cluster").
		When(c.Cluster.IsSet(), func(v *validation.ConfigValidator) {
			v.PeerAddr("self", c.Cluster.Self).
				PeerAddrs("members", c.Cluster.Members).
				Custom("members", c.Cluster.Validate)
		})
	logCfg := validation.NewConfigValidator("logging").
		Required("output", c.Logging.Output)

	return errors.Join(
		c.Server.Validate(),
		store.Validate(),
		c.Replication.Validate(),
		clusterCfg.Validate(),
		logCfg.Validate(),
	)
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
