// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	// RulesDir holds the <version>_rules.{json,yaml} files.
	RulesDir     string `envconfig:"RULES_DIR" default:"data/rules"`
	RulesVersion string `envconfig:"RULES_VERSION" default:"latest"`
	// RulesTTL of zero turns the rule pack cache off.
	RulesTTL time.Duration `envconfig:"RULES_CACHE_TTL" default:"5m"`
	// BatchConcurrency bounds how many carts of a batch are evaluated at once.
	BatchConcurrency int    `envconfig:"BATCH_CONCURRENCY" default:"8"`
	PointsMethodID   string `envconfig:"POINTS_METHOD_ID" default:"PUNKTY"`
}

// FromEnv processes the environment and validates the result.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.RulesDir) == "" {
		errs = append(errs, errors.New("RULES_DIR must not be empty"))
	}
	if c.BatchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("BATCH_CONCURRENCY must be positive, got %d", c.BatchConcurrency))
	}
	if c.RulesTTL < 0 {
		errs = append(errs, fmt.Errorf("RULES_CACHE_TTL must not be negative, got %s", c.RulesTTL))
	}
	if strings.TrimSpace(c.PointsMethodID) == "" {
		errs = append(errs, errors.New("POINTS_METHOD_ID must not be empty"))
	}
	return errors.Join(errs...)
}
