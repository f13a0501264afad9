// Package config loads the optional HCL configuration of a summary run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	typehelpers "github.com/turbot/go-kit/types"
	"github.com/turbot/tailpipe-log-summary/object_store"
	"github.com/turbot/tailpipe-log-summary/rate_limiter"
)

const (
	DefaultWorkers         = 4
	DefaultMinRetryDelayMs = 25
)

// Config tunes how objects are fetched and processed.
//
//	workers             = 8
//	max_attempts        = 5
//	min_retry_delay_ms  = 50
//	fail_on_fetch_error = false
//	extensions          = [".log", ".json"]
//
//	rate_limit {
//	  fill_rate       = 100
//	  bucket_size     = 100
//	  max_concurrency = 16
//	}
//
//	aws {
//	  profile = "logs-reader"
//	  region  = "eu-west-1"
//	}
type Config struct {
	Workers          int      `hcl:"workers,optional"`
	MaxAttempts      int      `hcl:"max_attempts,optional"`
	MinRetryDelayMs  int      `hcl:"min_retry_delay_ms,optional"`
	FailOnFetchError bool     `hcl:"fail_on_fetch_error,optional"`
	Extensions       []string `hcl:"extensions,optional"`

	RateLimit *rate_limiter.Definition    `hcl:"rate_limit,block"`
	Aws       *object_store.AwsConnection `hcl:"aws,block"`
	Gcp       *object_store.GcpConnection `hcl:"gcp,block"`
}

func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

// Load reads and parses the config file at path. An empty path returns the default config.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, expanded)
}

func Parse(data []byte, filename string) (*Config, error) {
	c := &Config{}
	if err := ParseConfig(data, filename, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	c.setDefaults()
	return c, nil
}

func (c *Config) setDefaults() {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = object_store.DefaultMaxAttempts
	}
	if c.MinRetryDelayMs == 0 {
		c.MinRetryDelayMs = DefaultMinRetryDelayMs
	}
}

func (c *Config) Validate() error {
	var validationErrors []error
	if c.Workers < 0 {
		validationErrors = append(validationErrors, errors.New("workers must not be negative"))
	}
	if c.MaxAttempts < 0 {
		validationErrors = append(validationErrors, errors.New("max_attempts must not be negative"))
	}
	if c.MinRetryDelayMs < 0 {
		validationErrors = append(validationErrors, errors.New("min_retry_delay_ms must not be negative"))
	}

	var invalidExtensions []string
	for _, e := range c.Extensions {
		if len(e) == 0 {
			invalidExtensions = append(invalidExtensions, "<empty>")
		} else if e[0] != '.' {
			invalidExtensions = append(invalidExtensions, e)
		}
	}
	if len(invalidExtensions) > 0 {
		validationErrors = append(validationErrors, fmt.Errorf("invalid extensions: %s", strings.Join(invalidExtensions, ",")))
	}

	if c.RateLimit != nil {
		if err := c.RateLimit.Validate(); err != nil {
			validationErrors = append(validationErrors, err)
		}
	}
	if c.Aws != nil {
		if err := c.Aws.Validate(); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("aws: %w", err))
		}
	}
	if c.Gcp != nil {
		if err := c.Gcp.Validate(); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("gcp: %w", err))
		}
	}
	return errors.Join(validationErrors...)
}

func (c *Config) MinRetryDelay() time.Duration {
	return time.Duration(c.MinRetryDelayMs) * time.Millisecond
}

func (c *Config) Connections() object_store.Connections {
	return object_store.Connections{Aws: c.Aws, Gcp: c.Gcp}
}

// Limiter returns the store rate limiter, or nil if no rate_limit block is configured
func (c *Config) Limiter() *rate_limiter.APILimiter {
	if c.RateLimit == nil {
		return nil
	}
	d := *c.RateLimit
	if d.Name == "" {
		d.Name = "store"
	}
	return rate_limiter.NewAPILimiter(&d)
}

func (c *Config) String() string {
	region := ""
	if c.Aws != nil {
		region = typehelpers.SafeString(c.Aws.Region)
	}
	return fmt.Sprintf("workers=%d max_attempts=%d min_retry_delay=%s fail_on_fetch_error=%t extensions=%v aws_region=%q",
		c.Workers, c.MaxAttempts, c.MinRetryDelay(), c.FailOnFetchError, c.Extensions, region)
}
