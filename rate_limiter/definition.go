package rate_limiter

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
)

// Definition configures an APILimiter. It is decoded from a rate_limit config block.
type Definition struct {
	// the limiter name
	Name string `hcl:"name,optional"`
	// requests per second and burst size; zero disables rate limiting
	FillRate   float64 `hcl:"fill_rate,optional"`
	BucketSize int64   `hcl:"bucket_size,optional"`
	// the max number of concurrent requests; zero means unlimited
	MaxConcurrency int64 `hcl:"max_concurrency,optional"`
}

func (d *Definition) String() string {
	var parts []string
	if d.FillRate > 0 {
		parts = append(parts, fmt.Sprintf("Limit(/s): %v, Burst: %d", rate.Limit(d.FillRate), d.BucketSize))
	}
	if d.MaxConcurrency > 0 {
		parts = append(parts, fmt.Sprintf("MaxConcurrency: %d", d.MaxConcurrency))
	}
	return strings.Join(parts, " ")
}

func (d *Definition) Validate() error {
	var validationErrors []error
	if d.FillRate < 0 || d.BucketSize < 0 || d.MaxConcurrency < 0 {
		validationErrors = append(validationErrors, errors.New("rate limit values must not be negative"))
	}
	if d.FillRate > 0 && d.BucketSize == 0 {
		validationErrors = append(validationErrors, errors.New("rate limit must define bucket_size when fill_rate is set"))
	}
	return errors.Join(validationErrors...)
}
