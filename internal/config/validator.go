package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MaxTimeoutMs caps predictor.timeout_ms. The HTTP server's write timeout is
// sized from it, so a hot-reloaded timeout can never outlive the response.
const MaxTimeoutMs = 60000

// MaxTimeout is MaxTimeoutMs as a Duration.
const MaxTimeout = MaxTimeoutMs * time.Millisecond

// Validate checks the config for:
//   - A version string
//   - An absolute http(s) predictor base URL
//   - A predictor timeout in (0, MaxTimeoutMs]
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	p := cfg.Predictor
	if p.BaseURL == "" {
		errs = append(errs, "predictor.base_url is required")
	} else if u, err := url.Parse(p.BaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("predictor.base_url %q: %s", p.BaseURL, err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("predictor.base_url %q: must be an absolute http(s) URL", p.BaseURL))
	}
	if p.TimeoutMs <= 0 {
		errs = append(errs, fmt.Sprintf("predictor.timeout_ms must be positive, got %d", p.TimeoutMs))
	} else if p.TimeoutMs > MaxTimeoutMs {
		errs = append(errs, fmt.Sprintf("predictor.timeout_ms must be at most %d, got %d", MaxTimeoutMs, p.TimeoutMs))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
