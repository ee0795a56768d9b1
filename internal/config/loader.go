package config

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/fraudform/internal/metrics"
)

const (
	DefaultBaseURL   = "http://127.0.0.1:5000"
	DefaultTimeoutMs = 10000
	DefaultTitle     = "Credit Card Fraud Detection"
	DefaultSubtitle  = "Enter transaction details to check for fraud"
)

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload failed, keeping previous config", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file. A config that fails
// to parse or validate is rejected and the previous one stays current.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		metrics.ConfigReloads.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		metrics.ConfigReloads.WithLabelValues("invalid").Inc()
		return nil, err
	}
	metrics.ConfigReloads.WithLabelValues("applied").Inc()
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

// Timeout returns the predictor timeout as a Duration.
func (p PredictorConf) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

func (l *Loader) load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	// Apply defaults.
	if cfg.Predictor.BaseURL == "" {
		cfg.Predictor.BaseURL = DefaultBaseURL
	}
	if cfg.Predictor.TimeoutMs == 0 {
		cfg.Predictor.TimeoutMs = DefaultTimeoutMs
	}
	if cfg.Page.Title == "" {
		cfg.Page.Title = DefaultTitle
	}
	if cfg.Page.Subtitle == "" {
		cfg.Page.Subtitle = DefaultSubtitle
	}
	return &cfg, nil
}
