package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/fraudform/internal/feature"
	"github.com/gyaneshwarpardhi/fraudform/internal/metrics"
)

const maxBodyBytes = 1 << 20

// Client talks to the external classifier service.
// Base URL and timeout may be swapped while requests are running.
type Client struct {
	baseURL atomic.Pointer[string]
	timeout atomic.Int64
	http    *http.Client
}

// NewClient creates a Client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	c := &Client{http: &http.Client{}}
	c.SetBaseURL(baseURL)
	c.SetTimeout(timeout)
	return c
}

// SetBaseURL replaces the service root (used on config hot-reload).
func (c *Client) SetBaseURL(u string) {
	u = strings.TrimRight(u, "/")
	c.baseURL.Store(&u)
}

// BaseURL returns the current service root.
func (c *Client) BaseURL() string { return *c.baseURL.Load() }

// SetTimeout replaces the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) { c.timeout.Store(int64(d)) }

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration { return time.Duration(c.timeout.Load()) }

type predictRequest struct {
	Features feature.Vector `json:"features"`
}

// Predict posts vec to /predict and returns the parsed verdict.
// Every failure is reported as ErrPredictionFailed.
func (c *Client) Predict(ctx context.Context, vec feature.Vector) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.PredictionDuration.Observe(float64(time.Since(start).Milliseconds()))
	}()

	payload, err := json.Marshal(predictRequest{Features: vec})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrPredictionFailed, err)
	}
	status, body, err := c.do(ctx, http.MethodPost, "/predict", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrPredictionFailed, status)
	}
	res, err := decodeResult(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
	}
	return res, nil
}

// Health is the classifier's /health payload.
type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Health queries GET /health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.getJSON(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ServiceInfo is the classifier's self-description served at its root.
type ServiceInfo struct {
	Message          string   `json:"message"`
	Status           string   `json:"status"`
	FeaturesRequired int      `json:"features_required"`
	Features         []string `json:"features"`
}

// Describe queries GET / for the service's expected feature layout.
func (c *Client) Describe(ctx context.Context) (*ServiceInfo, error) {
	var info ServiceInfo
	if err := c.getJSON(ctx, "/", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DemoVerdict is one canned classification from the service's demo endpoint.
type DemoVerdict struct {
	Fraud       bool    `json:"fraud"`
	Probability float64 `json:"probability"`
}

// Demo queries GET /predict_demo, which classifies the service's own sample
// rows (keyed "fraud" and "non_fraud"). It is a diagnostic and never feeds the form.
func (c *Client) Demo(ctx context.Context) (map[string]DemoVerdict, error) {
	out := make(map[string]DemoVerdict)
	if err := c.getJSON(ctx, "/predict_demo", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Matches reports whether the service expects exactly the given column layout.
func (s *ServiceInfo) Matches(cols []string) bool {
	if s.FeaturesRequired != len(cols) {
		return false
	}
	if len(s.Features) == 0 {
		return true
	}
	if len(s.Features) != len(cols) {
		return false
	}
	for i := range cols {
		if s.Features[i] != cols[i] {
			return false
		}
	}
	return true
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("GET %s: status %d", path, status)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GET %s: decode body: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	if d := c.Timeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, rdr)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}
