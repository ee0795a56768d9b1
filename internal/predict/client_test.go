package predict_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/fraudform/internal/feature"
	"github.com/gyaneshwarpardhi/fraudform/internal/predict"
)

func newService(t *testing.T, status int, body string, seen *[]float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			http.NotFound(w, r)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var req struct {
			Features []float64 `json:"features"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if seen != nil {
			*seen = req.Features
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPredict_SendsVector(t *testing.T) {
	var seen []float64
	srv := newService(t, http.StatusOK, `{"fraud": true, "fraud_probability": 0.87}`, &seen)
	c := predict.NewClient(srv.URL+"/", time.Second)

	s := feature.Set{Time: 100, V1: -1.5, V2: 2, Amount: 50}
	res, err := c.Predict(context.Background(), s.Vector())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != feature.Length {
		t.Fatalf("expected %d features on the wire, got %d", feature.Length, len(seen))
	}
	if seen[0] != 100 || seen[1] != -1.5 || seen[2] != 2 || seen[29] != 50 {
		t.Errorf("unexpected wire vector %v", seen)
	}
	if !res.Fraud {
		t.Errorf("expected fraud verdict")
	}
	if res.FraudProbability == nil || *res.FraudProbability != 0.87 {
		t.Errorf("expected probability 0.87, got %v", res.FraudProbability)
	}
	if res.Confidence != nil {
		t.Errorf("expected no confidence, got %v", *res.Confidence)
	}
}

func TestPredict_VerbatimBody(t *testing.T) {
	body := `{"fraud":false,"confidence":0.93,"extra":"kept"}`
	srv := newService(t, http.StatusOK, body, nil)
	c := predict.NewClient(srv.URL, time.Second)

	res, err := c.Predict(context.Background(), feature.Vector{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != body {
		t.Errorf("got %s, want %s", out, body)
	}
}

func TestPredict_NonNumericAnnotationsDropped(t *testing.T) {
	srv := newService(t, http.StatusOK, `{"fraud":true,"fraud_probability":"high","confidence":null}`, nil)
	c := predict.NewClient(srv.URL, time.Second)

	res, err := c.Predict(context.Background(), feature.Vector{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FraudProbability != nil || res.Confidence != nil {
		t.Errorf("expected annotations to be dropped, got %+v", res)
	}
}

func TestPredict_NullAnnotationsAbsent(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantProb bool
		wantConf bool
	}{
		{"null confidence", `{"fraud":false,"fraud_probability":0.1,"confidence":null}`, true, false},
		{"null probability", `{"fraud":true,"fraud_probability":null,"confidence":0.9}`, false, true},
		{"both null", `{"fraud":true,"fraud_probability": null ,"confidence":null}`, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newService(t, http.StatusOK, tc.body, nil)
			c := predict.NewClient(srv.URL, time.Second)
			res, err := c.Predict(context.Background(), feature.Vector{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (res.FraudProbability != nil) != tc.wantProb {
				t.Errorf("probability present=%v, want %v", res.FraudProbability != nil, tc.wantProb)
			}
			if (res.Confidence != nil) != tc.wantConf {
				t.Errorf("confidence present=%v, want %v", res.Confidence != nil, tc.wantConf)
			}
		})
	}
}

func TestPredict_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"bad request", http.StatusBadRequest, `{"error":"Expected 30 features, got 29"}`},
		{"malformed body", http.StatusOK, `{not json`},
		{"missing verdict", http.StatusOK, `{"fraud_probability":0.5}`},
		{"verdict not boolean", http.StatusOK, `{"fraud":"yes"}`},
		{"array body", http.StatusOK, `[true]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newService(t, tc.status, tc.body, nil)
			c := predict.NewClient(srv.URL, time.Second)
			res, err := c.Predict(context.Background(), feature.Vector{})
			if !errors.Is(err, predict.ErrPredictionFailed) {
				t.Fatalf("expected ErrPredictionFailed, got %v", err)
			}
			if res != nil {
				t.Errorf("expected nil result, got %+v", res)
			}
		})
	}
}

func TestPredict_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := predict.NewClient(url, time.Second)
	_, err := c.Predict(context.Background(), feature.Vector{})
	if !errors.Is(err, predict.ErrPredictionFailed) {
		t.Fatalf("expected ErrPredictionFailed, got %v", err)
	}
}

func TestPredict_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := predict.NewClient(srv.URL, 50*time.Millisecond)
	_, err := c.Predict(context.Background(), feature.Vector{})
	if !errors.Is(err, predict.ErrPredictionFailed) {
		t.Fatalf("expected ErrPredictionFailed, got %v", err)
	}
}

func TestHealthAndDescribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"healthy","model_loaded":true}`))
		case "/":
			info := map[string]interface{}{
				"message":           "Credit Card Fraud Detection API",
				"status":            "ready",
				"features_required": feature.Length,
				"features":          feature.Columns(),
			}
			_ = json.NewEncoder(w).Encode(info)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := predict.NewClient(srv.URL, time.Second)
	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !h.ModelLoaded || h.Status != "healthy" {
		t.Errorf("unexpected health %+v", h)
	}

	info, err := c.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if !info.Matches(feature.Columns()) {
		t.Errorf("expected layout to match, got %+v", info)
	}
	info.Features[5], info.Features[6] = info.Features[6], info.Features[5]
	if info.Matches(feature.Columns()) {
		t.Errorf("swapped columns should not match")
	}
}

func TestDemo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/predict_demo" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"non_fraud":{"fraud":false,"probability":0.01},"fraud":{"fraud":true,"probability":0.91}}`))
	}))
	defer srv.Close()

	c := predict.NewClient(srv.URL, time.Second)
	got, err := c.Demo(context.Background())
	if err != nil {
		t.Fatalf("Demo: %v", err)
	}
	if !got["fraud"].Fraud || got["fraud"].Probability != 0.91 {
		t.Errorf("unexpected fraud sample %+v", got["fraud"])
	}
	if got["non_fraud"].Fraud {
		t.Errorf("unexpected non_fraud sample %+v", got["non_fraud"])
	}
}

func TestDemo_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := predict.NewClient(srv.URL, time.Second)
	if _, err := c.Demo(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx demo response")
	}
}

func TestFailureResult(t *testing.T) {
	res := predict.Failure()
	if !res.Failed() || res.Error != predict.FailureMessage {
		t.Fatalf("unexpected failure result %+v", res)
	}
	out, _ := json.Marshal(res)
	if string(out) != `{"error":"Prediction failed. Check backend is running."}` {
		t.Errorf("got %s", out)
	}
}
