package form

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gyaneshwarpardhi/fraudform/internal/feature"
	"github.com/gyaneshwarpardhi/fraudform/internal/metrics"
	"github.com/gyaneshwarpardhi/fraudform/internal/predict"
)

// Predictor classifies a feature vector.
type Predictor interface {
	Predict(ctx context.Context, vec feature.Vector) (*predict.Result, error)
}

// Form holds the inputs, the last result, and the in-flight flag.
// At most one submission runs at a time; extra triggers are dropped.
type Form struct {
	predictor Predictor

	mu     sync.Mutex
	inputs feature.Set
	result *predict.Result

	inFlight atomic.Bool
}

// New creates a Form with every input at zero and no result.
func New(p Predictor) *Form {
	return &Form{predictor: p}
}

// Update stores the numeric coercion of raw under key.
func (f *Form) Update(key, raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs.Update(key, raw)
}

// InFlight reports whether a submission is awaiting the classifier.
func (f *Form) InFlight() bool { return f.inFlight.Load() }

// Submit sends the current inputs to the classifier and stores the outcome.
// It returns false without sending anything if a submission is already running.
// Cancellation of ctx is ignored; only the predictor's own timeout ends the call.
func (f *Form) Submit(ctx context.Context) bool {
	ran, _ := f.SubmitWith(ctx, nil)
	return ran
}

// SubmitWith applies inputs (key to raw value) and then submits, as one trigger.
// The inputs are applied only after the in-flight slot is claimed, so a dropped
// trigger leaves the form untouched. Unknown keys fail before anything changes.
func (f *Form) SubmitWith(ctx context.Context, inputs map[string]string) (bool, error) {
	for key := range inputs {
		if _, err := feature.Lookup(key); err != nil {
			return false, err
		}
	}
	if !f.inFlight.CompareAndSwap(false, true) {
		metrics.SubmissionsIgnored.Inc()
		return false, nil
	}
	metrics.SubmissionInFlight.Set(1)
	defer func() {
		metrics.SubmissionInFlight.Set(0)
		f.inFlight.Store(false)
	}()

	f.mu.Lock()
	for key, raw := range inputs {
		_ = f.inputs.Update(key, raw)
	}
	f.result = nil
	vec := f.inputs.Vector()
	f.mu.Unlock()

	res, err := f.predictor.Predict(context.WithoutCancel(ctx), vec)
	if err != nil || res == nil {
		slog.Warn("prediction failed", "err", err)
		metrics.PredictionFailures.Inc()
		res = predict.Failure()
	} else {
		metrics.Predictions.WithLabelValues(verdictLabel(res.Fraud)).Inc()
	}

	f.mu.Lock()
	f.result = res
	f.mu.Unlock()
	return true, nil
}

// Snapshot is a point-in-time copy of the form state.
type Snapshot struct {
	Inputs   feature.Set     `json:"inputs"`
	InFlight bool            `json:"in_flight"`
	Result   *predict.Result `json:"result"`
}

// Snapshot returns the current state.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Inputs:   f.inputs,
		InFlight: f.inFlight.Load(),
		Result:   f.result,
	}
}

func verdictLabel(fraud bool) string {
	if fraud {
		return "fraud"
	}
	return "safe"
}
