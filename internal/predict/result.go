package predict

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FailureMessage is the only error text ever shown for a failed prediction.
const FailureMessage = "Prediction failed. Check backend is running."

// ErrPredictionFailed wraps every transport, status, and decoding failure.
var ErrPredictionFailed = errors.New("prediction request failed")

// Result is either a verdict or an error-shaped value.
type Result struct {
	Fraud            bool     `json:"fraud"`
	FraudProbability *float64 `json:"fraud_probability,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
	Error            string   `json:"error,omitempty"`

	// Raw is the response body as received.
	Raw json.RawMessage `json:"-"`
}

// Failure returns the error-shaped result.
func Failure() *Result {
	return &Result{Error: FailureMessage}
}

// Failed reports whether r is error-shaped.
func (r *Result) Failed() bool { return r.Error != "" }

// MarshalJSON emits the verbatim body for verdicts and {"error": msg} for failures.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain Result
	return json.Marshal((*plain)(r))
}

// decodeResult parses a 2xx body. Only a JSON object with a boolean "fraud" is
// accepted; probability and confidence are kept when numeric and dropped otherwise.
func decodeResult(body []byte) (*Result, error) {
	var wire struct {
		Fraud            *bool           `json:"fraud"`
		FraudProbability json.RawMessage `json:"fraud_probability"`
		Confidence       json.RawMessage `json:"confidence"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if wire.Fraud == nil {
		return nil, fmt.Errorf("response has no boolean %q field", "fraud")
	}
	return &Result{
		Fraud:            *wire.Fraud,
		FraudProbability: number(wire.FraudProbability),
		Confidence:       number(wire.Confidence),
		Raw:              json.RawMessage(bytes.TrimSpace(body)),
	}, nil
}

// number returns nil for an absent, null, or non-numeric member.
func number(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}
