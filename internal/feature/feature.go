package feature

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Length is the number of columns the classifier expects.
const Length = 30

// Name identifies one of the user-editable features.
type Name string

const (
	Time   Name = "Time"
	V1     Name = "V1"
	V2     Name = "V2"
	V3     Name = "V3"
	V4     Name = "V4"
	Amount Name = "Amount"
)

// Names lists the editable features in form order.
var Names = []Name{Time, V1, V2, V3, V4, Amount}

// ErrUnknownFeature is returned when a key is not one of Names.
var ErrUnknownFeature = errors.New("unknown feature")

var labels = map[Name]string{
	Time:   "Time (seconds since first transaction)",
	V1:     "V1 (anonymized feature 1)",
	V2:     "V2 (anonymized feature 2)",
	V3:     "V3 (anonymized feature 3)",
	V4:     "V4 (anonymized feature 4)",
	Amount: "Amount (€)",
}

// positions maps each editable feature to its column in Vector.
// Every other column is always zero.
var positions = map[Name]int{
	Time:   0,
	V1:     1,
	V2:     2,
	V3:     3,
	V4:     4,
	Amount: Length - 1,
}

// Label returns the human-readable label for n.
func (n Name) Label() string { return labels[n] }

// Position returns the column index of n in a Vector.
func (n Name) Position() int { return positions[n] }

// Lookup resolves a raw key to a Name.
func Lookup(key string) (Name, error) {
	n := Name(key)
	if _, ok := positions[n]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFeature, key)
	}
	return n, nil
}

// Vector is the fixed-order input row sent to the classifier.
type Vector [Length]float64

// Set holds the current value of each editable feature. The zero value is all zeros.
type Set struct {
	Time   float64 `json:"Time"`
	V1     float64 `json:"V1"`
	V2     float64 `json:"V2"`
	V3     float64 `json:"V3"`
	V4     float64 `json:"V4"`
	Amount float64 `json:"Amount"`
}

// Update coerces raw to a number and stores it under key.
// Input that does not parse as a finite number is stored as 0.
func (s *Set) Update(key, raw string) error {
	n, err := Lookup(key)
	if err != nil {
		return err
	}
	*s.field(n) = Coerce(raw)
	return nil
}

// Get returns the value stored for n.
func (s *Set) Get(n Name) float64 {
	if p := s.field(n); p != nil {
		return *p
	}
	return 0
}

func (s *Set) field(n Name) *float64 {
	switch n {
	case Time:
		return &s.Time
	case V1:
		return &s.V1
	case V2:
		return &s.V2
	case V3:
		return &s.V3
	case V4:
		return &s.V4
	case Amount:
		return &s.Amount
	}
	return nil
}

// Vector expands the set into the 30-column layout. V5..V28 are always zero.
func (s *Set) Vector() Vector {
	var v Vector
	for _, n := range Names {
		v[n.Position()] = s.Get(n)
	}
	return v
}

// Coerce parses raw as a float64, returning 0 on failure.
// NaN and infinities also become 0 since JSON cannot carry them.
func Coerce(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Columns returns the classifier's column names in vector order.
func Columns() []string {
	cols := make([]string, Length)
	cols[0] = string(Time)
	for i := 1; i < Length-1; i++ {
		cols[i] = "V" + strconv.Itoa(i)
	}
	cols[Length-1] = string(Amount)
	return cols
}
