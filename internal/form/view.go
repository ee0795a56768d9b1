package form

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/gyaneshwarpardhi/fraudform/internal/feature"
	"github.com/gyaneshwarpardhi/fraudform/internal/predict"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/page.html.tmpl"))

// Page carries the static text around the form.
type Page struct {
	Title    string
	Subtitle string
}

// View is the render model for one page load.
type View struct {
	Page
	Fields     []FieldView
	Submitting bool
	Button     string
	Result     *ResultView
}

// FieldView is one labeled numeric input.
type FieldView struct {
	Key   string
	Label string
	Value string
}

// ResultView is the result region. Verdict is empty in the error state.
type ResultView struct {
	Class       string
	Verdict     string
	Probability string
	Confidence  string
	Error       string
}

// View builds the render model from the current state.
func (f *Form) View(p Page) View {
	s := f.Snapshot()
	v := View{
		Page:       p,
		Fields:     make([]FieldView, 0, len(feature.Names)),
		Submitting: s.InFlight,
		Button:     "Detect Fraud",
		Result:     renderResult(s.Result),
	}
	if s.InFlight {
		v.Button = "Analyzing..."
	}
	for _, n := range feature.Names {
		v.Fields = append(v.Fields, FieldView{
			Key:   string(n),
			Label: n.Label(),
			Value: strconv.FormatFloat(s.Inputs.Get(n), 'f', -1, 64),
		})
	}
	return v
}

func renderResult(r *predict.Result) *ResultView {
	if r == nil {
		return nil
	}
	if r.Failed() {
		return &ResultView{Class: "error", Error: r.Error}
	}
	rv := &ResultView{Class: "safe", Verdict: "✅ Transaction Safe"}
	if r.Fraud {
		rv.Class = "fraud"
		rv.Verdict = "🚨 FRAUD DETECTED"
	}
	if r.FraudProbability != nil {
		rv.Probability = FormatPercent(*r.FraudProbability, 2)
	}
	if r.Confidence != nil {
		rv.Confidence = FormatPercent(*r.Confidence, 1)
	}
	return rv
}

// FormatPercent renders a 0..1 ratio as a percentage with the given decimals.
func FormatPercent(ratio float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, ratio*100)
}

// Render writes the HTML page for v.
func Render(w io.Writer, v View) error {
	return pageTmpl.Execute(w, v)
}
