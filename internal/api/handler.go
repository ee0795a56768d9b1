package api

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/fraudform/internal/config"
	"github.com/gyaneshwarpardhi/fraudform/internal/feature"
	"github.com/gyaneshwarpardhi/fraudform/internal/form"
	"github.com/gyaneshwarpardhi/fraudform/internal/predict"
)

const maxFormBytes = 64 << 10

// Diagnostics reports on the classifier service.
type Diagnostics interface {
	Health(ctx context.Context) (*predict.Health, error)
	Demo(ctx context.Context) (map[string]predict.DemoVerdict, error)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	form   *form.Form
	diag   Diagnostics
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(f *form.Form, diag Diagnostics, loader *config.Loader) http.Handler {
	h := &Handler{form: f, diag: diag, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /{$}", h.page)
	h.mux.HandleFunc("POST /inputs", h.updateInputs)
	h.mux.HandleFunc("POST /submit", h.submit)
	h.mux.HandleFunc("GET /v1/state", h.state)
	h.mux.HandleFunc("GET /v1/features", h.features)
	h.mux.HandleFunc("GET /v1/demo", h.demo)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// GET / — render the form.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	pc := h.loader.Config().Page
	var buf bytes.Buffer
	if err := form.Render(&buf, h.form.View(form.Page{Title: pc.Title, Subtitle: pc.Subtitle})); err != nil {
		slog.Error("render page", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// POST /inputs — apply changed field values.
func (h *Handler) updateInputs(w http.ResponseWriter, r *http.Request) {
	if err := h.applyInputs(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// POST /submit — apply field values, then run one prediction.
// A trigger that arrives while another is in flight is dropped along with its values.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	inputs, err := postedInputs(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ran, err := h.form.SubmitWith(r.Context(), inputs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ran {
		slog.Info("submit ignored: prediction in flight")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// applyInputs writes every posted feature field into the form.
func (h *Handler) applyInputs(w http.ResponseWriter, r *http.Request) error {
	inputs, err := postedInputs(w, r)
	if err != nil {
		return err
	}
	for key, raw := range inputs {
		if err := h.form.Update(key, raw); err != nil {
			return err
		}
	}
	return nil
}

// postedInputs collects the posted feature fields. Fields that are not
// features are ignored.
func postedInputs(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	inputs := make(map[string]string, len(feature.Names))
	for _, n := range feature.Names {
		if _, ok := r.PostForm[string(n)]; ok {
			inputs[string(n)] = r.PostForm.Get(string(n))
		}
	}
	return inputs, nil
}

// GET /v1/state — current inputs, in-flight flag, and last result.
func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.form.Snapshot())
}

type fieldInfo struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

// GET /v1/features — the vector layout sent to the classifier.
func (h *Handler) features(w http.ResponseWriter, r *http.Request) {
	fields := make([]fieldInfo, 0, len(feature.Names))
	for _, n := range feature.Names {
		fields = append(fields, fieldInfo{Key: string(n), Label: n.Label(), Position: n.Position()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"length":  feature.Length,
		"columns": feature.Columns(),
		"fields":  fields,
	})
}

// GET /v1/demo — the classifier's verdicts on its own sample rows.
func (h *Handler) demo(w http.ResponseWriter, r *http.Request) {
	verdicts, err := h.diag.Demo(r.Context())
	if err != nil {
		slog.Warn("classifier demo failed", "err", err)
		writeError(w, http.StatusBadGateway, "classifier demo unavailable")
		return
	}
	writeJSON(w, http.StatusOK, verdicts)
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the classifier is unreachable or has no model loaded.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	hs, err := h.diag.Health(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "predictor_unreachable",
			"in_flight": h.form.InFlight(),
		})
		return
	}
	if !hs.ModelLoaded {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "model_not_loaded",
			"in_flight": h.form.InFlight(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"in_flight": h.form.InFlight(),
	})
}
