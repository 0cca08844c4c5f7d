package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"printprof/internal/platform/config"
	"printprof/internal/platform/metrics"
	phttp "printprof/internal/platform/net/http"

	"printprof/internal/modkit/module"
)

const trace = `M83
;Z:0.2
G1 X0 Y0 F1200
G1 X10 Y0 E1.0 F1200
;Z:0.4
G1 X10 Y20 E2.0 F1200
`

func newAPI(t *testing.T) http.Handler {
	t.Helper()
	module.Reset()

	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	Mount(r, Options{
		Config:  config.New(),
		Metrics: metrics.New(),
	})
	return mux
}

func postJSON(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("envelope: %v (body %s)", err, rec.Body.String())
	}
	return rec, env
}

func TestProfileEndpoint(t *testing.T) {
	h := newAPI(t)

	body, _ := json.Marshal(map[string]any{
		"trace": map[string]any{"label": "bench", "gcode": trace},
	})
	rec, env := postJSON(t, h, "/api/v1/runs/profile", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	data, _ := json.Marshal(env.Data)
	var doc struct {
		Runs []struct {
			Label  string `json:"label"`
			Totals struct {
				TimeS  float64 `json:"time_s"`
				Layers int     `json:"layers"`
			} `json:"totals"`
			Layers []any `json:"layers"`
		} `json:"runs"`
		Compare any `json:"compare"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(doc.Runs) != 1 || doc.Runs[0].Label != "bench" {
		t.Fatalf("runs = %+v", doc.Runs)
	}
	if doc.Runs[0].Totals.Layers != 2 || len(doc.Runs[0].Layers) != 2 {
		t.Fatalf("layers = %+v", doc.Runs[0])
	}
	if doc.Compare != nil {
		t.Fatalf("single profile should carry no compare block")
	}
}

func TestProfileEndpoint_Validation(t *testing.T) {
	h := newAPI(t)

	rec, env := postJSON(t, h, "/api/v1/runs/profile", `{"trace":{"label":"x"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (env %+v)", rec.Code, env)
	}
}

func TestCompareEndpoint(t *testing.T) {
	h := newAPI(t)

	fast := strings.ReplaceAll(trace, "F1200", "F2400")
	body, _ := json.Marshal(map[string]any{
		"ref":      map[string]any{"label": "ref", "gcode": trace},
		"compares": []map[string]any{{"label": "fast", "gcode": fast}},
	})
	rec, env := postJSON(t, h, "/api/v1/runs/compare", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	data, _ := json.Marshal(env.Data)
	var doc struct {
		Runs    []any `json:"runs"`
		Compare *struct {
			Z       []float64 `json:"z_mm"`
			Summary []any     `json:"summary"`
		} `json:"compare"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(doc.Runs) != 2 {
		t.Fatalf("runs = %d", len(doc.Runs))
	}
	if doc.Compare == nil || len(doc.Compare.Z) != 2 || len(doc.Compare.Summary) != 5 {
		t.Fatalf("compare = %+v", doc.Compare)
	}
}

func TestCompareEndpoint_NeedsCompares(t *testing.T) {
	h := newAPI(t)

	body, _ := json.Marshal(map[string]any{
		"ref":      map[string]any{"gcode": trace},
		"compares": []any{},
	})
	rec, _ := postJSON(t, h, "/api/v1/runs/compare", string(body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecentWithoutStore(t *testing.T) {
	h := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/recent", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestMetaAndMetrics(t *testing.T) {
	h := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meta/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "printprof-api") {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "printprof_requests_total") {
		t.Fatalf("metrics = %d", rec.Code)
	}
}
