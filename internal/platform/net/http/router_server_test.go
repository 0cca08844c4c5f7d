package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"printprof/internal/platform/config"
	phttp "printprof/internal/platform/net/http"
)

func TestNewServer_DefaultsAndMux(t *testing.T) {
	srv := phttp.NewServer(config.New()) // no env, should default to :4000
	if srv.Addr() == "" {
		t.Fatalf("expected non-empty addr")
	}
	r := srv.Router()
	if r == nil || r.Mux() == nil {
		t.Fatalf("router or mux is nil")
	}

	r.Get("/runs/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "profiling")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/runs/ping", nil)
	r.Mux().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "profiling" {
		t.Fatalf("bad response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestRespondData_AliasForOK(t *testing.T) {
	rec := httptest.NewRecorder()
	req := reqWithReqID("GET", "/runs/recent", "req-data-42")

	phttp.RespondData(rec, req, map[string]any{"run_id": "r1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.StatusCode != http.StatusOK || env.RequestID != "req-data-42" {
		t.Fatalf("bad envelope: %+v", env)
	}
	// data should round-trip through the envelope
	m, ok := env.Data.(map[string]any)
	if !ok || m["run_id"] != "r1" {
		t.Fatalf("expected data map with run_id=r1, got %#v", env.Data)
	}
}
