// Package http provides http transport for runs
package http

import (
	stdhttp "net/http"
	"strconv"

	"printprof/internal/core/layers"
	"printprof/internal/modkit/httpkit"
	perr "printprof/internal/platform/errors"
	"printprof/internal/platform/net/http/bind"

	archdom "printprof/internal/services/archive/domain"
	"printprof/internal/services/api/runs/domain"
	exportdom "printprof/internal/services/export/domain"
	profiledom "printprof/internal/services/profile/domain"
)

// G-code bodies run to tens of MB; the default 1MB bind cap is far too small
const maxTraceBody = 256 << 20

// Deps are the handler dependencies. Archive may be nil when no store is
// configured.
type Deps struct {
	Profiler profiledom.ProfilerPort
	Archive  archdom.QueryPort
}

type handlers struct{ deps Deps }

// Register mounts runs endpoints on the given router
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	r.Post("/profile", httpkit.Handle(func(req *stdhttp.Request) httpkit.Response {
		in, err := bind.ParseJSON[domain.ProfileInput](req, bind.JSONOptions{
			MaxBytes:        maxTraceBody,
			DisallowUnknown: true,
		})
		if err != nil {
			return httpkit.Error(err)
		}
		out, err := h.profile(req, in)
		if err != nil {
			return httpkit.Error(err)
		}
		return httpkit.OK(out)
	}))

	r.Post("/compare", httpkit.Handle(func(req *stdhttp.Request) httpkit.Response {
		in, err := bind.ParseJSON[domain.CompareInput](req, bind.JSONOptions{
			MaxBytes:        maxTraceBody,
			DisallowUnknown: true,
		})
		if err != nil {
			return httpkit.Error(err)
		}
		out, err := h.compare(req, in)
		if err != nil {
			return httpkit.Error(err)
		}
		return httpkit.OK(out)
	}))

	httpkit.Get(r, "/recent", h.recent)
}

func (h *handlers) profile(r *stdhttp.Request, in domain.ProfileInput) (any, error) {
	rep, err := h.deps.Profiler.Profile(r.Context(), profiledom.ProfileInput{
		Ref:                 trace(in.Trace),
		Limits:              layers.Limits{MaxFlowMM3S: in.MaxFlowMM3S, MaxSpeedMMS: in.MaxSpeedMMS},
		FilamentDiameterMM:  in.FilamentDiameterMM,
		FilamentDensityGCM3: in.FilamentDensityGCM3,
	})
	if err != nil {
		return nil, err
	}
	return exportdom.FromReport(rep), nil
}

func (h *handlers) compare(r *stdhttp.Request, in domain.CompareInput) (any, error) {
	compares := make([]profiledom.TraceInput, 0, len(in.Compares))
	for _, c := range in.Compares {
		compares = append(compares, trace(c))
	}
	rep, err := h.deps.Profiler.Profile(r.Context(), profiledom.ProfileInput{
		Ref:                 trace(in.Ref),
		Compares:            compares,
		Limits:              layers.Limits{MaxFlowMM3S: in.MaxFlowMM3S, MaxSpeedMMS: in.MaxSpeedMMS},
		FilamentDiameterMM:  in.FilamentDiameterMM,
		FilamentDensityGCM3: in.FilamentDensityGCM3,
	})
	if err != nil {
		return nil, err
	}
	return exportdom.FromReport(rep), nil
}

func (h *handlers) recent(r *stdhttp.Request) (any, error) {
	if h.deps.Archive == nil {
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "archive store is not configured")
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, perr.InvalidArgf("limit must be an integer, got %q", raw)
		}
		limit = n
	}
	return h.deps.Archive.RecentRuns(r.Context(), limit)
}

func trace(t domain.TraceDTO) profiledom.TraceInput {
	return profiledom.TraceInput{Label: t.Label, Text: t.Gcode}
}
