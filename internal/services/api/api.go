// Package api provides the HTTP API for the application
package api

import (
	"printprof/internal/platform/config"
	"printprof/internal/platform/logger"
	"printprof/internal/platform/metrics"
	phttp "printprof/internal/platform/net/http"
	"printprof/internal/platform/store"

	"printprof/internal/modkit"
	"printprof/internal/modkit/httpkit"
	"printprof/internal/modkit/module"

	metamod "printprof/internal/services/api/meta/module"
	runsmod "printprof/internal/services/api/runs/module"

	archmod "printprof/internal/services/archive/module"
	profilemod "printprof/internal/services/profile/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Cfg: opt.Config,
		Met: opt.Metrics,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.CH = opt.Store.CH
	}

	// Construct the worker-side profile module and extract its port
	profile := profilemod.New(deps, profilemod.FromConfig(deps.Cfg))
	prof := module.MustPortsOf[profilemod.Ports](profile).Profiler

	// The archive module only exists when a store is wired
	runsPorts := runsmod.Ports{Profiler: prof}
	mods := []module.Module{profile}
	if deps.CH != nil {
		arch := archmod.New(deps)
		runsPorts.Archive = module.MustPortsOf[archmod.Ports](arch).Query
		mods = append(mods, arch)
	}

	mods = append(mods,
		metamod.New(deps),
		runsmod.New(deps, modkit.WithPorts(runsPorts)),
	)

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})

	if opt.Metrics != nil {
		r.Handle("/metrics", opt.Metrics.Handler())
	}
}
