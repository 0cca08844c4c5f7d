package main

import (
	"context"

	"printprof/internal/platform/config"
	"printprof/internal/platform/logger"
	"printprof/internal/platform/metrics"
	phttp "printprof/internal/platform/net/http"
	"printprof/internal/platform/store"

	"printprof/internal/services/api"
)

func main() {
	config.LoadDotenv()

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	// bring up logging early
	l := logger.Get()

	// the archive store is optional; without it /runs/recent reports 503
	var st *store.Store
	if chCfg.MayBool("ENABLED", false) {
		var err error
		st, err = store.Open(
			context.Background(),
			store.Config{
				AppName: "printprof-api",
				CH: store.CHConfig{
					Enabled: true,
					URL:     chCfg.MustString("DBURL"),
				},
			},
			store.WithLogger(*l),
		)
		if err != nil {
			l.Panic().Err(err).Msg("store.Open failed")
		}
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close store")
			}
		}()
	}

	// http server (reads CORE_API_PORT)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			Metrics:        metrics.New(),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
