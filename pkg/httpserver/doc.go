// Package httpserver runs the gateway's HTTP listener with context-driven
// graceful shutdown and provides the liveness and readiness handlers.
//
// Run binds the listener synchronously, so a port conflict is reported as
// ErrStart before any hook fires, and then serves until ctx is cancelled.
// Signal handling belongs to the caller (signal.NotifyContext in main).
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//
//	r := chi.NewRouter()
//	r.Get("/healthz", httpserver.LivenessHandler())
//	r.Get("/readyz", httpserver.ReadinessHandler(log, cfg.HTTP.ReadinessTimeout,
//		httpserver.Check{Name: "postgres", Check: pg.Healthcheck(pool)},
//		httpserver.Check{Name: "redis", Check: redis.Healthcheck(rdb)},
//	))
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Readiness answers 503 with {"status":"not_ready","checks":{...}} when any
// dependency fails, so the instance is drained instead of serving requests
// that would only fail closed in the tenant resolution pipeline.
package httpserver
