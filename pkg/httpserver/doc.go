// Package httpserver runs the engine's HTTP listener with graceful,
// context-driven shutdown and an aggregate health probe.
//
// The caller owns signal handling; cancelling the context passed to Run
// drains in-flight requests within the shutdown timeout:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server terminated", "error", err)
//	}
//
// HealthCheckHandler aggregates dependency probes (database, Redis) into a
// single readiness endpoint.
package httpserver
