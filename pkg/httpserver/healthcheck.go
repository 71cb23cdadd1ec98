package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aidehq/aide/pkg/logger"
)

// HealthCheckHandler aggregates dependency probes into one endpoint. With no
// probes it answers liveness (200 "ALIVE"); with probes it answers readiness:
// 200 "READY" when all pass, 500 "NOT_READY" on the first failure.
func HealthCheckHandler(ctx context.Context, log *slog.Logger, probes ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(probes) == 0 {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ALIVE"))
			return
		}

		for _, probe := range probes {
			if err := probe(ctx); err != nil {
				log.ErrorContext(ctx, "readiness probe failed", logger.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}
}
