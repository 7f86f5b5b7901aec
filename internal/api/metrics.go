package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsHandler exposes the process's Prometheus registry at GET /v1/metrics.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
