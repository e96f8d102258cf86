package handlers

import (
	"net/http"
)

// MetricsHandler exposes the Prometheus registry, or 404 when metrics are off.
func (a *App) MetricsHandler() http.Handler {
	if a.Metrics == nil {
		return http.NotFoundHandler()
	}
	return a.Metrics.Handler()
}
