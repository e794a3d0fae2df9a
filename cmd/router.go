package main

import (
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/solar-site/internal/contact"
	"github.com/angeloszaimis/solar-site/internal/handler"
	"github.com/angeloszaimis/solar-site/internal/metrics"
)

func setupRouter(log *slog.Logger, contactHandler *contact.Handler, static http.Handler, metricsCollector *metrics.Collector) http.Handler {
	return handler.NewSiteHandler(log,
		contactHandler,
		http.HandlerFunc(contact.Preflight),
		static,
		metricsCollector)
}

func setupAdminRouter(metricsCollector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /metrics", metricsCollector.Handler())

	return mux
}
