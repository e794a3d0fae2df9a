package handler

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/solar-site/internal/metrics"
)

const ContactPath = "/api/contact"

const (
	RouteContact   = "contact"
	RoutePreflight = "preflight"
	RouteStatic    = "static"
)

const requestIDHeader = "X-Request-ID"

// SiteHandler routes requests by method and exact path. Paths are matched
// as received; nothing is cleaned or redirected before dispatch.
type SiteHandler struct {
	logger           *slog.Logger
	contact          http.Handler
	preflight        http.Handler
	static           http.Handler
	metricsCollector *metrics.Collector
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func NewSiteHandler(logger *slog.Logger, contact, preflight, static http.Handler, collector *metrics.Collector) *SiteHandler {
	return &SiteHandler{
		logger:           logger,
		contact:          contact,
		preflight:        preflight,
		static:           static,
		metricsCollector: collector,
	}
}

// Route names the handler a request is dispatched to.
func Route(method, path string) string {
	if path == ContactPath {
		switch method {
		case http.MethodPost:
			return RouteContact
		case http.MethodOptions:
			return RoutePreflight
		}
	}
	return RouteStatic
}

func (h *SiteHandler) target(route string) http.Handler {
	switch route {
	case RouteContact:
		return h.contact
	case RoutePreflight:
		return h.preflight
	default:
		return h.static
	}
}

func (h *SiteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	route := Route(r.Method, r.URL.Path)

	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)

	log := h.logger.With(
		slog.String("request_id", requestID),
		slog.String("route", route))

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:      metrics.EventRequestReceived,
		Timestamp: start,
		Route:     route,
	})

	wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

	defer func() {
		if rec := recover(); rec != nil {
			log.Warn("Request aborted",
				slog.String("from", extractClientIP(r)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration", time.Since(start)))
			h.metricsCollector.Emit(metrics.MetricEvent{
				Type:  metrics.EventRequestAborted,
				Route: route,
			})
			panic(rec)
		}
	}()

	h.target(route).ServeHTTP(wrapped, r)

	duration := time.Since(start)
	log.Info("Served request",
		slog.String("from", extractClientIP(r)),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", wrapped.statusCode),
		slog.Duration("duration", duration),
		slog.String("user_agent", r.UserAgent()))

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Route:      route,
		Duration:   duration,
		StatusCode: wrapped.statusCode,
	})
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.statusCode = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
