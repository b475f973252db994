package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// RequestIDHeader carries the per-request id on both request and response.
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Middleware wraps router with request ids, access logging and per-route
// request metrics. It sits outside the router so 404 and 405 responses are
// counted too.
func Middleware(router *mux.Router, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := logging.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		endpoint := matchedTemplate(router, r)

		metricsCollector.ActiveRequests.Inc()
		defer metricsCollector.ActiveRequests.Dec()
		timer := metricsCollector.NewTimer(metricsCollector.APIRequestDuration.WithLabelValues(endpoint))

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		router.ServeHTTP(sr, r)

		duration := timer.ObserveDuration()
		metricsCollector.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(sr.status))

		logger.Info(ctx, "[HTTP_REQUEST] Request served", logging.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"endpoint":    endpoint,
			"status":      sr.status,
			"duration_ms": duration.Milliseconds(),
		})
	})
}

// matchedTemplate resolves the route template for r so metric labels stay
// bounded regardless of the path values requested.
func matchedTemplate(router *mux.Router, r *http.Request) string {
	var match mux.RouteMatch
	if !router.Match(r, &match) || match.MatchErr != nil || match.Route == nil {
		return "unmatched"
	}
	tpl, err := match.Route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return tpl
}
