package providers

import (
	"net/http"
	"time"
)

// statusWriter captures the status code a handler wrote so the middleware
// can label the request after the fact.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// MetricsMiddleware records a counter and duration observation per request.
// Requests are labeled by the mux pattern that matched, not the raw path:
// stream and fingerprint URLs embed a video id, and labeling by raw path
// would mint a new metric series per upload.
func MetricsMiddleware(metrics MetricsProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		// The mux fills in r.Pattern while routing; empty means nothing
		// matched (404s and the like), where the raw path is all there is.
		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, time.Since(start))
	})
}
