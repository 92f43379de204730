package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
)

type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, seconds float64)
}

// Instrument records latency by chi route pattern so ids do not explode label cardinality.
func Instrument(obs HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			obs.ObserveHTTP(r.Method, route, rw.status(), time.Since(start).Seconds())
		})
	}
}
