package middleware

import (
	"net/http"
	"time"
)

// RequestObserver receives one observation per served request
type RequestObserver interface {
	ObserveRequest(route, method string, status int, duration time.Duration)
}

// Metrics reports every request to observer, labelled with the chi route pattern so path
// parameters do not explode label cardinality.
func Metrics(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			observer.ObserveRequest(routePattern(r), r.Method, wrapped.statusCode, time.Since(start))
		})
	}
}
