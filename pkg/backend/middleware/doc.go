// Package middleware provides the HTTP middleware of the dispatch server: request IDs, panic
// recovery, structured request logging, Prometheus metrics, secure response headers, CORS and
// optional bearer authentication.
package middleware
