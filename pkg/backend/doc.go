// Package backend provides the HTTP server of the dispatch facade.
//
// # Routes
//
//	POST /             echo the message member
//	POST /boto3        echo (legacy duplicate of /)
//	POST /api/ai       preprocess the request and forward it upstream
//	POST /{backend}    send the message to a named AI backend
//	GET  /health       uptime and configured backends
//	GET  /status       liveness
//	GET  /version      server version
//	GET  /api/backends configured backends
//	GET  /metrics      Prometheus metrics
//
// # Middleware
//
// Every route runs through RequestID, Logging, Metrics, Recovery and SecureHeaders. CORS and
// Auth are added when enabled in the configuration.
//
// # Example
//
//	facade, _ := dispatch.New(dispatch.Options{Backends: backends})
//	server := backend.NewServer(cfg, facade, logger, metrics.NewCollector())
//	server.Start()
package backend
