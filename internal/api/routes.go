package api

import "net/http"

// Routes registers every endpoint and returns the mux wrapped in Middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Topology
	mux.HandleFunc("/v1/paths", s.PathsHandler)

	// Zones & coverage
	mux.HandleFunc("/v1/zones/resolve", s.ZoneResolveHandler)
	mux.HandleFunc("/v1/coverage", s.CoverageHandler)
	mux.HandleFunc("GET /v1/zones/{zoneId}/bindings", s.ZoneBindingsHandler)

	// Event streams
	mux.HandleFunc("/v1/events/stream", s.EventsStreamHandler)
	mux.HandleFunc("/v1/events/ws", s.EventsWSHandler)

	// Health & ops
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", s.MetricsHandler())
	mux.HandleFunc("/debug/vars", s.DebugJSON)

	// Docs
	mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("/docs", s.DocsHandler)
	mux.HandleFunc("/swagger", s.SwaggerHandler)
	mux.HandleFunc("/static/", s.StaticHandler)

	return s.Middleware(mux)
}
