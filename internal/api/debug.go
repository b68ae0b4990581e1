package api

import (
	"net/http"
	"time"

	"ispnet/internal/buildinfo"
)

// DebugJSON reports build metadata and the non-secret parts of the config.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	c := s.Config
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":             c.Port,
			"LOG_LEVEL":        c.LogLevel,
			"RATE_RPS":         c.RateRPS,
			"RATE_BURST":       c.RateBurst,
			"DEFAULT_MAX_HOPS": s.Engine.DefaultHops,
			"TRACE_STDOUT":     c.TraceStdout,
			"SEED_FILE":        c.SeedFile,
			"HAS_DATABASE_URL": c.DatabaseURL != "",
			"HAS_REDIS_URL":    c.RedisURL != "",
		},
	}
	writeJSON(w, http.StatusOK, info)
}
