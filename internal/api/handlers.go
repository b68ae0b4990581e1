package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ispnet/internal/coverage"
	"ispnet/internal/metrics"
	"ispnet/internal/store"
	"ispnet/internal/topology"
)

// PathsHandler handles POST /v1/paths
func (s *Server) PathsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := s.getPrincipal(r)
	if !p.CanComputePaths() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "operator or admin required", r.URL.Path)
		return
	}
	req, err := decodePathRequest(w, r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	ctx, tenant := s.withTenant(r)
	resp, err := s.Engine.ComputePath(ctx, tenant, req)
	switch {
	case errors.Is(err, topology.ErrUnknownNode):
		writeProblem(w, http.StatusBadRequest, "Unknown node", err.Error(), r.URL.Path)
		return
	case errors.Is(err, topology.ErrInvalidRequest):
		writeProblem(w, http.StatusBadRequest, "Invalid path request", err.Error(), r.URL.Path)
		return
	case err != nil:
		s.Log.Error("compute path failed", zap.String("tenant", tenant), zap.Error(err))
		writeProblem(w, http.StatusInternalServerError, "Compute path failed", err.Error(), r.URL.Path)
		return
	}
	data := map[string]any{"sourceNodeId": req.SourceNodeID, "targetNodeId": req.TargetNodeID, "found": resp.Found}
	if resp.Found {
		data["linkIds"] = resp.LinkIDs
		data["totalCost"] = *resp.TotalCost
	}
	s.Broker.Publish(tenant, Event{Type: EventPathComputed, Data: data})
	writeJSON(w, http.StatusOK, resp)
}

// ZoneResolveHandler handles GET /v1/zones/resolve?lat=&lng=[&candidates=true]
func (s *Server) ZoneResolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pt, err := parsePoint(r.URL.Query())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid coordinate", err.Error(), r.URL.Path)
		return
	}
	ctx, tenant := s.withTenant(r)
	cands, err := s.Resolver.Candidates(ctx, tenant, pt)
	if err != nil {
		s.resolveError(w, r, err)
		return
	}
	out := map[string]any{"zone": nil}
	if len(cands) > 0 {
		out["zone"] = cands[0].Resolved()
	}
	if boolParam(r.URL.Query(), "candidates") {
		out["candidates"] = cands
	}
	writeJSON(w, http.StatusOK, out)
}

// CoverageHandler handles GET /v1/coverage?lat=&lng=
func (s *Server) CoverageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pt, err := parsePoint(r.URL.Query())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid coordinate", err.Error(), r.URL.Path)
		return
	}
	ctx, tenant := s.withTenant(r)
	resp, err := s.Coverage.Check(ctx, tenant, pt)
	if err != nil {
		s.resolveError(w, r, err)
		return
	}
	data := map[string]any{"lat": pt.Lat, "lng": pt.Lng, "offers": len(resp.Offers)}
	if resp.Zone != nil {
		data["zoneId"] = resp.Zone.ZoneID
	}
	s.Broker.Publish(tenant, Event{Type: EventCoverageChecked, Data: data})
	writeJSON(w, http.StatusOK, resp)
}

// ZoneBindingsHandler handles GET /v1/zones/{zoneId}/bindings, the
// inventory view of the nodes serving a zone.
func (s *Server) ZoneBindingsHandler(w http.ResponseWriter, r *http.Request) {
	zoneID := r.PathValue("zoneId")
	ctx, tenant := s.withTenant(r)
	bindings, err := s.Store.ListZoneBindings(ctx, tenant, zoneID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Zone not found", err.Error(), r.URL.Path)
		return
	case err != nil:
		s.Log.Error("list zone bindings failed", zap.String("tenant", tenant), zap.String("zone", zoneID), zap.Error(err))
		writeProblem(w, http.StatusInternalServerError, "Zone bindings failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"zoneId": zoneID, "bindings": bindings})
}

func (s *Server) resolveError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, coverage.ErrInvalidPoint) {
		writeProblem(w, http.StatusBadRequest, "Invalid coordinate", err.Error(), r.URL.Path)
		return
	}
	s.Log.Error("zone lookup failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeProblem(w, http.StatusInternalServerError, "Zone lookup failed", err.Error(), r.URL.Path)
}

// EventsStreamHandler streams the caller's tenant events as SSE.
func (s *Server) EventsStreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	_, tenant := s.withTenant(r)
	filter := typeFilter(r.URL.Query())
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(tenant)
	defer s.Broker.Unsubscribe(tenant, ch)
	heartbeat := func() {
		fmt.Fprintf(w, "event: heartbeat\n")
		fmt.Fprintf(w, "data: {\"tenantId\":%q,\"ts\":%q}\n\n", tenant, time.Now().UTC().Format(time.RFC3339))
		flusher.Flush()
	}
	heartbeat()
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if !filter(evt.Type) {
				continue
			}
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		case <-ticker.C:
			heartbeat()
		}
	}
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB and Redis connectivity when they are in use
	type pinger interface{ Ping(ctx context.Context) error }
	for name, dep := range map[string]any{"store": s.Store, "broker": s.Broker} {
		pg, ok := dep.(pinger)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		err := pg.Ping(ctx)
		cancel()
		if err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", name+": "+err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// MetricsHandler exposes the service registry in Prometheus text format.
func (s *Server) MetricsHandler() http.Handler {
	metrics.RegisterDefault()
	return promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})
}
