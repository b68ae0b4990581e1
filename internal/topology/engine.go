package topology

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"ispnet/internal/metrics"
	"ispnet/internal/model"
)

var (
	// ErrInvalidRequest marks validation failures detected before computing.
	ErrInvalidRequest = errors.New("invalid path request")
	// ErrUnknownNode means source or target is not a node of the tenant at all.
	ErrUnknownNode = fmt.Errorf("%w: unknown node", ErrInvalidRequest)
)

var tracer = otel.Tracer("ispnet/topology")

// Engine answers path requests. It keeps no state between calls: every
// call loads a fresh snapshot. Requests asking for more than MaxHopsLimit
// hops are rejected before any storage read.
type Engine struct {
	Loader       *Loader
	Cost         CostFunc
	DefaultHops  int
	MaxHopsLimit int
	Log          *zap.Logger
}

// NewEngine builds an engine over src with the default cost model.
func NewEngine(src Source, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Loader: &Loader{Source: src}, Cost: DefaultCost, DefaultHops: DefaultMaxHops, MaxHopsLimit: MaxHopsLimit, Log: log}
}

// Validate checks the request shape; node existence is checked after load.
// hopLimit <= 0 falls back to MaxHopsLimit.
func Validate(req model.ComputePathRequest, hopLimit int) error {
	if hopLimit <= 0 {
		hopLimit = MaxHopsLimit
	}
	if req.SourceNodeID == "" || req.TargetNodeID == "" {
		return fmt.Errorf("%w: sourceNodeId and targetNodeId are required", ErrInvalidRequest)
	}
	if req.MaxHops != nil && *req.MaxHops < 0 {
		return fmt.Errorf("%w: maxHops must be >= 0", ErrInvalidRequest)
	}
	if req.MaxHops != nil && *req.MaxHops > hopLimit {
		return fmt.Errorf("%w: maxHops must be <= %d", ErrInvalidRequest, hopLimit)
	}
	if u := req.MaxUtilizationPct; u != nil && (math.IsNaN(*u) || *u < 0 || *u > 100) {
		return fmt.Errorf("%w: maxUtilizationPct must be in [0,100]", ErrInvalidRequest)
	}
	return nil
}

// ComputePath finds the cost-minimal route for req within tenantID's
// topology. "No path" is a successful response with Found=false.
func (e *Engine) ComputePath(ctx context.Context, tenantID string, req model.ComputePathRequest) (resp model.ComputePathResponse, err error) {
	ctx, span := tracer.Start(ctx, "topology.ComputePath")
	start := time.Now()
	defer func() {
		metrics.PathDuration.Observe(time.Since(start).Seconds())
		result := "not_found"
		switch {
		case errors.Is(err, ErrInvalidRequest):
			result = "invalid"
		case err != nil:
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case resp.Found:
			result = "found"
		}
		metrics.PathComputations.WithLabelValues(result).Inc()
		span.SetAttributes(attribute.String("path.result", result))
		span.End()
	}()
	span.SetAttributes(
		attribute.String("tenant.id", tenantID),
		attribute.String("path.source", req.SourceNodeID),
		attribute.String("path.target", req.TargetNodeID),
	)

	if err := Validate(req, e.MaxHopsLimit); err != nil {
		return model.ComputePathResponse{}, err
	}
	snap, err := e.Loader.Load(ctx, tenantID)
	if err != nil {
		return model.ComputePathResponse{}, err
	}
	if len(snap.DuplicateNodeIDs) > 0 || len(snap.DuplicateLinkIDs) > 0 {
		e.Log.Warn("rows with repeated ids left out of the graph",
			zap.String("tenant", tenantID),
			zap.Strings("nodes", snap.DuplicateNodeIDs),
			zap.Strings("links", snap.DuplicateLinkIDs),
		)
	}
	for _, id := range []string{req.SourceNodeID, req.TargetNodeID} {
		if snap.Ambiguous(id) {
			return model.ComputePathResponse{}, fmt.Errorf("%w: node %s has conflicting rows", ErrInvalidRequest, id)
		}
		if _, ok := snap.Node(id); !ok {
			return model.ComputePathResponse{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
		}
	}

	c := ConstraintsFrom(req, e.DefaultHops)
	g := BuildGraph(snap, c, e.Cost)
	metrics.PathGraphEdges.Observe(float64(g.Edges))
	p := ShortestPath(g, req.SourceNodeID, req.TargetNodeID, c.MaxHops)

	e.Log.Debug("path computed",
		zap.String("tenant", tenantID),
		zap.String("source", req.SourceNodeID),
		zap.String("target", req.TargetNodeID),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", g.Edges),
		zap.Int("maxHops", c.MaxHops),
		zap.Bool("found", p.Found),
		zap.Int("hops", len(p.Steps)),
	)
	return ToResponse(p), nil
}

// ToResponse renders a Path as the public response shape.
func ToResponse(p Path) model.ComputePathResponse {
	if !p.Found {
		return model.ComputePathResponse{Found: false}
	}
	resp := model.ComputePathResponse{
		Found:   true,
		NodeIDs: p.NodeIDs,
		LinkIDs: make([]string, 0, len(p.Steps)),
		Hops:    make([]model.PathHop, 0, len(p.Steps)),
	}
	for i, s := range p.Steps {
		resp.LinkIDs = append(resp.LinkIDs, s.Edge.LinkID)
		hop := model.PathHop{
			Seq:        i + 1,
			LinkID:     s.Edge.LinkID,
			FromNodeID: s.From,
			ToNodeID:   s.Edge.To,
			DistanceM:  s.Edge.DistanceM,
			Cost:       s.Edge.Cost,
		}
		if l := s.Edge.Link; l != nil {
			hop.Name, hop.Kind, hop.Status = l.Name, l.Kind, l.Status
		}
		resp.Hops = append(resp.Hops, hop)
	}
	cost, dist := p.TotalCost, p.TotalDistanceM
	resp.TotalCost = &cost
	resp.TotalDistanceM = &dist
	return resp
}
