// Package coverage answers "which service zone governs this point" and
// "what can be sold here".
package coverage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"ispnet/internal/geo"
	"ispnet/internal/metrics"
	"ispnet/internal/model"
)

// ErrInvalidPoint is returned for coordinates outside lat [-90,90] / lng [-180,180].
var ErrInvalidPoint = errors.New("invalid coordinate")

var tracer = otel.Tracer("ispnet/coverage")

// ZoneSource lists a tenant's active zones.
type ZoneSource interface {
	ListActiveZones(ctx context.Context, tenantID string) ([]model.ServiceZone, error)
}

// Candidate is a zone containing the point, with the area of its most
// specific containing polygon.
type Candidate struct {
	ZoneID   string  `json:"zoneId"`
	Name     string  `json:"name,omitempty"`
	Priority int     `json:"priority"`
	Kind     string  `json:"kind,omitempty"`
	BBoxArea float64 `json:"bboxArea"`
}

// Resolved converts the candidate into the public shape.
func (c Candidate) Resolved() *model.ResolvedZone {
	return &model.ResolvedZone{ZoneID: c.ZoneID, Name: c.Name, Priority: c.Priority, Kind: c.Kind}
}

// Match returns every active zone containing p, best first: lower
// priority, then smaller bounding box, then smaller id.
func Match(zones []model.ServiceZone, p geo.Point) []Candidate {
	out := []Candidate{}
	for _, z := range zones {
		if z.Status != model.StatusActive {
			continue
		}
		area, ok := specificity(z.Geometry, p)
		if !ok {
			continue
		}
		out = append(out, Candidate{ZoneID: z.ID, Name: z.Name, Priority: z.Priority, Kind: z.Kind, BBoxArea: area})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.BBoxArea != b.BBoxArea {
			return a.BBoxArea < b.BBoxArea
		}
		return a.ZoneID < b.ZoneID
	})
	return out
}

// specificity is the smallest bounding-box area among the polygons of mp
// that contain p.
func specificity(mp geo.MultiPolygon, p geo.Point) (float64, bool) {
	best := math.Inf(1)
	for _, poly := range mp {
		if !geo.PointInPolygon(p, poly) {
			continue
		}
		if a := geo.BoundingBoxArea(poly); a < best {
			best = a
		}
	}
	return best, !math.IsInf(best, 1)
}

// Resolver picks the governing zone for a coordinate.
type Resolver struct {
	Zones ZoneSource
	Log   *zap.Logger
}

// NewResolver wires a resolver to a zone source.
func NewResolver(zones ZoneSource, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{Zones: zones, Log: log}
}

// Resolve returns the winning zone or nil when no zone covers p.
func (r *Resolver) Resolve(ctx context.Context, tenantID string, p geo.Point) (*model.ResolvedZone, error) {
	cands, err := r.Candidates(ctx, tenantID, p)
	if err != nil || len(cands) == 0 {
		return nil, err
	}
	return cands[0].Resolved(), nil
}

// Candidates is Resolve returning the full ranked match list.
func (r *Resolver) Candidates(ctx context.Context, tenantID string, p geo.Point) (cands []Candidate, err error) {
	ctx, span := tracer.Start(ctx, "coverage.Resolve")
	defer func() {
		result := "no_zone"
		switch {
		case errors.Is(err, ErrInvalidPoint):
			result = "invalid"
		case err != nil:
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case len(cands) > 0:
			result = "matched"
			span.SetAttributes(attribute.String("zone.id", cands[0].ZoneID))
		}
		metrics.ZoneResolutions.WithLabelValues(result).Inc()
		span.SetAttributes(attribute.String("zone.result", result))
		span.End()
	}()
	span.SetAttributes(attribute.String("tenant.id", tenantID), attribute.Float64("lat", p.Lat), attribute.Float64("lng", p.Lng))

	if !p.Valid() {
		return nil, fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidPoint, p.Lat, p.Lng)
	}
	zones, err := r.Zones.ListActiveZones(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	cands = Match(zones, p)
	if len(cands) > 1 {
		r.Log.Debug("overlapping zones", zap.String("tenant", tenantID), zap.Int("matches", len(cands)), zap.String("winner", cands[0].ZoneID))
	}
	return cands, nil
}
