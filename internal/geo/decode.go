package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedGeometry is returned for geometry blobs that cannot be decoded.
var ErrMalformedGeometry = errors.New("malformed geometry")

// Kind names a geometry variant.
type Kind string

const (
	KindPoint        Kind = "Point"
	KindPolyline     Kind = "LineString"
	KindPolygon      Kind = "Polygon"
	KindMultiPolygon Kind = "MultiPolygon"
)

// Geometry is the closed set of variants stored on nodes, links and zones.
type Geometry interface {
	Kind() Kind
}

func (Point) Kind() Kind        { return KindPoint }
func (Polyline) Kind() Kind     { return KindPolyline }
func (Polygon) Kind() Kind      { return KindPolygon }
func (MultiPolygon) Kind() Kind { return KindMultiPolygon }

type geoJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometry    json.RawMessage `json:"geometry"`
}

// DecodeGeometry decodes a GeoJSON geometry (or Feature) or a bare
// coordinate array whose nesting depth picks the variant. Positions are
// [lng, lat].
func DecodeGeometry(raw []byte) (Geometry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: empty", ErrMalformedGeometry)
	}
	if raw[0] == '{' {
		var gj geoJSON
		if err := json.Unmarshal(raw, &gj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
		}
		if strings.EqualFold(gj.Type, "Feature") {
			return DecodeGeometry(gj.Geometry)
		}
		return decodeTyped(Kind(gj.Type), gj.Coordinates)
	}
	for _, k := range []Kind{KindPoint, KindPolyline, KindPolygon, KindMultiPolygon} {
		if g, err := decodeTyped(k, raw); err == nil {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: unrecognised coordinate array", ErrMalformedGeometry)
}

// DecodeMultiPolygon decodes zone geometry; a single Polygon is promoted.
func DecodeMultiPolygon(raw []byte) (MultiPolygon, error) {
	g, err := DecodeGeometry(raw)
	if err != nil {
		return nil, err
	}
	switch v := g.(type) {
	case MultiPolygon:
		return v, nil
	case Polygon:
		return MultiPolygon{v}, nil
	default:
		return nil, fmt.Errorf("%w: want polygon, got %s", ErrMalformedGeometry, g.Kind())
	}
}

// DecodePolyline decodes link path geometry.
func DecodePolyline(raw []byte) (Polyline, error) {
	g, err := DecodeGeometry(raw)
	if err != nil {
		return nil, err
	}
	pl, ok := g.(Polyline)
	if !ok {
		return nil, fmt.Errorf("%w: want line, got %s", ErrMalformedGeometry, g.Kind())
	}
	return pl, nil
}

func decodeTyped(k Kind, coords json.RawMessage) (Geometry, error) {
	switch k {
	case KindPoint:
		var pos []float64
		if err := json.Unmarshal(coords, &pos); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
		}
		return toPoint(pos)
	case KindPolyline:
		var line [][]float64
		if err := json.Unmarshal(coords, &line); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
		}
		pts, err := toPoints(line)
		if err != nil {
			return nil, err
		}
		return Polyline(pts), nil
	case KindPolygon:
		var rings [][][]float64
		if err := json.Unmarshal(coords, &rings); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
		}
		return toPolygon(rings)
	case KindMultiPolygon:
		var polys [][][][]float64
		if err := json.Unmarshal(coords, &polys); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
		}
		mp := make(MultiPolygon, 0, len(polys))
		for _, rings := range polys {
			poly, err := toPolygon(rings)
			if err != nil {
				return nil, err
			}
			mp = append(mp, poly)
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", ErrMalformedGeometry, k)
	}
}

func toPoint(pos []float64) (Point, error) {
	if len(pos) < 2 {
		return Point{}, fmt.Errorf("%w: position needs 2 values, got %d", ErrMalformedGeometry, len(pos))
	}
	p := Point{Lng: pos[0], Lat: pos[1]}
	if !p.Valid() {
		return Point{}, fmt.Errorf("%w: coordinate out of range [%v, %v]", ErrMalformedGeometry, pos[0], pos[1])
	}
	return p, nil
}

func toPoints(list [][]float64) ([]Point, error) {
	out := make([]Point, 0, len(list))
	for _, pos := range list {
		p, err := toPoint(pos)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func toPolygon(rings [][][]float64) (Polygon, error) {
	poly := make(Polygon, 0, len(rings))
	for _, r := range rings {
		pts, err := toPoints(r)
		if err != nil {
			return nil, err
		}
		poly = append(poly, Ring(pts))
	}
	return poly, nil
}
