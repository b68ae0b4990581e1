// Package geo holds the geometry kernel: great-circle distances, polyline
// lengths and even-odd point-in-polygon tests over WGS84 coordinates.
package geo

import "math"

// EarthRadiusM is the mean Earth radius used for all distance calculations.
const EarthRadiusM = 6371000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether p is a finite coordinate inside the lat/lng ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Ring is a closed or open sequence of points; closure is implied.
type Ring []Point

// Polygon is a list of rings: ring 0 is the exterior, the rest are holes.
type Polygon []Ring

// MultiPolygon is a union of polygons.
type MultiPolygon []Polygon

// Polyline is an ordered list of points.
type Polyline []Point

// DistanceM returns the haversine distance between a and b in meters.
func DistanceM(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusM * c
}

// PolylineLengthM sums the segment distances of pts. Fewer than two points is zero length.
func PolylineLengthM(pts Polyline) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += DistanceM(pts[i-1], pts[i])
	}
	return total
}

// PointInPolygon reports whether p lies inside ring 0 of poly and inside none of its holes.
func PointInPolygon(p Point, poly Polygon) bool {
	if len(poly) == 0 {
		return false
	}
	if bb, ok := BoundingBox(poly[0]); !ok || !bb.Contains(p) {
		return false
	}
	if !pointInRing(p, poly[0]) {
		return false
	}
	for _, hole := range poly[1:] {
		if pointInRing(p, hole) {
			return false
		}
	}
	return true
}

// PointInMultiPolygon reports whether any polygon of mp contains p.
func PointInMultiPolygon(p Point, mp MultiPolygon) bool {
	for _, poly := range mp {
		if PointInPolygon(p, poly) {
			return true
		}
	}
	return false
}

// pointInRing is the even-odd ray cast. Lng is x, lat is y.
func pointInRing(p Point, ring Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := p.Lng, p.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lng, ring[i].Lat
		xj, yj := ring[j].Lng, ring[j].Lat
		if (yi > y) != (yj > y) {
			// yi != yj is guaranteed by the straddle check above.
			xCross := (xj-xi)*(y-yi)/(yj-yi) + xi
			if x < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// BBox is an axis-aligned bounding box in degrees.
type BBox struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

// Contains reports whether p lies in the box, edges included.
func (b BBox) Contains(p Point) bool {
	return p.Lng >= b.MinLng && p.Lng <= b.MaxLng && p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Area is the box area in square degrees.
func (b BBox) Area() float64 {
	return (b.MaxLng - b.MinLng) * (b.MaxLat - b.MinLat)
}

// BoundingBox computes the bounding box of ring. ok is false for an empty ring.
func BoundingBox(ring Ring) (BBox, bool) {
	if len(ring) == 0 {
		return BBox{}, false
	}
	b := BBox{MinLng: ring[0].Lng, MaxLng: ring[0].Lng, MinLat: ring[0].Lat, MaxLat: ring[0].Lat}
	for _, pt := range ring[1:] {
		b.MinLng = math.Min(b.MinLng, pt.Lng)
		b.MaxLng = math.Max(b.MaxLng, pt.Lng)
		b.MinLat = math.Min(b.MinLat, pt.Lat)
		b.MaxLat = math.Max(b.MaxLat, pt.Lat)
	}
	return b, true
}

// BoundingBoxArea is the bbox area of ring 0 of poly, used only to rank how
// specific a zone is. It is not the polygon's true area.
func BoundingBoxArea(poly Polygon) float64 {
	if len(poly) == 0 {
		return 0
	}
	bb, ok := BoundingBox(poly[0])
	if !ok {
		return 0
	}
	return bb.Area()
}
