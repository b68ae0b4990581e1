package geo

import (
	"errors"
	"math"
	"testing"
)

func square(minLng, minLat, maxLng, maxLat float64) Ring {
	return Ring{{Lat: minLat, Lng: minLng}, {Lat: minLat, Lng: maxLng}, {Lat: maxLat, Lng: maxLng}, {Lat: maxLat, Lng: minLng}}
}

func TestDistanceM(t *testing.T) {
	// one degree of latitude on the mean sphere
	want := EarthRadiusM * math.Pi / 180
	got := DistanceM(Point{Lat: 0, Lng: 0}, Point{Lat: 1, Lng: 0})
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("1 degree lat: got %f want %f", got, want)
	}
	if d := DistanceM(Point{Lat: 10, Lng: 20}, Point{Lat: 10, Lng: 20}); d != 0 {
		t.Fatalf("same point: got %f", d)
	}
	ab := DistanceM(Point{Lat: 52.52, Lng: 13.405}, Point{Lat: 48.8566, Lng: 2.3522})
	ba := DistanceM(Point{Lat: 48.8566, Lng: 2.3522}, Point{Lat: 52.52, Lng: 13.405})
	if ab != ba {
		t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
	}
	if ab < 870000 || ab > 885000 {
		t.Fatalf("berlin-paris: got %f", ab)
	}
}

func TestPolylineLengthM(t *testing.T) {
	if l := PolylineLengthM(nil); l != 0 {
		t.Fatalf("nil: got %f", l)
	}
	if l := PolylineLengthM(Polyline{{Lat: 1, Lng: 1}}); l != 0 {
		t.Fatalf("single point: got %f", l)
	}
	a, b, c := Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 1}, Point{Lat: 0, Lng: 2}
	got := PolylineLengthM(Polyline{a, b, c})
	want := DistanceM(a, b) + DistanceM(b, c)
	if got != want {
		t.Fatalf("got %f want %f", got, want)
	}
	// duplicate points contribute nothing
	if got2 := PolylineLengthM(Polyline{a, a, b, b, c}); math.Abs(got2-want) > 1e-9 {
		t.Fatalf("duplicates: got %f want %f", got2, want)
	}
}

func TestPointInPolygon(t *testing.T) {
	outer := square(0, 0, 10, 10)
	hole := square(4, 4, 6, 6)
	poly := Polygon{outer, hole}

	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside exterior", Point{Lat: 2, Lng: 2}, true},
		{"inside hole", Point{Lat: 5, Lng: 5}, false},
		{"far outside", Point{Lat: 50, Lng: 50}, false},
		{"outside but within lat band", Point{Lat: 5, Lng: -1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PointInPolygon(tc.p, poly); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestPointInPolygonCentroid(t *testing.T) {
	tri := Polygon{Ring{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 6}, {Lat: 6, Lng: 3}}}
	centroid := Point{Lat: 2, Lng: 3}
	if !PointInPolygon(centroid, tri) {
		t.Fatal("centroid should be inside")
	}
}

func TestPointInPolygonDegenerate(t *testing.T) {
	p := Point{Lat: 1, Lng: 1}
	cases := map[string]Polygon{
		"nil":          nil,
		"empty ring":   {Ring{}},
		"two points":   {Ring{{Lat: 0, Lng: 0}, {Lat: 2, Lng: 2}}},
		"all same":     {Ring{{Lat: 1, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 1}}},
		"collinear":    {Ring{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}},
	}
	for name, poly := range cases {
		if PointInPolygon(p, poly) {
			t.Fatalf("%s: degenerate polygon should not contain point", name)
		}
	}
}

func TestPointInMultiPolygon(t *testing.T) {
	mp := MultiPolygon{
		{square(0, 0, 1, 1)},
		{square(10, 10, 11, 11)},
	}
	if !PointInMultiPolygon(Point{Lat: 10.5, Lng: 10.5}, mp) {
		t.Fatal("point in second polygon should match")
	}
	if PointInMultiPolygon(Point{Lat: 5, Lng: 5}, mp) {
		t.Fatal("point between polygons should not match")
	}
	if PointInMultiPolygon(Point{Lat: 0.5, Lng: 0.5}, nil) {
		t.Fatal("empty multipolygon never matches")
	}
}

func TestBoundingBoxArea(t *testing.T) {
	poly := Polygon{square(0, 0, 4, 2), square(1, 1, 3, 2)}
	if a := BoundingBoxArea(poly); a != 8 {
		t.Fatalf("got %f want 8", a)
	}
	if a := BoundingBoxArea(nil); a != 0 {
		t.Fatalf("nil: got %f", a)
	}
	if a := BoundingBoxArea(Polygon{Ring{}}); a != 0 {
		t.Fatalf("empty ring: got %f", a)
	}
}

func TestPointValid(t *testing.T) {
	bad := []Point{{Lat: 91}, {Lat: -91}, {Lng: 181}, {Lng: -180.5}, {Lat: math.NaN()}, {Lng: math.Inf(1)}}
	for _, p := range bad {
		if p.Valid() {
			t.Fatalf("%+v should be invalid", p)
		}
	}
	if !(Point{Lat: -90, Lng: 180}).Valid() {
		t.Fatal("range edges are valid")
	}
}

func TestDecodeGeometry(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		kind Kind
	}{
		{"geojson point", `{"type":"Point","coordinates":[13.4,52.5]}`, KindPoint},
		{"geojson line", `{"type":"LineString","coordinates":[[0,0],[1,1]]}`, KindPolyline},
		{"geojson polygon", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1]]]}`, KindPolygon},
		{"geojson multipolygon", `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1]]],[[[5,5],[6,5],[6,6]]]]}`, KindMultiPolygon},
		{"feature", `{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]}}`, KindPoint},
		{"bare ring list", `[[[0,0],[1,0],[1,1]]]`, KindPolygon},
		{"bare line", `[[0,0],[2,2]]`, KindPolyline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := DecodeGeometry([]byte(tc.raw))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if g.Kind() != tc.kind {
				t.Fatalf("kind: got %s want %s", g.Kind(), tc.kind)
			}
		})
	}
	p, _ := DecodeGeometry([]byte(`{"type":"Point","coordinates":[13.4,52.5]}`))
	if pt := p.(Point); pt.Lat != 52.5 || pt.Lng != 13.4 {
		t.Fatalf("position order: got %+v", pt)
	}
}

func TestDecodeGeometryMalformed(t *testing.T) {
	bad := []string{
		``,
		`null`,
		`{"type":"Circle","coordinates":[0,0]}`,
		`{"type":"Point","coordinates":[1]}`,
		`{"type":"Point","coordinates":[200,0]}`,
		`{"type":"Polygon","coordinates":"nope"}`,
		`"text"`,
		`{broken`,
	}
	for _, raw := range bad {
		if _, err := DecodeGeometry([]byte(raw)); !errors.Is(err, ErrMalformedGeometry) {
			t.Fatalf("%q: want ErrMalformedGeometry, got %v", raw, err)
		}
	}
}

func TestDecodeMultiPolygonPromotesPolygon(t *testing.T) {
	mp, err := DecodeMultiPolygon([]byte(`{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4]],[[1,1],[2,1],[2,2],[1,2]]]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mp) != 1 || len(mp[0]) != 2 {
		t.Fatalf("unexpected shape: %+v", mp)
	}
	if _, err := DecodeMultiPolygon([]byte(`{"type":"Point","coordinates":[0,0]}`)); !errors.Is(err, ErrMalformedGeometry) {
		t.Fatalf("point as zone geometry: got %v", err)
	}
}
