package coverage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"ispnet/internal/geo"
	"ispnet/internal/metrics"
	"ispnet/internal/model"
	"ispnet/internal/store"
)

func square(minLng, minLat, maxLng, maxLat float64) geo.Polygon {
	return geo.Polygon{geo.Ring{{Lat: minLat, Lng: minLng}, {Lat: minLat, Lng: maxLng}, {Lat: maxLat, Lng: maxLng}, {Lat: maxLat, Lng: minLng}}}
}

func zone(id string, priority int, polys ...geo.Polygon) model.ServiceZone {
	return model.ServiceZone{ID: id, Name: "zone " + id, Priority: priority, Status: model.StatusActive, Geometry: geo.MultiPolygon(polys)}
}

func f64(v float64) *float64 { return &v }

var p = geo.Point{Lat: 0.5, Lng: 0.5}

func TestScenarioC_LowerPriorityWins(t *testing.T) {
	m := store.NewMemory()
	m.PutZone("t", zone("Z1", 5, square(-10, -10, 10, 10)))
	m.PutZone("t", zone("Z2", 1, square(0, 0, 1, 1)))
	r := NewResolver(m, nil)
	got, err := r.Resolve(context.Background(), "t", p)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := &model.ResolvedZone{ZoneID: "Z2", Name: "zone Z2", Priority: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("zone (-want +got):\n%s", diff)
	}
}

func TestScenarioD_NoZone(t *testing.T) {
	m := store.NewMemory()
	m.PutZone("t", zone("Z1", 1, square(10, 10, 11, 11)))
	m.PutPackage("t", model.Package{ID: "pkg", Name: "Basic", MonthlyPrice: 30})
	m.PutOffer("t", model.ZoneOffer{ID: "o1", ZoneID: "Z1", PackageID: "pkg", Active: true})
	c := &Composer{Resolver: NewResolver(m, nil), Offers: m}
	before := testutil.ToFloat64(metrics.CoverageChecks.WithLabelValues("not_serviceable"))

	got, err := c.Check(context.Background(), "t", p)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got.Zone != nil || got.Offers == nil || len(got.Offers) != 0 {
		t.Fatalf("want {nil, []}, got %+v", got)
	}
	if after := testutil.ToFloat64(metrics.CoverageChecks.WithLabelValues("not_serviceable")); after != before+1 {
		t.Fatalf("coverage metric: before %v after %v", before, after)
	}
}

func TestMatchRanking(t *testing.T) {
	cases := []struct {
		name  string
		zones []model.ServiceZone
		want  []string
	}{
		{"single", []model.ServiceZone{zone("a", 3, square(0, 0, 1, 1))}, []string{"a"}},
		{"priority first", []model.ServiceZone{zone("small", 2, square(0, 0, 1, 1)), zone("big", 1, square(-5, -5, 5, 5))}, []string{"big", "small"}},
		{"specificity on equal priority", []model.ServiceZone{zone("big", 1, square(-5, -5, 5, 5)), zone("small", 1, square(0, 0, 1, 1))}, []string{"small", "big"}},
		{"id on full tie", []model.ServiceZone{zone("zb", 1, square(0, 0, 1, 1)), zone("za", 1, square(0, 0, 1, 1))}, []string{"za", "zb"}},
		{"most specific containing polygon counts", []model.ServiceZone{
			zone("multi", 1, square(-20, -20, 20, 20), square(0.4, 0.4, 0.6, 0.6)),
			zone("mid", 1, square(0, 0, 1, 1)),
		}, []string{"multi", "mid"}},
		{"non-containing polygon ignored", []model.ServiceZone{
			zone("far", 1, square(30, 30, 30.1, 30.1), square(-20, -20, 20, 20)),
			zone("mid", 1, square(0, 0, 1, 1)),
		}, []string{"mid", "far"}},
		{"zero polygons never match", []model.ServiceZone{zone("empty", 0), zone("a", 9, square(0, 0, 1, 1))}, []string{"a"}},
		{"no match", []model.ServiceZone{zone("a", 1, square(5, 5, 6, 6))}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := []string{}
			for _, c := range Match(tc.zones, p) {
				got = append(got, c.ZoneID)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("ranking (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchIgnoresInactiveAndHoles(t *testing.T) {
	inactive := zone("off", 0, square(0, 0, 1, 1))
	inactive.Status = model.StatusInactive
	holed := zone("holed", 0, geo.Polygon{square(0, 0, 1, 1)[0], square(0.4, 0.4, 0.6, 0.6)[0]})
	outer := zone("outer", 5, square(-1, -1, 2, 2))
	got := Match([]model.ServiceZone{inactive, holed, outer}, p)
	if len(got) != 1 || got[0].ZoneID != "outer" {
		t.Fatalf("want only outer, got %+v", got)
	}
}

func TestMatchOrderIndependent(t *testing.T) {
	a := zone("za", 1, square(0, 0, 1, 1))
	b := zone("zb", 1, square(0, 0, 1, 1))
	c := zone("zc", 0, square(-2, -2, 2, 2))
	want := Match([]model.ServiceZone{a, b, c}, p)
	for _, order := range [][]model.ServiceZone{{b, a, c}, {c, b, a}, {b, c, a}} {
		if diff := cmp.Diff(want, Match(order, p)); diff != "" {
			t.Fatalf("order dependent (-want +got):\n%s", diff)
		}
	}
}

func TestResolveInvalidPoint(t *testing.T) {
	r := NewResolver(store.NewMemory(), nil)
	for _, bad := range []geo.Point{{Lat: 91, Lng: 0}, {Lat: 0, Lng: -181}} {
		if _, err := r.Resolve(context.Background(), "t", bad); !errors.Is(err, ErrInvalidPoint) {
			t.Fatalf("%+v: want ErrInvalidPoint, got %v", bad, err)
		}
	}
}

type brokenStore struct{ err error }

func (b brokenStore) ListActiveZones(context.Context, string) ([]model.ServiceZone, error) {
	return nil, b.err
}

func (b brokenStore) ListActiveOffers(context.Context, string, string) ([]model.ZoneOffer, error) {
	return nil, b.err
}

func TestStorageErrorsPropagate(t *testing.T) {
	boom := errors.New("db down")
	r := NewResolver(brokenStore{err: boom}, nil)
	if _, err := r.Resolve(context.Background(), "t", p); !errors.Is(err, boom) {
		t.Fatalf("resolve: got %v", err)
	}

	m := store.NewMemory()
	m.PutZone("t", zone("Z1", 1, square(0, 0, 1, 1)))
	c := &Composer{Resolver: NewResolver(m, nil), Offers: brokenStore{err: boom}}
	if _, err := c.Check(context.Background(), "t", p); !errors.Is(err, boom) {
		t.Fatalf("check: got %v", err)
	}
}

func TestCheckComposesOffers(t *testing.T) {
	m := store.NewMemory()
	m.PutZone("t", zone("Z1", 1, square(0, 0, 1, 1)))
	m.PutPackage("t", model.Package{ID: "fast", Name: "Fiber 500", DownloadMbps: 500, UploadMbps: 100, MonthlyPrice: 80, SetupFee: 50})
	m.PutPackage("t", model.Package{ID: "basic", Name: "Basic 50", DownloadMbps: 50, UploadMbps: 10, MonthlyPrice: 30})
	m.PutOffer("t", model.ZoneOffer{ID: "o2", ZoneID: "Z1", PackageID: "fast", Active: true, PriceOverride: f64(70), SetupFeeOverride: f64(0)})
	m.PutOffer("t", model.ZoneOffer{ID: "o1", ZoneID: "Z1", PackageID: "basic", Active: true})
	m.PutOffer("t", model.ZoneOffer{ID: "o3", ZoneID: "Z1", PackageID: "basic", Active: false})
	m.PutOffer("t", model.ZoneOffer{ID: "o4", ZoneID: "other", PackageID: "basic", Active: true})
	c := &Composer{Resolver: NewResolver(m, nil), Offers: m}

	got, err := c.Check(context.Background(), "t", p)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	want := model.CoverageResponse{
		Zone: &model.ResolvedZone{ZoneID: "Z1", Name: "zone Z1", Priority: 1},
		Offers: []model.CoverageOffer{
			{OfferID: "o1", PackageID: "basic", PackageName: "Basic 50", DownloadMbps: 50, UploadMbps: 10, MonthlyPrice: 30},
			{OfferID: "o2", PackageID: "fast", PackageName: "Fiber 500", DownloadMbps: 500, UploadMbps: 100, MonthlyPrice: 70, SetupFee: 0, Overridden: true},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("coverage (-want +got):\n%s", diff)
	}
}

func TestComposeOffersDropsInactive(t *testing.T) {
	got := composeOffers([]model.ZoneOffer{
		{ID: "b", Active: true, Package: model.Package{Name: "Same", MonthlyPrice: 1}},
		{ID: "a", Active: true, Package: model.Package{Name: "Same", MonthlyPrice: 2}},
		{ID: "c", Active: false, Package: model.Package{Name: "AAA"}},
	})
	if len(got) != 2 || got[0].OfferID != "a" || got[1].OfferID != "b" {
		t.Fatalf("got %+v", got)
	}
}
