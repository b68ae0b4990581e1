package store

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"ispnet/internal/geo"
	"ispnet/internal/model"
)

// Seed is the YAML fixture layout accepted by LoadSeed. Geometry and link
// paths use GeoJSON coordinates ([lng, lat]) so fixtures can be exported
// straight from GIS tooling.
type Seed struct {
	Tenants map[string]TenantSeed `yaml:"tenants"`
}

type TenantSeed struct {
	Nodes    []model.Node            `yaml:"nodes"`
	Links    []linkSeed              `yaml:"links"`
	Zones    []zoneSeed              `yaml:"zones"`
	Bindings []model.ZoneNodeBinding `yaml:"bindings"`
	Packages []model.Package         `yaml:"packages"`
	Offers   []model.ZoneOffer       `yaml:"offers"`
}

type linkSeed struct {
	model.Link `yaml:",inline"`
	Geometry   any `yaml:"geometry"`
}

type zoneSeed struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Priority int    `yaml:"priority"`
	Status   string `yaml:"status"`
	Geometry any    `yaml:"geometry"`
}

// LoadSeedFile reads a YAML fixture from path into m.
func (m *Memory) LoadSeedFile(path string, log *zap.Logger) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	return m.LoadSeed(b, log)
}

// LoadSeed loads YAML fixture bytes into m. Zones or links with malformed
// geometry are dropped with a warning, mirroring the Postgres loader.
func (m *Memory) LoadSeed(data []byte, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	for tenant, ts := range seed.Tenants {
		for _, n := range ts.Nodes {
			m.PutNode(tenant, n)
		}
		for _, ls := range ts.Links {
			l := ls.Link
			if ls.Geometry != nil {
				pl, err := decodeSeedGeometry(ls.Geometry, geo.DecodePolyline)
				if err != nil {
					log.Warn("seed link geometry dropped", zap.String("tenant", tenant), zap.String("link", l.ID), zap.Error(err))
				} else {
					l.Path = pl
				}
			}
			m.PutLink(tenant, l)
		}
		for _, zs := range ts.Zones {
			mp, err := decodeSeedGeometry(zs.Geometry, geo.DecodeMultiPolygon)
			if err != nil {
				log.Warn("seed zone dropped", zap.String("tenant", tenant), zap.String("zone", zs.ID), zap.Error(err))
				continue
			}
			m.PutZone(tenant, model.ServiceZone{ID: zs.ID, Name: zs.Name, Kind: zs.Kind, Priority: zs.Priority, Status: zs.Status, Geometry: mp})
		}
		for _, b := range ts.Bindings {
			m.PutBinding(tenant, b)
		}
		for _, p := range ts.Packages {
			m.PutPackage(tenant, p)
		}
		for _, o := range ts.Offers {
			m.PutOffer(tenant, o)
		}
		log.Info("seed loaded", zap.String("tenant", tenant), zap.Int("nodes", len(ts.Nodes)), zap.Int("links", len(ts.Links)), zap.Int("zones", len(ts.Zones)))
	}
	return nil
}

// decodeSeedGeometry re-encodes a YAML value as JSON and runs the geo decoder on it.
func decodeSeedGeometry[T any](v any, decode func([]byte) (T, error)) (T, error) {
	var zero T
	b, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", geo.ErrMalformedGeometry, err)
	}
	return decode(b)
}
