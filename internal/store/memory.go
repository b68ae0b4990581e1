package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"ispnet/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.RWMutex
	nodes    map[string][]model.Node        // tenant -> nodes
	links    map[string][]model.Link        // tenant -> links
	zones    map[string][]model.ServiceZone // tenant -> zones
	bindings map[string][]model.ZoneNodeBinding
	packages map[string]map[string]model.Package // tenant -> packageId -> package
	offers   map[string][]model.ZoneOffer        // tenant -> offers
}

func NewMemory() *Memory {
	return &Memory{
		nodes:    map[string][]model.Node{},
		links:    map[string][]model.Link{},
		zones:    map[string][]model.ServiceZone{},
		bindings: map[string][]model.ZoneNodeBinding{},
		packages: map[string]map[string]model.Package{},
		offers:   map[string][]model.ZoneOffer{},
	}
}

func newID() string { return uuid.New().String() }

// PutNode inserts or replaces a node by id. An empty id gets a generated one.
func (m *Memory) PutNode(tenantID string, n model.Node) model.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == "" {
		n.ID = newID()
	}
	n.TenantID = tenantID
	list := m.nodes[tenantID]
	for i := range list {
		if list[i].ID == n.ID {
			list[i] = n
			return n
		}
	}
	m.nodes[tenantID] = append(list, n)
	return n
}

// PutLink inserts or replaces a link by id.
func (m *Memory) PutLink(tenantID string, l model.Link) model.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == "" {
		l.ID = newID()
	}
	l.TenantID = tenantID
	list := m.links[tenantID]
	for i := range list {
		if list[i].ID == l.ID {
			list[i] = l
			return l
		}
	}
	m.links[tenantID] = append(list, l)
	return l
}

// PutZone inserts or replaces a service zone by id.
func (m *Memory) PutZone(tenantID string, z model.ServiceZone) model.ServiceZone {
	m.mu.Lock()
	defer m.mu.Unlock()
	if z.ID == "" {
		z.ID = newID()
	}
	z.TenantID = tenantID
	list := m.zones[tenantID]
	for i := range list {
		if list[i].ID == z.ID {
			list[i] = z
			return z
		}
	}
	m.zones[tenantID] = append(list, z)
	return z
}

// PutBinding inserts or replaces the association of one zone and node.
func (m *Memory) PutBinding(tenantID string, b model.ZoneNodeBinding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.bindings[tenantID]
	for i := range list {
		if list[i].ZoneID == b.ZoneID && list[i].NodeID == b.NodeID {
			list[i] = b
			return
		}
	}
	m.bindings[tenantID] = append(list, b)
}

// PutPackage inserts or replaces a package by id.
func (m *Memory) PutPackage(tenantID string, p model.Package) model.Package {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	if m.packages[tenantID] == nil {
		m.packages[tenantID] = map[string]model.Package{}
	}
	m.packages[tenantID][p.ID] = p
	return p
}

// PutOffer inserts or replaces a zone offer by id.
func (m *Memory) PutOffer(tenantID string, o model.ZoneOffer) model.ZoneOffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = newID()
	}
	list := m.offers[tenantID]
	for i := range list {
		if list[i].ID == o.ID {
			list[i] = o
			return o
		}
	}
	m.offers[tenantID] = append(list, o)
	return o
}

func (m *Memory) ListNodes(ctx context.Context, tenantID string) ([]model.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Node{}, m.nodes[tenantID]...), nil
}

func (m *Memory) ListLinks(ctx context.Context, tenantID string) ([]model.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Link{}, m.links[tenantID]...), nil
}

// ReadTopology returns nodes and links under one read lock.
func (m *Memory) ReadTopology(ctx context.Context, tenantID string) ([]model.Node, []model.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Node{}, m.nodes[tenantID]...), append([]model.Link{}, m.links[tenantID]...), nil
}

func (m *Memory) ListActiveZones(ctx context.Context, tenantID string) ([]model.ServiceZone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.ServiceZone{}
	for _, z := range m.zones[tenantID] {
		if z.Status == model.StatusActive {
			out = append(out, z)
		}
	}
	return out, nil
}

// ListActiveOffers returns active offers of zoneID joined with their package.
// Offers pointing at unknown packages are skipped, as an inner join would.
func (m *Memory) ListActiveOffers(ctx context.Context, tenantID, zoneID string) ([]model.ZoneOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.ZoneOffer{}
	pkgs := m.packages[tenantID]
	for _, o := range m.offers[tenantID] {
		if o.ZoneID != zoneID || !o.Active {
			continue
		}
		p, ok := pkgs[o.PackageID]
		if !ok {
			continue
		}
		o.Package = p
		out = append(out, o)
	}
	return out, nil
}

// ListZoneBindings returns the nodes bound to zoneID, primary first, then
// by weight descending and node id. An unknown zone returns ErrNotFound.
func (m *Memory) ListZoneBindings(ctx context.Context, tenantID, zoneID string) ([]model.ZoneNodeBinding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	known := false
	for _, z := range m.zones[tenantID] {
		if z.ID == zoneID {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("zone %s: %w", zoneID, ErrNotFound)
	}
	out := []model.ZoneNodeBinding{}
	for _, b := range m.bindings[tenantID] {
		if b.ZoneID == zoneID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bindingLess(out[i], out[j]) })
	return out, nil
}

func bindingLess(a, b model.ZoneNodeBinding) bool {
	if a.Primary != b.Primary {
		return a.Primary
	}
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	return a.NodeID < b.NodeID
}
