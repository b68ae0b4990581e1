package store

import (
	"context"
	"errors"

	"ispnet/internal/model"
)

// Store is the read interface the engine and API server use. Writes to
// nodes, links, zones and offers belong to the inventory CRUD layer.
type Store interface {
	// Topology
	ListNodes(ctx context.Context, tenantID string) ([]model.Node, error)
	ListLinks(ctx context.Context, tenantID string) ([]model.Link, error)

	// Zones & offers
	ListActiveZones(ctx context.Context, tenantID string) ([]model.ServiceZone, error)
	ListActiveOffers(ctx context.Context, tenantID, zoneID string) ([]model.ZoneOffer, error)

	// Inventory
	ListZoneBindings(ctx context.Context, tenantID, zoneID string) ([]model.ZoneNodeBinding, error)
}

// TopologyReader is implemented by stores that can read a tenant's nodes
// and links in one consistent read.
type TopologyReader interface {
	ReadTopology(ctx context.Context, tenantID string) ([]model.Node, []model.Link, error)
}

// ErrNotFound is returned when a lookup names a row that does not exist.
var ErrNotFound = errors.New("not found")
