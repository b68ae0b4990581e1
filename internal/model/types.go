package model

import "ispnet/internal/geo"

// Operational statuses shared by nodes, links, zones and offers.
const (
	StatusActive      = "active"
	StatusMaintenance = "maintenance"
	StatusInactive    = "inactive"
)

// Node is a physical or logical point in a tenant's network (tower, POP, subscriber drop).
type Node struct {
	ID       string         `json:"id" yaml:"id"`
	TenantID string         `json:"tenantId" yaml:"tenantId"`
	Name     string         `json:"name,omitempty" yaml:"name"`
	Kind     string         `json:"kind,omitempty" yaml:"kind"` // pop, access_point, subscriber_drop, ...
	Status   string         `json:"status" yaml:"status"`
	Location *geo.Point     `json:"location,omitempty" yaml:"location"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata"`
}

// Link connects two nodes. Endpoints are stored in a fixed order but the
// link is traversed in both directions.
type Link struct {
	ID             string       `json:"id" yaml:"id"`
	TenantID       string       `json:"tenantId" yaml:"tenantId"`
	FromNodeID     string       `json:"fromNodeId" yaml:"fromNodeId"`
	ToNodeID       string       `json:"toNodeId" yaml:"toNodeId"`
	Name           string       `json:"name,omitempty" yaml:"name"`
	Kind           string       `json:"kind,omitempty" yaml:"kind"` // fiber, wireless, logical, ...
	Status         string       `json:"status" yaml:"status"`
	Priority       int          `json:"priority,omitempty" yaml:"priority"`
	CapacityMbps   float64      `json:"capacityMbps,omitempty" yaml:"capacityMbps"`
	UtilizationPct *float64     `json:"utilizationPct,omitempty" yaml:"utilizationPct"`
	SignalLossDB   *float64     `json:"signalLossDb,omitempty" yaml:"signalLossDb"`
	LatencyMs      *float64     `json:"latencyMs,omitempty" yaml:"latencyMs"`
	Path           geo.Polyline `json:"path,omitempty" yaml:"path"`
}

// ServiceZone is a geographic coverage area. Lower Priority wins.
type ServiceZone struct {
	ID       string           `json:"id" yaml:"id"`
	TenantID string           `json:"tenantId" yaml:"tenantId"`
	Name     string           `json:"name,omitempty" yaml:"name"`
	Kind     string           `json:"kind,omitempty" yaml:"kind"`
	Priority int              `json:"priority" yaml:"priority"`
	Status   string           `json:"status" yaml:"status"`
	Geometry geo.MultiPolygon `json:"geometry,omitempty" yaml:"geometry"`
}

// ZoneNodeBinding is inventory metadata only; zone resolution never reads it.
type ZoneNodeBinding struct {
	ZoneID  string `json:"zoneId" yaml:"zoneId"`
	NodeID  string `json:"nodeId" yaml:"nodeId"`
	Primary bool   `json:"primary,omitempty" yaml:"primary"`
	Weight  int    `json:"weight,omitempty" yaml:"weight"`
}

// Package is a sellable service plan.
type Package struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	DownloadMbps float64 `json:"downloadMbps,omitempty" yaml:"downloadMbps"`
	UploadMbps   float64 `json:"uploadMbps,omitempty" yaml:"uploadMbps"`
	MonthlyPrice float64 `json:"monthlyPrice" yaml:"monthlyPrice"`
	SetupFee     float64 `json:"setupFee,omitempty" yaml:"setupFee"`
}

// ZoneOffer makes a package available inside a zone, optionally repriced.
type ZoneOffer struct {
	ID               string   `json:"id" yaml:"id"`
	ZoneID           string   `json:"zoneId" yaml:"zoneId"`
	PackageID        string   `json:"packageId" yaml:"packageId"`
	PriceOverride    *float64 `json:"priceOverride,omitempty" yaml:"priceOverride"`
	SetupFeeOverride *float64 `json:"setupFeeOverride,omitempty" yaml:"setupFeeOverride"`
	Active           bool     `json:"active" yaml:"active"`
	Package          Package  `json:"package" yaml:"-"`
}

// EffectivePrice is the monthly price after the zone override.
func (o ZoneOffer) EffectivePrice() float64 {
	if o.PriceOverride != nil {
		return *o.PriceOverride
	}
	return o.Package.MonthlyPrice
}

// EffectiveSetupFee is the setup fee after the zone override.
func (o ZoneOffer) EffectiveSetupFee() float64 {
	if o.SetupFeeOverride != nil {
		return *o.SetupFeeOverride
	}
	return o.Package.SetupFee
}

// ComputePathRequest constrains a route search between two nodes.
type ComputePathRequest struct {
	SourceNodeID       string   `json:"sourceNodeId"`
	TargetNodeID       string   `json:"targetNodeId"`
	MaxHops            *int     `json:"maxHops,omitempty"`
	MaxUtilizationPct  *float64 `json:"maxUtilizationPct,omitempty"`
	AllowedLinkTypes   []string `json:"allowedLinkTypes,omitempty"`
	AllowedStatuses    []string `json:"allowedStatuses,omitempty"`
	ExcludeLinkIDs     []string `json:"excludeLinkIds,omitempty"`
	RequireActiveNodes bool     `json:"requireActiveNodes,omitempty"`
}

// PathHop describes one traversed link, oriented in travel direction.
type PathHop struct {
	Seq        int     `json:"seq"`
	LinkID     string  `json:"linkId"`
	FromNodeID string  `json:"fromNodeId"`
	ToNodeID   string  `json:"toNodeId"`
	Name       string  `json:"name,omitempty"`
	Kind       string  `json:"kind,omitempty"`
	Status     string  `json:"status,omitempty"`
	DistanceM  float64 `json:"distanceM"`
	Cost       float64 `json:"cost"`
}

// ComputePathResponse carries the winning path. When Found is false every
// other field is empty and omitted on the wire.
type ComputePathResponse struct {
	Found          bool      `json:"found"`
	NodeIDs        []string  `json:"nodeIds,omitempty"`
	LinkIDs        []string  `json:"linkIds,omitempty"`
	Hops           []PathHop `json:"hops,omitempty"`
	TotalCost      *float64  `json:"totalCost,omitempty"`
	TotalDistanceM *float64  `json:"totalDistanceM,omitempty"`
}

// ResolvedZone identifies the zone governing a point.
type ResolvedZone struct {
	ZoneID   string `json:"zoneId"`
	Name     string `json:"name,omitempty"`
	Priority int    `json:"priority"`
	Kind     string `json:"kind,omitempty"`
}

// CoverageOffer is an offer as sold at a point, prices already resolved.
type CoverageOffer struct {
	OfferID      string  `json:"offerId"`
	PackageID    string  `json:"packageId"`
	PackageName  string  `json:"packageName"`
	DownloadMbps float64 `json:"downloadMbps,omitempty"`
	UploadMbps   float64 `json:"uploadMbps,omitempty"`
	MonthlyPrice float64 `json:"monthlyPrice"`
	SetupFee     float64 `json:"setupFee"`
	Overridden   bool    `json:"overridden,omitempty"`
}

// CoverageResponse answers "what can be sold here". Zone is nil and Offers
// empty when no zone covers the point.
type CoverageResponse struct {
	Zone   *ResolvedZone   `json:"zone"`
	Offers []CoverageOffer `json:"offers"`
}
