package coverage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ispnet/internal/geo"
	"ispnet/internal/metrics"
	"ispnet/internal/model"
)

// OfferSource lists the active offers of one zone joined with their package.
type OfferSource interface {
	ListActiveOffers(ctx context.Context, tenantID, zoneID string) ([]model.ZoneOffer, error)
}

// Composer combines zone resolution with the zone's offer catalogue.
type Composer struct {
	Resolver *Resolver
	Offers   OfferSource
}

// Check answers what can be sold at p. An uncovered point is a normal
// answer: nil zone and an empty offer list.
func (c *Composer) Check(ctx context.Context, tenantID string, p geo.Point) (resp model.CoverageResponse, err error) {
	ctx, span := tracer.Start(ctx, "coverage.Check")
	defer func() {
		result := "not_serviceable"
		switch {
		case errors.Is(err, ErrInvalidPoint):
			result = "invalid"
		case err != nil:
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case resp.Zone != nil:
			result = "serviceable"
		}
		metrics.CoverageChecks.WithLabelValues(result).Inc()
		span.SetAttributes(attribute.String("coverage.result", result), attribute.Int("coverage.offers", len(resp.Offers)))
		span.End()
	}()

	zone, err := c.Resolver.Resolve(ctx, tenantID, p)
	if err != nil {
		return model.CoverageResponse{}, err
	}
	resp = model.CoverageResponse{Zone: zone, Offers: []model.CoverageOffer{}}
	if zone == nil {
		return resp, nil
	}
	offers, err := c.Offers.ListActiveOffers(ctx, tenantID, zone.ZoneID)
	if err != nil {
		return model.CoverageResponse{}, fmt.Errorf("list offers for zone %s: %w", zone.ZoneID, err)
	}
	resp.Offers = composeOffers(offers)
	return resp, nil
}

func composeOffers(offers []model.ZoneOffer) []model.CoverageOffer {
	out := make([]model.CoverageOffer, 0, len(offers))
	for _, o := range offers {
		if !o.Active {
			continue
		}
		out = append(out, model.CoverageOffer{
			OfferID:      o.ID,
			PackageID:    o.PackageID,
			PackageName:  o.Package.Name,
			DownloadMbps: o.Package.DownloadMbps,
			UploadMbps:   o.Package.UploadMbps,
			MonthlyPrice: o.EffectivePrice(),
			SetupFee:     o.EffectiveSetupFee(),
			Overridden:   o.PriceOverride != nil || o.SetupFeeOverride != nil,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PackageName != out[j].PackageName {
			return out[i].PackageName < out[j].PackageName
		}
		return out[i].OfferID < out[j].OfferID
	})
	return out
}
