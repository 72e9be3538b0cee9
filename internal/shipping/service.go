package shipping

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/bakehouse-labs/bakehouse-backend/internal/inventory"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
)

const earthRadiusKM = 6371.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// FeeQuote is the result of a fee computation for one delivery.
type FeeQuote struct {
	Zone                enums.ShippingZone
	DistanceKM          float64
	FeeCents            int
	FreeShippingApplied bool
	ETAMinutes          int
}

// RankedBranch is a branch candidate ordered by distance.
type RankedBranch struct {
	Branch     models.Branch
	DistanceKM float64
}

// Service computes distances, zones and fees from the configured rate table.
type Service struct {
	tiers []Tier
}

// NewService builds the rate engine from an ordered tier table.
func NewService(tiers []Tier) (*Service, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("at least one shipping tier required")
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MaxKM < tiers[i-1].MaxKM {
			return nil, fmt.Errorf("shipping tiers must be ordered by distance")
		}
	}
	return &Service{tiers: tiers}, nil
}

// Distance returns the great-circle distance between two points in km.
func Distance(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

// ZoneFor maps a distance to the first matching tier.
func (s *Service) ZoneFor(distanceKM float64) Tier {
	for _, tier := range s.tiers {
		if distanceKM < tier.MaxKM {
			return tier
		}
	}
	return s.tiers[len(s.tiers)-1]
}

// ComputeFee applies the tier's base fee, waived when the subtotal reaches
// the tier's free-shipping threshold. A zero threshold disables free shipping
// for the tier.
func (s *Service) ComputeFee(distanceKM float64, subtotalCents int) FeeQuote {
	tier := s.ZoneFor(distanceKM)
	quote := FeeQuote{
		Zone:       tier.Zone,
		DistanceKM: distanceKM,
		FeeCents:   tier.FeeCents,
		ETAMinutes: tier.ETAMinutes,
	}
	if tier.FreeThresholdCents > 0 && subtotalCents >= tier.FreeThresholdCents {
		quote.FeeCents = 0
		quote.FreeShippingApplied = true
	}
	return quote
}

// SelectOptimalBranch filters candidates to those whose inventory satisfies
// every line, ranks them by distance ascending, and returns the winner plus
// the ranked alternatives. Inactive branches never qualify.
func (s *Service) SelectOptimalBranch(ctx context.Context, delivery Point, candidates []models.Branch, lines []inventory.Line, ledger inventory.Service) (*RankedBranch, []RankedBranch, error) {
	if len(lines) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}

	ranked := make([]RankedBranch, 0, len(candidates))
	for _, branch := range candidates {
		if !branch.IsActive {
			continue
		}
		satisfied, _, err := ledger.CheckCart(ctx, branch.ID, lines)
		if err != nil {
			return nil, nil, err
		}
		if !satisfied {
			continue
		}
		ranked = append(ranked, RankedBranch{
			Branch:     branch,
			DistanceKM: Distance(delivery, Point{Lat: branch.Location.Lat, Lng: branch.Location.Lng}),
		})
	}
	if len(ranked) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNoBranchAvailable, "no branch can fulfill this order").
			WithDetails(map[string]any{"candidates": len(candidates)})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].DistanceKM < ranked[b].DistanceKM
	})
	best := ranked[0]
	return &best, ranked, nil
}
