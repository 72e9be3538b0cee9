package shipping

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bakehouse-labs/bakehouse-backend/internal/inventory"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/config"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/types"
)

func defaultTiers() []Tier {
	return TiersFromConfig(config.ShippingConfig{
		UrbanMaxKM:                  5,
		MetroMaxKM:                  15,
		RegionalMaxKM:               30,
		IntercityMaxKM:              60,
		UrbanFeeCents:               1500,
		MetroFeeCents:               2500,
		RegionalFeeCents:            4000,
		IntercityFeeCents:           6000,
		RemoteFeeCents:              9000,
		UrbanFreeThresholdCents:     3500,
		MetroFreeThresholdCents:     5000,
		RegionalFreeThresholdCents:  8000,
		IntercityFreeThresholdCents: 12000,
		RemoteFreeThresholdCents:    0,
		UrbanETAMinutes:             45,
		MetroETAMinutes:             90,
		RegionalETAMinutes:          180,
		IntercityETAMinutes:         360,
		RemoteETAMinutes:            1440,
	})
}

func newTestEngine(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(defaultTiers())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestDistanceHaversine(t *testing.T) {
	t.Parallel()

	origin := Point{Lat: 40.7128, Lng: -74.0060}
	if d := Distance(origin, origin); d != 0 {
		t.Fatalf("distance to self must be zero, got %f", d)
	}

	// NYC to Philadelphia, roughly 130km
	philly := Point{Lat: 39.9526, Lng: -75.1652}
	d := Distance(origin, philly)
	if math.Abs(d-130) > 5 {
		t.Fatalf("expected ~130km, got %f", d)
	}

	// symmetry
	if rev := Distance(philly, origin); math.Abs(rev-d) > 1e-9 {
		t.Fatalf("distance must be symmetric: %f vs %f", d, rev)
	}
}

func TestZoneForBands(t *testing.T) {
	t.Parallel()

	svc := newTestEngine(t)
	cases := []struct {
		km   float64
		zone enums.ShippingZone
	}{
		{0, enums.ShippingZoneUrban},
		{4.99, enums.ShippingZoneUrban},
		{5, enums.ShippingZoneMetropolitan},
		{14.99, enums.ShippingZoneMetropolitan},
		{15, enums.ShippingZoneRegional},
		{29.99, enums.ShippingZoneRegional},
		{30, enums.ShippingZoneIntercity},
		{59.99, enums.ShippingZoneIntercity},
		{60, enums.ShippingZoneRemote},
		{500, enums.ShippingZoneRemote},
	}
	for _, tc := range cases {
		if got := svc.ZoneFor(tc.km).Zone; got != tc.zone {
			t.Errorf("ZoneFor(%f) = %s, want %s", tc.km, got, tc.zone)
		}
	}
}

func TestComputeFeeFreeShippingThreshold(t *testing.T) {
	t.Parallel()

	svc := newTestEngine(t)

	quote := svc.ComputeFee(2, 2500)
	if quote.FeeCents != 1500 || quote.FreeShippingApplied {
		t.Fatalf("below threshold must pay: %+v", quote)
	}

	quote = svc.ComputeFee(2, 4000)
	if quote.FeeCents != 0 || !quote.FreeShippingApplied {
		t.Fatalf("above threshold must be free: %+v", quote)
	}

	// boundary: subtotal equal to the threshold qualifies
	quote = svc.ComputeFee(2, 3500)
	if quote.FeeCents != 0 || !quote.FreeShippingApplied {
		t.Fatalf("threshold boundary must be free: %+v", quote)
	}

	// a zero threshold disables free shipping
	quote = svc.ComputeFee(100, 1_000_000)
	if quote.FeeCents != 9000 || quote.FreeShippingApplied {
		t.Fatalf("remote tier must never be free: %+v", quote)
	}
}

func TestETAMonotonicAcrossZones(t *testing.T) {
	t.Parallel()

	svc := newTestEngine(t)
	distances := []float64{1, 10, 20, 45, 100}
	last := -1
	for _, km := range distances {
		quote := svc.ComputeFee(km, 0)
		if quote.ETAMinutes <= last {
			t.Fatalf("eta must grow with distance: %f km → %d min (prev %d)", km, quote.ETAMinutes, last)
		}
		last = quote.ETAMinutes
	}
}

type stubLedger struct {
	satisfies map[uuid.UUID]bool
}

func (s *stubLedger) CheckAvailability(context.Context, uuid.UUID, inventory.Line) (inventory.Availability, error) {
	return inventory.Availability{}, nil
}

func (s *stubLedger) CheckCart(_ context.Context, branchID uuid.UUID, _ []inventory.Line) (bool, []inventory.Availability, error) {
	return s.satisfies[branchID], nil, nil
}

func (s *stubLedger) Reserve(context.Context, *gorm.DB, uuid.UUID, []inventory.Line) ([]inventory.ReservationResult, error) {
	return nil, nil
}

func (s *stubLedger) Release(context.Context, *gorm.DB, uuid.UUID, []inventory.Line) error {
	return nil
}

func testBranch(name string, lat, lng float64, active bool) models.Branch {
	return models.Branch{
		ID:       uuid.New(),
		Name:     name,
		Slug:     name,
		Address:  name,
		Location: types.GeographyPoint{Lat: lat, Lng: lng},
		IsActive: active,
	}
}

func TestSelectOptimalBranch(t *testing.T) {
	t.Parallel()

	svc := newTestEngine(t)
	ctx := context.Background()
	delivery := Point{Lat: 40.0, Lng: -75.0}

	near := testBranch("near", 40.01, -75.0, true)
	far := testBranch("far", 40.3, -75.0, true)
	inactive := testBranch("inactive", 40.0, -75.0, false)
	unstocked := testBranch("unstocked", 40.001, -75.0, true)

	ledger := &stubLedger{satisfies: map[uuid.UUID]bool{
		near.ID: true,
		far.ID:  true,
	}}

	lines := []inventory.Line{{ProductID: uuid.New(), Qty: 1}}
	best, ranked, err := svc.SelectOptimalBranch(ctx, delivery, []models.Branch{far, inactive, unstocked, near}, lines, ledger)
	if err != nil {
		t.Fatalf("select branch: %v", err)
	}
	if best.Branch.ID != near.ID {
		t.Fatalf("expected nearest qualifying branch, got %s", best.Branch.Name)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 qualifying branches, got %d", len(ranked))
	}
	if ranked[0].DistanceKM > ranked[1].DistanceKM {
		t.Fatalf("ranking must be ascending by distance")
	}
}

func TestSelectOptimalBranchNoneQualify(t *testing.T) {
	t.Parallel()

	svc := newTestEngine(t)
	ctx := context.Background()
	branch := testBranch("empty", 40.0, -75.0, true)

	ledger := &stubLedger{satisfies: map[uuid.UUID]bool{}}
	lines := []inventory.Line{{ProductID: uuid.New(), Qty: 1}}

	_, _, err := svc.SelectOptimalBranch(ctx, Point{Lat: 40, Lng: -75}, []models.Branch{branch}, lines, ledger)
	if err == nil {
		t.Fatal("expected no branch available error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNoBranchAvailable {
		t.Fatalf("unexpected error: %v", err)
	}
}
