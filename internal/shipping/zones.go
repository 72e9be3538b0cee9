package shipping

import (
	"math"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/config"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
)

// Tier is one distance band of the shipping rate table. MaxKM is the
// exclusive upper bound; the last tier is open-ended.
type Tier struct {
	Zone               enums.ShippingZone
	MaxKM              float64
	FeeCents           int
	FreeThresholdCents int
	ETAMinutes         int
}

// openEnded marks the final tier.
const openEnded = math.MaxFloat64

// TiersFromConfig builds the ordered rate table. Tiers are ordered nearest
// first; ZoneFor walks them in order and picks the first match.
func TiersFromConfig(cfg config.ShippingConfig) []Tier {
	return []Tier{
		{
			Zone:               enums.ShippingZoneUrban,
			MaxKM:              cfg.UrbanMaxKM,
			FeeCents:           int(cfg.UrbanFeeCents),
			FreeThresholdCents: int(cfg.UrbanFreeThresholdCents),
			ETAMinutes:         cfg.UrbanETAMinutes,
		},
		{
			Zone:               enums.ShippingZoneMetropolitan,
			MaxKM:              cfg.MetroMaxKM,
			FeeCents:           int(cfg.MetroFeeCents),
			FreeThresholdCents: int(cfg.MetroFreeThresholdCents),
			ETAMinutes:         cfg.MetroETAMinutes,
		},
		{
			Zone:               enums.ShippingZoneRegional,
			MaxKM:              cfg.RegionalMaxKM,
			FeeCents:           int(cfg.RegionalFeeCents),
			FreeThresholdCents: int(cfg.RegionalFreeThresholdCents),
			ETAMinutes:         cfg.RegionalETAMinutes,
		},
		{
			Zone:               enums.ShippingZoneIntercity,
			MaxKM:              cfg.IntercityMaxKM,
			FeeCents:           int(cfg.IntercityFeeCents),
			FreeThresholdCents: int(cfg.IntercityFreeThresholdCents),
			ETAMinutes:         cfg.IntercityETAMinutes,
		},
		{
			Zone:               enums.ShippingZoneRemote,
			MaxKM:              openEnded,
			FeeCents:           int(cfg.RemoteFeeCents),
			FreeThresholdCents: int(cfg.RemoteFreeThresholdCents),
			ETAMinutes:         cfg.RemoteETAMinutes,
		},
	}
}
