package enums

import "fmt"

// ShippingZone is a distance-based delivery fee tier.
type ShippingZone string

const (
	ShippingZoneUrban        ShippingZone = "urban"
	ShippingZoneMetropolitan ShippingZone = "metropolitan"
	ShippingZoneRegional     ShippingZone = "regional"
	ShippingZoneIntercity    ShippingZone = "intercity"
	ShippingZoneRemote       ShippingZone = "remote"
)

var validShippingZones = []ShippingZone{
	ShippingZoneUrban,
	ShippingZoneMetropolitan,
	ShippingZoneRegional,
	ShippingZoneIntercity,
	ShippingZoneRemote,
}

// String implements fmt.Stringer.
func (z ShippingZone) String() string {
	return string(z)
}

// IsValid reports whether the value is a known ShippingZone.
func (z ShippingZone) IsValid() bool {
	for _, candidate := range validShippingZones {
		if candidate == z {
			return true
		}
	}
	return false
}

// ParseShippingZone converts the raw string to ShippingZone.
func ParseShippingZone(value string) (ShippingZone, error) {
	for _, candidate := range validShippingZones {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping zone %q", value)
}
