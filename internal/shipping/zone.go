package shipping

import (
	"errors"
	"fmt"
	"strings"
)

// Zone classifies a delivery address for tariff purposes.
type Zone string

const (
	// ZoneInside covers deliveries inside Dhaka.
	ZoneInside Zone = "inside"
	// ZoneOutside covers deliveries outside Dhaka.
	ZoneOutside Zone = "outside"
)

// ErrUnknownZone is returned when a zone label cannot be parsed.
var ErrUnknownZone = errors.New("unknown shipping zone")

// ParseZone converts a wire label into a Zone.
func ParseZone(value string) (Zone, error) {
	switch Zone(strings.ToLower(strings.TrimSpace(value))) {
	case ZoneInside:
		return ZoneInside, nil
	case ZoneOutside:
		return ZoneOutside, nil
	}
	return "", fmt.Errorf("%q: %w", value, ErrUnknownZone)
}

// String implements fmt.Stringer.
func (z Zone) String() string { return string(z) }
