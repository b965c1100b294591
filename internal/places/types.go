package places

import (
	"context"

	"whatevereat/internal/geo"
)

// OpenState is the tri-state open-now flag. Providers often omit opening
// hours entirely, so unknown is a first-class value and is never treated
// as closed.
type OpenState string

const (
	OpenStateOpen    OpenState = "open"
	OpenStateClosed  OpenState = "closed"
	OpenStateUnknown OpenState = "unknown"
)

// PriceTierUnknown marks venues without price information.
const PriceTierUnknown = -1

// Venue is a nearby candidate as returned by a provider for one call.
// The id is only guaranteed stable within a single provider response.
type Venue struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Rating     float64   `json:"rating,omitempty"`
	Address    string    `json:"address,omitempty"`
	PriceTier  int       `json:"price_tier"`
	Categories []string  `json:"categories,omitempty"`
	Hours      []string  `json:"hours,omitempty"`
	Open       OpenState `json:"open"`
	MapsURL    string    `json:"maps_url,omitempty"`
}

// Resolver returns nearby venues for a coordinate. Implementations are
// stateless queries; the caller bounds them with a context deadline.
type Resolver interface {
	Nearby(ctx context.Context, coord geo.Coordinate, radiusMeters int) ([]Venue, error)
}
