package ports

import (
	"context"

	"github.com/aretw0/gashu/pkg/domain"
)

// Classifier maps an utterance and the prior conversation to a macro-state
// and the place names it mentions.
type Classifier interface {
	Classify(ctx context.Context, history []domain.Message, message string) (domain.Parsed[domain.Classification], error)
}

// DestDialogue runs one SET_DEST selection turn over the cached candidates.
// history is the stage log.
type DestDialogue interface {
	DestTurn(ctx context.Context, history []domain.Message, candidates []domain.Candidate, message string) (domain.Parsed[domain.DestReply], error)
}

// DepDialogue runs one SET_DEP selection turn over the cached candidates.
// history is the stage log.
type DepDialogue interface {
	DepTurn(ctx context.Context, history []domain.Message, candidates []domain.Candidate, message string) (domain.Parsed[domain.DepReply], error)
}

// RouteDialogue summarises cached itineraries or extracts a route selection.
type RouteDialogue interface {
	RouteTurn(ctx context.Context, history []domain.Message, routes []domain.Itinerary, message string) (domain.Parsed[domain.RouteReply], error)
}

// AddressSearcher resolves a keyword to ordered place candidates.
type AddressSearcher interface {
	SearchAddress(ctx context.Context, keyword string) ([]domain.Candidate, error)
}

// Geocoder resolves an address to a coordinate. A nil coordinate with a
// nil error means the address is unknown.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*domain.Coord, error)
}

// DirectionsProvider fetches the raw transit route tree between two points.
type DirectionsProvider interface {
	FetchDirections(ctx context.Context, dep, dest domain.Coord) ([]byte, error)
}

// NearestStationResolver maps a coordinate to the closest bus stop node id.
type NearestStationResolver interface {
	NearestStation(ctx context.Context, lat, lon float64) (string, error)
}

// ArrivalProvider lists realtime arrival predictions at a stop. An empty
// routeID lists every route serving the stop.
type ArrivalProvider interface {
	FetchArrivals(ctx context.Context, nodeID, routeID string) ([]domain.Arrival, error)
}
