// Package testutils provides deterministic collaborators for tests of the
// engine's outer surfaces (HTTP, MCP, terminal).
package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/gashu/internal/runtime"
	"github.com/aretw0/gashu/pkg/domain"
)

// DestSuffix marks an utterance that names a destination, as in
// "청주역 가고 싶어".
const DestSuffix = " 가고 싶어"

// AskDest is the stub SET_DEST dialogue reply.
const AskDest = "어디로 가시나요?"

// Stub implements every collaborator port with canned answers. Only an
// utterance ending in DestSuffix names a place; every search finds that
// place as a single candidate.
type Stub struct {
	mu    sync.Mutex
	calls map[string]int
}

// NewStub returns a Stub with zeroed call counters.
func NewStub() *Stub {
	return &Stub{calls: make(map[string]int)}
}

// Calls reports how often the named port method was invoked.
func (s *Stub) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *Stub) hit(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
}

// Collaborators wires s into every port.
func (s *Stub) Collaborators() runtime.Collaborators {
	return runtime.Collaborators{
		Classifier: s,
		Dest:       s,
		Dep:        s,
		Route:      s,
		Search:     s,
		Geocoder:   s,
		Directions: s,
		Normalizer: s,
		Arrivals:   s,
	}
}

func (s *Stub) Classify(_ context.Context, _ []domain.Message, msg string) (domain.Parsed[domain.Classification], error) {
	s.hit("Classify")
	var c domain.Classification
	if place, ok := strings.CutSuffix(msg, DestSuffix); ok {
		c.Dest = strings.TrimSpace(place)
	}
	return domain.ParsedOK(c, ""), nil
}

func (s *Stub) DestTurn(context.Context, []domain.Message, []domain.Candidate, string) (domain.Parsed[domain.DestReply], error) {
	s.hit("DestTurn")
	return domain.ParsedOK(domain.DestReply{Message: AskDest}, ""), nil
}

func (s *Stub) DepTurn(context.Context, []domain.Message, []domain.Candidate, string) (domain.Parsed[domain.DepReply], error) {
	s.hit("DepTurn")
	return domain.ParsedOK(domain.DepReply{Message: "어디서 출발하시나요?"}, ""), nil
}

func (s *Stub) RouteTurn(context.Context, []domain.Message, []domain.Itinerary, string) (domain.Parsed[domain.RouteReply], error) {
	s.hit("RouteTurn")
	return domain.ParsedOK(domain.RouteReply{Message: "502번 버스를 타세요."}, ""), nil
}

func (s *Stub) SearchAddress(_ context.Context, keyword string) ([]domain.Candidate, error) {
	s.hit("SearchAddress")
	return []domain.Candidate{{Name: keyword, Address: keyword + " 1"}}, nil
}

func (s *Stub) Geocode(context.Context, string) (*domain.Coord, error) {
	s.hit("Geocode")
	return &domain.Coord{Lon: 127.4321, Lat: 36.6203}, nil
}

func (s *Stub) FetchDirections(context.Context, domain.Coord, domain.Coord) ([]byte, error) {
	s.hit("FetchDirections")
	return []byte(`{}`), nil
}

func (s *Stub) Normalize(context.Context, []byte) ([]domain.Itinerary, error) {
	s.hit("Normalize")
	return nil, nil
}

func (s *Stub) FetchArrivals(context.Context, string, string) ([]domain.Arrival, error) {
	s.hit("FetchArrivals")
	return nil, nil
}
