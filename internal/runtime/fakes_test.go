package runtime_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/gashu/internal/runtime"
	"github.com/aretw0/gashu/pkg/adapters/memory"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/session"
	"github.com/stretchr/testify/require"
)

// world scripts every collaborator and counts calls.
type world struct {
	mu    sync.Mutex
	calls map[string]int
	args  map[string][]string

	classify   func(history []domain.Message, msg string) (domain.Parsed[domain.Classification], error)
	destTurn   func(candidates []domain.Candidate, msg string) (domain.Parsed[domain.DestReply], error)
	depTurn    func(candidates []domain.Candidate, msg string) (domain.Parsed[domain.DepReply], error)
	routeTurn  func(routes []domain.Itinerary, msg string) (domain.Parsed[domain.RouteReply], error)
	search     func(ctx context.Context, keyword string) ([]domain.Candidate, error)
	geocode    func(address string) (*domain.Coord, error)
	directions func(dep, dest domain.Coord) ([]byte, error)
	normalize  func(raw []byte) ([]domain.Itinerary, error)
	arrivals   func(nodeID string) ([]domain.Arrival, error)
}

func newWorld() *world {
	return &world{
		calls: make(map[string]int),
		args:  make(map[string][]string),
	}
}

func (w *world) hit(name, arg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls[name]++
	w.args[name] = append(w.args[name], arg)
}

func (w *world) count(name string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[name]
}

func (w *world) argsOf(name string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.args[name]...)
}

func (w *world) Classify(_ context.Context, history []domain.Message, msg string) (domain.Parsed[domain.Classification], error) {
	w.hit("classify", msg)
	if w.classify == nil {
		return domain.ParsedOK(domain.Classification{}, "{}"), nil
	}
	return w.classify(history, msg)
}

func (w *world) DestTurn(_ context.Context, _ []domain.Message, candidates []domain.Candidate, msg string) (domain.Parsed[domain.DestReply], error) {
	w.hit("dest", msg)
	if w.destTurn == nil {
		return domain.ParsedOK(domain.DestReply{Message: "어디로 가시나요?"}, ""), nil
	}
	return w.destTurn(candidates, msg)
}

func (w *world) DepTurn(_ context.Context, _ []domain.Message, candidates []domain.Candidate, msg string) (domain.Parsed[domain.DepReply], error) {
	w.hit("dep", msg)
	if w.depTurn == nil {
		return domain.ParsedOK(domain.DepReply{Message: "어디서 출발하시나요?"}, ""), nil
	}
	return w.depTurn(candidates, msg)
}

func (w *world) RouteTurn(_ context.Context, _ []domain.Message, routes []domain.Itinerary, msg string) (domain.Parsed[domain.RouteReply], error) {
	w.hit("route", msg)
	if w.routeTurn == nil {
		return domain.ParsedOK(domain.RouteReply{Message: "502번 버스를 타세요."}, ""), nil
	}
	return w.routeTurn(routes, msg)
}

func (w *world) SearchAddress(ctx context.Context, keyword string) ([]domain.Candidate, error) {
	w.hit("search", keyword)
	if w.search == nil {
		return nil, nil
	}
	return w.search(ctx, keyword)
}

func (w *world) Geocode(_ context.Context, address string) (*domain.Coord, error) {
	w.hit("geocode", address)
	if w.geocode == nil {
		return &domain.Coord{Lon: 126.9707, Lat: 37.5547}, nil
	}
	return w.geocode(address)
}

func (w *world) FetchDirections(_ context.Context, dep, dest domain.Coord) ([]byte, error) {
	w.hit("directions", "")
	if w.directions == nil {
		return []byte(`{}`), nil
	}
	return w.directions(dep, dest)
}

func (w *world) Normalize(_ context.Context, raw []byte) ([]domain.Itinerary, error) {
	w.hit("normalize", "")
	if w.normalize == nil {
		return []domain.Itinerary{sampleItinerary()}, nil
	}
	return w.normalize(raw)
}

func (w *world) FetchArrivals(_ context.Context, nodeID, _ string) ([]domain.Arrival, error) {
	w.hit("arrivals", nodeID)
	if w.arrivals == nil {
		return nil, nil
	}
	return w.arrivals(nodeID)
}

func (w *world) collaborators() runtime.Collaborators {
	return runtime.Collaborators{
		Classifier: w,
		Dest:       w,
		Dep:        w,
		Route:      w,
		Search:     w,
		Geocoder:   w,
		Directions: w,
		Normalizer: w,
		Arrivals:   w,
	}
}

func classifyAs(c domain.Classification) func([]domain.Message, string) (domain.Parsed[domain.Classification], error) {
	return func([]domain.Message, string) (domain.Parsed[domain.Classification], error) {
		return domain.ParsedOK(c, ""), nil
	}
}

func sampleItinerary() domain.Itinerary {
	return domain.Itinerary{
		TotalTime:     25,
		Fare:          1500,
		TotalWalkTime: 6,
		BusRoutes: []domain.BusRoute{{
			RouteName:    "간선:502",
			StartStation: "충북대학교",
			EndStation:   "청주역",
			StartNodeID:  "CJB283000123",
		}},
		WalkSegments: []domain.WalkSegment{},
	}
}

func candidate(name, address string) domain.Candidate {
	return domain.Candidate{Name: name, Address: address}
}

// harness wires an orchestrator over an in-memory store.
type harness struct {
	w        *world
	sessions *session.Manager
	o        *runtime.Orchestrator
}

func newHarness(t *testing.T, w *world, opts ...runtime.Option) *harness {
	t.Helper()
	sessions := session.NewManager(memory.NewStore())
	o, err := runtime.New(sessions, w.collaborators(), opts...)
	require.NoError(t, err)
	return &harness{w: w, sessions: sessions, o: o}
}

func (h *harness) turn(t *testing.T, userID, msg string) runtime.Reply {
	t.Helper()
	reply, err := h.o.HandleTurn(context.Background(), runtime.TurnRequest{UserID: userID, Message: msg})
	require.NoError(t, err)
	require.NotEmpty(t, reply.Message)
	return reply
}

func (h *harness) session(t *testing.T, userID string) *domain.Session {
	t.Helper()
	s, err := h.sessions.Get(context.Background(), userID)
	require.NoError(t, err)
	return s
}

func (h *harness) seed(t *testing.T, userID string, fn func(s *domain.Session)) {
	t.Helper()
	require.NoError(t, h.sessions.Update(context.Background(), userID, func(_ context.Context, s *domain.Session) error {
		fn(s)
		return nil
	}))
}
