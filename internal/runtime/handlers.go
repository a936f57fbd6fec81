package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/gashu/pkg/domain"
)

// CurrentLocation is the place name that stands for the device position.
const CurrentLocation = "현재 위치"

// endpoint points at the session slots of one side of the trip, so the
// search and geocoding steps are written once for both stages.
type endpoint struct {
	state     domain.MacroState
	label     place
	named     bool
	requested *string
	name      *string
	address   *string
	results   *[]domain.Candidate
	query     *string
	log       *[]domain.Message

	notFound      string
	coordNotFound string
}

func (t *turn) dest() endpoint {
	s := t.s
	return endpoint{
		state:         domain.StateSetDest,
		label:         placeDest,
		named:         t.namedDest,
		requested:     &s.RequestedDest,
		name:          &s.DestName,
		address:       &s.DestAddress,
		results:       &s.DestSearchResults,
		query:         &s.DestSearchQuery,
		log:           &s.DestStepHistory,
		notFound:      msgDestNotFound,
		coordNotFound: msgDestCoordNotFound,
	}
}

func (t *turn) dep() endpoint {
	s := t.s
	return endpoint{
		state:         domain.StateSetDep,
		label:         placeDep,
		named:         t.namedDep,
		requested:     &s.RequestedDep,
		name:          &s.DepName,
		address:       &s.DepAddress,
		results:       &s.DepSearchResults,
		query:         &s.DepSearchQuery,
		log:           &s.DepStepHistory,
		notFound:      msgDepNotFound,
		coordNotFound: msgDepCoordNotFound,
	}
}

// enter logs the user message in the stage log once per turn.
func (t *turn) enter(e endpoint) {
	if _, ok := t.marks[e.state]; ok {
		return
	}
	t.marks[e.state] = len(*e.log)
	*e.log = append(*e.log, domain.Message{Role: domain.RoleUser, Content: t.message})
}

// history is the stage log before this turn.
func (t *turn) history(e endpoint) []domain.Message {
	log := *e.log
	if m, ok := t.marks[e.state]; ok && m <= len(log) {
		return log[:m:m]
	}
	return log
}

// reroute sends the turn back to the stage that owns a missing endpoint.
func (t *turn) reroute(e endpoint) {
	t.s.State = e.state
	if strings.TrimSpace(*e.requested) != "" {
		t.s.SubState = domain.SubSearch
	} else {
		t.s.SubState = domain.SubMain
	}
}

func (t *turn) enterMain() {
	t.s.State = domain.StateMain
	t.s.SubState = domain.SubMain
	t.s.EnableMain = true
}

// setDest runs one SET_DEST step. It reports true when the turn has its
// reply.
func (t *turn) setDest(ctx context.Context) bool {
	e := t.dest()
	t.enter(e)

	switch t.s.SubState {
	case domain.SubSearch:
		return t.search(ctx, e)
	case domain.SubCoord:
		c := t.resolve(ctx, e)
		if c == nil {
			return true
		}
		t.s.SetDestCoord(*c)
		t.logger.Info("Destination resolved", "dest", t.s.DestName)
		return t.afterDest()
	default:
		return t.destDialogue(ctx, e)
	}
}

// afterDest moves on to the departure once the destination is known.
func (t *turn) afterDest() bool {
	s := t.s
	if s.DepCoord != nil {
		t.enterMain()
		return false
	}
	s.State = domain.StateSetDep
	if strings.TrimSpace(s.RequestedDep) != "" {
		s.SubState = domain.SubSearch
		return false
	}
	s.SubState = domain.SubMain
	t.say(t.dep(), msgAskDeparture, domain.OutcomeReply)
	return true
}

func (t *turn) destDialogue(ctx context.Context, e endpoint) bool {
	res, err := call(ctx, t, collabDest, func(ctx context.Context) (domain.Parsed[domain.DestReply], error) {
		return t.o.c.Dest.DestTurn(ctx, t.history(e), *e.results, t.message)
	})
	if err != nil {
		t.finish(msgApology, domain.OutcomeApology)
		return true
	}
	if !res.OK {
		t.logger.Warn("Unparseable destination reply", "raw", res.Raw)
		t.say(e, msgRetry, domain.OutcomeRetry)
		return true
	}

	r := res.Value
	if r.Message != "" {
		t.record(e, r.Message)
	}
	if r.Dest != "" && r.DestAddress != "" {
		t.s.DestName = r.Dest
		t.s.DestAddress = r.DestAddress
		t.s.SubState = domain.SubCoord
		return false
	}
	t.replyWith(e, r.Message)
	return true
}

// setDep runs one SET_DEP step. The destination must already be resolved.
func (t *turn) setDep(ctx context.Context) bool {
	s := t.s
	if s.DestCoord == nil {
		t.logger.Warn("Departure stage without destination, rerouting")
		t.reroute(t.dest())
		return false
	}

	e := t.dep()
	t.enter(e)

	switch s.SubState {
	case domain.SubSearch:
		if strings.TrimSpace(s.RequestedDep) == CurrentLocation {
			return t.useGPS(e)
		}
		return t.search(ctx, e)
	case domain.SubCoord:
		c := t.resolve(ctx, e)
		if c == nil {
			return true
		}
		s.SetDepCoord(*c)
		t.logger.Info("Departure resolved", "dep", s.DepName)
		t.enterMain()
		return false
	default:
		return t.depDialogue(ctx, e)
	}
}

// useGPS takes the device position as the departure.
func (t *turn) useGPS(e endpoint) bool {
	s := t.s
	if s.UserGPS == nil {
		s.SubState = domain.SubMain
		t.say(e, msgNoGPS, domain.OutcomeReply)
		return true
	}
	s.DepName = CurrentLocation
	s.SetDepCoord(*s.UserGPS)
	t.logger.Info("Departure taken from device position")
	t.enterMain()
	return false
}

func (t *turn) depDialogue(ctx context.Context, e endpoint) bool {
	res, err := call(ctx, t, collabDep, func(ctx context.Context) (domain.Parsed[domain.DepReply], error) {
		return t.o.c.Dep.DepTurn(ctx, t.history(e), *e.results, t.message)
	})
	if err != nil {
		t.finish(msgApology, domain.OutcomeApology)
		return true
	}
	if !res.OK {
		t.logger.Warn("Unparseable departure reply", "raw", res.Raw)
		t.say(e, msgRetry, domain.OutcomeRetry)
		return true
	}

	r := res.Value
	if r.Message != "" {
		t.record(e, r.Message)
	}
	if r.UseGPS {
		return t.useGPS(e)
	}
	if r.Dep != "" && r.DepAddress != "" {
		t.s.DepName = r.Dep
		t.s.DepAddress = r.DepAddress
		t.s.SubState = domain.SubCoord
		return false
	}
	t.replyWith(e, r.Message)
	return true
}

// replyWith ends the turn with a dialogue message that was already recorded.
func (t *turn) replyWith(e endpoint, msg string) {
	if msg == "" {
		t.say(e, msgRetry, domain.OutcomeRetry)
		return
	}
	t.finish(msg, domain.OutcomeReply)
}

// search looks up the requested place and presents the candidates. With
// candidates already cached for the same keyword, and no new place named
// in this turn, the user is answering them, so the step hands over to the
// conversational sub-state instead.
func (t *turn) search(ctx context.Context, e endpoint) bool {
	keyword := strings.TrimSpace(*e.requested)
	if keyword == "" || (!e.named && *e.query == keyword && len(*e.results) > 0) {
		t.s.SubState = domain.SubMain
		return false
	}

	results, err := call(ctx, t, collabSearch, func(ctx context.Context) ([]domain.Candidate, error) {
		return t.o.c.Search.SearchAddress(ctx, keyword)
	})
	if err != nil {
		t.finish(msgApology, domain.OutcomeApology)
		return true
	}

	// A new search voids any pending selection.
	*e.name = ""
	*e.address = ""
	*e.query = keyword
	if len(results) == 0 {
		*e.results = []domain.Candidate{}
		t.s.SubState = domain.SubMain
		t.say(e, e.notFound, domain.OutcomeDecline)
		return true
	}
	*e.results = results
	t.say(e, searchReply(e.label, results), domain.OutcomeReply)
	return true
}

// resolve geocodes the selected address. A nil result means the turn has
// its reply.
func (t *turn) resolve(ctx context.Context, e endpoint) *domain.Coord {
	if *e.address == "" && !adopt(e) {
		t.logger.Error("Coordinate stage without address",
			"state", e.state,
			"err", domain.ErrInvariantViolation,
		)
		t.s.State = domain.StateError
		// Leave the stage resumable: search again for a named place,
		// otherwise ask for one.
		t.s.SubState = domain.SubMain
		if strings.TrimSpace(*e.requested) != "" {
			t.s.SubState = domain.SubSearch
		}
		t.finish(msgApology, domain.OutcomeInvariant)
		return nil
	}

	address := *e.address
	coord, err := call(ctx, t, collabGeocoder, func(ctx context.Context) (*domain.Coord, error) {
		return t.o.c.Geocoder.Geocode(ctx, address)
	})
	if err != nil {
		t.finish(msgApology, domain.OutcomeApology)
		return nil
	}
	if coord == nil {
		t.say(e, e.coordNotFound, domain.OutcomeDecline)
		return nil
	}
	return coord
}

// adopt selects a cached candidate when the choice is unambiguous: the
// only one, or the one named exactly as requested.
func adopt(e endpoint) bool {
	results := *e.results
	var pick *domain.Candidate
	if len(results) == 1 {
		pick = &results[0]
	} else {
		for i := range results {
			if results[i].Name == strings.TrimSpace(*e.requested) {
				pick = &results[i]
				break
			}
		}
	}
	if pick == nil || pick.Address == "" {
		return false
	}
	*e.name = pick.Name
	*e.address = pick.Address
	return true
}

// main serves route guidance once both endpoints are known.
func (t *turn) main(ctx context.Context) bool {
	s := t.s
	if s.DestCoord == nil {
		t.logger.Warn("Main stage without destination, rerouting")
		t.reroute(t.dest())
		return false
	}
	if s.DepCoord == nil {
		t.logger.Warn("Main stage without departure, rerouting")
		t.reroute(t.dep())
		return false
	}

	if !s.RouteCached() {
		routes, ok := t.fetchRoutes(ctx)
		if !ok {
			return true
		}
		s.Route = routes
		t.logger.Info("Routes cached", "count", len(routes))
	}

	res, err := call(ctx, t, collabRoute, func(ctx context.Context) (domain.Parsed[domain.RouteReply], error) {
		return t.o.c.Route.RouteTurn(ctx, t.prior, s.Route, t.message)
	})
	if err != nil {
		t.finish(msgApology, domain.OutcomeApology)
		return true
	}
	if !res.OK {
		t.logger.Warn("Unparseable route reply", "raw", res.Raw)
		t.say(endpoint{}, msgRetry, domain.OutcomeRetry)
		return true
	}

	r := res.Value
	if r.Selection() {
		sel := domain.BusSelection{RouteNo: r.RouteNo, NodeID: r.NodeID}
		s.Bus = append(s.Bus, sel)
		return t.arrivals(ctx, sel)
	}
	if r.Message == "" {
		t.say(endpoint{}, msgRetry, domain.OutcomeRetry)
		return true
	}
	t.say(endpoint{}, r.Message, domain.OutcomeReply)
	return true
}

// fetchRoutes asks the provider for directions and normalizes them. It
// reports false when the turn has its reply.
func (t *turn) fetchRoutes(ctx context.Context) ([]domain.Itinerary, bool) {
	s := t.s
	dep, dest := *s.DepCoord, *s.DestCoord
	raw, err := call(ctx, t, collabDirections, func(ctx context.Context) ([]byte, error) {
		return t.o.c.Directions.FetchDirections(ctx, dep, dest)
	})
	if err != nil {
		t.finish(msgApology, domain.OutcomeApology)
		return nil, false
	}

	routes, err := call(ctx, t, collabNormalizer, func(ctx context.Context) ([]domain.Itinerary, error) {
		return t.o.c.Normalizer.Normalize(ctx, raw)
	})
	if err != nil {
		if isContextErr(err) {
			t.finish(msgApology, domain.OutcomeApology)
			return nil, false
		}
		// An undecodable tree carries no usable route.
		routes = nil
	}
	if len(routes) == 0 {
		t.say(endpoint{}, msgNoRoute, domain.OutcomeDecline)
		return nil, false
	}
	return routes, true
}

// arrivals answers a route selection with the next realtime arrival of
// that route at its boarding stop.
func (t *turn) arrivals(ctx context.Context, sel domain.BusSelection) bool {
	list, err := call(ctx, t, collabArrivals, func(ctx context.Context) ([]domain.Arrival, error) {
		return t.o.c.Arrivals.FetchArrivals(ctx, sel.NodeID, "")
	})
	if err != nil {
		t.finish(msgApology, domain.OutcomeApology)
		return true
	}
	for _, a := range list {
		if sameRoute(a.RouteNo, sel.RouteNo) {
			t.say(endpoint{}, arrivalReply(t.s.DestName, a), domain.OutcomeReply)
			return true
		}
	}
	t.say(endpoint{}, noArrivalReply(sel.RouteNo), domain.OutcomeDecline)
	return true
}

func sameRoute(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimSuffix(strings.TrimSpace(s), "번")
	}
	return norm(a) == norm(b)
}
