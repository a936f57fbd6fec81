package domain

// Role identifies the author of a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a dialogue log.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Coord is a WGS84 position. Longitude comes first, as providers expect.
type Coord struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Candidate is one address-search hit.
type Candidate struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lon     *float64 `json:"lon,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
}

// BusSelection is a specific route picked by the user while in MAIN.
type BusSelection struct {
	RouteNo string `json:"routeno"`
	NodeID  string `json:"nodeid"`
}

// Session is the durable per-user record of dialogue slots.
// Every slot default lives in NewSession.
type Session struct {
	State    MacroState `json:"state"`
	SubState SubState   `json:"sub_state"`

	MessageHistory  []Message `json:"message_history"`
	DestStepHistory []Message `json:"history_set_dest_step"`
	DepStepHistory  []Message `json:"history_set_dep_step"`

	RequestedDep  string `json:"requested_dep"`
	RequestedDest string `json:"requested_dest"`

	DepName     string `json:"dep_name"`
	DestName    string `json:"dest_name"`
	DepAddress  string `json:"dep_address"`
	DestAddress string `json:"dest_address"`

	DepSearchResults  []Candidate `json:"dep_search_results"`
	DestSearchResults []Candidate `json:"dest_search_results"`
	// Keyword that produced the cached results above.
	DepSearchQuery  string `json:"dep_search_query"`
	DestSearchQuery string `json:"dest_search_query"`

	DepCoord  *Coord `json:"dep_coord"`
	DestCoord *Coord `json:"dest_coord"`
	UserGPS   *Coord `json:"user_gps"`

	Route []Itinerary    `json:"route"`
	Bus   []BusSelection `json:"bus"`

	RequiresDepCoord  bool `json:"requires_dep_coord"`
	RequiresDestCoord bool `json:"requires_dest_coord"`
	ErrorFlag         bool `json:"error_flag"`
	EnableMain        bool `json:"enable_main"`
}

// NewSession returns a record with every slot at its default.
func NewSession() *Session {
	return &Session{
		State:             StateSetDest,
		SubState:          SubMain,
		MessageHistory:    []Message{},
		DestStepHistory:   []Message{},
		DepStepHistory:    []Message{},
		DepSearchResults:  []Candidate{},
		DestSearchResults: []Candidate{},
		Route:             []Itinerary{},
		Bus:               []BusSelection{},
	}
}

// RouteCached reports whether itineraries are cached for the current pair.
func (s *Session) RouteCached() bool {
	return len(s.Route) > 0
}

// SetDestCoord stores the destination and drops the route cache when the
// position changed.
func (s *Session) SetDestCoord(c Coord) {
	if s.DestCoord == nil || *s.DestCoord != c {
		s.invalidateRoute()
	}
	s.DestCoord = &c
}

// SetDepCoord stores the departure and drops the route cache when the
// position changed.
func (s *Session) SetDepCoord(c Coord) {
	if s.DepCoord == nil || *s.DepCoord != c {
		s.invalidateRoute()
	}
	s.DepCoord = &c
}

func (s *Session) invalidateRoute() {
	s.Route = []Itinerary{}
	s.Bus = []BusSelection{}
}

// TrimHistory keeps only the most recent limit entries of every log.
// A non-positive limit disables trimming.
func (s *Session) TrimHistory(limit int) {
	if limit <= 0 {
		return
	}
	s.MessageHistory = tail(s.MessageHistory, limit)
	s.DestStepHistory = tail(s.DestStepHistory, limit)
	s.DepStepHistory = tail(s.DepStepHistory, limit)
}

func tail(msgs []Message, n int) []Message {
	if len(msgs) <= n {
		return msgs
	}
	out := make([]Message, n)
	copy(out, msgs[len(msgs)-n:])
	return out
}

// Clone returns a deep copy, so stores can hand out records the caller may
// mutate freely.
func (s *Session) Clone() *Session {
	c := *s
	c.MessageHistory = cloneSlice(s.MessageHistory)
	c.DestStepHistory = cloneSlice(s.DestStepHistory)
	c.DepStepHistory = cloneSlice(s.DepStepHistory)
	c.DepSearchResults = cloneCandidates(s.DepSearchResults)
	c.DestSearchResults = cloneCandidates(s.DestSearchResults)
	c.DepCoord = cloneCoord(s.DepCoord)
	c.DestCoord = cloneCoord(s.DestCoord)
	c.UserGPS = cloneCoord(s.UserGPS)
	c.Bus = cloneSlice(s.Bus)
	if s.Route != nil {
		c.Route = make([]Itinerary, len(s.Route))
		for i, it := range s.Route {
			c.Route[i] = it.Clone()
		}
	}
	return &c
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneCoord(c *Coord) *Coord {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func cloneCandidates(in []Candidate) []Candidate {
	if in == nil {
		return nil
	}
	out := make([]Candidate, len(in))
	for i, c := range in {
		out[i] = c
		if c.Lon != nil {
			v := *c.Lon
			out[i].Lon = &v
		}
		if c.Lat != nil {
			v := *c.Lat
			out[i].Lat = &v
		}
	}
	return out
}
