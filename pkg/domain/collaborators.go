package domain

// Classification is the intent classifier's verdict for one utterance.
type Classification struct {
	State             MacroState `json:"state"`
	Dep               string     `json:"dep"`
	Dest              string     `json:"dest"`
	RequiresDepCoord  bool       `json:"requires_dep_coord"`
	RequiresDestCoord bool       `json:"requires_dest_coord"`
	Error             bool       `json:"error"`
}

// DestReply is the SET_DEST dialogue output.
type DestReply struct {
	Message     string `json:"message"`
	Dest        string `json:"dest"`
	DestAddress string `json:"dest_address"`
}

// DepReply is the SET_DEP dialogue output.
type DepReply struct {
	Message    string `json:"message"`
	Dep        string `json:"dep"`
	DepAddress string `json:"dep_address"`
	UseGPS     bool   `json:"use_gps"`
}

// RouteReply is the MAIN dialogue output: either a summary message or a
// specific route selection.
type RouteReply struct {
	Message string `json:"message"`
	RouteNo string `json:"routeno"`
	NodeID  string `json:"nodeid"`
}

// Selection reports whether the reply picked a specific route.
func (r RouteReply) Selection() bool {
	return r.RouteNo != "" && r.NodeID != ""
}

// Arrival is one realtime arrival prediction at a stop. ArrTime is seconds.
type Arrival struct {
	RouteNo           string `json:"routeno"`
	NodeName          string `json:"nodenm"`
	ArrPrevStationCnt int    `json:"arrprevstationcnt"`
	ArrTime           int    `json:"arrtime"`
}

// Parsed carries a model payload together with whether the raw output
// could be decoded. Callers branch on OK instead of inspecting defaults.
type Parsed[T any] struct {
	Value T
	OK    bool
	Raw   string
}

// ParsedOK wraps a successfully decoded value.
func ParsedOK[T any](v T, raw string) Parsed[T] {
	return Parsed[T]{Value: v, OK: true, Raw: raw}
}

// ParseFailed records raw output that could not be decoded.
func ParseFailed[T any](raw string) Parsed[T] {
	return Parsed[T]{Raw: raw}
}
