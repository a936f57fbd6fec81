package domain

// WalkType classifies a walking segment by its neighbouring legs.
type WalkType string

const (
	WalkStartToStation WalkType = "start_to_station"
	WalkTransfer       WalkType = "transfer"
	WalkStationToDest  WalkType = "station_to_dest"
	WalkUnknown        WalkType = "unknown"
)

// BusRoute is one boarded bus of an itinerary.
type BusRoute struct {
	RouteName    string `json:"route_name"`
	StartStation string `json:"start_station"`
	EndStation   string `json:"end_station"`
	StartNodeID  string `json:"start_nodeid"`
}

// WalkSegment is one walking leg. Time is in minutes, distance in meters.
type WalkSegment struct {
	Type      WalkType `json:"type"`
	Distance  int      `json:"distance"`
	Time      int      `json:"time"`
	StartName string   `json:"start_name"`
	EndName   string   `json:"end_name"`
}

// Itinerary is one normalized route option. Times are in minutes.
type Itinerary struct {
	TotalTime     int           `json:"total_time"`
	Fare          int           `json:"fare"`
	TransferCount int           `json:"transfer_count"`
	TotalWalkTime int           `json:"total_walk_time"`
	BusRoutes     []BusRoute    `json:"bus_routes"`
	WalkSegments  []WalkSegment `json:"walk_segments"`
}

// Clone returns a deep copy.
func (it Itinerary) Clone() Itinerary {
	it.BusRoutes = cloneSlice(it.BusRoutes)
	it.WalkSegments = cloneSlice(it.WalkSegments)
	return it
}
