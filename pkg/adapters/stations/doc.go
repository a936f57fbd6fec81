// Package stations resolves coordinates to the nearest bus stop node id.
//
// The STATION table carries one row per stop:
//
//	nodeid TEXT PRIMARY KEY, nodenm TEXT, gpslati REAL, gpslong REAL
//
// Distance is the squared difference in degrees, which is adequate for
// ranking stops inside a single city.
package stations

// Station is one row of the STATION table.
type Station struct {
	NodeID string
	Name   string
	Lat    float64
	Lon    float64
}
