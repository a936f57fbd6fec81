package itinerary_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/itinerary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver maps a coordinate to a node id derived from it.
type stubResolver struct {
	mu    sync.Mutex
	calls int
	fail  map[float64]bool
}

func (r *stubResolver) NearestStation(_ context.Context, lat, lon float64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail[lat] {
		return "", errors.New("lookup failed")
	}
	return fmt.Sprintf("CJB%.3f_%.3f", lat, lon), nil
}

func tree(entries ...any) []byte {
	data, _ := json.Marshal(map[string]any{
		"metaData": map[string]any{"plan": map[string]any{"itineraries": entries}},
	})
	return data
}

func walk(sec int) map[string]any {
	return map[string]any{"mode": "WALK", "sectionTime": sec, "distance": 100,
		"start": map[string]any{"name": "A"}, "end": map[string]any{"name": "B"}}
}

func bus(route string, stops ...map[string]any) map[string]any {
	list := make([]any, len(stops))
	for i, s := range stops {
		list[i] = s
	}
	return map[string]any{"mode": "BUS", "route": route, "sectionTime": 600,
		"passStopList": map[string]any{"stationList": list}}
}

func stop(name string, lat, lon float64) map[string]any {
	return map[string]any{"stationName": name, "lat": fmt.Sprint(lat), "lon": fmt.Sprint(lon)}
}

func entry(totalTime int, legs ...any) map[string]any {
	return map[string]any{
		"totalTime":     totalTime,
		"transferCount": 0,
		"fare":          map[string]any{"regular": map[string]any{"totalFare": 1500}},
		"legs":          legs,
	}
}

func TestNormalize_Fixture(t *testing.T) {
	raw, err := os.ReadFile("testdata/directions.json")
	require.NoError(t, err)

	n := itinerary.New(&stubResolver{})
	got, err := n.Normalize(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, got, 2, "the pure-walk itinerary is dropped")

	first := got[0]
	assert.Equal(t, 33, first.TotalTime)
	assert.Equal(t, 1500, first.Fare)
	assert.Equal(t, 1, first.TransferCount)
	assert.Equal(t, 10, first.TotalWalkTime)
	assert.Equal(t, []domain.BusRoute{
		{RouteName: "간선:502", StartStation: "충북대학교", EndStation: "사창사거리", StartNodeID: "CJB36.628_127.456"},
		{RouteName: "지선:814", StartStation: "사창사거리 건너편", EndStation: "청주역", StartNodeID: "CJB36.634_127.471"},
	}, first.BusRoutes)
	require.Len(t, first.WalkSegments, 3)
	assert.Equal(t, domain.WalkStartToStation, first.WalkSegments[0].Type)
	assert.Equal(t, domain.WalkTransfer, first.WalkSegments[1].Type)
	assert.Equal(t, domain.WalkStationToDest, first.WalkSegments[2].Type)
	assert.Equal(t, 310, first.WalkSegments[0].Distance)
	assert.Equal(t, 4, first.WalkSegments[0].Time)

	second := got[1]
	assert.Equal(t, 40, second.TotalTime)
	assert.Equal(t, itinerary.UnknownRoute, second.BusRoutes[0].RouteName)
	assert.Equal(t, "CJB36.620_127.430", second.BusRoutes[0].StartNodeID)
}

func TestNormalize_EmptyInputs(t *testing.T) {
	n := itinerary.New(&stubResolver{})
	for name, raw := range map[string][]byte{
		"nil":               nil,
		"null":              []byte("null"),
		"empty tree":        []byte(`{}`),
		"no plan":           []byte(`{"metaData":{}}`),
		"no entries":        tree(),
		"normalized":        []byte("[]"),
		"normalized padded": []byte(" [ ]\n"),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := n.Normalize(context.Background(), raw)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestNormalize_InvalidEnvelope(t *testing.T) {
	_, err := itinerary.New(&stubResolver{}).Normalize(context.Background(), []byte("<html>"))
	assert.Error(t, err)
}

func TestNormalize_BusLegsWithoutStopsExcludeItinerary(t *testing.T) {
	raw := tree(entry(600, walk(60), bus("1"), walk(60), bus("2"), walk(60)))

	r := &stubResolver{}
	got, err := itinerary.New(r).Normalize(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, r.calls)
}

func TestNormalize_EmptyStopListSkipsOnlyThatLeg(t *testing.T) {
	raw := tree(entry(600, walk(60), bus("1"), walk(60), bus("2", stop("S", 36.1, 127.1)), walk(60)))

	got, err := itinerary.New(&stubResolver{}).Normalize(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].BusRoutes, 1)
	assert.Equal(t, "2", got[0].BusRoutes[0].RouteName)
	// Classification looks at the raw neighbours, skipped or not.
	assert.Equal(t, domain.WalkTransfer, got[0].WalkSegments[1].Type)
}

func TestNormalize_WalkClassification(t *testing.T) {
	s := stop("S", 36.1, 127.1)
	tests := []struct {
		name string
		legs []any
		want []domain.WalkType
	}{
		{"start then bus", []any{walk(60), bus("1", s)}, []domain.WalkType{domain.WalkStartToStation}},
		{"between buses", []any{bus("1", s), walk(60), bus("2", s)}, []domain.WalkType{domain.WalkTransfer}},
		{"bus then end", []any{bus("1", s), walk(60)}, []domain.WalkType{domain.WalkStationToDest}},
		{"subway neighbour", []any{walk(60), map[string]any{"mode": "SUBWAY"}, bus("1", s)}, []domain.WalkType{domain.WalkUnknown}},
		{"walk after walk", []any{bus("1", s), walk(60), walk(60)}, []domain.WalkType{domain.WalkUnknown, domain.WalkUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := itinerary.New(&stubResolver{}).Normalize(context.Background(), tree(entry(600, tt.legs...)))
			require.NoError(t, err)
			require.Len(t, got, 1)
			var types []domain.WalkType
			for _, w := range got[0].WalkSegments {
				types = append(types, w.Type)
			}
			assert.Equal(t, tt.want, types)
		})
	}
}

func TestNormalize_PartialFailureIsolation(t *testing.T) {
	entries := make([]any, 0, 10)
	for i := 0; i < 10; i++ {
		lat := 36.0 + float64(i)/100
		entries = append(entries, entry(60*(i+1), walk(60), bus(fmt.Sprint(i), stop("S", lat, 127.0)), walk(60)))
	}
	// Entry 4 carries an unparseable coordinate.
	entries[4] = entry(300, walk(60), bus("4", map[string]any{"stationName": "S", "lat": "north", "lon": "127"}))

	n := itinerary.New(&stubResolver{})
	got, err := n.Normalize(context.Background(), tree(entries...))
	require.NoError(t, err)
	require.Len(t, got, 9)

	var routes []string
	for _, it := range got {
		routes = append(routes, it.BusRoutes[0].RouteName)
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "5", "6", "7", "8", "9"}, routes)

	again, err := n.Normalize(context.Background(), tree(entries...))
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestNormalize_MalformedShapesAreSkipped(t *testing.T) {
	good := entry(600, walk(60), bus("ok", stop("S", 36.1, 127.1)))
	raw := tree(
		"not an object",
		map[string]any{"legs": "oops"},
		map[string]any{"totalTime": "soon", "legs": []any{}},
		good,
	)
	got, err := itinerary.New(&stubResolver{}).Normalize(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].BusRoutes[0].RouteName)
}

func TestNormalize_ResolverFailureSkipsItinerary(t *testing.T) {
	raw := tree(
		entry(600, bus("bad", stop("S", 36.5, 127.1))),
		entry(600, bus("good", stop("S", 36.6, 127.1))),
	)
	r := &stubResolver{fail: map[float64]bool{36.5: true}}
	got, err := itinerary.New(r).Normalize(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].BusRoutes[0].RouteName)
}

func TestNormalize_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := itinerary.New(&stubResolver{}).Normalize(ctx, tree(entry(60, bus("1", stop("S", 1, 1)))))
	assert.ErrorIs(t, err, context.Canceled)
}
