package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession()
	assert.Equal(t, StateSetDest, s.State)
	assert.Equal(t, SubMain, s.SubState)
	assert.Nil(t, s.DestCoord)
	assert.Nil(t, s.DepCoord)
	assert.False(t, s.RouteCached())
	assert.NotNil(t, s.MessageHistory)
}

func TestSession_FlattenRoundTrip(t *testing.T) {
	s := NewSession()
	s.State = StateMain
	s.SetDestCoord(Coord{Lon: 126.97, Lat: 37.55})
	s.Route = []Itinerary{{TotalTime: 10, BusRoutes: []BusRoute{{RouteName: "502"}}}}

	fields, err := s.Flatten()
	require.NoError(t, err)
	assert.JSONEq(t, `"main"`, string(fields["state"]))
	assert.JSONEq(t, `{"lon":126.97,"lat":37.55}`, string(fields["dest_coord"]))
	assert.JSONEq(t, `null`, string(fields["dep_coord"]))

	got, err := Unflatten(fields)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestUnflatten_MissingFieldsKeepDefaults(t *testing.T) {
	got, err := Unflatten(map[string]json.RawMessage{"requested_dest": json.RawMessage(`"서울역"`)})
	require.NoError(t, err)
	assert.Equal(t, "서울역", got.RequestedDest)
	assert.Equal(t, StateSetDest, got.State)
	assert.Equal(t, SubMain, got.SubState)
}

func TestSession_SlotAccess(t *testing.T) {
	s := NewSession()

	require.NoError(t, s.SetSlot("requested_dest", "대전역"))
	assert.Equal(t, "대전역", s.RequestedDest)

	raw, err := s.Slot("requested_dest")
	require.NoError(t, err)
	assert.JSONEq(t, `"대전역"`, string(raw))

	require.NoError(t, s.SetSlot("dest_coord", Coord{Lon: 1, Lat: 2}))
	assert.Equal(t, &Coord{Lon: 1, Lat: 2}, s.DestCoord)

	_, err = s.Slot("nope")
	assert.ErrorIs(t, err, ErrUnknownSlot)
	assert.ErrorIs(t, s.SetSlot("nope", 1), ErrUnknownSlot)

	err = s.SetSlot("enable_main", "not-a-bool")
	assert.Error(t, err)
	assert.False(t, s.EnableMain)
	assert.Equal(t, "대전역", s.RequestedDest)
}

func TestSession_CoordChangeInvalidatesRoute(t *testing.T) {
	s := NewSession()
	s.SetDestCoord(Coord{Lon: 1, Lat: 1})
	s.Route = []Itinerary{{TotalTime: 5}}
	s.Bus = []BusSelection{{RouteNo: "1", NodeID: "N"}}

	s.SetDestCoord(Coord{Lon: 1, Lat: 1})
	assert.True(t, s.RouteCached(), "same coordinate keeps the cache")

	s.SetDepCoord(Coord{Lon: 2, Lat: 2})
	assert.False(t, s.RouteCached())
	assert.Empty(t, s.Bus)
}

func TestSession_TrimHistory(t *testing.T) {
	s := NewSession()
	for i := 0; i < 5; i++ {
		s.MessageHistory = append(s.MessageHistory, Message{Role: RoleUser, Content: string(rune('a' + i))})
	}
	s.TrimHistory(2)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "d"}, {Role: RoleUser, Content: "e"}}, s.MessageHistory)

	s.TrimHistory(0)
	assert.Len(t, s.MessageHistory, 2)
}

func TestSession_CloneIsDeep(t *testing.T) {
	lon := 1.0
	s := NewSession()
	s.DestSearchResults = []Candidate{{Name: "A", Lon: &lon}}
	s.SetDestCoord(Coord{Lon: 1, Lat: 2})
	s.Route = []Itinerary{{BusRoutes: []BusRoute{{RouteName: "1"}}}}

	c := s.Clone()
	*c.DestSearchResults[0].Lon = 9
	c.DestCoord.Lat = 9
	c.Route[0].BusRoutes[0].RouteName = "x"

	assert.Equal(t, 1.0, *s.DestSearchResults[0].Lon)
	assert.Equal(t, 2.0, s.DestCoord.Lat)
	assert.Equal(t, "1", s.Route[0].BusRoutes[0].RouteName)
}

func TestParseMacroState(t *testing.T) {
	for in, want := range map[string]MacroState{
		"set_dest": StateSetDest,
		"SET_DEP":  StateSetDep,
		" main ":   StateMain,
		"Error":    StateError,
	} {
		got, ok := ParseMacroState(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseMacroState("weather")
	assert.False(t, ok)
}
