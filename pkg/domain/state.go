package domain

import "strings"

// MacroState is the top-level dialogue phase of a session.
type MacroState string

const (
	StateSetDest MacroState = "set_dest" // Resolving the destination
	StateSetDep  MacroState = "set_dep"  // Resolving the departure point
	StateMain    MacroState = "main"     // Both endpoints known, route guidance
	StateError   MacroState = "error"    // Off-topic or broken turn
)

// SubState is the phase inside SET_DEST or SET_DEP.
type SubState string

const (
	SubMain   SubState = "main"   // Conversational selection
	SubSearch SubState = "search" // Keyword search on the requested place
	SubCoord  SubState = "coord"  // Geocoding of the selected address
)

// ParseMacroState accepts both the wire form ("set_dest") and the
// upper-case form ("SET_DEST"). Unknown values report false.
func ParseMacroState(s string) (MacroState, bool) {
	switch MacroState(strings.ToLower(strings.TrimSpace(s))) {
	case StateSetDest:
		return StateSetDest, true
	case StateSetDep:
		return StateSetDep, true
	case StateMain:
		return StateMain, true
	case StateError:
		return StateError, true
	}
	return "", false
}

// Stage returns true for the macro-states that own a sub-state machine.
func (m MacroState) Stage() bool {
	return m == StateSetDest || m == StateSetDep
}
