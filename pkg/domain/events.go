package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStageEnter         EventType = "stage_enter"
	EventCollaboratorReturn EventType = "collaborator_return"
	EventTurnComplete       EventType = "turn_complete"
)

// TurnOutcome summarises how a turn ended.
type TurnOutcome string

const (
	OutcomeReply     TurnOutcome = "reply"     // Regular stage reply
	OutcomeDecline   TurnOutcome = "decline"   // Lookup empty or off-topic
	OutcomeRetry     TurnOutcome = "retry"     // Unparseable model output
	OutcomeApology   TurnOutcome = "apology"   // Collaborator failure
	OutcomeInvariant TurnOutcome = "invariant" // Missing prerequisite slot
	OutcomeAborted   TurnOutcome = "aborted"   // Cascade limit or stall
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id"`
}

// StageEvent is emitted each time a handler step runs.
type StageEvent struct {
	EventBase
	State    MacroState `json:"state"`
	SubState SubState   `json:"sub_state"`
}

// CollaboratorEvent is emitted after every external call.
type CollaboratorEvent struct {
	EventBase
	Collaborator string        `json:"collaborator"`
	Duration     time.Duration `json:"duration"`
	IsError      bool          `json:"is_error,omitempty"`
}

// TurnEvent is emitted once per turn.
type TurnEvent struct {
	EventBase
	Outcome    TurnOutcome `json:"outcome"`
	Steps      int         `json:"steps"`
	Handoffs   int         `json:"handoffs"`
	FinalState MacroState  `json:"final_state"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStageEnter         func(context.Context, *StageEvent)
	OnCollaboratorReturn func(context.Context, *CollaboratorEvent)
	OnTurnComplete       func(context.Context, *TurnEvent)
}
