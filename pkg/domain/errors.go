package domain

import "errors"

// ErrSessionNotFound is returned when a user has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownSlot is returned for slot names that are not part of the schema.
var ErrUnknownSlot = errors.New("unknown session slot")

// ErrInvariantViolation marks a stage entered without its prerequisite slot.
var ErrInvariantViolation = errors.New("session invariant violated")

// ErrCascadeLimit is returned when a turn hands off between handlers more
// often than allowed.
var ErrCascadeLimit = errors.New("cascade limit exceeded")

// ErrNoProgress is returned when a handler asks to continue without
// changing state or sub-state.
var ErrNoProgress = errors.New("handler continued without progress")

// ErrEmptyInput is returned for blank user messages.
var ErrEmptyInput = errors.New("empty user message")
