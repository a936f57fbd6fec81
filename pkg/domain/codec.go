package domain

import (
	"encoding/json"
	"fmt"
)

// Flatten encodes the session as a flat slot-name → JSON-value mapping,
// the layout used by the key-value stores.
func (s *Session) Flatten() (map[string]json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to split session fields: %w", err)
	}
	return fields, nil
}

// Unflatten rebuilds a session from a flat mapping. Slots missing from the
// mapping keep their defaults.
func Unflatten(fields map[string]json.RawMessage) (*Session, error) {
	s := NewSession()
	if len(fields) == 0 {
		return s, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to join session fields: %w", err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return s, nil
}

// Slot returns the JSON value of a single slot.
func (s *Session) Slot(key string) (json.RawMessage, error) {
	fields, err := s.Flatten()
	if err != nil {
		return nil, err
	}
	raw, ok := fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, key)
	}
	return raw, nil
}

// SetSlot overwrites a single slot with the JSON encoding of value.
// The session is left untouched when the value does not fit the slot.
func (s *Session) SetSlot(key string, value any) error {
	fields, err := s.Flatten()
	if err != nil {
		return err
	}
	if _, ok := fields[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal slot %q: %w", key, err)
	}
	fields[key] = raw
	next, err := Unflatten(fields)
	if err != nil {
		return fmt.Errorf("slot %q: %w", key, err)
	}
	*s = *next
	return nil
}
