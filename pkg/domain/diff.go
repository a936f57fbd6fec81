package domain

import (
	"bytes"
	"encoding/json"
	"sort"
)

// SessionDiff lists the slots that differ between two snapshots of a
// session. History logs are reported as appended entries only.
type SessionDiff struct {
	// Slots holds the new JSON value of every changed non-log slot.
	Slots map[string]json.RawMessage `json:"slots,omitempty"`

	// Appended holds messages added to message_history.
	Appended []Message `json:"appended,omitempty"`
}

// Diff calculates the difference between before and after.
// A nil before yields every slot of after (initial load).
func Diff(before, after *Session) (*SessionDiff, error) {
	if after == nil {
		return nil, nil
	}
	newFields, err := after.Flatten()
	if err != nil {
		return nil, err
	}
	oldFields := map[string]json.RawMessage{}
	if before != nil {
		if oldFields, err = before.Flatten(); err != nil {
			return nil, err
		}
	}

	diff := &SessionDiff{Slots: map[string]json.RawMessage{}}
	for k, v := range newFields {
		if k == "message_history" {
			continue
		}
		if old, ok := oldFields[k]; !ok || !bytes.Equal(old, v) {
			diff.Slots[k] = v
		}
	}
	diff.Appended = appendedMessages(before, after)

	if diff.IsEmpty() {
		return nil, nil
	}
	if len(diff.Slots) == 0 {
		diff.Slots = nil
	}
	return diff, nil
}

// Keys returns the changed slot names in sorted order.
func (d *SessionDiff) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.Slots))
	for k := range d.Slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty checks if the diff contains any change.
func (d *SessionDiff) IsEmpty() bool {
	return d == nil || (len(d.Slots) == 0 && len(d.Appended) == 0)
}

// appendedMessages assumes append-only history. A trimmed history is
// compared by its last common length.
func appendedMessages(before, after *Session) []Message {
	if before == nil {
		if len(after.MessageHistory) == 0 {
			return nil
		}
		return after.MessageHistory
	}
	oldLen, newLen := len(before.MessageHistory), len(after.MessageHistory)
	if newLen > oldLen {
		return after.MessageHistory[oldLen:]
	}
	return nil
}
