package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	t.Run("Initial Load (Before is Nil)", func(t *testing.T) {
		after := NewSession()
		after.MessageHistory = append(after.MessageHistory, Message{Role: RoleUser, Content: "hi"})

		d, err := Diff(nil, after)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Contains(t, d.Keys(), "state")
		assert.NotContains(t, d.Keys(), "message_history")
		assert.Len(t, d.Appended, 1)
	})

	t.Run("No Changes", func(t *testing.T) {
		s := NewSession()
		d, err := Diff(s, s.Clone())
		require.NoError(t, err)
		assert.Nil(t, d)
		assert.True(t, d.IsEmpty())
	})

	t.Run("Slot And History Changes", func(t *testing.T) {
		before := NewSession()
		before.MessageHistory = []Message{{Role: RoleUser, Content: "a"}}
		after := before.Clone()
		after.RequestedDest = "서울역"
		after.SubState = SubSearch
		after.MessageHistory = append(after.MessageHistory, Message{Role: RoleAssistant, Content: "b"})

		d, err := Diff(before, after)
		require.NoError(t, err)
		assert.Equal(t, []string{"requested_dest", "sub_state"}, d.Keys())
		assert.JSONEq(t, `"서울역"`, string(d.Slots["requested_dest"]))
		assert.Equal(t, []Message{{Role: RoleAssistant, Content: "b"}}, d.Appended)
	})
}
