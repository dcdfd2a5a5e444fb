package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_AddPresence(t *testing.T) {
	t.Run("First player gets light, second gets dark", func(t *testing.T) {
		// Given: an empty match
		match := NewMatch("m1")

		// When: two players join
		require.True(t, match.AddPresence(Presence{UserID: "a"}))
		require.True(t, match.AddPresence(Presence{UserID: "b"}))

		// Then: seats follow join order and the match is full
		color, ok := match.ColorOf("a")
		require.True(t, ok)
		assert.Equal(t, Light, color)

		color, ok = match.ColorOf("b")
		require.True(t, ok)
		assert.Equal(t, Dark, color)
		assert.True(t, match.IsFull())
	})

	t.Run("Third player is refused", func(t *testing.T) {
		match := NewMatch("m1")
		match.AddPresence(Presence{UserID: "a"})
		match.AddPresence(Presence{UserID: "b"})

		assert.False(t, match.AddPresence(Presence{UserID: "c"}))
		assert.Len(t, match.Presences, 2)
	})

	t.Run("Rejoining player keeps their seat", func(t *testing.T) {
		// Given: light left a full match
		match := NewMatch("m1")
		match.AddPresence(Presence{UserID: "a"})
		match.AddPresence(Presence{UserID: "b"})
		_, removed := match.RemovePresence("a")
		require.True(t, removed)

		// When: light comes back
		ok := match.AddPresence(Presence{UserID: "a", SessionID: "s2"})

		// Then: the seat is the same
		require.True(t, ok)
		color, _ := match.ColorOf("a")
		assert.Equal(t, Light, color)
		assert.Equal(t, []Presence{{UserID: "b"}}, match.Others("a"))
	})

	t.Run("Duplicate presence is refused", func(t *testing.T) {
		match := NewMatch("m1")
		match.AddPresence(Presence{UserID: "a"})

		assert.False(t, match.AddPresence(Presence{UserID: "a"}))
	})
}

func TestMatch_RemovePresence(t *testing.T) {
	match := NewMatch("m1")
	match.AddPresence(Presence{UserID: "a"})

	_, ok := match.RemovePresence("missing")
	assert.False(t, ok)

	presence, ok := match.RemovePresence("a")
	assert.True(t, ok)
	assert.Equal(t, "a", presence.UserID)
	assert.False(t, match.HasUser("a"))
}
