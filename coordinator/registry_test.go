package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_EnsureRoom(t *testing.T) {
	r := NewRegistry()

	first := r.EnsureRoom("r1")
	first.Players["a"] = &Player{ConnID: "a", Color: ColorBlack}

	second := r.EnsureRoom("r1")

	assert.Same(t, first, second)
	assert.Len(t, second.Players, 1)
	assert.Equal(t, 1, r.Len())

	r.EnsureRoom("R1")
	assert.Equal(t, 2, r.Len(), "room names are case-sensitive")
}

func TestRegistry_RemovePlayer(t *testing.T) {
	t.Run("drops the room when it empties", func(t *testing.T) {
		r := NewRegistry()
		r.EnsureRoom("r1").Players["a"] = &Player{ConnID: "a", Color: ColorBlack}

		removal, ok := r.RemovePlayer("a")

		require.True(t, ok)
		assert.Equal(t, "r1", removal.Room)
		assert.Equal(t, ColorBlack, removal.Player.Color)
		assert.True(t, removal.RoomDeleted)

		_, exists := r.Room("r1")
		assert.False(t, exists)
		assert.Zero(t, r.Len())
	})

	t.Run("keeps the room while others remain", func(t *testing.T) {
		r := NewRegistry()
		room := r.EnsureRoom("r1")
		room.Players["a"] = &Player{ConnID: "a", Color: ColorBlack}
		room.Players["b"] = &Player{ConnID: "b", Color: ColorWhite}

		removal, ok := r.RemovePlayer("a")

		require.True(t, ok)
		assert.False(t, removal.RoomDeleted)

		got, exists := r.Room("r1")
		require.True(t, exists)
		assert.Len(t, got.Players, 1)
		assert.Contains(t, got.Players, "b")
	})

	t.Run("unknown connection is a no-op", func(t *testing.T) {
		r := NewRegistry()
		r.EnsureRoom("r1").Players["a"] = &Player{ConnID: "a", Color: ColorBlack}

		_, ok := r.RemovePlayer("ghost")

		assert.False(t, ok)
		assert.Equal(t, 1, r.Len())
	})
}

func TestRegistry_Snapshots(t *testing.T) {
	r := NewRegistry()

	r1 := r.EnsureRoom("beta")
	r1.Players["a"] = &Player{ConnID: "a", Color: ColorBlack}
	r1.Players["b"] = &Player{ConnID: "b", Color: ColorWhite}
	r1.Players["s2"] = &Player{ConnID: "s2", Color: ColorSpectator}
	r1.Players["s1"] = &Player{ConnID: "s1", Color: ColorSpectator}

	r.EnsureRoom("alpha").Players["c"] = &Player{ConnID: "c", Color: ColorBlack}

	snaps := r.Snapshots()

	require.Len(t, snaps, 2)
	assert.Equal(t, "alpha", snaps[0].Name)
	assert.Equal(t, "beta", snaps[1].Name)

	beta := snaps[1]
	assert.Equal(t, "a", beta.Black)
	assert.Equal(t, "b", beta.White)
	assert.Equal(t, []string{"s1", "s2"}, beta.Spectators)
	assert.Equal(t, 4, beta.Players)
}
