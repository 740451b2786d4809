package coordinator

import (
	"sort"
	"time"
)

// Registry maps room names to rooms. It is not safe for concurrent use; the
// Coordinator serializes access to it.
type Registry struct {
	rooms map[string]*Room
	now   func() time.Time
}

// Removal describes what RemovePlayer took out of the registry.
type Removal struct {
	Room        string
	Player      Player
	RoomDeleted bool
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		now:   time.Now,
	}
}

// EnsureRoom returns the room called name, creating an empty one if needed.
func (r *Registry) EnsureRoom(name string) *Room {
	room, ok := r.rooms[name]

	if !ok {
		room = newRoom(name, r.now())
		r.rooms[name] = room
	}

	return room
}

// RemovePlayer deletes connID from the first room holding it and drops that
// room once it is empty. A connection belongs to at most one room, so the scan
// stops at the first hit.
func (r *Registry) RemovePlayer(connID string) (Removal, bool) {
	for name, room := range r.rooms {
		player, ok := room.Players[connID]
		if !ok {
			continue
		}

		delete(room.Players, connID)
		room.UpdatedAt = r.now()

		removal := Removal{Room: name, Player: *player}

		if len(room.Players) == 0 {
			delete(r.rooms, name)
			removal.RoomDeleted = true
		}

		return removal, true
	}

	return Removal{}, false
}

func (r *Registry) Room(name string) (*Room, bool) {
	room, ok := r.rooms[name]
	return room, ok
}

func (r *Registry) Len() int {
	return len(r.rooms)
}

// Snapshots returns every room sorted by name.
func (r *Registry) Snapshots() []RoomSnapshot {
	snaps := make([]RoomSnapshot, 0, len(r.rooms))

	for _, room := range r.rooms {
		snaps = append(snaps, room.Snapshot())
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Name < snaps[j].Name
	})

	return snaps
}
