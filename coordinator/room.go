package coordinator

import (
	"sort"
	"time"
)

type Player struct {
	ConnID string
	Color  Color
	// UndoRequestsUsed is reserved for an undo budget. Nothing reads or
	// increments it yet.
	UndoRequestsUsed int
	JoinedAt         time.Time
}

type Room struct {
	Name      string
	Players   map[string]*Player
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newRoom(name string, now time.Time) *Room {
	return &Room{
		Name:      name,
		Players:   make(map[string]*Player),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RoomSnapshot is a copy of a room's membership that is safe to hand out of
// the coordinator.
type RoomSnapshot struct {
	Name       string    `json:"name"`
	Black      string    `json:"black,omitempty"`
	White      string    `json:"white,omitempty"`
	Spectators []string  `json:"spectators"`
	Players    int       `json:"players"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r *Room) Snapshot() RoomSnapshot {
	snap := RoomSnapshot{
		Name:       r.Name,
		Spectators: make([]string, 0),
		Players:    len(r.Players),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}

	for id, p := range r.Players {
		switch p.Color {
		case ColorBlack:
			snap.Black = id
		case ColorWhite:
			snap.White = id
		default:
			snap.Spectators = append(snap.Spectators, id)
		}
	}

	sort.Strings(snap.Spectators)

	return snap
}
