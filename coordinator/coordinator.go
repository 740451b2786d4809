// Package coordinator owns room membership for a two-player game: which
// connections are in which room, who plays black or white, and how game
// events fan out to everyone in a room.
package coordinator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrEmptyRoomName = errors.New("room name must not be empty")

// Transport is the connection layer the coordinator drives. Implementations
// must not block: the coordinator calls them while holding its lock.
type Transport interface {
	// JoinGroup associates a connection with a room so room emits reach it.
	JoinGroup(connID, room string)
	// EmitToRoom sends a named event to every connection grouped under room.
	EmitToRoom(room, event string, payload json.RawMessage)
	// EmitTo sends a named event to one connection.
	EmitTo(connID, event string, payload json.RawMessage)
}

// RoomObserver is told about room changes after they happen. Implementations
// must not block.
type RoomObserver interface {
	RoomUpdated(snapshot RoomSnapshot)
	RoomRemoved(name string)
}

type Option func(*Coordinator)

func WithObserver(o RoomObserver) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

// WithPeerDisconnectNotice makes Disconnect emit peerDisconnected to the rest
// of the room.
func WithPeerDisconnectNotice(enabled bool) Option {
	return func(c *Coordinator) {
		c.notifyPeers = enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.registry.now = now
	}
}

// Coordinator serializes every operation under one mutex, including the calls
// it makes into the Transport, so a join always sees a consistent set of
// occupants and relays into a room leave in the order they arrived.
type Coordinator struct {
	mu          sync.Mutex
	registry    *Registry
	transport   Transport
	observer    RoomObserver
	notifyPeers bool
	log         *slog.Logger
}

func New(t Transport, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:  NewRegistry(),
		transport: t,
		observer:  noopObserver{},
		log:       slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Join adds connID to room and tells it which color it got. Joining the same
// room twice recomputes the color against the current occupants, the
// connection's own previous entry included, and overwrites that entry.
// Any room name is accepted except the empty one, which returns
// ErrEmptyRoomName and leaves all state untouched.
func (c *Coordinator) Join(connID, room string) (Color, error) {
	if room == "" {
		return "", ErrEmptyRoomName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.transport.JoinGroup(connID, room)

	r := c.registry.EnsureRoom(room)
	color := AssignColor(r.Players)
	now := c.registry.now()

	r.Players[connID] = &Player{
		ConnID:           connID,
		Color:            color,
		UndoRequestsUsed: 0,
		JoinedAt:         now,
	}
	r.UpdatedAt = now

	payload, err := json.Marshal(PayloadAssignColor{Color: color, Room: room})
	if err != nil {
		return "", err
	}

	c.transport.EmitTo(connID, EventAssignColor, payload)
	c.observer.RoomUpdated(r.Snapshot())

	c.log.Info("player joined room", "room", room, "connId", connID, "color", color, "players", len(r.Players))

	return color, nil
}

// Relay forwards payload unchanged to every connection in the room named by
// its "room" field, the sender included. Anything that cannot be relayed is
// logged and dropped.
func (c *Coordinator) Relay(from, event string, payload json.RawMessage) {
	if !IsRelayEvent(event) {
		c.log.Warn("not a relay event", "event", event, "connId", from)
		return
	}

	var target relayTarget
	if err := json.Unmarshal(payload, &target); err != nil {
		c.log.Warn("relay payload has no usable room", "event", event, "connId", from, "error", err)
		return
	}

	if target.Room == "" {
		c.log.Warn("relay payload has no room", "event", event, "connId", from)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Debug("relaying event", "event", event, "room", target.Room, "connId", from)

	c.transport.EmitToRoom(target.Room, event, payload)
}

// Disconnect removes connID from whichever room holds it.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removal, ok := c.registry.RemovePlayer(connID)
	if !ok {
		return
	}

	c.log.Info("player left room", "room", removal.Room, "connId", connID, "color", removal.Player.Color)

	if removal.RoomDeleted {
		c.observer.RoomRemoved(removal.Room)
		c.log.Info("room removed", "room", removal.Room)
		return
	}

	if r, ok := c.registry.Room(removal.Room); ok {
		c.observer.RoomUpdated(r.Snapshot())
	}

	if c.notifyPeers {
		payload, err := json.Marshal(PayloadPeerDisconnected{Room: removal.Room, Color: removal.Player.Color})
		if err != nil {
			c.log.Error("encoding peer disconnect notice", "room", removal.Room, "error", err)
			return
		}
		c.transport.EmitToRoom(removal.Room, EventPeerDisconnected, payload)
	}
}

func (c *Coordinator) Rooms() []RoomSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.registry.Snapshots()
}

func (c *Coordinator) Room(name string) (RoomSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.registry.Room(name)
	if !ok {
		return RoomSnapshot{}, false
	}

	return r.Snapshot(), true
}

type noopObserver struct{}

func (noopObserver) RoomUpdated(RoomSnapshot) {}
func (noopObserver) RoomRemoved(string)       {}
