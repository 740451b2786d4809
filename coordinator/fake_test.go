package coordinator

import (
	"encoding/json"
	"sync"

	"github.com/samber/lo"
)

type delivery struct {
	event   string
	payload json.RawMessage
}

// fakeTransport groups connections by room the way the websocket adapter does
// and records what every connection would have received.
type fakeTransport struct {
	mu       sync.Mutex
	groups   map[string][]string
	received map[string][]delivery
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		groups:   make(map[string][]string),
		received: make(map[string][]delivery),
	}
}

func (f *fakeTransport) JoinGroup(connID, room string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !lo.Contains(f.groups[room], connID) {
		f.groups[room] = append(f.groups[room], connID)
	}
}

func (f *fakeTransport) EmitToRoom(room, event string, payload json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range f.groups[room] {
		f.received[id] = append(f.received[id], delivery{event: event, payload: payload})
	}
}

func (f *fakeTransport) EmitTo(connID, event string, payload json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.received[connID] = append(f.received[connID], delivery{event: event, payload: payload})
}

// leaveAll drops connID from every group, as the adapter does when a socket closes.
func (f *fakeTransport) leaveAll(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for room, members := range f.groups {
		f.groups[room] = lo.Without(members, connID)
		if len(f.groups[room]) == 0 {
			delete(f.groups, room)
		}
	}
}

func (f *fakeTransport) eventsFor(connID string, event string) []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()

	return lo.Filter(f.received[connID], func(d delivery, _ int) bool {
		return d.event == event
	})
}

func (f *fakeTransport) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, ds := range f.received {
		n += len(ds)
	}
	return n
}

type observed struct {
	updated []RoomSnapshot
	removed []string
}

type fakeObserver struct {
	mu sync.Mutex
	observed
}

func (o *fakeObserver) RoomUpdated(s RoomSnapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updated = append(o.updated, s)
}

func (o *fakeObserver) RoomRemoved(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.removed = append(o.removed, name)
}
