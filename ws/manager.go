package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"

	"github.com/judgegodwins/goban-server/coordinator"
	"github.com/judgegodwins/goban-server/util"
)

var ErrUnknownEvent = errors.New("there is no such event type")

type ClientList map[string]*Client

// Manager owns the live websocket connections and their room groups. It is the
// coordinator's Transport.
type Manager struct {
	clients ClientList
	sync.RWMutex
	handlers    map[string]EventHandler
	Rooms       map[string][]*Client
	config      *util.Config
	coordinator *coordinator.Coordinator
	upgrader    websocket.Upgrader
	active      sync.WaitGroup
}

func NewManager(config *util.Config, opts ...coordinator.Option) *Manager {
	m := &Manager{
		clients:  make(ClientList),
		handlers: make(map[string]EventHandler),
		Rooms:    make(map[string][]*Client),
		config:   config,
	}

	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}

	opts = append([]coordinator.Option{
		coordinator.WithPeerDisconnectNotice(config.NotifyPeerDisconnect),
	}, opts...)

	m.coordinator = coordinator.New(m, opts...)

	m.setupEventHandlers()

	return m
}

func (m *Manager) setupEventHandlers() {
	m.handlers[coordinator.EventJoinRoom] = JoinRoomHandler

	for _, evt := range coordinator.RelayEvents {
		m.handlers[evt] = RelayHandler
	}
}

func (m *Manager) Coordinator() *coordinator.Coordinator {
	return m.coordinator
}

func (m *Manager) routeEvent(ctx context.Context, evt Event, c *Client) error {
	if handler, ok := m.handlers[evt.Type]; ok {
		if err := handler(ctx, evt, c); err != nil {
			return err
		}

		return nil
	}

	return ErrUnknownEvent
}

func (m *Manager) addClient(client *Client) {
	m.Lock()
	defer m.Unlock()

	m.clients[client.ID] = client
}

// removeClient drops the client and its room groups, then lets the coordinator
// reclaim its seat. The coordinator runs after the manager lock is released
// because it may emit back into the manager. Callers must make sure the
// client's read loop has stopped so no event can re-add it afterwards.
func (m *Manager) removeClient(client *Client) {
	m.Lock()
	_, ok := m.clients[client.ID]
	delete(m.clients, client.ID)
	m.Unlock()

	if !ok {
		return
	}

	client.LeaveAllRooms()
	m.coordinator.Disconnect(client.ID)
}

// join, leave and leaveAll expect the manager lock to be held. Clients call
// them through Join and LeaveAllRooms.
func (m *Manager) join(c *Client, roomId string) {
	room := m.Rooms[roomId]

	if !slices.Contains(room, c) {
		m.Rooms[roomId] = append(room, c)
	}

	if !slices.Contains(c.JoinedRooms, roomId) {
		c.JoinedRooms = append(c.JoinedRooms, roomId)
	}
}

func (m *Manager) leave(c *Client, roomId string) {
	if room, ok := m.Rooms[roomId]; ok {
		if index := slices.Index(room, c); index >= 0 {
			room = append(room[:index], room[index+1:]...)
		}

		if len(room) == 0 {
			delete(m.Rooms, roomId)
		} else {
			m.Rooms[roomId] = room
		}
	}

	if index := slices.Index(c.JoinedRooms, roomId); index >= 0 {
		c.JoinedRooms = append(c.JoinedRooms[:index], c.JoinedRooms[index+1:]...)
	}
}

func (m *Manager) leaveAll(c *Client) {
	for _, roomId := range slices.Clone(c.JoinedRooms) {
		m.leave(c, roomId)
	}
}

// JoinGroup implements coordinator.Transport.
func (m *Manager) JoinGroup(connID, room string) {
	m.RLock()
	client, ok := m.clients[connID]
	m.RUnlock()

	if ok {
		client.Join(room)
	}
}

// EmitToRoom implements coordinator.Transport.
func (m *Manager) EmitToRoom(room, event string, payload json.RawMessage) {
	m.RLock()
	defer m.RUnlock()

	evt := NewEventStruct(event, payload, "")

	for _, client := range m.Rooms[room] {
		client.PushToEgress(evt)
	}
}

// EmitTo implements coordinator.Transport.
func (m *Manager) EmitTo(connID, event string, payload json.RawMessage) {
	m.RLock()
	defer m.RUnlock()

	if client, ok := m.clients[connID]; ok {
		client.PushToEgress(NewEventStruct(event, payload, ""))
	}
}

// ClientCount is the number of live connections.
func (m *Manager) ClientCount() int {
	m.RLock()
	defer m.RUnlock()

	return len(m.clients)
}

// CloseAll closes every live connection. Each one then goes through the
// normal disconnect path.
func (m *Manager) CloseAll() {
	m.RLock()
	clients := lo.Values(m.clients)
	m.RUnlock()

	for _, client := range clients {
		client.close(websocket.CloseGoingAway, "server shutting down")
	}
}

// Wait blocks until every connection handler has finished its disconnect, or
// ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		m.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Websocket connection handler
func (m *Manager) ServeWS(c *gin.Context) {
	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)

	if err != nil {
		// the upgrader has already replied with an HTTP error
		slog.Warn("error upgrading to websocket connection", "error", err, "origin", c.Request.Header.Get("Origin"))
		return
	}

	client := NewClient(conn, m)

	m.active.Add(1)
	defer m.active.Done()

	m.addClient(client)

	slog.Info("client connected", "connId", client.ID, "remote", conn.RemoteAddr().String())

	ctx, cancel := context.WithCancel(c.Request.Context())

	defer func() {
		cancel()
		client.close(websocket.CloseNormalClosure, "")
		<-client.readDone
		m.removeClient(client)
		slog.Info("client disconnected", "connId", client.ID)
	}()

	go client.readMessages(ctx)
	go client.writeMessages(ctx)

	err = <-client.Err()

	slog.Debug("connection ended", "connId", client.ID, "error", err)
}

func (m *Manager) checkOrigin(r *http.Request) bool {
	allowed := m.config.AllowedOrigins

	if len(allowed) == 0 || lo.Contains(allowed, "*") {
		return true
	}

	origin := r.Header.Get("Origin")

	// non-browser clients send no Origin header
	if origin == "" {
		return true
	}

	return lo.Contains(allowed, origin)
}
