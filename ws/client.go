package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/exp/slices"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
	egressSize     = 256
)

type Client struct {
	ID          string
	connection  *websocket.Conn
	manager     *Manager
	egress      chan Event
	JoinedRooms []string
	err         chan error
	readDone    chan struct{}
}

func NewClient(conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		ID:          uuid.NewString(),
		connection:  conn,
		manager:     manager,
		egress:      make(chan Event, egressSize),
		JoinedRooms: []string{},
		err:         make(chan error, 1),
		readDone:    make(chan struct{}),
	}
}

// Reads incoming events from the client's websocket connection
func (c *Client) readMessages(ctx context.Context) {
	defer close(c.readDone)

	c.connection.SetReadLimit(maxMessageSize)

	if err := c.connection.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.handleError(err)
		return
	}

	c.connection.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, payload, err := c.connection.ReadMessage()

			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					slog.Warn("unexpected socket closure", "connId", c.ID, "error", err)
				}
				c.handleError(err)
				return
			}

			var evt Event

			if err := json.Unmarshal(payload, &evt); err != nil {
				c.pushError("", "cannot unmarshal json payload")
				continue
			}

			if err := c.manager.routeEvent(ctx, evt, c); err != nil {
				slog.Debug("event rejected", "connId", c.ID, "event", evt.Type, "error", err)
				c.pushError(evt.TraceID, err.Error())
			}
		}
	}
}

// writes events pushed to the client's egress channel
func (c *Client) writeMessages(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case message := <-c.egress:
			data, err := message.frame()

			if err != nil {
				slog.Error("encoding outbound event", "connId", c.ID, "event", message.Type, "error", err)
				continue
			}

			if err := c.connection.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.handleError(err)
				return
			}

			if err := c.connection.WriteMessage(websocket.TextMessage, data); err != nil {
				c.handleError(err)
				return
			}
		case <-ticker.C:
			if err := c.connection.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.handleError(err)
				return
			}
		}
	}
}

// close sends a close frame and closes the connection, which also unblocks
// readMessages.
func (c *Client) close(code int, text string) {
	err := c.connection.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(writeWait),
	)
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		slog.Debug("sending close message", "connId", c.ID, "error", err)
	}

	c.connection.Close()
}

// Sets a new read deadline when a pong is received for a ping message.
func (c *Client) pongHandler(pongMsg string) error {
	return c.connection.SetReadDeadline(time.Now().Add(pongWait))
}

// handleError reports the first failure of either pump. ServeWS waits on it
// and tears the connection down.
func (c *Client) handleError(e error) {
	select {
	case c.err <- e:
	default:
	}
}

// Returns the error channel
func (c *Client) Err() <-chan error {
	return c.err
}

// PushToEgress queues an event for delivery. A client that cannot keep up
// loses the event.
func (c *Client) PushToEgress(evt Event) {
	select {
	case c.egress <- evt:
	default:
		slog.Warn("egress full, dropping event", "connId", c.ID, "event", evt.Type)
	}
}

func (c *Client) pushError(traceID, message string) {
	evt, err := NewErrorEvent(traceID, message)
	if err != nil {
		slog.Error("building error event", "connId", c.ID, "error", err)
		return
	}
	c.PushToEgress(evt)
}

// Join adds the client to a transport room group
func (c *Client) Join(roomId string) {
	c.manager.Lock()
	defer c.manager.Unlock()

	c.manager.join(c, roomId)
}

// LeaveAllRooms removes the client from every room group it is in.
func (c *Client) LeaveAllRooms() {
	c.manager.Lock()
	defer c.manager.Unlock()

	c.manager.leaveAll(c)
}

// InRoom reports whether the client is grouped under roomId.
func (c *Client) InRoom(roomId string) bool {
	c.manager.RLock()
	defer c.manager.RUnlock()

	return slices.Contains(c.JoinedRooms, roomId)
}
