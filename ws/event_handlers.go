package ws

import (
	"context"
	"encoding/json"
)

// JoinRoomHandler puts the client in a room and lets the coordinator pick its
// color. The coordinator sends the assignColor reply itself.
func JoinRoomHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadJoinRoom

	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return err
	}

	_, err := c.manager.coordinator.Join(c.ID, payload.Room)

	return err
}

// RelayHandler hands a game event to the coordinator untouched. Relays never
// fail from the client's point of view.
func RelayHandler(ctx context.Context, e Event, c *Client) error {
	c.manager.coordinator.Relay(c.ID, e.Type, e.Payload)
	return nil
}
