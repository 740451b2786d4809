package coordinator

import "github.com/samber/lo"

const (
	EventJoinRoom         = "joinRoom"
	EventAssignColor      = "assignColor"
	EventMove             = "move"
	EventPass             = "pass"
	EventSurrender        = "surrender"
	EventRestartRequest   = "restartRequest"
	EventRestartResponse  = "restartResponse"
	EventUndoRequest      = "undoRequest"
	EventUndoResponse     = "undoResponse"
	EventPeerDisconnected = "peerDisconnected"
)

// RelayEvents are forwarded verbatim to every connection in the payload's room.
var RelayEvents = []string{
	EventMove,
	EventPass,
	EventSurrender,
	EventRestartRequest,
	EventRestartResponse,
	EventUndoRequest,
	EventUndoResponse,
}

func IsRelayEvent(name string) bool {
	return lo.Contains(RelayEvents, name)
}

type PayloadAssignColor struct {
	Color Color  `json:"color"`
	Room  string `json:"room"`
}

type PayloadPeerDisconnected struct {
	Room  string `json:"room"`
	Color Color  `json:"color"`
}

// relayTarget is the only part of a relay payload the coordinator reads.
type relayTarget struct {
	Room string `json:"room"`
}
