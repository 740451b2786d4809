package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type Event struct {
	Type    string          `json:"type"`
	TraceID string          `json:"trace_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type EventHandler func(ctx context.Context, evt Event, c *Client) error

const EventError = "error"

type PayloadError struct {
	Message string `json:"message"`
}

// PayloadJoinRoom accepts either a bare room name ("r1") or {"room": "r1"}.
type PayloadJoinRoom struct {
	Room string `json:"room"`
}

func (p *PayloadJoinRoom) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		p.Room = name
		return nil
	}

	type plain PayloadJoinRoom
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return errors.New(`joinRoom payload must be a room name or {"room": <name>}`)
	}

	*p = PayloadJoinRoom(v)
	return nil
}

func NewEvent(evtType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)

	if err != nil {
		return Event{}, err
	}

	evt := NewEventStruct(evtType, b, "")

	return evt, nil
}

// NewErrorEvent builds the error reply for a failed inbound event. When the
// client tagged its event with a trace id the reply type carries it too, so
// the client can match the two.
func NewErrorEvent(traceId, message string) (Event, error) {
	payload := PayloadError{Message: message}
	b, err := json.Marshal(payload)

	if err != nil {
		return Event{}, err
	}

	evtType := EventError
	if traceId != "" {
		evtType = fmt.Sprintf("%v_%v", EventError, traceId)
	}

	return NewEventStruct(evtType, b, traceId), nil
}

func NewEventStruct(evtType string, payload []byte, traceId string) Event {
	return Event{
		Type:    evtType,
		TraceID: traceId,
		Payload: payload,
	}
}

var errInvalidPayload = errors.New("event payload is not valid json")

// frame encodes the event for the wire. The payload is written exactly as it
// was received, so relayed events keep their original bytes.
func (e Event) frame() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(`{"type":`)
	if err := writeString(&buf, e.Type); err != nil {
		return nil, err
	}

	if e.TraceID != "" {
		buf.WriteString(`,"trace_id":`)
		if err := writeString(&buf, e.TraceID); err != nil {
			return nil, err
		}
	}

	if len(e.Payload) > 0 {
		if !json.Valid(e.Payload) {
			return nil, errInvalidPayload
		}
		buf.WriteString(`,"payload":`)
		buf.Write(e.Payload)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(s); err != nil {
		return err
	}

	// Encode terminates every value with a newline
	buf.Truncate(buf.Len() - 1)

	return nil
}
