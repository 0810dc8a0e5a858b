package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/drawspace/sync-server/internal/board"
)

// ErrMalformed marks an inbound frame missing required fields. Such frames
// are rejected before any state mutation and never echoed to peers.
var ErrMalformed = errors.New("malformed payload")

// Envelope frames every message on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound bodies.

type JoinRoom struct {
	RoomID string `json:"roomId"`
}

type Draw struct {
	RoomID   string        `json:"roomId"`
	CanvasID string        `json:"canvasId"`
	Drawing  board.Payload `json:"drawing"`
}

type TextUpdate struct {
	RoomID    string          `json:"roomId"`
	CanvasID  string          `json:"canvasId"`
	TextAreas []board.Payload `json:"textAreas"`
}

type NewCanvas struct {
	RoomID string `json:"roomId"`
	ID     string `json:"id"`
}

// CanvasRef addresses an existing canvas; used by clear-canvas and
// delete-canvas.
type CanvasRef struct {
	RoomID   string `json:"roomId"`
	CanvasID string `json:"canvasId"`
}

// DecodeEnvelope parses one inbound frame.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event", ErrMalformed)
	}
	return env, nil
}

// Typed accessors. Each unmarshals the envelope body and validates the
// fields its engine operation requires.

func (e Envelope) JoinRoom() (JoinRoom, error) {
	var p JoinRoom
	if err := e.decode(&p); err != nil {
		return p, err
	}
	if p.RoomID == "" {
		return p, fmt.Errorf("%w: %s missing roomId", ErrMalformed, e.Event)
	}
	return p, nil
}

func (e Envelope) Draw() (Draw, error) {
	var p Draw
	if err := e.decode(&p); err != nil {
		return p, err
	}
	if p.RoomID == "" || p.CanvasID == "" {
		return p, fmt.Errorf("%w: %s missing roomId or canvasId", ErrMalformed, e.Event)
	}
	if len(p.Drawing) == 0 {
		return p, fmt.Errorf("%w: %s missing drawing", ErrMalformed, e.Event)
	}
	return p, nil
}

func (e Envelope) TextUpdate() (TextUpdate, error) {
	var p TextUpdate
	if err := e.decode(&p); err != nil {
		return p, err
	}
	if p.RoomID == "" || p.CanvasID == "" {
		return p, fmt.Errorf("%w: %s missing roomId or canvasId", ErrMalformed, e.Event)
	}
	// An empty textAreas array is a valid wholesale replacement; an absent
	// key is not.
	if p.TextAreas == nil {
		return p, fmt.Errorf("%w: %s missing textAreas", ErrMalformed, e.Event)
	}
	return p, nil
}

func (e Envelope) NewCanvas() (NewCanvas, error) {
	var p NewCanvas
	if err := e.decode(&p); err != nil {
		return p, err
	}
	if p.RoomID == "" || p.ID == "" {
		return p, fmt.Errorf("%w: %s missing roomId or id", ErrMalformed, e.Event)
	}
	return p, nil
}

func (e Envelope) CanvasRef() (CanvasRef, error) {
	var p CanvasRef
	if err := e.decode(&p); err != nil {
		return p, err
	}
	if p.RoomID == "" || p.CanvasID == "" {
		return p, fmt.Errorf("%w: %s missing roomId or canvasId", ErrMalformed, e.Event)
	}
	return p, nil
}

func (e Envelope) decode(dst any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: %s missing data", ErrMalformed, e.Event)
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, e.Event, err)
	}
	return nil
}

// Encode frames an outbound event for the wire.
func Encode(event string, data any) ([]byte, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: body})
}
