package board

import "encoding/json"

// Opaque identifiers supplied by clients. None of them are validated for
// format; they only serve as map keys.
type (
	RoomID        string
	CanvasID      string
	ParticipantID string
)

// Payload is one opaque stroke or text-area blob. The engine stores and
// relays payloads without ever looking inside them.
type Payload = json.RawMessage

// Event names shared with the browser client.
const (
	EventJoinRoom     = "join-room"
	EventDraw         = "draw"
	EventTextUpdate   = "text-update"
	EventNewCanvas    = "new-canvas"
	EventClearCanvas  = "clear-canvas"
	EventDeleteCanvas = "delete-canvas"
	EventLoadRoom     = "load-room-canvases"
)

// Audience selects which room members receive an outbound message.
type Audience int

const (
	// The originating participant only.
	ToSender Audience = iota

	// Every room member except the sender.
	ToOthers

	// Every room member, sender included.
	ToRoom
)

// Outbound is one message the transport should deliver after an operation.
type Outbound struct {
	Event    string
	Audience Audience
	Data     any
}

// Broadcast bodies. Field names match what the client listens for.

type DrawBroadcast struct {
	CanvasID CanvasID `json:"canvasId"`
	Drawing  Payload  `json:"drawing"`
}

type TextBroadcast struct {
	CanvasID  CanvasID  `json:"canvasId"`
	TextAreas []Payload `json:"textAreas"`
}

type CanvasCreated struct {
	ID CanvasID `json:"id"`
}

type CanvasCleared struct {
	CanvasID CanvasID `json:"canvasId"`
}

// CanvasSnapshot is a deep copy of one canvas, delivered to late joiners.
type CanvasSnapshot struct {
	ID        CanvasID  `json:"id"`
	Drawings  []Payload `json:"drawings"`
	TextAreas []Payload `json:"textAreas"`
}

func clonePayload(p Payload) Payload {
	return append(Payload(nil), p...)
}

func clonePayloads(src []Payload) []Payload {
	out := make([]Payload, len(src))
	for i, p := range src {
		out[i] = clonePayload(p)
	}
	return out
}
