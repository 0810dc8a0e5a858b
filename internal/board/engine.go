package board

import (
	"sort"
	"sync"
)

// Config controls optional engine behavior.
type Config struct {
	// MaxStrokesPerCanvas caps the stroke history kept per canvas; once the
	// cap is exceeded the oldest strokes are dropped. 0 disables the cap.
	MaxStrokesPerCanvas int
}

// Recorder receives room lifecycle notifications, used to keep the usage
// ledger. Implementations must not call back into the engine.
type Recorder interface {
	RoomOpened(id RoomID)
	RoomClosed(id RoomID, canvases, strokes, textAreas int)
}

// Engine is the single authority over room state. Every mutation comes in
// through one of its operations and returns the set of outbound messages the
// transport should deliver. One mutex serializes all operations, which also
// covers the read paths (snapshots, stats) running on HTTP goroutines.
type Engine struct {
	mu       sync.Mutex
	registry *Registry
	byPart   map[ParticipantID]RoomID
	cfg      Config
	rec      Recorder
}

func NewEngine(cfg Config, rec Recorder) *Engine {
	return &Engine{
		registry: NewRegistry(),
		byPart:   make(map[ParticipantID]RoomID),
		cfg:      cfg,
		rec:      rec,
	}
}

// Join registers the participant in the room, creating the room if needed.
// A participant belongs to at most one room: joining a new room implicitly
// leaves the previous one first, running its empty-room cleanup. The returned
// snapshot goes to the joiner only; nothing is broadcast to the others.
// Rejoining the same room is a no-op apart from the fresh snapshot.
func (e *Engine) Join(roomID RoomID, p ParticipantID) []Outbound {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prev, ok := e.byPart[p]; ok && prev != roomID {
		e.leaveLocked(prev, p)
	}

	room, created := e.registry.EnsureRoom(roomID)
	if created && e.rec != nil {
		e.rec.RoomOpened(roomID)
	}
	room.participants[p] = struct{}{}
	e.byPart[p] = roomID

	return []Outbound{{
		Event:    EventLoadRoom,
		Audience: ToSender,
		Data:     room.snapshot(),
	}}
}

// Draw appends the stroke to the canvas, creating room and canvas as needed,
// and relays it to everyone else in the room. The sender gets no echo: its
// local state is already authoritative.
func (e *Engine) Draw(roomID RoomID, canvasID CanvasID, stroke Payload) []Outbound {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.ensureCanvasLocked(roomID, canvasID)
	c.Strokes = append(c.Strokes, clonePayload(stroke))
	if max := e.cfg.MaxStrokesPerCanvas; max > 0 && len(c.Strokes) > max {
		c.Strokes = append([]Payload(nil), c.Strokes[len(c.Strokes)-max:]...)
	}

	return []Outbound{{
		Event:    EventDraw,
		Audience: ToOthers,
		Data:     DrawBroadcast{CanvasID: canvasID, Drawing: clonePayload(stroke)},
	}}
}

// TextUpdate replaces the canvas text-area set wholesale. Last writer wins;
// there is no merging.
func (e *Engine) TextUpdate(roomID RoomID, canvasID CanvasID, areas []Payload) []Outbound {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.ensureCanvasLocked(roomID, canvasID)
	c.TextAreas = clonePayloads(areas)

	return []Outbound{{
		Event:    EventTextUpdate,
		Audience: ToOthers,
		Data:     TextBroadcast{CanvasID: canvasID, TextAreas: clonePayloads(areas)},
	}}
}

// NewCanvas ensures the canvas exists; creation is idempotent, never an
// error. The event goes to the whole room, sender included, so every client
// converges on the same canonical canvas list.
func (e *Engine) NewCanvas(roomID RoomID, canvasID CanvasID) []Outbound {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureCanvasLocked(roomID, canvasID)

	return []Outbound{{
		Event:    EventNewCanvas,
		Audience: ToRoom,
		Data:     CanvasCreated{ID: canvasID},
	}}
}

// ClearCanvas empties the canvas content while keeping its identity. Missing
// room or canvas is a no-op on state; the notification is still relayed so
// clients that raced a create stay consistent.
func (e *Engine) ClearCanvas(roomID RoomID, canvasID CanvasID) []Outbound {
	e.mu.Lock()
	defer e.mu.Unlock()

	if room, ok := e.registry.Room(roomID); ok {
		if c, ok := room.canvases[canvasID]; ok {
			c.clear()
		}
	}

	return []Outbound{{
		Event:    EventClearCanvas,
		Audience: ToOthers,
		Data:     CanvasCleared{CanvasID: canvasID},
	}}
}

// DeleteCanvas removes the canvas entry entirely, stroke history included.
// No-op when absent. Mirrors NewCanvas: the whole room hears about it.
func (e *Engine) DeleteCanvas(roomID RoomID, canvasID CanvasID) []Outbound {
	e.mu.Lock()
	defer e.mu.Unlock()

	if room, ok := e.registry.Room(roomID); ok {
		room.deleteCanvas(canvasID)
	}

	return []Outbound{{
		Event:    EventDeleteCanvas,
		Audience: ToRoom,
		Data:     canvasID,
	}}
}

// Leave removes the participant from whatever room it is in. When the room
// empties, the room and all its canvases are deleted on the spot; state is
// not durable. Triggered by transport disconnect, so nothing is broadcast.
func (e *Engine) Leave(p ParticipantID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if roomID, ok := e.byPart[p]; ok {
		e.leaveLocked(roomID, p)
	}
}

func (e *Engine) leaveLocked(roomID RoomID, p ParticipantID) {
	delete(e.byPart, p)

	room, ok := e.registry.Room(roomID)
	if !ok {
		return
	}
	delete(room.participants, p)
	if len(room.participants) > 0 {
		return
	}

	if e.rec != nil {
		canvases, strokes, textAreas := room.counts()
		e.rec.RoomClosed(roomID, canvases, strokes, textAreas)
	}
	e.registry.DeleteRoom(roomID)
}

func (e *Engine) ensureCanvasLocked(roomID RoomID, canvasID CanvasID) *Canvas {
	room, created := e.registry.EnsureRoom(roomID)
	if created && e.rec != nil {
		e.rec.RoomOpened(roomID)
	}
	return room.canvas(canvasID)
}

// Read side, used by the HTTP surface and the retention sweep.

// RoomSummary is the list-view shape of one live room.
type RoomSummary struct {
	ID           RoomID `json:"id"`
	Participants int    `json:"participants"`
	Canvases     int    `json:"canvases"`
}

// CanvasSummary describes one canvas without copying its content.
type CanvasSummary struct {
	ID        CanvasID `json:"id"`
	Strokes   int      `json:"strokes"`
	TextAreas int      `json:"textAreas"`
}

// RoomDetail is the single-room view: summary plus per-canvas counts.
type RoomDetail struct {
	ID           RoomID          `json:"id"`
	Participants int             `json:"participants"`
	Canvases     []CanvasSummary `json:"canvases"`
}

// RoomSnapshot deep-copies the room's canvases. Empty for unknown rooms.
func (e *Engine) RoomSnapshot(roomID RoomID) []CanvasSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Snapshot(roomID)
}

// Rooms lists every live room, sorted by id.
func (e *Engine) Rooms() []RoomSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]RoomSummary, 0, e.registry.Len())
	for id, room := range e.registry.rooms {
		out = append(out, RoomSummary{
			ID:           id,
			Participants: len(room.participants),
			Canvases:     len(room.canvases),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RoomInfo reports the detail view of one room.
func (e *Engine) RoomInfo(roomID RoomID) (RoomDetail, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.registry.Room(roomID)
	if !ok {
		return RoomDetail{}, false
	}
	detail := RoomDetail{
		ID:           roomID,
		Participants: len(room.participants),
		Canvases:     make([]CanvasSummary, 0, len(room.order)),
	}
	for _, cid := range room.order {
		c := room.canvases[cid]
		detail.Canvases = append(detail.Canvases, CanvasSummary{
			ID:        cid,
			Strokes:   len(c.Strokes),
			TextAreas: len(c.TextAreas),
		})
	}
	return detail, true
}

// Counts reports live room and participant totals.
func (e *Engine) Counts() (rooms, participants int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rooms = e.registry.Len()
	participants = len(e.byPart)
	return
}

// TrimHistory drops the oldest strokes of every canvas down to max per
// canvas, returning the number of strokes dropped. Used by the retention
// sweep; max <= 0 is a no-op.
func (e *Engine) TrimHistory(max int) int {
	if max <= 0 {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	dropped := 0
	for _, room := range e.registry.rooms {
		for _, c := range room.canvases {
			if n := len(c.Strokes) - max; n > 0 {
				c.Strokes = append([]Payload(nil), c.Strokes[n:]...)
				dropped += n
			}
		}
	}
	return dropped
}
