package board

// Canvas is one drawable surface: an append-only stroke history plus the
// current set of text areas, replaced wholesale on every update.
type Canvas struct {
	ID        CanvasID
	Strokes   []Payload
	TextAreas []Payload
}

func (c *Canvas) clear() {
	c.Strokes = make([]Payload, 0)
	c.TextAreas = make([]Payload, 0)
}

// Room is one collaborative session: the canvases it contains and the
// participants currently connected to it. Canvas insertion order is kept so
// snapshots come out in a deterministic order.
type Room struct {
	ID           RoomID
	canvases     map[CanvasID]*Canvas
	order        []CanvasID
	participants map[ParticipantID]struct{}
}

func newRoom(id RoomID) *Room {
	return &Room{
		ID:           id,
		canvases:     make(map[CanvasID]*Canvas),
		participants: make(map[ParticipantID]struct{}),
	}
}

// Returns the canvas, creating an empty one on first reference.
func (r *Room) canvas(id CanvasID) *Canvas {
	if c, ok := r.canvases[id]; ok {
		return c
	}
	c := &Canvas{
		ID:        id,
		Strokes:   make([]Payload, 0),
		TextAreas: make([]Payload, 0),
	}
	r.canvases[id] = c
	r.order = append(r.order, id)
	return c
}

// Removes the canvas entirely, history included. Reports whether it existed.
func (r *Room) deleteCanvas(id CanvasID) bool {
	if _, ok := r.canvases[id]; !ok {
		return false
	}
	delete(r.canvases, id)
	for i, cid := range r.order {
		if cid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Deep copy of every canvas in insertion order. Callers own the result and
// cannot reach live room state through it.
func (r *Room) snapshot() []CanvasSnapshot {
	out := make([]CanvasSnapshot, 0, len(r.order))
	for _, id := range r.order {
		c := r.canvases[id]
		out = append(out, CanvasSnapshot{
			ID:        c.ID,
			Drawings:  clonePayloads(c.Strokes),
			TextAreas: clonePayloads(c.TextAreas),
		})
	}
	return out
}

func (r *Room) counts() (canvases, strokes, textAreas int) {
	canvases = len(r.canvases)
	for _, c := range r.canvases {
		strokes += len(c.Strokes)
		textAreas += len(c.TextAreas)
	}
	return
}
