package board

// Registry is the authoritative RoomID -> Room mapping. It is not safe for
// concurrent use on its own; the Engine serializes all access to it.
type Registry struct {
	rooms map[RoomID]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[RoomID]*Room)}
}

// EnsureRoom returns the room, lazily creating an empty one. The second
// result reports whether the room was created by this call.
func (g *Registry) EnsureRoom(id RoomID) (*Room, bool) {
	if r, ok := g.rooms[id]; ok {
		return r, false
	}
	r := newRoom(id)
	g.rooms[id] = r
	return r, true
}

func (g *Registry) Room(id RoomID) (*Room, bool) {
	r, ok := g.rooms[id]
	return r, ok
}

// DeleteRoom removes the room and everything in it. No-op when absent.
func (g *Registry) DeleteRoom(id RoomID) {
	delete(g.rooms, id)
}

// Snapshot deep-copies every canvas in the room. A missing room yields an
// empty snapshot, not an error: a room with no canvases is a valid state.
func (g *Registry) Snapshot(id RoomID) []CanvasSnapshot {
	r, ok := g.rooms[id]
	if !ok {
		return []CanvasSnapshot{}
	}
	return r.snapshot()
}

func (g *Registry) Len() int {
	return len(g.rooms)
}
