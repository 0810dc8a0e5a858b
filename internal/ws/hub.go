package ws

import (
	"sync"

	"go.uber.org/zap"

	"github.com/drawspace/sync-server/internal/board"
	"github.com/drawspace/sync-server/internal/protocol"
)

// Hub owns the set of connected clients and runs the single event loop that
// feeds the board engine. Membership bookkeeping happens only on the Run
// goroutine; the mutex covers the counters the HTTP handlers read.
type Hub struct {
	engine *board.Engine
	log    *zap.Logger

	// Every connected client, and the subset grouped by current room.
	// A client that has not joined a room yet is only in clients.
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	// Inbound frames from clients
	inbound chan *frame

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex
}

type frame struct {
	client *Client
	data   []byte
}

func NewHub(engine *board.Engine, log *zap.Logger) *Hub {
	return &Hub{
		engine:     engine,
		log:        log,
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		inbound:    make(chan *frame),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.log.Info("client connected", zap.String("client", string(c.id)))

			// ?room= on the upgrade preselects a room; join-room frames
			// remain authoritative after that.
			if room := c.room; room != "" {
				c.room = ""
				h.joinRoom(c, room)
			}

		case c := <-h.unregister:
			h.drop(c)

		case f := <-h.inbound:
			h.handle(f)
		}
	}
}

func (h *Hub) handle(f *frame) {
	env, err := protocol.DecodeEnvelope(f.data)
	if err != nil {
		h.reject(f.client, err)
		return
	}

	var (
		roomID string
		out    []board.Outbound
	)
	switch env.Event {
	case board.EventJoinRoom:
		p, err := env.JoinRoom()
		if err != nil {
			h.reject(f.client, err)
			return
		}
		h.joinRoom(f.client, p.RoomID)
		return

	case board.EventDraw:
		p, err := env.Draw()
		if err != nil {
			h.reject(f.client, err)
			return
		}
		roomID = p.RoomID
		out = h.engine.Draw(board.RoomID(p.RoomID), board.CanvasID(p.CanvasID), p.Drawing)

	case board.EventTextUpdate:
		p, err := env.TextUpdate()
		if err != nil {
			h.reject(f.client, err)
			return
		}
		roomID = p.RoomID
		out = h.engine.TextUpdate(board.RoomID(p.RoomID), board.CanvasID(p.CanvasID), p.TextAreas)

	case board.EventNewCanvas:
		p, err := env.NewCanvas()
		if err != nil {
			h.reject(f.client, err)
			return
		}
		roomID = p.RoomID
		out = h.engine.NewCanvas(board.RoomID(p.RoomID), board.CanvasID(p.ID))

	case board.EventClearCanvas, board.EventDeleteCanvas:
		p, err := env.CanvasRef()
		if err != nil {
			h.reject(f.client, err)
			return
		}
		roomID = p.RoomID
		if env.Event == board.EventClearCanvas {
			out = h.engine.ClearCanvas(board.RoomID(p.RoomID), board.CanvasID(p.CanvasID))
		} else {
			out = h.engine.DeleteCanvas(board.RoomID(p.RoomID), board.CanvasID(p.CanvasID))
		}

	default:
		h.log.Warn("unknown event", zap.String("event", env.Event), zap.String("client", string(f.client.id)))
		return
	}

	h.deliver(roomID, f.client, out)
}

// Malformed frames are logged and dropped; nothing reaches the engine or
// the other participants.
func (h *Hub) reject(c *Client, err error) {
	h.log.Warn("rejected frame", zap.String("client", string(c.id)), zap.Error(err))
}

func (h *Hub) joinRoom(c *Client, roomID string) {
	h.mu.Lock()
	if c.room != "" && c.room != roomID {
		h.removeFromRoomLocked(c)
	}
	peers, ok := h.rooms[roomID]
	if !ok {
		peers = make(map[*Client]bool)
		h.rooms[roomID] = peers
	}
	peers[c] = true
	c.room = roomID
	total := len(peers)
	h.mu.Unlock()

	h.log.Info("client joined room", zap.String("room", roomID), zap.Int("participants", total))
	h.deliver(roomID, c, h.engine.Join(board.RoomID(roomID), c.id))
}

// drop disconnects the client everywhere: membership maps, send channel,
// engine state. Idempotent; unregister and slow-client eviction both land
// here.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.removeFromRoomLocked(c)
	h.mu.Unlock()

	close(c.send)
	h.engine.Leave(c.id)
	h.log.Info("client disconnected", zap.String("client", string(c.id)))
}

func (h *Hub) removeFromRoomLocked(c *Client) {
	if c.room == "" {
		return
	}
	if peers, ok := h.rooms[c.room]; ok {
		delete(peers, c)
		if len(peers) == 0 {
			delete(h.rooms, c.room)
			h.log.Info("room drained", zap.String("room", c.room))
		}
	}
	c.room = ""
}

func (h *Hub) deliver(roomID string, sender *Client, outs []board.Outbound) {
	for _, o := range outs {
		data, err := protocol.Encode(o.Event, o.Data)
		if err != nil {
			h.log.Error("encode broadcast", zap.String("event", o.Event), zap.Error(err))
			continue
		}

		if o.Audience == board.ToSender {
			h.send(sender, data)
			continue
		}

		h.mu.RLock()
		peers := make([]*Client, 0, len(h.rooms[roomID]))
		for c := range h.rooms[roomID] {
			if o.Audience == board.ToOthers && c == sender {
				continue
			}
			peers = append(peers, c)
		}
		h.mu.RUnlock()

		for _, c := range peers {
			h.send(c, data)
		}
	}
}

// send enqueues without blocking. A client that cannot drain its buffer is
// dropped, same as a dead connection.
func (h *Hub) send(c *Client, data []byte) {
	h.mu.RLock()
	alive := h.clients[c]
	h.mu.RUnlock()
	if !alive {
		return
	}

	select {
	case c.send <- data:
	default:
		h.log.Warn("evicting slow client", zap.String("client", string(c.id)))
		h.drop(c)
	}
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) GetActiveRooms() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make(map[string]int, len(h.rooms))
	for id, peers := range h.rooms {
		rooms[id] = len(peers)
	}
	return rooms
}
