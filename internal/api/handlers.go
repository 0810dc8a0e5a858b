package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/drawspace/sync-server/internal/board"
	"github.com/drawspace/sync-server/internal/store"
	"github.com/drawspace/sync-server/internal/ws"
)

// API is the read-only HTTP surface next to the WebSocket endpoint: liveness,
// stats and a view of the live rooms. Nothing here mutates engine state.
type API struct {
	hub    *ws.Hub
	engine *board.Engine
	store  *store.Store // nil when the usage ledger is disabled
	log    *zap.Logger
}

func New(hub *ws.Hub, engine *board.Engine, st *store.Store, log *zap.Logger) *API {
	return &API{
		hub:    hub,
		engine: engine,
		store:  st,
		log:    log,
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/", a.RootHandler)
	r.Get("/health", a.HealthHandler)
	r.Get("/api/stats", a.StatsHandler)
	r.Get("/api/rooms", a.ListRoomsHandler)
	r.Get("/api/rooms/{id}", a.GetRoomHandler)
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWS(a.hub, w, req)
	})

	return r
}

func (a *API) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.log.Warn("encode response", zap.Error(err))
	}
}

func (a *API) errorResponse(w http.ResponseWriter, status int, message string) {
	a.jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) RootHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("sync server is running"))
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	a.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	rooms, participants := a.engine.Counts()
	stats := map[string]interface{}{
		"active_rooms":        rooms,
		"active_participants": participants,
		"active_clients":      a.hub.GetClientCount(),
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	}

	if a.store != nil {
		totals, err := a.store.Totals()
		if err != nil {
			a.log.Warn("read ledger totals", zap.Error(err))
		} else {
			stats["total_rooms_opened"] = totals.RoomsOpened
			stats["total_sessions_closed"] = totals.SessionsClosed
			stats["total_strokes"] = totals.Strokes
			stats["total_text_areas"] = totals.TextAreas
		}
	}

	a.jsonResponse(w, http.StatusOK, stats)
}

func (a *API) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms := a.engine.Rooms()
	a.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"rooms": rooms,
		"count": len(rooms),
	})
}

func (a *API) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	detail, ok := a.engine.RoomInfo(board.RoomID(roomID))
	if !ok {
		a.errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	a.jsonResponse(w, http.StatusOK, detail)
}
