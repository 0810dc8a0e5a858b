package board_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawspace/sync-server/internal/board"
)

func stroke(s string) board.Payload {
	return board.Payload(`{"points":"` + s + `"}`)
}

func text(s string) board.Payload {
	return board.Payload(`{"text":"` + s + `"}`)
}

type recorderSpy struct {
	opened []board.RoomID
	closed []closedRoom
}

type closedRoom struct {
	id                           board.RoomID
	canvases, strokes, textAreas int
}

func (r *recorderSpy) RoomOpened(id board.RoomID) {
	r.opened = append(r.opened, id)
}

func (r *recorderSpy) RoomClosed(id board.RoomID, canvases, strokes, textAreas int) {
	r.closed = append(r.closed, closedRoom{id, canvases, strokes, textAreas})
}

func newEngine() *board.Engine {
	return board.NewEngine(board.Config{}, nil)
}

func TestJoinReturnsFullState(t *testing.T) {
	e := newEngine()
	e.Join("r", "p1")
	e.NewCanvas("r", "c")
	e.Draw("r", "c", stroke("s1"))

	out := e.Join("r", "p2")
	require.Len(t, out, 1)
	assert.Equal(t, board.EventLoadRoom, out[0].Event)
	assert.Equal(t, board.ToSender, out[0].Audience)

	snap := out[0].Data.([]board.CanvasSnapshot)
	require.Len(t, snap, 1)
	assert.Equal(t, board.CanvasID("c"), snap[0].ID)
	require.Len(t, snap[0].Drawings, 1)
	assert.JSONEq(t, string(stroke("s1")), string(snap[0].Drawings[0]))
	assert.Empty(t, snap[0].TextAreas)
}

func TestBroadcastAudiences(t *testing.T) {
	e := newEngine()
	e.Join("r", "p1")
	e.Join("r", "p2")

	t.Run("draw excludes sender", func(t *testing.T) {
		out := e.Draw("r", "c", stroke("s"))
		require.Len(t, out, 1)
		assert.Equal(t, board.EventDraw, out[0].Event)
		assert.Equal(t, board.ToOthers, out[0].Audience)
	})

	t.Run("text-update excludes sender", func(t *testing.T) {
		out := e.TextUpdate("r", "c", []board.Payload{text("t")})
		require.Len(t, out, 1)
		assert.Equal(t, board.ToOthers, out[0].Audience)
	})

	t.Run("clear-canvas excludes sender", func(t *testing.T) {
		out := e.ClearCanvas("r", "c")
		require.Len(t, out, 1)
		assert.Equal(t, board.ToOthers, out[0].Audience)
	})

	t.Run("new-canvas reaches whole room", func(t *testing.T) {
		out := e.NewCanvas("r", "c2")
		require.Len(t, out, 1)
		assert.Equal(t, board.ToRoom, out[0].Audience)
		assert.Equal(t, board.CanvasCreated{ID: "c2"}, out[0].Data)
	})

	t.Run("delete-canvas reaches whole room", func(t *testing.T) {
		out := e.DeleteCanvas("r", "c2")
		require.Len(t, out, 1)
		assert.Equal(t, board.ToRoom, out[0].Audience)
		assert.Equal(t, board.CanvasID("c2"), out[0].Data)
	})
}

func TestNewCanvasIdempotent(t *testing.T) {
	e := newEngine()
	e.Join("r", "p1")
	e.NewCanvas("r", "c")
	e.Draw("r", "c", stroke("s1"))
	e.TextUpdate("r", "c", []board.Payload{text("t1")})

	e.NewCanvas("r", "c")

	snap := e.RoomSnapshot("r")
	require.Len(t, snap, 1)
	assert.Len(t, snap[0].Drawings, 1)
	assert.Len(t, snap[0].TextAreas, 1)
}

func TestClearPreservesIdentity(t *testing.T) {
	e := newEngine()
	e.Join("r", "p1")
	e.Draw("r", "c", stroke("s1"))
	e.TextUpdate("r", "c", []board.Payload{text("t1")})

	e.ClearCanvas("r", "c")

	snap := e.RoomSnapshot("r")
	require.Len(t, snap, 1)
	assert.Equal(t, board.CanvasID("c"), snap[0].ID)
	assert.Empty(t, snap[0].Drawings)
	assert.Empty(t, snap[0].TextAreas)
}

func TestDeleteRemovesEntirely(t *testing.T) {
	e := newEngine()
	e.Join("r", "p1")
	e.Draw("r", "c", stroke("s1"))

	e.DeleteCanvas("r", "c")
	assert.Empty(t, e.RoomSnapshot("r"))

	// A later draw recreates the canvas fresh, without residual history.
	e.Draw("r", "c", stroke("s2"))
	snap := e.RoomSnapshot("r")
	require.Len(t, snap, 1)
	require.Len(t, snap[0].Drawings, 1)
	assert.JSONEq(t, string(stroke("s2")), string(snap[0].Drawings[0]))
}

func TestTextReplaceWholesale(t *testing.T) {
	e := newEngine()
	e.Join("r", "p1")

	e.TextUpdate("r", "c", []board.Payload{text("t1")})
	e.TextUpdate("r", "c", []board.Payload{text("t2"), text("t3")})

	snap := e.RoomSnapshot("r")
	require.Len(t, snap, 1)
	require.Len(t, snap[0].TextAreas, 2)
	assert.JSONEq(t, string(text("t2")), string(snap[0].TextAreas[0]))
	assert.JSONEq(t, string(text("t3")), string(snap[0].TextAreas[1]))
}

func TestEmptyRoomGarbageCollected(t *testing.T) {
	rec := &recorderSpy{}
	e := board.NewEngine(board.Config{}, rec)

	e.Join("r", "p1")
	e.Draw("r", "c", stroke("s1"))
	e.Draw("r", "c", stroke("s2"))
	e.TextUpdate("r", "c", []board.Payload{text("t1")})

	e.Leave("p1")

	assert.Empty(t, e.RoomSnapshot("r"))
	rooms, parts := e.Counts()
	assert.Zero(t, rooms)
	assert.Zero(t, parts)

	// A later joiner starts from scratch.
	out := e.Join("r", "p2")
	assert.Empty(t, out[0].Data.([]board.CanvasSnapshot))

	require.Len(t, rec.closed, 1)
	assert.Equal(t, closedRoom{"r", 1, 2, 1}, rec.closed[0])
	assert.Equal(t, []board.RoomID{"r", "r"}, rec.opened)
}

func TestRoomSurvivesWhileOccupied(t *testing.T) {
	e := newEngine()
	e.Join("r", "p1")
	e.Join("r", "p2")
	e.Draw("r", "c", stroke("s1"))

	e.Leave("p1")

	snap := e.RoomSnapshot("r")
	require.Len(t, snap, 1)
	assert.Len(t, snap[0].Drawings, 1)
}

func TestRepeatedJoinIsIdempotent(t *testing.T) {
	e := newEngine()
	e.Join("r", "p1")
	e.Join("r", "p1")

	detail, ok := e.RoomInfo("r")
	require.True(t, ok)
	assert.Equal(t, 1, detail.Participants)
}

func TestRejoinLeavesPreviousRoom(t *testing.T) {
	e := newEngine()
	e.Join("a", "p1")
	e.Draw("a", "c", stroke("s1"))

	// Single-room membership: joining b implicitly leaves a, and a was
	// emptied by that leave, so it is gone.
	e.Join("b", "p1")

	assert.Empty(t, e.RoomSnapshot("a"))
	rooms, _ := e.Counts()
	assert.Equal(t, 1, rooms)

	_, ok := e.RoomInfo("b")
	assert.True(t, ok)
}

func TestLeaveUnknownParticipant(t *testing.T) {
	e := newEngine()
	e.Leave("ghost")
	rooms, parts := e.Counts()
	assert.Zero(t, rooms)
	assert.Zero(t, parts)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	e := newEngine()
	e.Join("r", "p1")
	e.Draw("r", "c", stroke("s1"))

	snap := e.RoomSnapshot("r")
	snap[0].Drawings[0][0] = 'X'
	snap[0].Drawings = nil

	fresh := e.RoomSnapshot("r")
	require.Len(t, fresh, 1)
	require.Len(t, fresh[0].Drawings, 1)
	assert.JSONEq(t, string(stroke("s1")), string(fresh[0].Drawings[0]))
}

func TestSnapshotOrderIsDeterministic(t *testing.T) {
	e := newEngine()
	e.Join("r", "p1")
	for _, id := range []board.CanvasID{"c3", "c1", "c2"} {
		e.NewCanvas("r", id)
	}

	snap := e.RoomSnapshot("r")
	require.Len(t, snap, 3)
	assert.Equal(t, board.CanvasID("c3"), snap[0].ID)
	assert.Equal(t, board.CanvasID("c1"), snap[1].ID)
	assert.Equal(t, board.CanvasID("c2"), snap[2].ID)
}

func TestStrokeCap(t *testing.T) {
	e := board.NewEngine(board.Config{MaxStrokesPerCanvas: 3}, nil)
	e.Join("r", "p1")
	for i := 0; i < 5; i++ {
		e.Draw("r", "c", board.Payload(`{"n":`+string(rune('0'+i))+`}`))
	}

	snap := e.RoomSnapshot("r")
	require.Len(t, snap, 1)
	require.Len(t, snap[0].Drawings, 3)
	assert.JSONEq(t, `{"n":2}`, string(snap[0].Drawings[0]))
	assert.JSONEq(t, `{"n":4}`, string(snap[0].Drawings[2]))
}

func TestSnapshotMarshalsToWireShape(t *testing.T) {
	e := newEngine()
	e.Join("r", "p1")
	e.Draw("r", "c", stroke("s1"))

	data, err := json.Marshal(e.RoomSnapshot("r"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"c","drawings":[{"points":"s1"}],"textAreas":[]}]`, string(data))
}
