package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawspace/sync-server/internal/board"
	"github.com/drawspace/sync-server/internal/protocol"
)

func TestDecodeEnvelope(t *testing.T) {
	t.Run("valid frame", func(t *testing.T) {
		env, err := protocol.DecodeEnvelope([]byte(`{"event":"draw","data":{"roomId":"r"}}`))
		require.NoError(t, err)
		assert.Equal(t, "draw", env.Event)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := protocol.DecodeEnvelope([]byte{0x01, 0x02})
		assert.ErrorIs(t, err, protocol.ErrMalformed)
	})

	t.Run("missing event", func(t *testing.T) {
		_, err := protocol.DecodeEnvelope([]byte(`{"data":{}}`))
		assert.ErrorIs(t, err, protocol.ErrMalformed)
	})
}

func TestDraw(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		env, err := protocol.DecodeEnvelope([]byte(`{"event":"draw","data":{"roomId":"r","canvasId":"c","drawing":{"x":1}}}`))
		require.NoError(t, err)

		p, err := env.Draw()
		require.NoError(t, err)
		assert.Equal(t, "r", p.RoomID)
		assert.Equal(t, "c", p.CanvasID)
		assert.JSONEq(t, `{"x":1}`, string(p.Drawing))
	})

	t.Run("missing roomId", func(t *testing.T) {
		env, _ := protocol.DecodeEnvelope([]byte(`{"event":"draw","data":{"canvasId":"c","drawing":{}}}`))
		_, err := env.Draw()
		assert.ErrorIs(t, err, protocol.ErrMalformed)
	})

	t.Run("missing drawing", func(t *testing.T) {
		env, _ := protocol.DecodeEnvelope([]byte(`{"event":"draw","data":{"roomId":"r","canvasId":"c"}}`))
		_, err := env.Draw()
		assert.ErrorIs(t, err, protocol.ErrMalformed)
	})

	t.Run("missing data", func(t *testing.T) {
		env, _ := protocol.DecodeEnvelope([]byte(`{"event":"draw"}`))
		_, err := env.Draw()
		assert.ErrorIs(t, err, protocol.ErrMalformed)
	})
}

func TestTextUpdate(t *testing.T) {
	t.Run("empty array is a valid replacement", func(t *testing.T) {
		env, _ := protocol.DecodeEnvelope([]byte(`{"event":"text-update","data":{"roomId":"r","canvasId":"c","textAreas":[]}}`))
		p, err := env.TextUpdate()
		require.NoError(t, err)
		assert.NotNil(t, p.TextAreas)
		assert.Empty(t, p.TextAreas)
	})

	t.Run("absent key is malformed", func(t *testing.T) {
		env, _ := protocol.DecodeEnvelope([]byte(`{"event":"text-update","data":{"roomId":"r","canvasId":"c"}}`))
		_, err := env.TextUpdate()
		assert.ErrorIs(t, err, protocol.ErrMalformed)
	})
}

func TestJoinRoom(t *testing.T) {
	env, _ := protocol.DecodeEnvelope([]byte(`{"event":"join-room","data":{"roomId":"r"}}`))
	p, err := env.JoinRoom()
	require.NoError(t, err)
	assert.Equal(t, "r", p.RoomID)

	env, _ = protocol.DecodeEnvelope([]byte(`{"event":"join-room","data":{}}`))
	_, err = env.JoinRoom()
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}

func TestNewCanvasAndCanvasRef(t *testing.T) {
	env, _ := protocol.DecodeEnvelope([]byte(`{"event":"new-canvas","data":{"roomId":"r","id":"c"}}`))
	nc, err := env.NewCanvas()
	require.NoError(t, err)
	assert.Equal(t, "c", nc.ID)

	env, _ = protocol.DecodeEnvelope([]byte(`{"event":"clear-canvas","data":{"roomId":"r","canvasId":"c"}}`))
	ref, err := env.CanvasRef()
	require.NoError(t, err)
	assert.Equal(t, "c", ref.CanvasID)

	env, _ = protocol.DecodeEnvelope([]byte(`{"event":"delete-canvas","data":{"roomId":"r"}}`))
	_, err = env.CanvasRef()
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}

func TestEncode(t *testing.T) {
	data, err := protocol.Encode(board.EventDraw, board.DrawBroadcast{
		CanvasID: "c",
		Drawing:  board.Payload(`{"x":1}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"draw","data":{"canvasId":"c","drawing":{"x":1}}}`, string(data))

	// delete-canvas carries the bare canvas id.
	data, err = protocol.Encode(board.EventDeleteCanvas, board.CanvasID("c"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"delete-canvas","data":"c"}`, string(data))
}
