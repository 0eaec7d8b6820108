package entity

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rocketscienceinc/gridclash-backend/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoveRequest(t *testing.T) {
	t.Run("Accepts player_id", func(t *testing.T) {
		request, err := ParseMoveRequest([]byte(`{"player_id":"p1","direction":"Left"}`))

		require.NoError(t, err)
		assert.Equal(t, MoveRequest{PlayerID: "p1", Direction: Left}, request)
	})

	t.Run("Accepts player as an alias", func(t *testing.T) {
		request, err := ParseMoveRequest([]byte(`{"player":"p2","direction":"Up"}`))

		require.NoError(t, err)
		assert.Equal(t, MoveRequest{PlayerID: "p2", Direction: Up}, request)
	})

	t.Run("Player may be omitted", func(t *testing.T) {
		request, err := ParseMoveRequest([]byte(`{"direction":"Down"}`))

		require.NoError(t, err)
		assert.Empty(t, request.PlayerID)
		assert.Equal(t, Down, request.Direction)
	})

	t.Run("Rejects unknown direction", func(t *testing.T) {
		_, err := ParseMoveRequest([]byte(`{"player_id":"p1","direction":"Sideways"}`))

		require.ErrorIs(t, err, apperror.ErrMalformedMessage)
		assert.ErrorIs(t, err, apperror.ErrInvalidDirection)
	})

	t.Run("Rejects missing direction", func(t *testing.T) {
		_, err := ParseMoveRequest([]byte(`{"player_id":"p1"}`))

		assert.ErrorIs(t, err, apperror.ErrMalformedMessage)
	})

	t.Run("Rejects garbage", func(t *testing.T) {
		_, err := ParseMoveRequest([]byte(`not json`))

		assert.ErrorIs(t, err, apperror.ErrMalformedMessage)
	})
}

func TestNewStateMessage(t *testing.T) {
	// Given: a snapshot with one player at (1,0)
	board := NewBoard()
	board.Place(&Player{ID: "p1", Color: "255", Score: 2}, Position{X: 1, Y: 0})
	snapshot := Snapshot{WorldMap: board.WorldMap(), Phase: InProgress(), Players: 1, Seq: 7}

	// When: encoding the state message
	data, err := NewStateMessage(snapshot)
	require.NoError(t, err)

	// Then: the envelope carries the world map with nulls for empty cells
	var message struct {
		Action  string `json:"action"`
		Payload struct {
			WorldMap [][]map[string]any `json:"world_map"`
			Phase    Phase              `json:"phase"`
			Seq      uint64             `json:"seq"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &message))

	assert.Equal(t, ActionState, message.Action)
	assert.Equal(t, InProgress(), message.Payload.Phase)
	assert.Equal(t, uint64(7), message.Payload.Seq)
	require.Len(t, message.Payload.WorldMap, BoardSize)
	assert.Nil(t, message.Payload.WorldMap[0][0])
	assert.Equal(t, "p1", message.Payload.WorldMap[0][1]["id"])
	assert.Equal(t, "255", message.Payload.WorldMap[0][1]["color"])
}

func TestNewErrorMessage(t *testing.T) {
	data, err := NewErrorMessage(ActionMove, errors.New("boom"))
	require.NoError(t, err)

	var message Message
	require.NoError(t, json.Unmarshal(data, &message))
	assert.Equal(t, ActionError, message.Action)
	assert.JSONEq(t, `{"error":"boom","cause":"game:move"}`, string(message.Payload))
}
