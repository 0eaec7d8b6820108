package entity

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gridclash-backend/internal/apperror"
)

const (
	ActionState   = "game:state"
	ActionError   = "error"
	ActionMove    = "game:move"
	ActionConnect = "connect"
)

// Snapshot is the full board and phase pushed to clients. Seq grows by one per mutation.
type Snapshot struct {
	WorldMap [BoardSize][BoardSize]*Player `json:"world_map"`
	Phase    Phase                         `json:"phase"`
	Players  int                           `json:"players"`
	Seq      uint64                        `json:"seq"`
}

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
	Cause string `json:"cause"`
}

type ScoreEntry struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
}

// MoveRequest is the inbound move. The player may be named by "player_id" or "player".
type MoveRequest struct {
	PlayerID  string
	Direction Direction
}

type moveRequestJSON struct {
	PlayerID  string     `json:"player_id"`
	Player    string     `json:"player"`
	Direction *Direction `json:"direction"`
}

func ParseMoveRequest(data []byte) (MoveRequest, error) {
	var raw moveRequestJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return MoveRequest{}, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	if raw.Direction == nil {
		return MoveRequest{}, fmt.Errorf("%w: direction is required", apperror.ErrMalformedMessage)
	}

	request := MoveRequest{
		PlayerID:  raw.PlayerID,
		Direction: *raw.Direction,
	}
	if request.PlayerID == "" {
		request.PlayerID = raw.Player
	}

	return request, nil
}

func NewStateMessage(snapshot Snapshot) ([]byte, error) {
	return newMessage(ActionState, snapshot)
}

func NewErrorMessage(cause string, err error) ([]byte, error) {
	return newMessage(ActionError, ErrorPayload{Error: err.Error(), Cause: cause})
}

func newMessage(action string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	message, err := json.Marshal(Message{Action: action, Payload: payloadBytes})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return message, nil
}
