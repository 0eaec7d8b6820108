package apperror

import "errors"

var (
	ErrGameFinished      = errors.New("game is already finished")
	ErrGameIsNotStarted  = errors.New("game is not started")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInvalidPlayerID   = errors.New("invalid player id")
	ErrOutOfBounds       = errors.New("move is out of the board")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrBoardFull         = errors.New("board is full")
	ErrMalformedMessage  = errors.New("malformed message")
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrUnknownGamePhase  = errors.New("unknown game phase")
	ErrSessionClosed     = errors.New("session is closed")
	ErrSessionOverflowed = errors.New("session outbound queue overflowed")
	ErrForeignPlayer     = errors.New("player belongs to another connection")
)
