package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gridclash-backend/internal/apperror"
)

const (
	StateNotStarted = "NotStarted"
	StateInProgress = "InProgress"
	StateFinished   = "Finished"
)

// Phase is the game-wide lifecycle state. Winner is set only when the phase is finished.
type Phase struct {
	State  string `json:"state"`
	Winner string `json:"winner,omitempty"`
}

func NotStarted() Phase {
	return Phase{State: StateNotStarted}
}

func InProgress() Phase {
	return Phase{State: StateInProgress}
}

func Finished(winner string) Phase {
	return Phase{State: StateFinished, Winner: winner}
}

func (that Phase) IsNotStarted() bool {
	return that.State == StateNotStarted
}

func (that Phase) IsInProgress() bool {
	return that.State == StateInProgress
}

func (that Phase) IsFinished() bool {
	return that.State == StateFinished
}

// ConfirmInProgress - returns nil only when moves are allowed.
func (that Phase) ConfirmInProgress() error {
	switch {
	case that.IsNotStarted():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsInProgress():
		return nil
	default:
		return fmt.Errorf("%w: %s", apperror.ErrUnknownGamePhase, that.State)
	}
}
