package entity

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gridclash-backend/internal/apperror"
)

type Direction string

const (
	Up    Direction = "Up"
	Down  Direction = "Down"
	Left  Direction = "Left"
	Right Direction = "Right"
)

// Position is a board coordinate. (0,0) is the top-left corner, x grows right and y grows down.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (that Direction) IsValid() bool {
	switch that {
	case Up, Down, Left, Right:
		return true
	default:
		return false
	}
}

// Offset - unit step for the direction.
func (that Direction) Offset() (int, int) {
	switch that {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	default:
		return 0, 0
	}
}

func (that Position) Step(direction Direction) Position {
	dx, dy := direction.Offset()
	return Position{X: that.X + dx, Y: that.Y + dy}
}

func (that *Direction) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidDirection, err)
	}

	direction := Direction(raw)
	if !direction.IsValid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidDirection, raw)
	}

	*that = direction

	return nil
}
