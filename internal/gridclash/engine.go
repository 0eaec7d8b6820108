package gridclash

import (
	"fmt"

	"github.com/rocketscienceinc/gridclash-backend/internal/apperror"
	"github.com/rocketscienceinc/gridclash-backend/internal/entity"
)

// MoveResult describes an applied move.
type MoveResult struct {
	From      entity.Position
	To        entity.Position
	Collision bool
	// Displaced is the id of the player pushed out by a collision.
	Displaced   string
	RespawnedAt entity.Position
	// Dropped is set when the displaced player found no empty cell.
	Dropped bool
}

// GameEngine enforces the rules over one board. It is not safe for concurrent use.
type GameEngine struct {
	board      *entity.Board
	phase      entity.Phase
	minPlayers int
	winScore   int
}

// New - minPlayers is the occupancy that starts the game, winScore <= 0 disables the win rule.
func New(minPlayers, winScore int) *GameEngine {
	return &GameEngine{
		board:      entity.NewBoard(),
		phase:      entity.NotStarted(),
		minPlayers: minPlayers,
		winScore:   winScore,
	}
}

func (that *GameEngine) Phase() entity.Phase {
	return that.phase
}

func (that *GameEngine) Occupancy() int {
	return that.board.Occupancy()
}

// Player - copy of the player and its position.
func (that *GameEngine) Player(id string) (entity.Player, entity.Position, bool) {
	pos, ok := that.board.Locate(id)
	if !ok {
		return entity.Player{}, entity.Position{}, false
	}

	player, _ := that.board.Cell(pos).Player()

	return *player, pos, true
}

// Snapshot - deep copy of the board and phase. Seq is left to the caller.
func (that *GameEngine) Snapshot() entity.Snapshot {
	return entity.Snapshot{
		WorldMap: that.board.WorldMap(),
		Phase:    that.phase,
		Players:  that.board.Occupancy(),
	}
}

// AddPlayer - places a new player at the first empty cell. Adding a present id changes nothing.
func (that *GameEngine) AddPlayer(id string) (string, error) {
	if id == "" {
		return "", apperror.ErrInvalidPlayerID
	}

	if _, ok := that.board.Locate(id); ok {
		return id, nil
	}

	pos, ok := that.board.FirstEmpty()
	if !ok {
		return id, fmt.Errorf("%w: player %s was not placed", apperror.ErrBoardFull, id)
	}

	that.board.Place(entity.NewPlayer(id), pos)

	if that.phase.IsNotStarted() && that.board.Occupancy() >= that.minPlayers {
		that.phase = entity.InProgress()
	}

	return id, nil
}

func (that *GameEngine) RemovePlayer(id string) bool {
	pos, ok := that.board.Locate(id)
	if !ok {
		return false
	}

	that.board.Clear(pos)

	return true
}

func (that *GameEngine) IsMoveValid(id string, direction entity.Direction) bool {
	return that.ValidateMove(id, direction) == nil
}

// ValidateMove - checks phase, presence and board edges.
func (that *GameEngine) ValidateMove(id string, direction entity.Direction) error {
	if err := that.phase.ConfirmInProgress(); err != nil {
		return err
	}

	if !direction.IsValid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidDirection, direction)
	}

	pos, ok := that.board.Locate(id)
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, id)
	}

	if !that.board.Contains(pos.Step(direction)) {
		return fmt.Errorf("%w: %s from (%d,%d)", apperror.ErrOutOfBounds, direction, pos.X, pos.Y)
	}

	return nil
}

// MovePlayer - applies a move. An invalid move returns an error and leaves the board untouched.
func (that *GameEngine) MovePlayer(id string, direction entity.Direction) (MoveResult, error) {
	if err := that.ValidateMove(id, direction); err != nil {
		return MoveResult{}, fmt.Errorf("invalid move: %w", err)
	}

	from, _ := that.board.Locate(id)
	mover, _ := that.board.Cell(from).Player()
	to := from.Step(direction)

	result := MoveResult{From: from, To: to}

	that.board.Clear(from)

	displaced, collision := that.board.Cell(to).Player()
	if !collision {
		that.board.Place(mover, to)
		return result, nil
	}

	result.Collision = true
	result.Displaced = displaced.ID
	mover.Score++

	// the destination is still occupied here, the vacated source is a candidate
	respawn, ok := that.board.FirstEmpty()

	that.board.Place(mover, to)

	if ok {
		that.board.Place(displaced, respawn)
		result.RespawnedAt = respawn
	} else {
		result.Dropped = true
	}

	that.updatePhase(mover)

	return result, nil
}

// MovePlayerOK - MovePlayer reduced to a success flag.
func (that *GameEngine) MovePlayerOK(id string, direction entity.Direction) bool {
	_, err := that.MovePlayer(id, direction)
	return err == nil
}

func (that *GameEngine) updatePhase(mover *entity.Player) {
	if that.winScore > 0 && that.phase.IsInProgress() && mover.Score >= that.winScore {
		that.phase = entity.Finished(mover.ID)
	}
}
