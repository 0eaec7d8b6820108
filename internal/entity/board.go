package entity

const BoardSize = 8

// Cell is either empty or occupied by exactly one player.
type Cell struct {
	player *Player
}

func EmptyCell() Cell {
	return Cell{}
}

// OccupiedCell - a nil player yields an empty cell.
func OccupiedCell(player *Player) Cell {
	return Cell{player: player}
}

func (that Cell) IsEmpty() bool {
	return that.player == nil
}

func (that Cell) Player() (*Player, bool) {
	return that.player, that.player != nil
}

// Board is a fixed grid stored as cells[y][x]. Scan order is row-major: y first, then x.
//
// index maps player id to position and is written together with every cell write.
// The grid stays the source of truth: Locate verifies the indexed cell and falls back to a scan.
type Board struct {
	cells [BoardSize][BoardSize]Cell
	index map[string]Position
}

func NewBoard() *Board {
	return &Board{
		index: make(map[string]Position),
	}
}

func (that *Board) Contains(pos Position) bool {
	return pos.X >= 0 && pos.X < BoardSize && pos.Y >= 0 && pos.Y < BoardSize
}

func (that *Board) Cell(pos Position) Cell {
	if !that.Contains(pos) {
		return EmptyCell()
	}
	return that.cells[pos.Y][pos.X]
}

// Locate - position of the player with the given id.
func (that *Board) Locate(id string) (Position, bool) {
	if pos, ok := that.index[id]; ok {
		if player, occupied := that.Cell(pos).Player(); occupied && player.ID == id {
			return pos, true
		}
		delete(that.index, id)
	}

	for y := range BoardSize {
		for x := range BoardSize {
			if player, ok := that.cells[y][x].Player(); ok && player.ID == id {
				that.index[id] = Position{X: x, Y: y}
				return Position{X: x, Y: y}, true
			}
		}
	}

	return Position{}, false
}

// FirstEmpty - first empty cell in scan order, false when the board is full.
func (that *Board) FirstEmpty() (Position, bool) {
	for y := range BoardSize {
		for x := range BoardSize {
			if that.cells[y][x].IsEmpty() {
				return Position{X: x, Y: y}, true
			}
		}
	}

	return Position{}, false
}

// Place writes the player into the cell unconditionally. Callers keep the one-cell-per-player invariant.
func (that *Board) Place(player *Player, pos Position) {
	if !that.Contains(pos) || player == nil {
		return
	}

	that.dropIndex(pos)
	that.cells[pos.Y][pos.X] = OccupiedCell(player)
	that.index[player.ID] = pos
}

func (that *Board) Clear(pos Position) {
	if !that.Contains(pos) {
		return
	}

	that.dropIndex(pos)
	that.cells[pos.Y][pos.X] = EmptyCell()
}

// dropIndex forgets the current occupant of pos, unless the index already points elsewhere.
func (that *Board) dropIndex(pos Position) {
	previous, ok := that.cells[pos.Y][pos.X].Player()
	if !ok {
		return
	}

	if indexed, found := that.index[previous.ID]; found && indexed == pos {
		delete(that.index, previous.ID)
	}
}

func (that *Board) Occupancy() int {
	count := 0
	for y := range BoardSize {
		for x := range BoardSize {
			if !that.cells[y][x].IsEmpty() {
				count++
			}
		}
	}

	return count
}

// Players - occupants in scan order.
func (that *Board) Players() []*Player {
	players := make([]*Player, 0, len(that.index))
	for y := range BoardSize {
		for x := range BoardSize {
			if player, ok := that.cells[y][x].Player(); ok {
				players = append(players, player)
			}
		}
	}

	return players
}

// WorldMap - deep copy of the grid, nil for empty cells.
func (that *Board) WorldMap() [BoardSize][BoardSize]*Player {
	var worldMap [BoardSize][BoardSize]*Player
	for y := range BoardSize {
		for x := range BoardSize {
			if player, ok := that.cells[y][x].Player(); ok {
				copied := *player
				worldMap[y][x] = &copied
			}
		}
	}

	return worldMap
}
