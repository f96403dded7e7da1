package game

// Result is derived from the grid after every move.
type Result int

const (
	InProgress Result = iota
	PlayerAWins
	PlayerBWins
	Draw
)

func (r Result) String() string {
	switch r {
	case PlayerAWins:
		return "player_a_wins"
	case PlayerBWins:
		return "player_b_wins"
	case Draw:
		return "draw"
	}
	return "in_progress"
}

// Winner returns the winning piece, or Empty for a draw or a live game.
func (r Result) Winner() Piece {
	switch r {
	case PlayerAWins:
		return PlayerA
	case PlayerBWins:
		return PlayerB
	}
	return Empty
}

type direction struct {
	dRow, dCol int
}

// horizontal, vertical, rising and falling diagonals
var directions = [...]direction{{0, 1}, {1, 0}, {1, 1}, {-1, 1}}

// forEachWindow visits the start of every span of RunLength cells in every
// direction exactly once. It stops early when fn returns false.
func (g *Grid) forEachWindow(fn func(row, col int, d direction) bool) {
	n := g.rules.RunLength - 1
	for _, d := range directions {
		for row := 0; row < g.rules.Rows; row++ {
			for col := 0; col < g.rules.Columns; col++ {
				if !g.inBounds(row+d.dRow*n, col+d.dCol*n) {
					continue
				}
				if !fn(row, col, d) {
					return
				}
			}
		}
	}
}

func (g *Grid) isRun(row, col int, d direction, piece Piece) bool {
	for i := 0; i < g.rules.RunLength; i++ {
		if g.cells[g.index(row+d.dRow*i, col+d.dCol*i)] != piece {
			return false
		}
	}
	return true
}

// HasRun reports whether piece owns RunLength contiguous cells in a line.
func (g *Grid) HasRun(piece Piece) bool {
	_, ok := g.WinningRun(piece)
	return ok
}

// WinningRun returns the cells of the first run of piece found.
func (g *Grid) WinningRun(piece Piece) ([]Cell, bool) {
	if piece == Empty {
		return nil, false
	}
	var cells []Cell
	g.forEachWindow(func(row, col int, d direction) bool {
		if !g.isRun(row, col, d, piece) {
			return true
		}
		cells = make([]Cell, g.rules.RunLength)
		for i := range cells {
			cells[i] = Cell{Row: row + d.dRow*i, Col: col + d.dCol*i}
		}
		return false
	})
	return cells, cells != nil
}

func (g *Grid) hasOpenColumn() bool {
	for col := 0; col < g.rules.Columns; col++ {
		if g.IsColumnOpen(col) {
			return true
		}
	}
	return false
}

// IsTerminal reports whether either side has a run or the board is full.
func (g *Grid) IsTerminal() bool {
	return g.HasRun(PlayerA) || g.HasRun(PlayerB) || !g.hasOpenColumn()
}

func (g *Grid) Result() Result {
	switch {
	case g.HasRun(PlayerA):
		return PlayerAWins
	case g.HasRun(PlayerB):
		return PlayerBWins
	case !g.hasOpenColumn():
		return Draw
	}
	return InProgress
}
