package game

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultRows      = 6
	DefaultColumns   = 7
	DefaultRunLength = 4
)

// NoColumn is returned where a column is expected but none exists.
const NoColumn = -1

// Piece is the content of a single cell.
type Piece int8

const (
	Empty Piece = iota
	PlayerA
	PlayerB
)

var (
	ErrInvalidColumn    = errors.New("invalid column")
	ErrColumnOutOfRange = fmt.Errorf("%w: out of range", ErrInvalidColumn)
	ErrColumnFull       = fmt.Errorf("%w: column is full", ErrInvalidColumn)
	ErrNotYourTurn      = errors.New("not your turn")
	ErrGameFinished     = errors.New("game already finished")
	ErrInvalidRules     = errors.New("invalid rules")
	ErrFloatingPiece    = errors.New("piece above an empty cell")
	ErrUnknownGame      = errors.New("unknown game")
)

// Opponent returns the other player's piece. Empty has no opponent.
func (p Piece) Opponent() Piece {
	switch p {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	}
	return Empty
}

func (p Piece) String() string {
	switch p {
	case PlayerA:
		return "A"
	case PlayerB:
		return "B"
	}
	return "empty"
}

func (p Piece) symbol() byte {
	switch p {
	case PlayerA:
		return 'X'
	case PlayerB:
		return 'O'
	}
	return '.'
}

// Rules fixes the board shape and the run length needed to win.
type Rules struct {
	Rows      int
	Columns   int
	RunLength int
}

func DefaultRules() Rules {
	return Rules{Rows: DefaultRows, Columns: DefaultColumns, RunLength: DefaultRunLength}
}

func (r Rules) Validate() error {
	if r.Rows <= 0 || r.Columns <= 0 || r.RunLength <= 0 {
		return fmt.Errorf("%w: %dx%d run %d", ErrInvalidRules, r.Rows, r.Columns, r.RunLength)
	}
	if r.RunLength > r.Rows && r.RunLength > r.Columns {
		return fmt.Errorf("%w: run %d does not fit a %dx%d board", ErrInvalidRules, r.RunLength, r.Rows, r.Columns)
	}
	return nil
}

// CenterColumn is the column that earns the centre bonus.
func (r Rules) CenterColumn() int {
	return r.Columns / 2
}

// Cell addresses a single square. Row 0 is the bottom.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid is the board. Cells are stored row-major with row 0 at the bottom,
// so a column fills from low indexes to high ones.
type Grid struct {
	rules Rules
	cells []Piece
}

func NewGrid(rules Rules) (*Grid, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Grid{rules: rules, cells: make([]Piece, rules.Rows*rules.Columns)}, nil
}

// ParseGrid builds a grid from text, top row first, using '.' for empty,
// 'X' for PlayerA and 'O' for PlayerB. Missing rows are treated as empty
// rows at the top.
func ParseGrid(rules Rules, lines ...string) (*Grid, error) {
	g, err := NewGrid(rules)
	if err != nil {
		return nil, err
	}
	if len(lines) > rules.Rows {
		return nil, fmt.Errorf("%w: %d rows given for %d", ErrInvalidRules, len(lines), rules.Rows)
	}
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) != rules.Columns {
			return nil, fmt.Errorf("%w: row %q has %d columns, want %d", ErrInvalidRules, line, len(line), rules.Columns)
		}
		row := len(lines) - 1 - i
		for col := 0; col < rules.Columns; col++ {
			switch line[col] {
			case '.':
			case 'X', 'x':
				g.Apply(row, col, PlayerA)
			case 'O', 'o':
				g.Apply(row, col, PlayerB)
			default:
				return nil, fmt.Errorf("unexpected cell %q in row %q", line[col], line)
			}
		}
	}
	for col := 0; col < rules.Columns; col++ {
		seenEmpty := false
		for row := 0; row < rules.Rows; row++ {
			if g.At(row, col) == Empty {
				seenEmpty = true
			} else if seenEmpty {
				return nil, fmt.Errorf("%w: row %d column %d", ErrFloatingPiece, row, col)
			}
		}
	}
	return g, nil
}

func (g *Grid) Rules() Rules {
	return g.rules
}

func (g *Grid) index(row, col int) int {
	return row*g.rules.Columns + col
}

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.rules.Rows && col >= 0 && col < g.rules.Columns
}

// At returns the piece at row, col. Out-of-range cells read as Empty.
func (g *Grid) At(row, col int) Piece {
	if !g.inBounds(row, col) {
		return Empty
	}
	return g.cells[g.index(row, col)]
}

// IsColumnOpen reports whether col exists and its top cell is empty.
func (g *Grid) IsColumnOpen(col int) bool {
	if col < 0 || col >= g.rules.Columns {
		return false
	}
	return g.cells[g.index(g.rules.Rows-1, col)] == Empty
}

// NextOpenRow returns the lowest empty row of col.
func (g *Grid) NextOpenRow(col int) (int, bool) {
	if col < 0 || col >= g.rules.Columns {
		return NoColumn, false
	}
	for row := 0; row < g.rules.Rows; row++ {
		if g.cells[g.index(row, col)] == Empty {
			return row, true
		}
	}
	return NoColumn, false
}

// Apply writes piece into a cell. The caller guarantees the cell is the
// next open one in its column.
func (g *Grid) Apply(row, col int, piece Piece) {
	g.cells[g.index(row, col)] = piece
}

// Drop validates and plays piece into col, returning the row it landed on.
// On error the grid is untouched.
func (g *Grid) Drop(col int, piece Piece) (int, error) {
	if col < 0 || col >= g.rules.Columns {
		return NoColumn, fmt.Errorf("%w: %d", ErrColumnOutOfRange, col)
	}
	row, ok := g.NextOpenRow(col)
	if !ok {
		return NoColumn, fmt.Errorf("%w: %d", ErrColumnFull, col)
	}
	g.Apply(row, col, piece)
	return row, nil
}

// LegalColumns lists every open column in ascending order.
func (g *Grid) LegalColumns() []int {
	cols := make([]int, 0, g.rules.Columns)
	for col := 0; col < g.rules.Columns; col++ {
		if g.IsColumnOpen(col) {
			cols = append(cols, col)
		}
	}
	return cols
}

func (g *Grid) Clone() *Grid {
	cells := make([]Piece, len(g.cells))
	copy(cells, g.cells)
	return &Grid{rules: g.rules, cells: cells}
}

// Rows returns the board as piece values, top row first, the way the
// presenters draw it.
func (g *Grid) Rows() [][]Piece {
	out := make([][]Piece, g.rules.Rows)
	for i := range out {
		row := g.rules.Rows - 1 - i
		out[i] = make([]Piece, g.rules.Columns)
		copy(out[i], g.cells[g.index(row, 0):g.index(row, 0)+g.rules.Columns])
	}
	return out
}

// Key encodes the shape and contents of the grid.
func (g *Grid) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx%dr%d:", g.rules.Rows, g.rules.Columns, g.rules.RunLength)
	for _, p := range g.cells {
		b.WriteByte(p.symbol())
	}
	return b.String()
}

func (g *Grid) String() string {
	var b strings.Builder
	for row := g.rules.Rows - 1; row >= 0; row-- {
		for col := 0; col < g.rules.Columns; col++ {
			b.WriteByte(g.At(row, col).symbol())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
