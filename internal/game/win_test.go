package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naiveRun walks every cell and direction without the window helper.
func naiveRun(g *Grid, piece Piece) bool {
	r := g.Rules()
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Columns; col++ {
			for _, d := range [][2]int{{0, 1}, {1, 0}, {1, 1}, {-1, 1}} {
				n := 0
				for i := 0; i < r.RunLength; i++ {
					rr, cc := row+d[0]*i, col+d[1]*i
					if rr < 0 || rr >= r.Rows || cc < 0 || cc >= r.Columns || g.At(rr, cc) != piece {
						break
					}
					n++
				}
				if n == r.RunLength {
					return true
				}
			}
		}
	}
	return false
}

func TestHasRunEmptyGrid(t *testing.T) {
	g, err := NewGrid(DefaultRules())
	require.NoError(t, err)
	assert.False(t, g.HasRun(PlayerA))
	assert.False(t, g.HasRun(PlayerB))
	assert.False(t, g.HasRun(Empty))
	assert.False(t, g.IsTerminal())
	assert.Equal(t, InProgress, g.Result())
}

func TestHasRunDirections(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		cells []Cell
	}{
		{
			name:  "horizontal",
			lines: []string{"OOXXXX."},
			cells: []Cell{{0, 2}, {0, 3}, {0, 4}, {0, 5}},
		},
		{
			name:  "vertical",
			lines: []string{"......X", "......X", "......X", "OOO...X"},
			cells: []Cell{{0, 6}, {1, 6}, {2, 6}, {3, 6}},
		},
		{
			name:  "rising diagonal",
			lines: []string{"...X...", "..XO...", ".XOO...", "XOOO..."},
			cells: []Cell{{0, 0}, {1, 1}, {2, 2}, {3, 3}},
		},
		{
			name:  "falling diagonal",
			lines: []string{"...X...", "...OX..", "...OOX.", "...OOOX"},
			cells: []Cell{{3, 3}, {2, 4}, {1, 5}, {0, 6}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustParse(t, tt.lines...)
			require.True(t, g.HasRun(PlayerA))
			require.False(t, g.HasRun(PlayerB))
			require.True(t, g.IsTerminal())
			require.Equal(t, PlayerAWins, g.Result())

			cells, ok := g.WinningRun(PlayerA)
			require.True(t, ok)
			assert.ElementsMatch(t, tt.cells, cells)
		})
	}
}

func TestHasRunMatchesNaiveScan(t *testing.T) {
	for _, g := range randomGrids(t, 11, 200) {
		for _, p := range []Piece{PlayerA, PlayerB} {
			require.Equal(t, naiveRun(g, p), g.HasRun(p), "%s\n%s", p, g)
		}
	}

	// Finished games as well, which the random helper drops.
	g := mustParse(t, "O.O....", "XXXX.OO")
	require.True(t, naiveRun(g, PlayerA))
	require.True(t, g.HasRun(PlayerA))
}

func TestThreeIsNotARun(t *testing.T) {
	g := mustParse(t, "X......", "X......", "XOOO...")
	assert.False(t, g.HasRun(PlayerA))
	assert.False(t, g.HasRun(PlayerB))
	assert.False(t, g.IsTerminal())
}

func TestFullBoardIsDraw(t *testing.T) {
	g := mustParse(t, drawGrid...)
	assert.False(t, g.HasRun(PlayerA))
	assert.False(t, g.HasRun(PlayerB))
	assert.Empty(t, g.LegalColumns())
	assert.True(t, g.IsTerminal())
	assert.Equal(t, Draw, g.Result())
	assert.Equal(t, Empty, g.Result().Winner())
}

func TestShorterRunLength(t *testing.T) {
	rules := Rules{Rows: 4, Columns: 4, RunLength: 3}
	g, err := ParseGrid(rules, ".X..", "OXO.", "OXO.")
	require.NoError(t, err)
	assert.True(t, g.HasRun(PlayerA))
	assert.False(t, g.HasRun(PlayerB))
}
