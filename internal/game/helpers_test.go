package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, lines ...string) *Grid {
	t.Helper()
	g, err := ParseGrid(DefaultRules(), lines...)
	require.NoError(t, err)
	return g
}

// drawGrid is a full 6x7 board with no run for either side.
var drawGrid = []string{
	"OOXXOOX",
	"XXOOXXO",
	"OOXXOOX",
	"XXOOXXO",
	"OOXXOOX",
	"XXOOXXO",
}

// randomGrids plays random legal moves from an empty board and keeps the
// non-terminal positions it passes through.
func randomGrids(t *testing.T, seed int64, games int) []*Grid {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	var out []*Grid
	for i := 0; i < games; i++ {
		g, err := NewGrid(DefaultRules())
		require.NoError(t, err)
		piece := PlayerA
		plies := rng.Intn(30)
		for p := 0; p < plies && !g.IsTerminal(); p++ {
			legal := g.LegalColumns()
			_, err := g.Drop(legal[rng.Intn(len(legal))], piece)
			require.NoError(t, err)
			piece = piece.Opponent()
		}
		if !g.IsTerminal() {
			out = append(out, g)
		}
	}
	return out
}
