package game

import "math"

// Score is a position value from one side's point of view.
type Score int64

const (
	// WinScore is returned for a decided position. It sits far above any sum
	// ScorePosition can reach, and NegInf/PosInf sit outside both of them.
	WinScore Score = 10_000_000_000_000

	NegInf Score = math.MinInt64
	PosInf Score = math.MaxInt64
)

// Window weights.
const (
	scoreFull       = 100
	scoreOneShort   = 5
	scoreTwoShort   = 2
	scoreOppThreat  = -4
	scoreCenterCell = 3
)

// ScoreWindow rates a single span of RunLength cells for piece.
func ScoreWindow(window []Piece, piece Piece) int {
	var own, empty, opp int
	opponent := piece.Opponent()
	for _, p := range window {
		switch p {
		case piece:
			own++
		case Empty:
			empty++
		case opponent:
			opp++
		}
	}

	n := len(window)
	score := 0
	switch {
	case own == n:
		score += scoreFull
	case own == n-1 && empty == 1:
		score += scoreOneShort
	case own == n-2 && own > 0 && empty == 2:
		score += scoreTwoShort
	}
	if opp == n-1 && empty == 1 {
		score += scoreOppThreat
	}
	return score
}

// ScorePosition sums ScoreWindow over every window on the board and adds
// the centre column bonus.
func ScorePosition(g *Grid, piece Piece) int {
	score := 0
	center := g.rules.CenterColumn()
	for row := 0; row < g.rules.Rows; row++ {
		if g.At(row, center) == piece {
			score += scoreCenterCell
		}
	}

	window := make([]Piece, g.rules.RunLength)
	g.forEachWindow(func(row, col int, d direction) bool {
		for i := range window {
			window[i] = g.cells[g.index(row+d.dRow*i, col+d.dCol*i)]
		}
		score += ScoreWindow(window, piece)
		return true
	})
	return score
}

// Heuristic values g for piece. Decided positions score ±WinScore, a full
// board without a run scores 0, anything else is the difference of the two
// sides' ScorePosition.
func Heuristic(g *Grid, piece Piece) Score {
	opponent := piece.Opponent()
	if g.IsTerminal() {
		switch {
		case g.HasRun(piece):
			return WinScore
		case g.HasRun(opponent):
			return -WinScore
		}
		return 0
	}
	return Score(ScorePosition(g, piece) - ScorePosition(g, opponent))
}
