package game

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

const DefaultDepth = 3

// TieBreaker picks the column a search node falls back to before any child
// has been scored.
type TieBreaker interface {
	DefaultColumn(legal []int) int
}

// FirstLegal always falls back to the leftmost legal column.
type FirstLegal struct{}

func (FirstLegal) DefaultColumn(legal []int) int {
	if len(legal) == 0 {
		return NoColumn
	}
	return legal[0]
}

// RandomLegal falls back to a uniformly random legal column.
type RandomLegal struct{}

func (RandomLegal) DefaultColumn(legal []int) int {
	if len(legal) == 0 {
		return NoColumn
	}
	return legal[frand.Intn(len(legal))]
}

// Decision is the outcome of one ChooseMove call.
type Decision struct {
	Column  int           `json:"column"`
	Score   Score         `json:"score"`
	Depth   int           `json:"depth"`
	Nodes   int64         `json:"nodes"`
	Elapsed time.Duration `json:"elapsed"`
}

// Engine is a depth-limited minimax player with optional alpha-beta
// pruning. It never mutates the grids it is given.
type Engine struct {
	piece    Piece
	depth    int
	pruning  bool
	parallel bool
	tieBreak TieBreaker
	log      zerolog.Logger
}

type EngineOption func(*Engine)

func WithPruning(enabled bool) EngineOption {
	return func(e *Engine) { e.pruning = enabled }
}

// WithParallelRoot searches every root child in its own goroutine. Each
// child gets a full window, so there is no pruning across root children;
// the chosen column and score are the same as the sequential search.
func WithParallelRoot(enabled bool) EngineOption {
	return func(e *Engine) { e.parallel = enabled }
}

func WithTieBreaker(t TieBreaker) EngineOption {
	return func(e *Engine) { e.tieBreak = t }
}

func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine returns an engine that plays piece, looking depth plies ahead.
// Pruning is on by default.
func NewEngine(piece Piece, depth int, opts ...EngineOption) *Engine {
	if depth < 0 {
		depth = 0
	}
	e := &Engine{
		piece:    piece,
		depth:    depth,
		pruning:  true,
		tieBreak: FirstLegal{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Piece() Piece  { return e.piece }
func (e *Engine) Depth() int    { return e.depth }
func (e *Engine) Pruning() bool { return e.pruning }

// Search runs minimax from g with mover to play. The engine's piece
// maximizes, its opponent minimizes.
func (e *Engine) Search(g *Grid, depth int, alpha, beta Score, mover Piece) (int, Score) {
	s := searcher{engine: e}
	return s.search(g, depth, alpha, beta, mover)
}

// ChooseMove returns the engine's column for g, or NoColumn when g is full.
func (e *Engine) ChooseMove(g *Grid) int {
	return e.Decide(g).Column
}

// Decide runs the full-depth search from the engine's point of view.
func (e *Engine) Decide(g *Grid) Decision {
	start := time.Now()
	var (
		col   int
		score Score
		nodes int64
	)
	if e.parallel && e.depth > 0 && !g.IsTerminal() {
		col, score, nodes = e.searchRootParallel(g)
	} else {
		s := searcher{engine: e}
		col, score = s.search(g, e.depth, NegInf, PosInf, e.piece)
		nodes = s.nodes
	}
	d := Decision{Column: col, Score: score, Depth: e.depth, Nodes: nodes, Elapsed: time.Since(start)}
	e.log.Debug().
		Int("column", d.Column).
		Int64("score", int64(d.Score)).
		Int("depth", d.Depth).
		Int64("nodes", d.Nodes).
		Dur("elapsed", d.Elapsed).
		Bool("pruning", e.pruning).
		Bool("parallel", e.parallel).
		Msg("engine decision")
	return d
}

func (e *Engine) searchRootParallel(g *Grid) (int, Score, int64) {
	legal := g.LegalColumns()
	scores := make([]Score, len(legal))
	nodes := make([]int64, len(legal))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, col := range legal {
		eg.Go(func() error {
			s := searcher{engine: e}
			_, scores[i] = s.search(afterMove(g, col, e.piece), e.depth-1, NegInf, PosInf, e.piece.Opponent())
			nodes[i] = s.nodes
			return nil
		})
	}
	_ = eg.Wait()

	best := NegInf
	bestCol := e.tieBreak.DefaultColumn(legal)
	total := int64(1)
	for i, col := range legal {
		total += nodes[i]
		if scores[i] > best {
			best = scores[i]
			bestCol = col
		}
	}
	return bestCol, best, total
}

type searcher struct {
	engine *Engine
	nodes  int64
}

func (s *searcher) search(g *Grid, depth int, alpha, beta Score, mover Piece) (int, Score) {
	s.nodes++
	e := s.engine

	// A grid without legal columns is terminal, so this also covers a search
	// started on a full board.
	if depth <= 0 || g.IsTerminal() {
		return NoColumn, Heuristic(g, e.piece)
	}
	legal := g.LegalColumns()
	if len(legal) == 0 {
		return NoColumn, Heuristic(g, e.piece)
	}

	bestCol := e.tieBreak.DefaultColumn(legal)
	if mover == e.piece {
		best := NegInf
		for _, col := range legal {
			_, score := s.search(afterMove(g, col, mover), depth-1, alpha, beta, mover.Opponent())
			if score > best {
				best = score
				bestCol = col
			}
			if e.pruning {
				alpha = max(alpha, best)
				if alpha >= beta {
					break
				}
			}
		}
		return bestCol, best
	}

	best := PosInf
	for _, col := range legal {
		_, score := s.search(afterMove(g, col, mover), depth-1, alpha, beta, mover.Opponent())
		if score < best {
			best = score
			bestCol = col
		}
		if e.pruning {
			beta = min(beta, best)
			if alpha >= beta {
				break
			}
		}
	}
	return bestCol, best
}

func afterMove(g *Grid, col int, piece Piece) *Grid {
	child := g.Clone()
	row, _ := child.NextOpenRow(col)
	child.Apply(row, col, piece)
	return child
}
