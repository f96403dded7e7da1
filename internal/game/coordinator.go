package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"lukechampine.com/frand"
)

// State is whose input the coordinator is waiting for.
type State int

const (
	AwaitingHuman State = iota
	AwaitingEngine
	GameOver
)

func (s State) String() string {
	switch s {
	case AwaitingHuman:
		return "awaiting_human"
	case AwaitingEngine:
		return "awaiting_engine"
	}
	return "game_over"
}

// The human always plays PlayerA and the engine PlayerB.
const (
	HumanPiece  = PlayerA
	EnginePiece = PlayerB
)

// Presenter is the outside world: it draws boards, supplies the human's
// column and shows the final result.
type Presenter interface {
	RenderBoard(g *Grid)
	RequestHumanMove(ctx context.Context) (int, error)
	AnnounceResult(r Result)
}

// Strategy picks the automated player's move. *Engine is the default.
type Strategy interface {
	Decide(g *Grid) Decision
}

// Move is an applied move.
type Move struct {
	Piece  Piece `json:"piece"`
	Column int   `json:"column"`
	Row    int   `json:"row"`
}

// Settings is everything fixed when a game is created.
type Settings struct {
	Rules        Rules
	Depth        int
	Pruning      bool
	ParallelRoot bool
	RandomTies   bool
}

func DefaultSettings() Settings {
	return Settings{Rules: DefaultRules(), Depth: DefaultDepth, Pruning: true}
}

// NewEngine builds the engine described by s for EnginePiece.
func (s Settings) NewEngine(log zerolog.Logger) *Engine {
	var tb TieBreaker = FirstLegal{}
	if s.RandomTies {
		tb = RandomLegal{}
	}
	return NewEngine(EnginePiece, s.Depth,
		WithPruning(s.Pruning),
		WithParallelRoot(s.ParallelRoot),
		WithTieBreaker(tb),
		WithLogger(log),
	)
}

// Coordinator owns the live grid and alternates turns between the human
// and the engine.
type Coordinator struct {
	grid     *Grid
	strategy Strategy
	state    State
	moves    []Move
	log      zerolog.Logger

	first      Piece
	coin       func() bool
	start      *Grid
	strategyFn func(Settings, zerolog.Logger) Strategy
}

type CoordinatorOption func(*Coordinator)

// WithFirstMover fixes who moves first instead of tossing a coin.
func WithFirstMover(p Piece) CoordinatorOption {
	return func(c *Coordinator) { c.first = p }
}

// WithCoin replaces the first-mover coin. true means the human starts.
func WithCoin(coin func() bool) CoordinatorOption {
	return func(c *Coordinator) { c.coin = coin }
}

// WithStrategy wraps or replaces the engine built from the settings.
func WithStrategy(fn func(Settings, zerolog.Logger) Strategy) CoordinatorOption {
	return func(c *Coordinator) { c.strategyFn = fn }
}

// WithGrid starts the game from a copy of g instead of an empty board. g
// must use the same rules as the settings.
func WithGrid(g *Grid) CoordinatorOption {
	return func(c *Coordinator) { c.start = g }
}

func WithCoordinatorLogger(l zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.log = l }
}

func NewCoordinator(s Settings, opts ...CoordinatorOption) (*Coordinator, error) {
	grid, err := NewGrid(s.Rules)
	if err != nil {
		return nil, err
	}
	c := &Coordinator{
		grid: grid,
		log:  zerolog.Nop(),
		coin: func() bool { return frand.Intn(2) == 0 },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.start != nil {
		if c.start.rules != s.Rules {
			return nil, fmt.Errorf("%w: starting grid does not match the game rules", ErrInvalidRules)
		}
		c.grid = c.start.Clone()
		c.start = nil
	}
	if c.strategyFn != nil {
		c.strategy = c.strategyFn(s, c.log)
	} else {
		c.strategy = s.NewEngine(c.log)
	}

	switch c.first {
	case HumanPiece:
		c.state = AwaitingHuman
	case EnginePiece:
		c.state = AwaitingEngine
	default:
		if c.coin() {
			c.state = AwaitingHuman
		} else {
			c.state = AwaitingEngine
		}
	}
	if c.grid.IsTerminal() {
		c.state = GameOver
	}
	c.log.Debug().Stringer("state", c.state).Msg("game started")
	return c, nil
}

func (c *Coordinator) State() State   { return c.state }
func (c *Coordinator) Rules() Rules   { return c.grid.rules }
func (c *Coordinator) Result() Result { return c.grid.Result() }

// Grid returns a copy of the live grid.
func (c *Coordinator) Grid() *Grid { return c.grid.Clone() }

func (c *Coordinator) LegalColumns() []int { return c.grid.LegalColumns() }

func (c *Coordinator) Moves() []Move {
	out := make([]Move, len(c.moves))
	copy(out, c.moves)
	return out
}

// LastMove returns the most recent move, if any.
func (c *Coordinator) LastMove() (Move, bool) {
	if len(c.moves) == 0 {
		return Move{}, false
	}
	return c.moves[len(c.moves)-1], true
}

// Turn is the piece to move, or Empty once the game is over.
func (c *Coordinator) Turn() Piece {
	switch c.state {
	case AwaitingHuman:
		return HumanPiece
	case AwaitingEngine:
		return EnginePiece
	}
	return Empty
}

// Submit plays the human's column. A rejected move leaves the grid and the
// turn as they were.
func (c *Coordinator) Submit(col int) error {
	switch c.state {
	case GameOver:
		return ErrGameFinished
	case AwaitingEngine:
		return ErrNotYourTurn
	}
	return c.play(col, HumanPiece)
}

// PlayEngineTurn asks the strategy for a move and plays it.
func (c *Coordinator) PlayEngineTurn() (Decision, error) {
	switch c.state {
	case GameOver:
		return Decision{}, ErrGameFinished
	case AwaitingHuman:
		return Decision{}, ErrNotYourTurn
	}
	d := c.strategy.Decide(c.grid.Clone())
	if err := c.play(d.Column, EnginePiece); err != nil {
		return d, fmt.Errorf("engine move: %w", err)
	}
	return d, nil
}

func (c *Coordinator) play(col int, piece Piece) error {
	row, err := c.grid.Drop(col, piece)
	if err != nil {
		return err
	}
	c.moves = append(c.moves, Move{Piece: piece, Column: col, Row: row})

	if c.grid.HasRun(piece) || len(c.grid.LegalColumns()) == 0 {
		c.state = GameOver
		c.log.Debug().Stringer("result", c.grid.Result()).Int("moves", len(c.moves)).Msg("game over")
		return nil
	}
	if c.state == AwaitingHuman {
		c.state = AwaitingEngine
	} else {
		c.state = AwaitingHuman
	}
	return nil
}

// Play drives the game to the end through p. Rejected human columns are
// requested again; errors from p end the game early.
func (c *Coordinator) Play(ctx context.Context, p Presenter) (Result, error) {
	p.RenderBoard(c.Grid())
	for c.state != GameOver {
		if err := ctx.Err(); err != nil {
			return c.Result(), err
		}
		switch c.state {
		case AwaitingHuman:
			col, err := p.RequestHumanMove(ctx)
			if err != nil {
				return c.Result(), err
			}
			if err := c.Submit(col); err != nil {
				if errors.Is(err, ErrInvalidColumn) {
					c.log.Debug().Err(err).Int("column", col).Msg("rejected human move")
					continue
				}
				return c.Result(), err
			}
		case AwaitingEngine:
			if _, err := c.PlayEngineTurn(); err != nil {
				return c.Result(), err
			}
		}
		p.RenderBoard(c.Grid())
	}
	result := c.Result()
	p.AnnounceResult(result)
	return result, nil
}
