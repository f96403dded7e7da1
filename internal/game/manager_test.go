package game

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, cfg ManagerConfig) *Manager {
	t.Helper()
	if cfg.Settings.Rules == (Rules{}) {
		cfg.Settings = DefaultSettings()
		cfg.Settings.Depth = 2
	}
	cfg.Logger = zerolog.Nop()
	return NewManager(cfg)
}

func TestManagerStartAndMove(t *testing.T) {
	decisions := make(chan Decision, 4)
	m := newManager(t, ManagerConfig{
		IdleWindow: time.Minute,
		OnDecision: func(_ *Session, d Decision) { decisions <- d },
	})

	s, err := m.Start(WithFirstMover(HumanPiece))
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	require.Same(t, s, got)

	snap := s.Snapshot()
	assert.Equal(t, AwaitingHuman.String(), snap.State)
	assert.Equal(t, InProgress.String(), snap.Result)
	assert.Equal(t, HumanPiece, snap.Turn)
	assert.Len(t, snap.Board, DefaultRows)
	assert.Nil(t, snap.LastDecision)

	snap, err = m.HandleMove(s.ID, 3)
	require.NoError(t, err)
	require.Len(t, snap.Moves, 2)
	assert.Equal(t, HumanPiece, snap.Turn)
	require.NotNil(t, snap.LastDecision)
	assert.Equal(t, snap.Moves[1].Column, snap.LastDecision.Column)
	assert.Equal(t, PlayerA, snap.Board[DefaultRows-1][3])

	select {
	case d := <-decisions:
		assert.Equal(t, snap.LastDecision.Column, d.Column)
	case <-time.After(2 * time.Second):
		t.Fatal("decision callback not called")
	}
}

func TestManagerEngineOpens(t *testing.T) {
	m := newManager(t, ManagerConfig{IdleWindow: time.Minute})
	s, err := m.Start(WithFirstMover(EnginePiece))
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Moves, 1)
	assert.Equal(t, EnginePiece, snap.Moves[0].Piece)
	assert.Equal(t, HumanPiece, snap.Turn)
	assert.Len(t, s.Decisions(), 1)
}

func TestManagerRejections(t *testing.T) {
	m := newManager(t, ManagerConfig{IdleWindow: time.Minute})

	_, err := m.HandleMove("missing", 0)
	require.ErrorIs(t, err, ErrUnknownGame)

	s, err := m.Start(WithFirstMover(HumanPiece))
	require.NoError(t, err)
	snap, err := m.HandleMove(s.ID, 7)
	require.ErrorIs(t, err, ErrInvalidColumn)
	assert.Empty(t, snap.Moves)
	assert.Equal(t, HumanPiece, snap.Turn)
}

func TestManagerFinish(t *testing.T) {
	finished := make(chan *Session, 1)
	m := newManager(t, ManagerConfig{
		IdleWindow: time.Minute,
		OnFinish:   func(s *Session) { finished <- s },
	})

	start := mustParse(t, "OOO....", "XXX....")
	s, err := m.Start(WithGrid(start), WithFirstMover(HumanPiece))
	require.NoError(t, err)

	snap, err := m.HandleMove(s.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, GameOver.String(), snap.State)
	assert.Equal(t, PlayerAWins.String(), snap.Result)
	assert.Len(t, snap.WinningCells, DefaultRunLength)
	assert.NotNil(t, snap.EndedAt)
	assert.Equal(t, Empty, snap.Turn)

	select {
	case got := <-finished:
		assert.Equal(t, s.ID, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("finish callback not called")
	}

	_, err = m.HandleMove(s.ID, 4)
	require.ErrorIs(t, err, ErrGameFinished)
}

func TestManagerSweepIdle(t *testing.T) {
	m := newManager(t, ManagerConfig{IdleWindow: time.Minute})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	old, err := m.Start(WithFirstMover(HumanPiece))
	require.NoError(t, err)
	now = now.Add(50 * time.Second)
	fresh, err := m.Start(WithFirstMover(HumanPiece))
	require.NoError(t, err)

	now = now.Add(20 * time.Second)
	assert.Equal(t, 1, m.SweepIdle())
	_, ok := m.Get(old.ID)
	assert.False(t, ok)
	_, ok = m.Get(fresh.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}
