package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"emittr/fourinarow/internal/game"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Load(context.Context, string) (game.Decision, bool, error) {
	return game.Decision{}, false, errors.New("load failed")
}

func (failingStore) Save(context.Context, string, game.Decision) error {
	return errors.New("save failed")
}

func emptyGrid(t *testing.T) *game.Grid {
	t.Helper()
	g, err := game.NewGrid(game.DefaultRules())
	require.NoError(t, err)
	return g
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "k", game.Decision{Column: 4, Score: 12}))
	d, ok, err := s.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, d.Column)
	assert.Equal(t, game.Score(12), d.Score)
	assert.Equal(t, 1, s.Len())
}

func TestCachedEngineReusesDecisions(t *testing.T) {
	store := NewMemoryStore()
	engine := game.NewEngine(game.PlayerB, 2)
	cached := NewCachedEngine(engine, store, zerolog.Nop())
	g := emptyGrid(t)

	first := cached.Decide(g)
	assert.Equal(t, 3, first.Column)
	assert.Greater(t, first.Nodes, int64(0))
	assert.Equal(t, 1, store.Len())

	second := cached.Decide(g)
	assert.Equal(t, first.Column, second.Column)
	assert.Equal(t, first.Score, second.Score)
	assert.Zero(t, second.Nodes)
	assert.Equal(t, 1, store.Len())
}

func TestCachedEngineKeyCoversSettings(t *testing.T) {
	g := emptyGrid(t)
	store := NewMemoryStore()
	a := NewCachedEngine(game.NewEngine(game.PlayerB, 2), store, zerolog.Nop())
	b := NewCachedEngine(game.NewEngine(game.PlayerB, 3), store, zerolog.Nop())
	c := NewCachedEngine(game.NewEngine(game.PlayerB, 2, game.WithPruning(false)), store, zerolog.Nop())

	assert.NotEqual(t, a.Key(g), b.Key(g))
	assert.NotEqual(t, a.Key(g), c.Key(g))

	moved := g.Clone()
	_, err := moved.Drop(0, game.PlayerA)
	require.NoError(t, err)
	assert.NotEqual(t, a.Key(g), a.Key(moved))
}

func TestCachedEngineIgnoresUnplayableEntry(t *testing.T) {
	g, err := game.ParseGrid(game.DefaultRules(), "O......", "X......", "O......", "X......", "O......", "X......")
	require.NoError(t, err)

	store := NewMemoryStore()
	cached := NewCachedEngine(game.NewEngine(game.PlayerB, 1), store, zerolog.Nop())
	require.NoError(t, store.Save(context.Background(), cached.Key(g), game.Decision{Column: 0}))

	d := cached.Decide(g)
	assert.True(t, g.IsColumnOpen(d.Column))
}

func TestCachedEngineSurvivesStoreErrors(t *testing.T) {
	cached := NewCachedEngine(game.NewEngine(game.PlayerB, 1), failingStore{}, zerolog.Nop())
	assert.Equal(t, 3, cached.Decide(emptyGrid(t)).Column)
}

func TestCachedEngineIsAStrategy(t *testing.T) {
	store := NewMemoryStore()
	settings := game.DefaultSettings()
	settings.Depth = 1
	c, err := game.NewCoordinator(settings,
		game.WithFirstMover(game.EnginePiece),
		game.WithStrategy(func(s game.Settings, log zerolog.Logger) game.Strategy {
			return NewCachedEngine(s.NewEngine(log), store, log)
		}),
	)
	require.NoError(t, err)

	d, err := c.PlayEngineTurn()
	require.NoError(t, err)
	assert.Equal(t, 3, d.Column)
	assert.Equal(t, 1, store.Len())
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	rs, err := NewRedisStore(ctx, url, time.Minute)
	require.NoError(t, err)
	defer rs.Close()

	key := "test:" + time.Now().Format(time.RFC3339Nano)
	_, ok, err := rs.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rs.Save(ctx, key, game.Decision{Column: 2, Score: -7, Depth: 3}))
	d, ok, err := rs.Load(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, game.Decision{Column: 2, Score: -7, Depth: 3}, d)
}

func TestNewRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url", time.Minute)
	require.Error(t, err)
}
