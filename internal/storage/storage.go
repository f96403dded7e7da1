package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"emittr/fourinarow/internal/game"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "fourinarow:decision:"

// Store keeps engine decisions keyed by position and search settings.
type Store interface {
	Load(ctx context.Context, key string) (game.Decision, bool, error)
	Save(ctx context.Context, key string, d game.Decision) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]game.Decision
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]game.Decision)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (game.Decision, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.data[key]
	return d, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, d game.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = d
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// RedisStore shares decisions between server instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to url and pings it.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error pinging Redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Load(ctx context.Context, key string) (game.Decision, bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return game.Decision{}, false, nil
	}
	if err != nil {
		return game.Decision{}, false, err
	}
	var d game.Decision
	if err := json.Unmarshal(raw, &d); err != nil {
		return game.Decision{}, false, fmt.Errorf("decode decision %s: %w", key, err)
	}
	return d, true, nil
}

func (r *RedisStore) Save(ctx context.Context, key string, d game.Decision) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+key, raw, r.ttl).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// CachedEngine answers repeated positions from a Store and falls back to
// the engine. Store failures are logged and never stop a game.
type CachedEngine struct {
	engine  *game.Engine
	store   Store
	timeout time.Duration
	log     zerolog.Logger
}

func NewCachedEngine(engine *game.Engine, store Store, log zerolog.Logger) *CachedEngine {
	return &CachedEngine{engine: engine, store: store, timeout: 250 * time.Millisecond, log: log}
}

// Key identifies a search: the grid and every setting that changes the
// answer.
func (c *CachedEngine) Key(g *game.Grid) string {
	return fmt.Sprintf("p%s:d%d:ab%t:%s", c.engine.Piece(), c.engine.Depth(), c.engine.Pruning(), g.Key())
}

func (c *CachedEngine) Decide(g *game.Grid) game.Decision {
	key := c.Key(g)
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	d, ok, err := c.store.Load(ctx, key)
	cancel()
	if err != nil {
		c.log.Warn().Err(err).Msg("decision cache load failed")
	}
	if ok && g.IsColumnOpen(d.Column) {
		c.log.Debug().Int("column", d.Column).Msg("decision cache hit")
		d.Nodes = 0
		d.Elapsed = 0
		return d
	}

	d = c.engine.Decide(g)
	if d.Column == game.NoColumn {
		return d
	}
	ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.store.Save(ctx, key, d); err != nil {
		c.log.Warn().Err(err).Msg("decision cache save failed")
	}
	return d
}
