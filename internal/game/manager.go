package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session is one live game against the engine.
type Session struct {
	ID         string
	StartedAt  time.Time
	EndedAt    time.Time
	LastMoveAt time.Time

	mu          sync.Mutex
	coordinator *Coordinator
	decisions   []Decision
}

// Snapshot is a point-in-time copy of a session, safe to hand to
// presenters.
type Snapshot struct {
	ID           string     `json:"id"`
	Board        [][]Piece  `json:"board"`
	State        string     `json:"state"`
	Result       string     `json:"result"`
	Turn         Piece      `json:"turn"`
	LegalColumns []int      `json:"legalColumns"`
	Moves        []Move     `json:"moves"`
	WinningCells []Cell     `json:"winningCells,omitempty"`
	LastDecision *Decision  `json:"lastDecision,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
}

func (s *Session) snapshotLocked() Snapshot {
	c := s.coordinator
	g := c.grid
	snap := Snapshot{
		ID:           s.ID,
		Board:        g.Rows(),
		State:        c.State().String(),
		Result:       c.Result().String(),
		Turn:         c.Turn(),
		LegalColumns: g.LegalColumns(),
		Moves:        c.Moves(),
		StartedAt:    s.StartedAt,
	}
	if w := c.Result().Winner(); w != Empty {
		snap.WinningCells, _ = g.WinningRun(w)
	}
	if n := len(s.decisions); n > 0 {
		d := s.decisions[n-1]
		snap.LastDecision = &d
	}
	if !s.EndedAt.IsZero() {
		ended := s.EndedAt
		snap.EndedAt = &ended
	}
	return snap
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Decisions returns every engine decision made in this session.
func (s *Session) Decisions() []Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Decision, len(s.decisions))
	copy(out, s.decisions)
	return out
}

// Manager keeps the in-memory sessions of a server.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	settings   Settings
	options    []CoordinatorOption
	idleAfter  time.Duration
	onFinish   func(*Session)
	onDecision func(*Session, Decision)
	log        zerolog.Logger
	now        func() time.Time
}

type ManagerConfig struct {
	Settings   Settings
	IdleWindow time.Duration
	Options    []CoordinatorOption
	OnFinish   func(*Session)
	OnDecision func(*Session, Decision)
	Logger     zerolog.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		settings:   cfg.Settings,
		options:    cfg.Options,
		idleAfter:  cfg.IdleWindow,
		onFinish:   cfg.OnFinish,
		onDecision: cfg.OnDecision,
		log:        cfg.Logger,
		now:        time.Now,
	}
}

// Start creates a session. When the engine moves first its reply is
// already on the board.
func (m *Manager) Start(opts ...CoordinatorOption) (*Session, error) {
	all := append(append([]CoordinatorOption{WithCoordinatorLogger(m.log)}, m.options...), opts...)
	c, err := NewCoordinator(m.settings, all...)
	if err != nil {
		return nil, err
	}
	now := m.now()
	s := &Session{
		ID:          uuid.NewString(),
		StartedAt:   now,
		LastMoveAt:  now,
		coordinator: c,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := m.engineReplyLocked(s); err != nil {
		return nil, err
	}
	m.log.Info().Str("game", s.ID).Stringer("state", c.State()).Msg("session started")
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// HandleMove plays the human's column and, if the game goes on, the
// engine's answer.
func (m *Manager) HandleMove(id string, col int) (Snapshot, error) {
	s, ok := m.Get(id)
	if !ok {
		return Snapshot{}, ErrUnknownGame
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.coordinator.Submit(col); err != nil {
		return s.snapshotLocked(), err
	}
	s.LastMoveAt = m.now()
	if err := m.engineReplyLocked(s); err != nil {
		return s.snapshotLocked(), err
	}
	return s.snapshotLocked(), nil
}

func (m *Manager) engineReplyLocked(s *Session) error {
	c := s.coordinator
	if c.State() == AwaitingEngine {
		d, err := c.PlayEngineTurn()
		if err != nil {
			return err
		}
		s.decisions = append(s.decisions, d)
		s.LastMoveAt = m.now()
		if m.onDecision != nil {
			go m.onDecision(s, d)
		}
	}
	if c.State() == GameOver && s.EndedAt.IsZero() {
		s.EndedAt = m.now()
		m.log.Info().Str("game", s.ID).Stringer("result", c.Result()).Msg("session finished")
		if m.onFinish != nil {
			go m.onFinish(s)
		}
	}
	return nil
}

// SweepIdle drops sessions that have not seen a move within the idle
// window, finished or not.
func (m *Manager) SweepIdle() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.LastMoveAt) > m.idleAfter
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			removed++
			m.log.Info().Str("game", id).Msg("session expired")
		}
	}
	return removed
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
