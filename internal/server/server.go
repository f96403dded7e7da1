package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"emittr/fourinarow/internal/analytics"
	"emittr/fourinarow/internal/game"
	"emittr/fourinarow/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Server struct {
	router    *gin.Engine
	manager   *game.Manager
	settings  game.Settings
	store     storage.Store
	analytics *analytics.Producer
	log       zerolog.Logger
	sweepTick time.Duration
}

type Config struct {
	Settings   game.Settings
	IdleWindow time.Duration
	Store      storage.Store
	Analytics  *analytics.Producer
	Logger     zerolog.Logger
}

func New(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))

	s := &Server{
		router:    router,
		settings:  cfg.Settings,
		store:     cfg.Store,
		analytics: cfg.Analytics,
		log:       cfg.Logger,
		sweepTick: 5 * time.Second,
	}
	s.manager = game.NewManager(game.ManagerConfig{
		Settings:   cfg.Settings,
		IdleWindow: cfg.IdleWindow,
		Options:    s.coordinatorOptions(),
		OnFinish:   s.onFinish,
		OnDecision: s.onDecision,
		Logger:     cfg.Logger,
	})

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.POST("/games", s.handleCreateGame)
	router.GET("/games/:id", s.handleGetGame)
	router.GET("/games/:id/legal", s.handleLegalColumns)
	router.POST("/games/:id/moves", s.handleMove)
	router.GET("/ws", s.handleWS)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Manager() *game.Manager {
	return s.manager
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	go s.sweeper(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.manager.SweepIdle()
		}
	}
}

// coordinatorOptions puts the decision cache in front of the engine when a
// store is configured.
func (s *Server) coordinatorOptions() []game.CoordinatorOption {
	if s.store == nil {
		return nil
	}
	store := s.store
	return []game.CoordinatorOption{
		game.WithStrategy(func(set game.Settings, log zerolog.Logger) game.Strategy {
			return storage.NewCachedEngine(set.NewEngine(log), store, log)
		}),
	}
}

type createGameRequest struct {
	First string `json:"first"`
}

type moveRequest struct {
	Column *int `json:"column" binding:"required"`
}

func firstMoverOption(first string) (game.CoordinatorOption, bool) {
	switch first {
	case "":
		return nil, true
	case "human":
		return game.WithFirstMover(game.HumanPiece), true
	case "engine":
		return game.WithFirstMover(game.EnginePiece), true
	}
	return nil, false
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createGameRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	opt, ok := firstMoverOption(req.First)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "first must be human or engine"})
		return
	}
	var opts []game.CoordinatorOption
	if opt != nil {
		opts = append(opts, opt)
	}
	session, err := s.manager.Start(opts...)
	if err != nil {
		s.log.Error().Err(err).Msg("start game")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, session.Snapshot())
}

func (s *Server) handleGetGame(c *gin.Context) {
	session, ok := s.manager.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": game.ErrUnknownGame.Error()})
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) handleLegalColumns(c *gin.Context) {
	session, ok := s.manager.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": game.ErrUnknownGame.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"legalColumns": session.Snapshot().LegalColumns})
}

func (s *Server) handleMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "column required"})
		return
	}
	snap, err := s.manager.HandleMove(c.Param("id"), *req.Column)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "game": snap})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrUnknownGame):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidColumn):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotYourTurn), errors.Is(err, game.ErrGameFinished):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) onDecision(session *game.Session, d game.Decision) {
	s.analytics.Publish(context.Background(), session.ID, analytics.EventEngineMove, decisionPayload(session.ID, d))
}

func (s *Server) onFinish(session *game.Session) {
	snap := session.Snapshot()
	s.analytics.Publish(context.Background(), session.ID, analytics.EventGameFinished, finishPayload(snap, session.Decisions()))
}

func decisionPayload(id string, d game.Decision) map[string]any {
	return map[string]any{
		"gameId":    id,
		"column":    d.Column,
		"score":     int64(d.Score),
		"depth":     d.Depth,
		"nodes":     d.Nodes,
		"elapsedMs": float64(d.Elapsed.Microseconds()) / 1000,
	}
}

func finishPayload(snap game.Snapshot, decisions []game.Decision) map[string]any {
	var nodes int64
	for _, d := range decisions {
		nodes += d.Nodes
	}
	duration := 0.0
	if snap.EndedAt != nil {
		duration = snap.EndedAt.Sub(snap.StartedAt).Seconds()
	}
	return map[string]any{
		"gameId":      snap.ID,
		"result":      snap.Result,
		"moves":       len(snap.Moves),
		"engineMoves": len(decisions),
		"engineNodes": nodes,
		"duration":    duration,
		"startedAt":   snap.StartedAt,
		"endedAt":     snap.EndedAt,
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
