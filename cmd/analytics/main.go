package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"emittr/fourinarow/internal/analytics"
	"emittr/fourinarow/internal/config"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type metrics struct {
	mu            sync.Mutex
	results       map[string]int
	gameDurations []float64
	gamesPerDay   map[string]int
	totalGames    int
	engineMoves   int
	engineNodes   float64
	engineMillis  float64
	depths        map[int]int
}

func newMetrics() *metrics {
	return &metrics{
		results:     make(map[string]int),
		gamesPerDay: make(map[string]int),
		depths:      make(map[int]int),
	}
}

func (m *metrics) recordGameFinished(payload map[string]any, timestamp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalGames++
	if result, ok := payload["result"].(string); ok {
		m.results[result]++
	}
	if duration, ok := payload["duration"].(float64); ok {
		m.gameDurations = append(m.gameDurations, duration)
	}
	m.gamesPerDay[timestamp.Format("2006-01-02")]++
}

func (m *metrics) recordEngineMove(payload map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.engineMoves++
	if nodes, ok := payload["nodes"].(float64); ok {
		m.engineNodes += nodes
	}
	if ms, ok := payload["elapsedMs"].(float64); ok {
		m.engineMillis += ms
	}
	if depth, ok := payload["depth"].(float64); ok {
		m.depths[int(depth)]++
	}
}

func (m *metrics) printStats(log zerolog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	avgDuration := 0.0
	if len(m.gameDurations) > 0 {
		sum := 0.0
		for _, d := range m.gameDurations {
			sum += d
		}
		avgDuration = sum / float64(len(m.gameDurations))
	}
	avgNodes, avgMillis := 0.0, 0.0
	if m.engineMoves > 0 {
		avgNodes = m.engineNodes / float64(m.engineMoves)
		avgMillis = m.engineMillis / float64(m.engineMoves)
	}

	log.Info().
		Int("totalGames", m.totalGames).
		Float64("avgGameSeconds", avgDuration).
		Interface("results", m.results).
		Interface("gamesPerDay", m.gamesPerDay).
		Int("engineMoves", m.engineMoves).
		Float64("avgNodes", avgNodes).
		Float64("avgSearchMs", avgMillis).
		Interface("depths", m.depths).
		Msg("analytics summary")
}

func main() {
	logger := config.SetupLogger(config.GetEnv("LOG_LEVEL", "info"), config.GetEnv("LOG_FORMAT", "json"))
	brokers := config.GetEnvAsList("KAFKA_BROKERS")
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	topic := config.GetEnv("KAFKA_TOPIC", "game-events")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: "analytics-consumer",
	})
	defer reader.Close()

	logger.Info().Strs("brokers", brokers).Str("topic", topic).Msg("analytics consumer listening")

	m := newMetrics()
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.printStats(logger)
			}
		}
	}()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				m.printStats(logger)
				return
			}
			logger.Fatal().Err(err).Msg("read error")
		}
		var e analytics.Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			logger.Warn().Err(err).Msg("failed to unmarshal event")
			continue
		}

		switch e.Event {
		case analytics.EventGameFinished:
			m.recordGameFinished(e.Payload, e.Timestamp)
		case analytics.EventEngineMove:
			m.recordEngineMove(e.Payload)
		}
		logger.Debug().Str("event", e.Event).Interface("game", e.Payload["gameId"]).Msg("event")
	}
}
