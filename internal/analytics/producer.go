package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	EventEngineMove   = "engine_move"
	EventGameFinished = "game_finished"
)

// Event is the envelope written to the topic.
type Event struct {
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	log    zerolog.Logger
}

// NewProducer returns nil when there is nothing to publish to. A nil
// *Producer accepts and drops every event.
func NewProducer(brokers []string, topic string, log zerolog.Logger) *Producer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		AllowAutoTopicCreation: true,
		Balancer:               &kafka.Hash{},
	}
	return &Producer{writer: writer, log: log}
}

// Publish writes one event keyed by key, usually the game id, so a game's
// events stay on one partition.
func (p *Producer) Publish(ctx context.Context, key, event string, payload map[string]any) {
	if p == nil || p.writer == nil {
		return
	}
	data, err := json.Marshal(Event{Event: event, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		p.log.Error().Err(err).Str("event", event).Msg("encode analytics event")
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
		p.log.Warn().Err(err).Str("event", event).Msg("kafka publish failed")
	}
}

func (p *Producer) Close() {
	if p == nil || p.writer == nil {
		return
	}
	_ = p.writer.Close()
}
