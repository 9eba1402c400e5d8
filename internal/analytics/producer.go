package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventGameStarted  = "game:started"
	EventGameTurn     = "game:turn"
	EventGameFinished = "game:finished"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes game events. A nil Producer is valid and drops everything.
type Producer struct {
	logger *slog.Logger
	writer messageWriter
}

func NewProducer(logger *slog.Logger, brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		logger: logger.With("component", "analytics"),
		writer: writer,
	}
}

// Publish keys the message by game id so one game's events stay ordered. Failures are logged only.
func (that *Producer) Publish(ctx context.Context, event, gameID string, payload map[string]any) {
	if that == nil || that.writer == nil {
		return
	}

	log := that.logger.With("method", "Publish", "event", event, "gameID", gameID)

	body := map[string]any{
		"event":     event,
		"game_id":   gameID,
		"payload":   payload,
		"timestamp": time.Now().UTC(),
	}

	data, err := json.Marshal(body)
	if err != nil {
		log.Error("failed to marshal event", "error", err)
		return
	}

	if err = that.writer.WriteMessages(ctx, kafka.Message{Key: []byte(gameID), Value: data}); err != nil {
		log.Error("kafka publish failed", "error", err)
	}
}

func (that *Producer) Close() error {
	if that == nil || that.writer == nil {
		return nil
	}

	return that.writer.Close()
}
