package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ds124wfegd/png-diff-server/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// ConsumeDiffEvents reads diff-created events until ctx is done and passes
// each one to handle. Messages that do not parse are logged and skipped.
func ConsumeDiffEvents(ctx context.Context, brokers []string, topic, groupID string, handle func(entity.DiffCreatedEvent)) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	defer reader.Close()

	logrus.WithFields(logrus.Fields{"brokers": brokers, "topic": topic}).Info("diff event consumer started")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			logrus.WithError(err).Error("error reading message from kafka")
			return err
		}

		event, err := DecodeDiffEvent(msg.Value)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Warn("failed to parse diff event")
			continue
		}

		handle(event)
	}
}

func DecodeDiffEvent(data []byte) (entity.DiffCreatedEvent, error) {
	var event entity.DiffCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return entity.DiffCreatedEvent{}, err
	}
	if event.Artifact == "" {
		return entity.DiffCreatedEvent{}, errors.New("diff event without artifact")
	}
	return event, nil
}
