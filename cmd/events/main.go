// tails diff-created events, one json line per artifact
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ds124wfegd/png-diff-server/config"
	"github.com/ds124wfegd/png-diff-server/internal/entity"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/kafka"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))
	logrus.SetOutput(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out := json.NewEncoder(os.Stdout)
	err := kafka.ConsumeDiffEvents(ctx,
		strings.Split(config.GetEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		config.GetEnv("KAFKA_TOPIC", "diff-created"),
		config.GetEnv("KAFKA_GROUP_ID", "png-diff-events"),
		func(event entity.DiffCreatedEvent) {
			if err := out.Encode(event); err != nil {
				logrus.WithError(err).Error("cannot write event")
			}
		},
	)
	if err != nil {
		logrus.Fatalf("consumer stopped: %s", err.Error())
	}
}
