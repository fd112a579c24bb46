package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/kodi-rentals/service-rental/pkg/kafka"
)

const eventSource = "service-rental"

type eventEmitter struct {
	producer EventPublisher
	logger   *zap.Logger
}

// publish wraps data into a CloudEvent keyed by subject. Failures are logged, never returned.
func (e eventEmitter) publish(ctx context.Context, topic, eventType, subject string, data interface{}) {
	if e.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		e.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = subject

	if err := e.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		e.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
