package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kodi-rentals/service-rental/pkg/events"
	"github.com/kodi-rentals/service-rental/pkg/kafka"
)

const defaultDeactivationReason = "renter account deactivated"

// RenterBookingCanceller is satisfied by *application.BookingService.
type RenterBookingCanceller interface {
	CancelRenterBookings(ctx context.Context, renterID uuid.UUID, reason string) (int, error)
}

// AccountEventConsumer listens to account events and releases the dates held by deactivated renters.
type AccountEventConsumer struct {
	consumer *kafka.Consumer
	service  RenterBookingCanceller
	logger   *zap.Logger
}

// NewAccountEventConsumer creates a new AccountEventConsumer.
func NewAccountEventConsumer(
	brokers []string,
	groupID string,
	service RenterBookingCanceller,
	logger *zap.Logger,
) *AccountEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicAccountEvents, logger)
	return &AccountEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming account events. This blocks until the context is cancelled.
func (c *AccountEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *AccountEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *AccountEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from account topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.UserDeactivated:
		return c.handleUserDeactivated(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled account event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *AccountEventConsumer) handleUserDeactivated(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.UserDeactivatedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse UserDeactivatedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}
	if evt.UserID == uuid.Nil {
		c.logger.Warn("user.deactivated event without user_id", zap.String("event_id", cloudEvent.ID))
		return nil
	}

	reason := evt.Reason
	if reason == "" {
		reason = defaultDeactivationReason
	}

	canceled, err := c.service.CancelRenterBookings(ctx, evt.UserID, reason)
	if err != nil {
		c.logger.Error("failed to cancel bookings of deactivated renter",
			zap.String("user_id", evt.UserID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("bookings canceled after account deactivation",
		zap.String("user_id", evt.UserID.String()),
		zap.Int("canceled", canceled),
	)
	return nil
}
