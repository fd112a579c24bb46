package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/kodi-rentals/service-rental/internal/domain/booking"
	propertyDomain "github.com/kodi-rentals/service-rental/internal/domain/property"
	"github.com/kodi-rentals/service-rental/pkg/kafka"
)

// Stores exposes repositories bound to one unit of work.
type Stores struct {
	Bookings   bookingDomain.BookingRepository
	Properties propertyDomain.PropertyRepository
}

// Transactor runs fn as one unit of work holding an exclusive lock on the property.
// Concurrent calls for the same property are serialized; a missing property yields a NotFound error.
// Any error returned by fn rolls the unit of work back.
type Transactor interface {
	WithinPropertyLock(ctx context.Context, propertyID uuid.UUID, fn func(ctx context.Context, stores Stores) error) error
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// Cache is a best-effort read-through cache. Load errors are returned to the caller and never cached.
type Cache interface {
	Fetch(ctx context.Context, key string, dest any, load func(ctx context.Context) (any, error)) error
	Invalidate(ctx context.Context, keys ...string)
	Generation(ctx context.Context, namespace string) int64
	BumpGeneration(ctx context.Context, namespace string)
}

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }
