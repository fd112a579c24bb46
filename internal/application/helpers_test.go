package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kodi-rentals/service-rental/internal/application"
	"github.com/kodi-rentals/service-rental/internal/cache"
	bookingDomain "github.com/kodi-rentals/service-rental/internal/domain/booking"
	propertyDomain "github.com/kodi-rentals/service-rental/internal/domain/property"
	"github.com/kodi-rentals/service-rental/internal/repository/memory"
	"github.com/kodi-rentals/service-rental/pkg/kafka"
)

type publishedEvent struct {
	Topic string
	Type  string
	Event kafka.CloudEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, ce kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Type: ce.Type, Event: ce})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store      *memory.Store
	publisher  *recordingPublisher
	bookings   *application.BookingService
	properties *application.PropertyService
	reviews    *application.ReviewService
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	log := zap.NewNop()

	bookings := application.NewBookingService(
		store.Bookings(), store.Properties(), store,
		bookingDomain.NewNightlyPricingStrategy(), pub, log,
	)
	bookings.SetClock(func() time.Time { return now })

	return &fixture{
		store:      store,
		publisher:  pub,
		bookings:   bookings,
		properties: application.NewPropertyService(store.Properties(), store, cache.NewNoop(), pub, "RWF", log),
		reviews:    application.NewReviewService(store.Reviews(), store.Properties(), pub, log),
	}
}

// addProperty stores a listing directly and returns its ID and host.
func (f *fixture) addProperty(t *testing.T, nightlyRate int64) (propertyID, hostID uuid.UUID) {
	t.Helper()
	hostID = uuid.New()
	p, err := propertyDomain.NewProperty(hostID, "Hillside villa", "", "Kigali", nil, nightlyRate, "RWF", nil)
	require.NoError(t, err)
	require.NoError(t, f.store.Properties().Save(context.Background(), p))
	return p.ID(), hostID
}

func day(s string) time.Time {
	t, err := time.Parse(bookingDomain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func renter(id uuid.UUID) bookingDomain.Actor {
	return bookingDomain.Actor{UserID: id, Role: bookingDomain.RoleRenter}
}

func host(id uuid.UUID) bookingDomain.Actor {
	return bookingDomain.Actor{UserID: id, Role: bookingDomain.RoleHost}
}
