// Package memory is an in-process storage driver. Writers to one property are serialized
// by a per-property mutex, standing in for the row lock taken by the PostgreSQL driver.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kodi-rentals/service-rental/internal/application"
	bookingDomain "github.com/kodi-rentals/service-rental/internal/domain/booking"
	propertyDomain "github.com/kodi-rentals/service-rental/internal/domain/property"
	reviewDomain "github.com/kodi-rentals/service-rental/internal/domain/review"
	"github.com/kodi-rentals/service-rental/pkg/domain"
)

type propertyRecord struct {
	property *propertyDomain.Property
	deleted  bool
}

// Store holds every aggregate in maps guarded by one RWMutex.
type Store struct {
	mu         sync.RWMutex
	bookings   map[uuid.UUID]*bookingDomain.Booking
	properties map[uuid.UUID]propertyRecord
	reviews    map[uuid.UUID]*reviewDomain.Review

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		bookings:   make(map[uuid.UUID]*bookingDomain.Booking),
		properties: make(map[uuid.UUID]propertyRecord),
		reviews:    make(map[uuid.UUID]*reviewDomain.Review),
		locks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

// Bookings returns the booking repository.
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{store: s} }

// Properties returns the property repository.
func (s *Store) Properties() *PropertyRepository { return &PropertyRepository{store: s} }

// Reviews returns the review repository.
func (s *Store) Reviews() *ReviewRepository { return &ReviewRepository{store: s} }

// Ping satisfies health.Pinger.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) propertyLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

type snapshot struct {
	property propertyRecord
	bookings map[uuid.UUID]*bookingDomain.Booking
}

// WithinPropertyLock runs fn while holding the property's mutex. If fn fails, the property
// and its bookings are restored to their state before fn ran.
func (s *Store) WithinPropertyLock(
	ctx context.Context,
	propertyID uuid.UUID,
	fn func(ctx context.Context, stores application.Stores) error,
) error {
	lock := s.propertyLock(propertyID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	rec, ok := s.properties[propertyID]
	snap := snapshot{property: rec, bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
	for id, b := range s.bookings {
		if b.PropertyID() == propertyID {
			snap.bookings[id] = cloneBooking(b)
		}
	}
	s.mu.RUnlock()
	if !ok {
		return domain.NewNotFoundError("property", propertyID.String())
	}

	err := fn(ctx, application.Stores{Bookings: s.Bookings(), Properties: s.Properties()})
	if err != nil {
		s.restore(propertyID, snap)
	}
	return err
}

func (s *Store) restore(propertyID uuid.UUID, snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[propertyID] = snap.property
	for id, b := range s.bookings {
		if b.PropertyID() == propertyID {
			delete(s.bookings, id)
		}
	}
	for id, b := range snap.bookings {
		s.bookings[id] = b
	}
}

func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	var cancelledAt = b.CancelledAt()
	if cancelledAt != nil {
		t := *cancelledAt
		cancelledAt = &t
	}
	return bookingDomain.ReconstructBooking(
		b.ID(), b.PropertyID(), b.RenterID(), b.Stay(), b.Status(),
		b.TotalCost(), b.Currency(), cancelledAt, b.CancelledBy(), b.CancelReason(),
		b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func cloneProperty(p *propertyDomain.Property) *propertyDomain.Property {
	var coords *propertyDomain.Coordinates
	if c := p.Coordinates(); c != nil {
		cc := *c
		coords = &cc
	}
	return propertyDomain.Reconstruct(
		p.ID(), p.HostID(), p.Title(), p.Description(), p.Location(), coords,
		p.NightlyRate(), p.Currency(), append([]string(nil), p.MediaURLs()...),
		p.Version(), p.CreatedAt(), p.UpdatedAt(),
	)
}

func cloneReview(r *reviewDomain.Review) *reviewDomain.Review {
	return reviewDomain.Reconstruct(r.ID(), r.PropertyID(), r.RenterID(), r.Rating(), r.Comment(), r.CreatedAt(), r.UpdatedAt())
}

// page slices items for a 1-based page.
func page[T any](items []T, pageNum, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := (pageNum - 1) * limit
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
