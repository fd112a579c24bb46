package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/kodi-rentals/service-rental/internal/domain/booking"
	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// BookingRepository implements booking.BookingRepository on a Store.
type BookingRepository struct {
	store *Store
}

// FindByID returns a copy of the booking, or NotFound.
func (r *BookingRepository) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return cloneBooking(b), nil
}

// FindActiveByPropertyID returns the property's non-canceled bookings other than excludeID, ordered by check-in.
func (r *BookingRepository) FindActiveByPropertyID(_ context.Context, propertyID, excludeID uuid.UUID) ([]*bookingDomain.Booking, error) {
	out := r.filter(func(b *bookingDomain.Booking) bool {
		return b.PropertyID() == propertyID && b.IsActive() && b.ID() != excludeID
	})
	sortByCheckIn(out)
	return out, nil
}

// FindLiveByRenterAndProperty returns the renter's earliest booking on the property that is still live at asOf, or nil.
func (r *BookingRepository) FindLiveByRenterAndProperty(_ context.Context, renterID, propertyID uuid.UUID, asOf time.Time) (*bookingDomain.Booking, error) {
	out := r.filter(func(b *bookingDomain.Booking) bool {
		return b.RenterID() == renterID && b.PropertyID() == propertyID && b.IsLiveAt(asOf)
	})
	if len(out) == 0 {
		return nil, nil
	}
	sortByCheckIn(out)
	return out[0], nil
}

// FindActiveByRenterID returns every non-canceled booking held by the renter.
func (r *BookingRepository) FindActiveByRenterID(_ context.Context, renterID uuid.UUID) ([]*bookingDomain.Booking, error) {
	out := r.filter(func(b *bookingDomain.Booking) bool {
		return b.RenterID() == renterID && b.IsActive()
	})
	sortByCheckIn(out)
	return out, nil
}

// FindStalePending returns up to limit PENDING bookings whose check-in is before asOf.
func (r *BookingRepository) FindStalePending(_ context.Context, asOf time.Time, limit int) ([]*bookingDomain.Booking, error) {
	out := r.filter(func(b *bookingDomain.Booking) bool {
		return b.Status() == bookingDomain.StatusPending && b.CheckIn().Before(asOf)
	})
	sortByCheckIn(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FindByRenterID returns a page of the renter's bookings, newest first.
func (r *BookingRepository) FindByRenterID(_ context.Context, renterID uuid.UUID, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(func(b *bookingDomain.Booking) bool { return b.RenterID() == renterID }, filter)
}

// FindByPropertyID returns a page of the property's bookings, newest first.
func (r *BookingRepository) FindByPropertyID(_ context.Context, propertyID uuid.UUID, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(func(b *bookingDomain.Booking) bool { return b.PropertyID() == propertyID }, filter)
}

// ListAll returns a page of all bookings, newest first.
func (r *BookingRepository) ListAll(_ context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(func(*bookingDomain.Booking) bool { return true }, filter)
}

// CountByStatus returns the number of bookings per status.
func (r *BookingRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	counts := make(map[string]int64)
	for _, b := range r.store.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

// Save inserts a new booking.
func (r *BookingRepository) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.bookings[b.ID()]; exists {
		return domain.NewConflictError("booking already exists")
	}
	r.store.bookings[b.ID()] = cloneBooking(b)
	return nil
}

// Update replaces a booking whose stored version is one behind b.
func (r *BookingRepository) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.bookings[b.ID()]
	if !ok || stored.Version() != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.store.bookings[b.ID()] = cloneBooking(b)
	return nil
}

// Delete hard-deletes a booking.
func (r *BookingRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.bookings[id]; !ok {
		return domain.NewNotFoundError("booking", id.String())
	}
	delete(r.store.bookings, id)
	return nil
}

func (r *BookingRepository) filter(keep func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*bookingDomain.Booking, 0)
	for _, b := range r.store.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

func (r *BookingRepository) paginate(keep func(*bookingDomain.Booking) bool, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	out := r.filter(func(b *bookingDomain.Booking) bool {
		if filter.Status != nil && b.Status() != *filter.Status {
			return false
		}
		return keep(b)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID().String() < out[j].ID().String()
		}
		return out[i].CreatedAt().After(out[j].CreatedAt())
	})
	return page(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func sortByCheckIn(bookings []*bookingDomain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CheckIn().Before(bookings[j].CheckIn())
	})
}
