package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id         uuid.UUID
	propertyID uuid.UUID
	renterID   uuid.UUID
	stay       DateRange
	status     BookingStatus

	totalCost int64
	currency  string

	cancelledAt  *time.Time
	cancelledBy  Party
	cancelReason string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=PENDING.
func NewBooking(
	propertyID uuid.UUID,
	renterID uuid.UUID,
	stay DateRange,
	totalCost int64,
	currency string,
	now time.Time,
) (*Booking, error) {
	if propertyID == uuid.Nil {
		return nil, domain.NewValidationError("property ID is required")
	}
	if renterID == uuid.Nil {
		return nil, domain.NewValidationError("renter ID is required")
	}
	if stay.IsZero() {
		return nil, domain.NewValidationError("stay dates are required")
	}
	if totalCost < 0 {
		return nil, domain.NewValidationError("total cost cannot be negative")
	}
	if currency == "" {
		currency = domain.CurrencyRWF
	}

	now = now.UTC()
	return &Booking{
		id:         uuid.New(),
		propertyID: propertyID,
		renterID:   renterID,
		stay:       stay,
		status:     StatusPending,
		totalCost:  totalCost,
		currency:   currency,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	propertyID uuid.UUID,
	renterID uuid.UUID,
	stay DateRange,
	status BookingStatus,
	totalCost int64,
	currency string,
	cancelledAt *time.Time,
	cancelledBy Party,
	cancelReason string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:           id,
		propertyID:   propertyID,
		renterID:     renterID,
		stay:         stay,
		status:       status,
		totalCost:    totalCost,
		currency:     currency,
		cancelledAt:  cancelledAt,
		cancelledBy:  cancelledBy,
		cancelReason: cancelReason,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// RestoreDateRange rebuilds a stored range without re-validating it.
func RestoreDateRange(checkIn, checkOut time.Time) DateRange {
	return DateRange{checkIn: truncateToDate(checkIn), checkOut: truncateToDate(checkOut)}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// PropertyID returns the booked property.
func (b *Booking) PropertyID() uuid.UUID { return b.propertyID }

// RenterID returns the renter who made the booking.
func (b *Booking) RenterID() uuid.UUID { return b.renterID }

// Stay returns the booked date range.
func (b *Booking) Stay() DateRange { return b.stay }

// CheckIn returns the first occupied day.
func (b *Booking) CheckIn() time.Time { return b.stay.CheckIn() }

// CheckOut returns the departure day.
func (b *Booking) CheckOut() time.Time { return b.stay.CheckOut() }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// TotalCost returns the stay cost in whole currency units.
func (b *Booking) TotalCost() int64 { return b.totalCost }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// CancelledAt returns the time the booking was canceled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelledBy returns which party canceled the booking.
func (b *Booking) CancelledBy() Party { return b.cancelledBy }

// CancelReason returns the cancellation reason.
func (b *Booking) CancelReason() string { return b.cancelReason }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsActive reports whether the booking still holds its dates.
func (b *Booking) IsActive() bool { return b.status.IsActive() }

// IsLiveAt reports whether the booking is active with a check-out after t.
func (b *Booking) IsLiveAt(t time.Time) bool {
	return b.IsActive() && b.stay.EndsAfter(t)
}

// --- Behavior ---

// ChangeDates moves the stay and sends the booking back to PENDING for host re-approval.
// The caller is responsible for the overlap check against the property's other bookings.
func (b *Booking) ChangeDates(actor Actor, hostID uuid.UUID, stay DateRange, totalCost int64, now time.Time) error {
	if err := AuthorizeDateChange(b.status, PartyOf(actor, b.renterID, hostID)); err != nil {
		return err
	}
	if stay.IsZero() {
		return domain.NewValidationError("stay dates are required")
	}
	b.stay = stay
	b.totalCost = totalCost
	b.status = StatusPending
	b.updatedAt = now.UTC()
	return nil
}

// TransitionTo applies an actor-driven status change.
func (b *Booking) TransitionTo(actor Actor, hostID uuid.UUID, target BookingStatus, now time.Time) error {
	if !target.IsValid() {
		return domain.NewValidationError("invalid booking status: " + string(target))
	}
	party := PartyOf(actor, b.renterID, hostID)
	if err := AuthorizeTransition(b.status, target, party); err != nil {
		return err
	}
	now = now.UTC()
	b.status = target
	if target == StatusCanceled {
		b.cancelledAt = &now
		b.cancelledBy = party
	}
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to CANCELED with a reason.
func (b *Booking) Cancel(actor Actor, hostID uuid.UUID, reason string, now time.Time) error {
	if err := b.TransitionTo(actor, hostID, StatusCanceled, now); err != nil {
		return err
	}
	b.cancelReason = reason
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
