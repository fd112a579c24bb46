package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/kodi-rentals/service-rental/internal/domain/booking"
	propertyDomain "github.com/kodi-rentals/service-rental/internal/domain/property"
	"github.com/kodi-rentals/service-rental/pkg/domain"
	"github.com/kodi-rentals/service-rental/pkg/events"
)

const staleBatchSize = 100

// CreateBookingRequest holds the data needed to request a stay.
type CreateBookingRequest struct {
	CheckIn  string `json:"check_in" binding:"required,date"`
	CheckOut string `json:"check_out" binding:"required,date"`
}

// UpdateBookingDatesRequest holds the new stay dates.
type UpdateBookingDatesRequest struct {
	CheckIn  string `json:"check_in" binding:"required,date"`
	CheckOut string `json:"check_out" binding:"required,date"`
}

// UpdateBookingStatusRequest holds the target status of a transition.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING CONFIRMED CANCELED"`
	Reason string `json:"reason" binding:"max=500"`
}

// CancelBookingRequest holds an optional cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID           uuid.UUID  `json:"id"`
	PropertyID   uuid.UUID  `json:"property_id"`
	RenterID     uuid.UUID  `json:"renter_id"`
	CheckIn      string     `json:"check_in"`
	CheckOut     string     `json:"check_out"`
	Nights       int        `json:"nights"`
	Status       string     `json:"status"`
	TotalCost    int64      `json:"total_cost"`
	Currency     string     `json:"currency"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy  string     `json:"cancelled_by,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	Version      int64      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// QuoteDTO is a price preview for a stay.
type QuoteDTO struct {
	PropertyID  uuid.UUID `json:"property_id"`
	CheckIn     string    `json:"check_in"`
	CheckOut    string    `json:"check_out"`
	Nights      int       `json:"nights"`
	NightlyRate int64     `json:"nightly_rate"`
	TotalCost   int64     `json:"total_cost"`
	Currency    string    `json:"currency"`
	Available   bool      `json:"available"`
}

// BookingStatsDTO holds aggregate booking statistics.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service orchestrating booking use cases.
// Every mutation runs inside Transactor.WithinPropertyLock so that reading the
// property's active bookings, checking for overlap and writing happen atomically.
type BookingService struct {
	bookings   bookingDomain.BookingRepository
	properties propertyDomain.PropertyRepository
	tx         Transactor
	pricing    bookingDomain.PricingStrategy
	events     eventEmitter
	logger     *zap.Logger
	now        Clock
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	properties propertyDomain.PropertyRepository,
	tx Transactor,
	pricing bookingDomain.PricingStrategy,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:   bookings,
		properties: properties,
		tx:         tx,
		pricing:    pricing,
		events:     eventEmitter{producer: producer, logger: logger},
		logger:     logger,
		now:        systemClock,
	}
}

// SetClock replaces the time source.
func (s *BookingService) SetClock(clock Clock) {
	s.now = clock
}

// CreateBooking requests a stay for renterID. The booking starts PENDING.
func (s *BookingService) CreateBooking(ctx context.Context, propertyID, renterID uuid.UUID, checkIn, checkOut time.Time) (*BookingDTO, error) {
	stay, err := bookingDomain.NewDateRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	var (
		bk     *bookingDomain.Booking
		hostID uuid.UUID
	)
	err = s.tx.WithinPropertyLock(ctx, propertyID, func(ctx context.Context, st Stores) error {
		prop, err := st.Properties.FindByID(ctx, propertyID)
		if err != nil {
			return err
		}
		hostID = prop.HostID()
		now := s.now()

		existing, err := st.Bookings.FindLiveByRenterAndProperty(ctx, renterID, propertyID, now)
		if err != nil {
			return fmt.Errorf("failed to check renter bookings: %w", err)
		}
		if existing != nil {
			return domain.NewDuplicateActiveBookingError(existing.ID().String())
		}

		active, err := st.Bookings.FindActiveByPropertyID(ctx, propertyID, uuid.Nil)
		if err != nil {
			return fmt.Errorf("failed to load property bookings: %w", err)
		}
		if err := bookingDomain.EnsureAvailable(stay, active, uuid.Nil); err != nil {
			return err
		}

		cost, err := s.pricing.Calculate(bookingDomain.PricingParams{NightlyRate: prop.NightlyRate(), Stay: stay})
		if err != nil {
			return err
		}

		bk, err = bookingDomain.NewBooking(propertyID, renterID, stay, cost, prop.Currency(), now)
		if err != nil {
			return err
		}
		if err := st.Bookings.Save(ctx, bk); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking requested",
		zap.String("booking_id", bk.ID().String()),
		zap.String("property_id", propertyID.String()),
		zap.String("renter_id", renterID.String()),
		zap.String("stay", bk.Stay().String()),
	)
	s.publishBookingEvent(ctx, events.BookingRequested, bk, hostID, bookingDomain.PartyRenter)

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateBookingDates moves the stay of renterID's booking and sends it back to PENDING.
func (s *BookingService) UpdateBookingDates(ctx context.Context, bookingID, renterID uuid.UUID, checkIn, checkOut time.Time) (*BookingDTO, error) {
	stay, err := bookingDomain.NewDateRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	current, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var (
		bk     *bookingDomain.Booking
		hostID uuid.UUID
	)
	err = s.tx.WithinPropertyLock(ctx, current.PropertyID(), func(ctx context.Context, st Stores) error {
		bk, err = st.Bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}

		actor := bookingDomain.Actor{UserID: renterID, Role: bookingDomain.RoleRenter}
		if err := bookingDomain.AuthorizeDateChange(bk.Status(), bookingDomain.PartyOf(actor, bk.RenterID(), uuid.Nil)); err != nil {
			return err
		}

		prop, err := st.Properties.FindByID(ctx, bk.PropertyID())
		if err != nil {
			return err
		}
		hostID = prop.HostID()

		active, err := st.Bookings.FindActiveByPropertyID(ctx, bk.PropertyID(), bk.ID())
		if err != nil {
			return fmt.Errorf("failed to load property bookings: %w", err)
		}
		if err := bookingDomain.EnsureAvailable(stay, active, bk.ID()); err != nil {
			return err
		}

		cost, err := s.pricing.Calculate(bookingDomain.PricingParams{NightlyRate: prop.NightlyRate(), Stay: stay})
		if err != nil {
			return err
		}
		if err := bk.ChangeDates(actor, hostID, stay, cost, s.now()); err != nil {
			return err
		}

		bk.IncrementVersion()
		return st.Bookings.Update(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking dates changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("stay", bk.Stay().String()),
	)
	s.publishBookingEvent(ctx, events.BookingDatesChanged, bk, hostID, bookingDomain.PartyRenter)

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateBookingStatus applies a status transition on behalf of actor.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor, newStatus, reason string) (*BookingDTO, error) {
	target, err := bookingDomain.ParseBookingStatus(newStatus)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	return s.changeStatus(ctx, bookingID, actor, target, reason)
}

// CancelBooking cancels a booking on behalf of its renter or the property's host.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor, reason string) (*BookingDTO, error) {
	return s.changeStatus(ctx, bookingID, actor, bookingDomain.StatusCanceled, reason)
}

func (s *BookingService) changeStatus(
	ctx context.Context,
	bookingID uuid.UUID,
	actor bookingDomain.Actor,
	target bookingDomain.BookingStatus,
	reason string,
) (*BookingDTO, error) {
	current, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var (
		bk     *bookingDomain.Booking
		hostID uuid.UUID
	)
	err = s.tx.WithinPropertyLock(ctx, current.PropertyID(), func(ctx context.Context, st Stores) error {
		bk, err = st.Bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		hostID, err = hostOf(ctx, st.Properties, bk.PropertyID())
		if err != nil {
			return err
		}

		if target == bookingDomain.StatusCanceled {
			err = bk.Cancel(actor, hostID, reason, s.now())
		} else {
			err = bk.TransitionTo(actor, hostID, target, s.now())
		}
		if err != nil {
			return err
		}

		bk.IncrementVersion()
		return st.Bookings.Update(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	party := bookingDomain.PartyOf(actor, bk.RenterID(), hostID)
	s.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("status", string(bk.Status())),
		zap.String("by", string(party)),
	)

	eventType := events.BookingConfirmed
	if bk.Status() == bookingDomain.StatusCanceled {
		eventType = events.BookingCanceled
	}
	s.publishBookingEvent(ctx, eventType, bk, hostID, party)

	result := toBookingDTO(bk)
	return &result, nil
}

// DeleteBooking permanently removes renterID's booking.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID, renterID uuid.UUID) error {
	current, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	var bk *bookingDomain.Booking
	err = s.tx.WithinPropertyLock(ctx, current.PropertyID(), func(ctx context.Context, st Stores) error {
		bk, err = st.Bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if bk.RenterID() != renterID {
			return domain.NewUnauthorizedTransitionError(string(bk.Status()), "DELETED", string(bookingDomain.PartyNone))
		}
		return st.Bookings.Delete(ctx, bk.ID())
	})
	if err != nil {
		return err
	}

	s.logger.Info("booking deleted",
		zap.String("booking_id", bk.ID().String()),
		zap.String("renter_id", renterID.String()),
	)
	s.publishBookingEvent(ctx, events.BookingDeleted, bk, uuid.Nil, bookingDomain.PartyRenter)
	return nil
}

// GetBooking returns a booking visible to actor: its renter, the property's host, or an admin.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if actor.Role != bookingDomain.RoleAdmin {
		hostID, err := hostOf(ctx, s.properties, bk.PropertyID())
		if err != nil {
			return nil, err
		}
		if bookingDomain.PartyOf(actor, bk.RenterID(), hostID) == bookingDomain.PartyNone {
			return nil, domain.NewNotFoundError("booking", bookingID.String())
		}
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// ListRenterBookings returns a renter's bookings, newest first.
func (s *BookingService) ListRenterBookings(ctx context.Context, renterID uuid.UUID, status string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	filter, err := newBookingFilter(status, page, limit)
	if err != nil {
		return nil, err
	}
	bookings, total, err := s.bookings.FindByRenterID(ctx, renterID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list renter bookings: %w", err)
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// ListPropertyBookings returns the bookings of a property to its host or an admin.
func (s *BookingService) ListPropertyBookings(
	ctx context.Context,
	propertyID uuid.UUID,
	actor bookingDomain.Actor,
	status string,
	page, limit int,
) (*domain.PaginatedResult[BookingDTO], error) {
	prop, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if actor.Role != bookingDomain.RoleAdmin && !prop.IsOwnedBy(actor.UserID) {
		return nil, domain.NewForbiddenError("only the property host can view its bookings")
	}

	filter, err := newBookingFilter(status, page, limit)
	if err != nil {
		return nil, err
	}
	bookings, total, err := s.bookings.FindByPropertyID(ctx, propertyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list property bookings: %w", err)
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// Quote prices a stay and reports whether the dates are currently free. Nothing is persisted.
func (s *BookingService) Quote(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut time.Time) (*QuoteDTO, error) {
	stay, err := bookingDomain.NewDateRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	prop, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	cost, err := s.pricing.Calculate(bookingDomain.PricingParams{NightlyRate: prop.NightlyRate(), Stay: stay})
	if err != nil {
		return nil, err
	}
	active, err := s.bookings.FindActiveByPropertyID(ctx, propertyID, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load property bookings: %w", err)
	}

	return &QuoteDTO{
		PropertyID:  propertyID,
		CheckIn:     stay.CheckIn().Format(bookingDomain.DateLayout),
		CheckOut:    stay.CheckOut().Format(bookingDomain.DateLayout),
		Nights:      stay.Nights(),
		NightlyRate: prop.NightlyRate(),
		TotalCost:   cost,
		Currency:    prop.Currency(),
		Available:   bookingDomain.FindConflict(stay, active, uuid.Nil) == nil,
	}, nil
}

// ExpireStalePending cancels PENDING bookings whose check-in day has passed without host approval.
func (s *BookingService) ExpireStalePending(ctx context.Context) (int, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	stale, err := s.bookings.FindStalePending(ctx, today, staleBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale bookings: %w", err)
	}
	return s.cancelAll(ctx, stale, "pending request expired"), nil
}

// CancelRenterBookings cancels every active booking of a renter, e.g. after account deactivation.
func (s *BookingService) CancelRenterBookings(ctx context.Context, renterID uuid.UUID, reason string) (int, error) {
	active, err := s.bookings.FindActiveByRenterID(ctx, renterID)
	if err != nil {
		return 0, fmt.Errorf("failed to find renter bookings: %w", err)
	}
	return s.cancelAll(ctx, active, reason), nil
}

func (s *BookingService) cancelAll(ctx context.Context, bookings []*bookingDomain.Booking, reason string) int {
	canceled := 0
	for _, bk := range bookings {
		if _, err := s.changeStatus(ctx, bk.ID(), bookingDomain.SystemActor, bookingDomain.StatusCanceled, reason); err != nil {
			s.logger.Warn("failed to cancel booking",
				zap.String("booking_id", bk.ID().String()),
				zap.String("reason", reason),
				zap.Error(err),
			)
			continue
		}
		canceled++
	}
	return canceled
}

// ListAllBookings retrieves all bookings with pagination (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, status string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	filter, err := newBookingFilter(status, page, limit)
	if err != nil {
		return nil, err
	}
	bookings, total, err := s.bookings.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// hostOf returns the host of a property, or uuid.Nil once the listing is gone.
func hostOf(ctx context.Context, properties propertyDomain.PropertyRepository, propertyID uuid.UUID) (uuid.UUID, error) {
	prop, err := properties.FindByID(ctx, propertyID)
	if err != nil {
		if domain.IsNotFound(err) {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	return prop.HostID(), nil
}

func newBookingFilter(status string, page, limit int) (bookingDomain.ListFilter, error) {
	filter := bookingDomain.ListFilter{Page: page, Limit: limit}
	if status != "" {
		st, err := bookingDomain.ParseBookingStatus(status)
		if err != nil {
			return filter, domain.NewValidationError(err.Error())
		}
		filter.Status = &st
	}
	return filter, nil
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:           bk.ID(),
		PropertyID:   bk.PropertyID(),
		RenterID:     bk.RenterID(),
		CheckIn:      bk.CheckIn().Format(bookingDomain.DateLayout),
		CheckOut:     bk.CheckOut().Format(bookingDomain.DateLayout),
		Nights:       bk.Stay().Nights(),
		Status:       string(bk.Status()),
		TotalCost:    bk.TotalCost(),
		Currency:     bk.Currency(),
		CancelledAt:  bk.CancelledAt(),
		CancelledBy:  string(bk.CancelledBy()),
		CancelReason: bk.CancelReason(),
		Version:      bk.Version(),
		CreatedAt:    bk.CreatedAt(),
		UpdatedAt:    bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func (s *BookingService) publishBookingEvent(ctx context.Context, eventType string, bk *bookingDomain.Booking, hostID uuid.UUID, by bookingDomain.Party) {
	s.events.publish(ctx, events.TopicBookingEvents, eventType, bk.PropertyID().String(), newBookingEvent(bk, hostID, by))
}

func newBookingEvent(bk *bookingDomain.Booking, hostID uuid.UUID, by bookingDomain.Party) events.BookingEvent {
	return events.BookingEvent{
		BookingID:  bk.ID(),
		PropertyID: bk.PropertyID(),
		RenterID:   bk.RenterID(),
		HostID:     hostID,
		CheckIn:    bk.CheckIn().Format(bookingDomain.DateLayout),
		CheckOut:   bk.CheckOut().Format(bookingDomain.DateLayout),
		Status:     string(bk.Status()),
		TotalCost:  bk.TotalCost(),
		Currency:   bk.Currency(),
		ChangedBy:  string(by),
		Reason:     bk.CancelReason(),
		OccurredAt: time.Now().UTC(),
	}
}
