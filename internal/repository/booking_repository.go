package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/kodi-rentals/service-rental/internal/domain/booking"
	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PropertyID   uuid.UUID  `gorm:"type:uuid;index;not null"`
	RenterID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	CheckIn      time.Time  `gorm:"type:date;not null"`
	CheckOut     time.Time  `gorm:"type:date;not null"`
	Status       string     `gorm:"not null;size:20;index"`
	TotalCost    int64      `gorm:"not null"`
	Currency     string     `gorm:"not null;size:3;default:'RWF'"`
	CancelledAt  *time.Time `gorm:""`
	CancelledBy  string     `gorm:"size:20"`
	CancelReason string     `gorm:"size:500"`
	Version      int64      `gorm:"not null;default:1"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindActiveByPropertyID returns the non-canceled bookings of a property ordered by check-in.
func (r *GormBookingRepository) FindActiveByPropertyID(ctx context.Context, propertyID, excludeID uuid.UUID) ([]*bookingDomain.Booking, error) {
	q := r.db.WithContext(ctx).
		Where("property_id = ? AND status <> ?", propertyID, string(bookingDomain.StatusCanceled))
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}

	var models []BookingModel
	if err := q.Order("check_in ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active property bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindLiveByRenterAndProperty returns the renter's active booking on the property with a check-out after asOf.
func (r *GormBookingRepository) FindLiveByRenterAndProperty(ctx context.Context, renterID, propertyID uuid.UUID, asOf time.Time) (*bookingDomain.Booking, error) {
	var model BookingModel
	err := r.db.WithContext(ctx).
		Where("renter_id = ? AND property_id = ? AND status <> ?", renterID, propertyID, string(bookingDomain.StatusCanceled)).
		Where("check_out > ?", asOf.UTC()).
		Order("check_in ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find live renter booking: %w", err)
	}
	return toDomainBooking(&model)
}

// FindActiveByRenterID returns every non-canceled booking of a renter.
func (r *GormBookingRepository) FindActiveByRenterID(ctx context.Context, renterID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("renter_id = ? AND status <> ?", renterID, string(bookingDomain.StatusCanceled)).
		Order("check_in ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active renter bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindStalePending returns PENDING bookings whose check-in is before asOf.
func (r *GormBookingRepository) FindStalePending(ctx context.Context, asOf time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND check_in < ?", string(bookingDomain.StatusPending), asOf.UTC()).
		Order("check_in ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find stale pending bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByRenterID retrieves bookings for a specific renter with pagination.
func (r *GormBookingRepository) FindByRenterID(ctx context.Context, renterID uuid.UUID, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, r.db.WithContext(ctx).Where("renter_id = ?", renterID), filter)
}

// FindByPropertyID retrieves bookings for a specific property with pagination.
func (r *GormBookingRepository) FindByPropertyID(ctx context.Context, propertyID uuid.UUID, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, r.db.WithContext(ctx).Where("property_id = ?", propertyID), filter)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, r.db.WithContext(ctx), filter)
}

func (r *GormBookingRepository) paginate(ctx context.Context, q *gorm.DB, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	q = q.Model(&BookingModel{})
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (filter.Page - 1) * filter.Limit
	if err := q.
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking. An exclusion-constraint violation means another
// transaction booked overlapping dates first.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if pgErrorCode(err) == pgExclusionViolation {
			return domain.NewBookingConflictError("")
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was called, so the stored row carries the previous version.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"check_in":      model.CheckIn,
			"check_out":     model.CheckOut,
			"status":        model.Status,
			"total_cost":    model.TotalCost,
			"currency":      model.Currency,
			"cancelled_at":  model.CancelledAt,
			"cancelled_by":  model.CancelledBy,
			"cancel_reason": model.CancelReason,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		if pgErrorCode(result.Error) == pgExclusionViolation {
			return domain.NewBookingConflictError("")
		}
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// Delete removes a booking permanently.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("booking", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:           bk.ID(),
		PropertyID:   bk.PropertyID(),
		RenterID:     bk.RenterID(),
		CheckIn:      bk.CheckIn(),
		CheckOut:     bk.CheckOut(),
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.PropertyID,
		m.RenterID,
		bookingDomain.RestoreDateRange(m.CheckIn, m.CheckOut),
		status,
		m.TotalCost,
		m.Currency,
		m.CancelledAt,
		bookingDomain.Party(m.CancelledBy),
		m.CancelReason,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
