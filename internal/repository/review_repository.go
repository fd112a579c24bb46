package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	reviewDomain "github.com/kodi-rentals/service-rental/internal/domain/review"
	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PropertyID uuid.UUID `gorm:"type:uuid;not null;index"`
	RenterID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Rating     int       `gorm:"type:smallint;not null"`
	Comment    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt  time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (ReviewModel) TableName() string { return "reviews" }

// GormReviewRepository implements ReviewRepository using GORM.
type GormReviewRepository struct {
	db *gorm.DB
}

func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("review", id.String())
		}
		return nil, fmt.Errorf("failed to find review by ID: %w", err)
	}
	return toReviewDomain(&model), nil
}

func (r *GormReviewRepository) FindByPropertyID(ctx context.Context, propertyID uuid.UUID, page, limit int) ([]*reviewDomain.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).Where("property_id = ?", propertyID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var models []ReviewModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find reviews: %w", err)
	}

	reviews := make([]*reviewDomain.Review, len(models))
	for i := range models {
		reviews[i] = toReviewDomain(&models[i])
	}
	return reviews, total, nil
}

func (r *GormReviewRepository) FindByRenterAndProperty(ctx context.Context, renterID, propertyID uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	err := r.db.WithContext(ctx).Where("renter_id = ? AND property_id = ?", renterID, propertyID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find renter review: %w", err)
	}
	return toReviewDomain(&model), nil
}

func (r *GormReviewRepository) Summarize(ctx context.Context, propertyID uuid.UUID) (reviewDomain.Summary, error) {
	var row struct {
		Count   int64
		Average float64
	}
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Select("count(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("property_id = ?", propertyID).
		Scan(&row).Error; err != nil {
		return reviewDomain.Summary{}, fmt.Errorf("failed to summarize reviews: %w", err)
	}
	return reviewDomain.Summary{Count: row.Count, AverageRating: row.Average}, nil
}

// Save persists a new review; the unique (renter_id, property_id) index rejects a second one.
func (r *GormReviewRepository) Save(ctx context.Context, rv *reviewDomain.Review) error {
	model := toReviewModel(rv)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.NewValidationError("you have already reviewed this property")
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

func (r *GormReviewRepository) Update(ctx context.Context, rv *reviewDomain.Review) error {
	result := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Where("id = ?", rv.ID()).
		Updates(map[string]interface{}{
			"rating":     rv.Rating(),
			"comment":    rv.Comment(),
			"updated_at": rv.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("review", rv.ID().String())
	}
	return nil
}

func (r *GormReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&ReviewModel{}).Error
}

func toReviewModel(rv *reviewDomain.Review) ReviewModel {
	return ReviewModel{
		ID:         rv.ID(),
		PropertyID: rv.PropertyID(),
		RenterID:   rv.RenterID(),
		Rating:     rv.Rating(),
		Comment:    rv.Comment(),
		CreatedAt:  rv.CreatedAt(),
		UpdatedAt:  rv.UpdatedAt(),
	}
}

func toReviewDomain(m *ReviewModel) *reviewDomain.Review {
	return reviewDomain.Reconstruct(m.ID, m.PropertyID, m.RenterID, m.Rating, m.Comment, m.CreatedAt, m.UpdatedAt)
}
