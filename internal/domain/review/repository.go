package review

import (
	"context"

	"github.com/google/uuid"
)

// Summary aggregates the ratings of one property.
type Summary struct {
	Count         int64
	AverageRating float64
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)
	FindByPropertyID(ctx context.Context, propertyID uuid.UUID, page, limit int) ([]*Review, int64, error)
	// FindByRenterAndProperty returns nil, nil when the renter has not reviewed the property.
	FindByRenterAndProperty(ctx context.Context, renterID, propertyID uuid.UUID) (*Review, error)
	Summarize(ctx context.Context, propertyID uuid.UUID) (Summary, error)
	Save(ctx context.Context, review *Review) error
	Update(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id uuid.UUID) error
}
