package review

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kodi-rentals/service-rental/pkg/domain"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a renter's feedback on a property. At most one exists per (renter, property).
type Review struct {
	id         uuid.UUID
	propertyID uuid.UUID
	renterID   uuid.UUID
	rating     int
	comment    string
	createdAt  time.Time
	updatedAt  time.Time
}

func validate(rating int, comment string) error {
	if rating < MinRating || rating > MaxRating {
		return domain.NewValidationError("rating must be between 1 and 5")
	}
	if strings.TrimSpace(comment) == "" {
		return domain.NewValidationError("comment is required")
	}
	return nil
}

// NewReview creates a review with a validated rating and comment.
func NewReview(propertyID, renterID uuid.UUID, rating int, comment string) (*Review, error) {
	if propertyID == uuid.Nil {
		return nil, domain.NewValidationError("property ID is required")
	}
	if renterID == uuid.Nil {
		return nil, domain.NewValidationError("renter ID is required")
	}
	if err := validate(rating, comment); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Review{
		id:         uuid.New(),
		propertyID: propertyID,
		renterID:   renterID,
		rating:     rating,
		comment:    strings.TrimSpace(comment),
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a Review from persistence.
func Reconstruct(id, propertyID, renterID uuid.UUID, rating int, comment string, createdAt, updatedAt time.Time) *Review {
	return &Review{
		id:         id,
		propertyID: propertyID,
		renterID:   renterID,
		rating:     rating,
		comment:    comment,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// Getters.
func (r *Review) ID() uuid.UUID         { return r.id }
func (r *Review) PropertyID() uuid.UUID { return r.propertyID }
func (r *Review) RenterID() uuid.UUID   { return r.renterID }
func (r *Review) Rating() int           { return r.rating }
func (r *Review) Comment() string       { return r.comment }
func (r *Review) CreatedAt() time.Time  { return r.createdAt }
func (r *Review) UpdatedAt() time.Time  { return r.updatedAt }

// IsAuthoredBy checks if the review was written by the given renter.
func (r *Review) IsAuthoredBy(renterID uuid.UUID) bool {
	return r.renterID == renterID
}

// Revise replaces the rating and comment.
func (r *Review) Revise(rating int, comment string) error {
	if err := validate(rating, comment); err != nil {
		return err
	}
	r.rating = rating
	r.comment = strings.TrimSpace(comment)
	r.updatedAt = time.Now().UTC()
	return nil
}
