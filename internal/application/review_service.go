package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	propertyDomain "github.com/kodi-rentals/service-rental/internal/domain/property"
	reviewDomain "github.com/kodi-rentals/service-rental/internal/domain/review"
	"github.com/kodi-rentals/service-rental/pkg/domain"
	"github.com/kodi-rentals/service-rental/pkg/events"
)

// ReviewRequest holds a rating and comment.
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required,max=2000"`
}

// ReviewDTO is the response representation of a review.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	RenterID   uuid.UUID `json:"renter_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ReviewListDTO is a page of reviews with the property's rating summary.
type ReviewListDTO struct {
	domain.PaginatedResult[ReviewDTO]
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

// ReviewService manages property reviews.
type ReviewService struct {
	repo       reviewDomain.ReviewRepository
	properties propertyDomain.PropertyRepository
	events     eventEmitter
	logger     *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	repo reviewDomain.ReviewRepository,
	properties propertyDomain.PropertyRepository,
	producer EventPublisher,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		repo:       repo,
		properties: properties,
		events:     eventEmitter{producer: producer, logger: logger},
		logger:     logger,
	}
}

// CreateReview records renterID's review of a property. A renter reviews a property at most once.
func (s *ReviewService) CreateReview(ctx context.Context, propertyID, renterID uuid.UUID, req ReviewRequest) (*ReviewDTO, error) {
	if _, err := s.properties.FindByID(ctx, propertyID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByRenterAndProperty(ctx, renterID, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing != nil {
		return nil, domain.NewValidationError("you have already reviewed this property")
	}

	r, err := reviewDomain.NewReview(propertyID, renterID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	s.logger.Info("review created",
		zap.String("review_id", r.ID().String()),
		zap.String("property_id", propertyID.String()),
		zap.Int("rating", r.Rating()),
	)
	s.publishReviewEvent(ctx, events.ReviewCreated, r)

	result := toReviewDTO(r)
	return &result, nil
}

// ListPropertyReviews returns a property's reviews, newest first, with its average rating.
func (s *ReviewService) ListPropertyReviews(ctx context.Context, propertyID uuid.UUID, page, limit int) (*ReviewListDTO, error) {
	if _, err := s.properties.FindByID(ctx, propertyID); err != nil {
		return nil, err
	}

	reviews, total, err := s.repo.FindByPropertyID(ctx, propertyID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	summary, err := s.repo.Summarize(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize reviews: %w", err)
	}

	dtos := make([]ReviewDTO, len(reviews))
	for i, r := range reviews {
		dtos[i] = toReviewDTO(r)
	}
	return &ReviewListDTO{
		PaginatedResult: domain.NewPaginatedResult(dtos, total, page, limit),
		AverageRating:   math.Round(summary.AverageRating*10) / 10,
		ReviewCount:     summary.Count,
	}, nil
}

// UpdateReview revises renterID's own review.
func (s *ReviewService) UpdateReview(ctx context.Context, propertyID, reviewID, renterID uuid.UUID, req ReviewRequest) (*ReviewDTO, error) {
	r, err := s.findOnProperty(ctx, propertyID, reviewID)
	if err != nil {
		return nil, err
	}
	if !r.IsAuthoredBy(renterID) {
		return nil, domain.NewForbiddenError("you can only edit your own review")
	}
	if err := r.Revise(req.Rating, req.Comment); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.publishReviewEvent(ctx, events.ReviewUpdated, r)

	result := toReviewDTO(r)
	return &result, nil
}

// DeleteReview removes a review on behalf of its author or the property's host.
func (s *ReviewService) DeleteReview(ctx context.Context, propertyID, reviewID, userID uuid.UUID) error {
	r, err := s.findOnProperty(ctx, propertyID, reviewID)
	if err != nil {
		return err
	}
	if !r.IsAuthoredBy(userID) {
		prop, err := s.properties.FindByID(ctx, propertyID)
		if err != nil {
			return err
		}
		if !prop.IsOwnedBy(userID) {
			return domain.NewForbiddenError("only the author or the property host can delete this review")
		}
	}
	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.logger.Info("review deleted",
		zap.String("review_id", reviewID.String()),
		zap.String("deleted_by", userID.String()),
	)
	s.publishReviewEvent(ctx, events.ReviewDeleted, r)
	return nil
}

func (s *ReviewService) findOnProperty(ctx context.Context, propertyID, reviewID uuid.UUID) (*reviewDomain.Review, error) {
	r, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if r.PropertyID() != propertyID {
		return nil, domain.NewNotFoundError("review", reviewID.String())
	}
	return r, nil
}

func (s *ReviewService) publishReviewEvent(ctx context.Context, eventType string, r *reviewDomain.Review) {
	evt := events.ReviewEvent{
		ReviewID:   r.ID(),
		PropertyID: r.PropertyID(),
		RenterID:   r.RenterID(),
		Rating:     r.Rating(),
		OccurredAt: time.Now().UTC(),
	}
	s.events.publish(ctx, events.TopicReviewEvents, eventType, r.PropertyID().String(), evt)
}

func toReviewDTO(r *reviewDomain.Review) ReviewDTO {
	return ReviewDTO{
		ID:         r.ID(),
		PropertyID: r.PropertyID(),
		RenterID:   r.RenterID(),
		Rating:     r.Rating(),
		Comment:    r.Comment(),
		CreatedAt:  r.CreatedAt(),
		UpdatedAt:  r.UpdatedAt(),
	}
}
