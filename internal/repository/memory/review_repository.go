package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	reviewDomain "github.com/kodi-rentals/service-rental/internal/domain/review"
	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// ReviewRepository implements review.ReviewRepository on a Store.
type ReviewRepository struct {
	store *Store
}

// FindByID returns a copy of the review, or NotFound.
func (r *ReviewRepository) FindByID(_ context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rv, ok := r.store.reviews[id]
	if !ok {
		return nil, domain.NewNotFoundError("review", id.String())
	}
	return cloneReview(rv), nil
}

// FindByPropertyID returns a page of the property's reviews, newest first.
func (r *ReviewRepository) FindByPropertyID(_ context.Context, propertyID uuid.UUID, pageNum, limit int) ([]*reviewDomain.Review, int64, error) {
	r.store.mu.RLock()
	out := make([]*reviewDomain.Review, 0)
	for _, rv := range r.store.reviews {
		if rv.PropertyID() == propertyID {
			out = append(out, cloneReview(rv))
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return page(out, pageNum, limit), int64(len(out)), nil
}

// FindByRenterAndProperty returns the renter's review of the property, or nil.
func (r *ReviewRepository) FindByRenterAndProperty(_ context.Context, renterID, propertyID uuid.UUID) (*reviewDomain.Review, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, rv := range r.store.reviews {
		if rv.RenterID() == renterID && rv.PropertyID() == propertyID {
			return cloneReview(rv), nil
		}
	}
	return nil, nil
}

// Summarize returns the review count and average rating of a property.
func (r *ReviewRepository) Summarize(_ context.Context, propertyID uuid.UUID) (reviewDomain.Summary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var sum reviewDomain.Summary
	var total int
	for _, rv := range r.store.reviews {
		if rv.PropertyID() == propertyID {
			sum.Count++
			total += rv.Rating()
		}
	}
	if sum.Count > 0 {
		sum.AverageRating = float64(total) / float64(sum.Count)
	}
	return sum, nil
}

// Save inserts a review, rejecting a second review by the same renter for the same property.
func (r *ReviewRepository) Save(_ context.Context, rv *reviewDomain.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.reviews {
		if existing.RenterID() == rv.RenterID() && existing.PropertyID() == rv.PropertyID() {
			return domain.NewValidationError("you have already reviewed this property")
		}
	}
	r.store.reviews[rv.ID()] = cloneReview(rv)
	return nil
}

// Update replaces an existing review.
func (r *ReviewRepository) Update(_ context.Context, rv *reviewDomain.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.reviews[rv.ID()]; !ok {
		return domain.NewNotFoundError("review", rv.ID().String())
	}
	r.store.reviews[rv.ID()] = cloneReview(rv)
	return nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.reviews, id)
	return nil
}
