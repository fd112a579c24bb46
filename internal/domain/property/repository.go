package property

import (
	"context"

	"github.com/google/uuid"
)

// Sort fields accepted by List.
const (
	SortByCreatedAt = "created_at"
	SortByPrice     = "price"
	SortByTitle     = "title"
)

// BoundingBox restricts a listing query to a lat/lng rectangle.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// ListFilter narrows and orders a property listing.
type ListFilter struct {
	Search   string
	HostID   *uuid.UUID
	Within   *BoundingBox
	SortBy   string
	SortDesc bool
	Page     int
	Limit    int
	Unpaged  bool
}

// PropertyRepository defines persistence operations for listings.
type PropertyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)
	List(ctx context.Context, filter ListFilter) ([]*Property, int64, error)
	Save(ctx context.Context, property *Property) error
	Update(ctx context.Context, property *Property) error
	Delete(ctx context.Context, id uuid.UUID) error
}
