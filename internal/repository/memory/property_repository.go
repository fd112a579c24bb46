package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	propertyDomain "github.com/kodi-rentals/service-rental/internal/domain/property"
	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// PropertyRepository implements property.PropertyRepository on a Store.
type PropertyRepository struct {
	store *Store
}

// FindByID returns a copy of a listing that has not been deleted.
func (r *PropertyRepository) FindByID(_ context.Context, id uuid.UUID) (*propertyDomain.Property, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.properties[id]
	if !ok || rec.deleted {
		return nil, domain.NewNotFoundError("property", id.String())
	}
	return cloneProperty(rec.property), nil
}

// List applies the search, host, bounding-box, sort and paging options of filter.
func (r *PropertyRepository) List(_ context.Context, filter propertyDomain.ListFilter) ([]*propertyDomain.Property, int64, error) {
	search := strings.ToLower(filter.Search)

	r.store.mu.RLock()
	out := make([]*propertyDomain.Property, 0)
	for _, rec := range r.store.properties {
		p := rec.property
		if rec.deleted {
			continue
		}
		if filter.HostID != nil && p.HostID() != *filter.HostID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title()), search) &&
			!strings.Contains(strings.ToLower(p.Description()), search) &&
			!strings.Contains(strings.ToLower(p.Location()), search) {
			continue
		}
		if b := filter.Within; b != nil {
			c := p.Coordinates()
			if c == nil || c.Latitude < b.MinLat || c.Latitude > b.MaxLat || c.Longitude < b.MinLng || c.Longitude > b.MaxLng {
				continue
			}
		}
		out = append(out, cloneProperty(p))
	}
	r.store.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var less, equal bool
		switch filter.SortBy {
		case propertyDomain.SortByPrice:
			less, equal = a.NightlyRate() < b.NightlyRate(), a.NightlyRate() == b.NightlyRate()
		case propertyDomain.SortByTitle:
			less, equal = a.Title() < b.Title(), a.Title() == b.Title()
		default:
			less, equal = a.CreatedAt().Before(b.CreatedAt()), a.CreatedAt().Equal(b.CreatedAt())
		}
		if equal {
			return a.ID().String() < b.ID().String()
		}
		if filter.SortDesc {
			return !less
		}
		return less
	})

	total := int64(len(out))
	if filter.Unpaged {
		if filter.Limit > 0 && len(out) > filter.Limit {
			out = out[:filter.Limit]
		}
		return out, int64(len(out)), nil
	}
	return page(out, filter.Page, filter.Limit), total, nil
}

// Save inserts a new listing.
func (r *PropertyRepository) Save(_ context.Context, p *propertyDomain.Property) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.properties[p.ID()]; exists {
		return domain.NewConflictError("property already exists")
	}
	r.store.properties[p.ID()] = propertyRecord{property: cloneProperty(p)}
	return nil
}

// Update replaces a live listing whose stored version is one behind p.
func (r *PropertyRepository) Update(_ context.Context, p *propertyDomain.Property) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.properties[p.ID()]
	if !ok || rec.deleted || rec.property.Version() != p.Version()-1 {
		return domain.NewConflictError("property was modified by another transaction")
	}
	r.store.properties[p.ID()] = propertyRecord{property: cloneProperty(p)}
	return nil
}

// Delete soft-deletes the listing; its bookings are untouched.
func (r *PropertyRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.properties[id]
	if !ok || rec.deleted {
		return domain.NewNotFoundError("property", id.String())
	}
	rec.deleted = true
	r.store.properties[id] = rec
	return nil
}
