package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	propertyDomain "github.com/kodi-rentals/service-rental/internal/domain/property"
	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// PropertyModel is the GORM model for the properties table. Deletes are soft so that
// the booking history of a removed listing stays intact.
type PropertyModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	HostID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title       string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Location    string          `gorm:"type:varchar(300)"`
	Latitude    *float64        `gorm:"type:double precision"`
	Longitude   *float64        `gorm:"type:double precision"`
	NightlyRate int64           `gorm:"not null"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'RWF'"`
	MediaURLs   json.RawMessage `gorm:"column:media_urls;type:jsonb;not null;default:'[]'"`
	Version     int64           `gorm:"not null;default:1"`
	CreatedAt   time.Time       `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time       `gorm:"type:timestamptz;not null;default:now()"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"`
}

func (PropertyModel) TableName() string { return "properties" }

var propertySortColumns = map[string]string{
	propertyDomain.SortByCreatedAt: "created_at",
	propertyDomain.SortByPrice:     "nightly_rate",
	propertyDomain.SortByTitle:     "title",
}

// GormPropertyRepository implements PropertyRepository using GORM.
type GormPropertyRepository struct {
	db *gorm.DB
}

func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

func (r *GormPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*propertyDomain.Property, error) {
	var model PropertyModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("property", id.String())
		}
		return nil, fmt.Errorf("failed to find property by ID: %w", err)
	}
	return toPropertyDomain(&model)
}

func (r *GormPropertyRepository) List(ctx context.Context, filter propertyDomain.ListFilter) ([]*propertyDomain.Property, int64, error) {
	q := r.db.WithContext(ctx).Model(&PropertyModel{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?)", like, like, like)
	}
	if filter.HostID != nil {
		q = q.Where("host_id = ?", *filter.HostID)
	}
	if b := filter.Within; b != nil {
		q = q.Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?", b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	}

	var total int64
	if !filter.Unpaged {
		if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to count properties: %w", err)
		}
		q = q.Offset((filter.Page - 1) * filter.Limit)
	}

	column, ok := propertySortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}

	var models []PropertyModel
	if err := q.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: filter.SortDesc}).
		Order("id").
		Limit(filter.Limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list properties: %w", err)
	}

	props := make([]*propertyDomain.Property, len(models))
	for i := range models {
		p, err := toPropertyDomain(&models[i])
		if err != nil {
			return nil, 0, err
		}
		props[i] = p
	}
	if filter.Unpaged {
		total = int64(len(props))
	}
	return props, total, nil
}

func (r *GormPropertyRepository) Save(ctx context.Context, p *propertyDomain.Property) error {
	model, err := toPropertyModel(p)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}
	return nil
}

func (r *GormPropertyRepository) Update(ctx context.Context, p *propertyDomain.Property) error {
	model, err := toPropertyModel(p)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&PropertyModel{}).
		Where("id = ? AND version = ?", model.ID, p.Version()-1).
		Updates(map[string]interface{}{
			"title":        model.Title,
			"description":  model.Description,
			"location":     model.Location,
			"latitude":     model.Latitude,
			"longitude":    model.Longitude,
			"nightly_rate": model.NightlyRate,
			"media_urls":   model.MediaURLs,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("property was modified by another transaction")
	}
	return nil
}

func (r *GormPropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&PropertyModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("property", id.String())
	}
	return nil
}

// --- Conversions ---

func toPropertyModel(p *propertyDomain.Property) (*PropertyModel, error) {
	urls := p.MediaURLs()
	if urls == nil {
		urls = []string{}
	}
	media, err := json.Marshal(urls)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal media urls: %w", err)
	}

	m := &PropertyModel{
		ID:          p.ID(),
		HostID:      p.HostID(),
		Title:       p.Title(),
		Description: p.Description(),
		Location:    p.Location(),
		NightlyRate: p.NightlyRate(),
		Currency:    p.Currency(),
		MediaURLs:   media,
		Version:     p.Version(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
	if c := p.Coordinates(); c != nil {
		lat, lng := c.Latitude, c.Longitude
		m.Latitude = &lat
		m.Longitude = &lng
	}
	return m, nil
}

func toPropertyDomain(m *PropertyModel) (*propertyDomain.Property, error) {
	var urls []string
	if len(m.MediaURLs) > 0 {
		if err := json.Unmarshal(m.MediaURLs, &urls); err != nil {
			return nil, fmt.Errorf("failed to unmarshal media urls: %w", err)
		}
	}

	var coords *propertyDomain.Coordinates
	if m.Latitude != nil && m.Longitude != nil {
		coords = &propertyDomain.Coordinates{Latitude: *m.Latitude, Longitude: *m.Longitude}
	}

	return propertyDomain.Reconstruct(
		m.ID, m.HostID,
		m.Title, m.Description, m.Location,
		coords,
		m.NightlyRate,
		m.Currency,
		urls,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	), nil
}
