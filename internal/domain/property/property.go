package property

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Validate rejects points outside the valid latitude/longitude ranges.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return domain.NewValidationError("latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return domain.NewValidationError("longitude must be between -180 and 180")
	}
	return nil
}

// Property is the aggregate root for a rentable listing.
type Property struct {
	id          uuid.UUID
	hostID      uuid.UUID
	title       string
	description string
	location    string
	coordinates *Coordinates
	nightlyRate int64
	currency    string
	mediaURLs   []string
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewProperty creates a listing owned by hostID with validated fields.
func NewProperty(
	hostID uuid.UUID,
	title, description, location string,
	coordinates *Coordinates,
	nightlyRate int64,
	currency string,
	mediaURLs []string,
) (*Property, error) {
	if hostID == uuid.Nil {
		return nil, domain.NewValidationError("host ID is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if nightlyRate <= 0 {
		return nil, domain.NewValidationError("nightly rate must be positive")
	}
	if coordinates != nil {
		if err := coordinates.Validate(); err != nil {
			return nil, err
		}
	}
	if currency == "" {
		currency = domain.CurrencyRWF
	}

	now := time.Now().UTC()
	return &Property{
		id:          uuid.New(),
		hostID:      hostID,
		title:       title,
		description: description,
		location:    location,
		coordinates: coordinates,
		nightlyRate: nightlyRate,
		currency:    currency,
		mediaURLs:   append([]string(nil), mediaURLs...),
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Property from persistence data (no validation).
func Reconstruct(
	id, hostID uuid.UUID,
	title, description, location string,
	coordinates *Coordinates,
	nightlyRate int64,
	currency string,
	mediaURLs []string,
	version int64,
	createdAt, updatedAt time.Time,
) *Property {
	return &Property{
		id:          id,
		hostID:      hostID,
		title:       title,
		description: description,
		location:    location,
		coordinates: coordinates,
		nightlyRate: nightlyRate,
		currency:    currency,
		mediaURLs:   mediaURLs,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (p *Property) ID() uuid.UUID              { return p.id }
func (p *Property) HostID() uuid.UUID          { return p.hostID }
func (p *Property) Title() string              { return p.title }
func (p *Property) Description() string        { return p.description }
func (p *Property) Location() string           { return p.location }
func (p *Property) Coordinates() *Coordinates  { return p.coordinates }
func (p *Property) NightlyRate() int64         { return p.nightlyRate }
func (p *Property) Currency() string           { return p.currency }
func (p *Property) MediaURLs() []string        { return p.mediaURLs }
func (p *Property) Version() int64             { return p.version }
func (p *Property) CreatedAt() time.Time       { return p.createdAt }
func (p *Property) UpdatedAt() time.Time       { return p.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the property belongs to the given host.
func (p *Property) IsOwnedBy(hostID uuid.UUID) bool {
	return p.hostID == hostID
}

// Changes carries a partial update; nil fields are left untouched.
type Changes struct {
	Title       *string
	Description *string
	Location    *string
	Coordinates *Coordinates
	NightlyRate *int64
	MediaURLs   []string
}

// Update applies partial updates to the listing.
func (p *Property) Update(c Changes) error {
	if c.Title != nil {
		title := strings.TrimSpace(*c.Title)
		if title == "" {
			return domain.NewValidationError("title cannot be empty")
		}
		p.title = title
	}
	if c.NightlyRate != nil {
		if *c.NightlyRate <= 0 {
			return domain.NewValidationError("nightly rate must be positive")
		}
		p.nightlyRate = *c.NightlyRate
	}
	if c.Coordinates != nil {
		if err := c.Coordinates.Validate(); err != nil {
			return err
		}
		coords := *c.Coordinates
		p.coordinates = &coords
	}
	if c.Description != nil {
		p.description = *c.Description
	}
	if c.Location != nil {
		p.location = *c.Location
	}
	if c.MediaURLs != nil {
		p.mediaURLs = append([]string(nil), c.MediaURLs...)
	}
	p.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (p *Property) IncrementVersion() {
	p.version++
}
