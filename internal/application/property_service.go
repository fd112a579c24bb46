package application

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/umahmood/haversine"
	"go.uber.org/zap"

	"github.com/kodi-rentals/service-rental/internal/cache"
	bookingDomain "github.com/kodi-rentals/service-rental/internal/domain/booking"
	propertyDomain "github.com/kodi-rentals/service-rental/internal/domain/property"
	"github.com/kodi-rentals/service-rental/pkg/domain"
	"github.com/kodi-rentals/service-rental/pkg/events"
)

const (
	propertyEntity      = "property"
	propertyListSpace   = "properties"
	defaultRadiusKm     = 10.0
	maxRadiusKm         = 500.0
	kmPerDegreeLatitude = 111.0
	maxGeoCandidates    = 1000
)

// CreatePropertyRequest holds the data needed to list a property.
type CreatePropertyRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description" binding:"max=5000"`
	Location    string   `json:"location" binding:"max=300"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
	NightlyRate int64    `json:"nightly_rate" binding:"required,gt=0"`
	Currency    string   `json:"currency" binding:"omitempty,len=3"`
	MediaURLs   []string `json:"media_urls" binding:"omitempty,dive,url"`
}

// UpdatePropertyRequest holds a partial update; omitted fields are unchanged.
type UpdatePropertyRequest struct {
	Title       *string  `json:"title" binding:"omitempty,max=200"`
	Description *string  `json:"description" binding:"omitempty,max=5000"`
	Location    *string  `json:"location" binding:"omitempty,max=300"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
	NightlyRate *int64   `json:"nightly_rate" binding:"omitempty,gt=0"`
	MediaURLs   []string `json:"media_urls" binding:"omitempty,dive,url"`
}

// ListPropertiesQuery narrows a property listing.
type ListPropertiesQuery struct {
	Search    string
	OwnedBy   *uuid.UUID
	SortBy    string
	SortOrder string
	Near      *propertyDomain.Coordinates
	RadiusKm  float64
	Page      int
	Limit     int
}

// PropertyDTO is the response representation of a property.
type PropertyDTO struct {
	ID          uuid.UUID `json:"id"`
	HostID      uuid.UUID `json:"host_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	NightlyRate int64     `json:"nightly_rate"`
	Currency    string    `json:"currency"`
	MediaURLs   []string  `json:"media_urls"`
	DistanceKm  *float64  `json:"distance_km,omitempty"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PropertyService manages listings.
type PropertyService struct {
	repo            propertyDomain.PropertyRepository
	tx              Transactor
	cache           Cache
	events          eventEmitter
	logger          *zap.Logger
	defaultCurrency string
	now             Clock
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(
	repo propertyDomain.PropertyRepository,
	tx Transactor,
	propertyCache Cache,
	producer EventPublisher,
	defaultCurrency string,
	logger *zap.Logger,
) *PropertyService {
	return &PropertyService{
		repo:            repo,
		tx:              tx,
		cache:           propertyCache,
		events:          eventEmitter{producer: producer, logger: logger},
		logger:          logger,
		defaultCurrency: defaultCurrency,
		now:             systemClock,
	}
}

// CreateProperty lists a new property owned by hostID.
func (s *PropertyService) CreateProperty(ctx context.Context, hostID uuid.UUID, req CreatePropertyRequest) (*PropertyDTO, error) {
	coords, err := coordinatesOf(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}

	p, err := propertyDomain.NewProperty(hostID, req.Title, req.Description, req.Location, coords, req.NightlyRate, currency, req.MediaURLs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save property: %w", err)
	}
	s.cache.BumpGeneration(ctx, propertyListSpace)

	s.logger.Info("property created",
		zap.String("property_id", p.ID().String()),
		zap.String("host_id", hostID.String()),
	)
	s.publishPropertyEvent(ctx, events.PropertyCreated, p, 0)

	result := toPropertyDTO(p)
	return &result, nil
}

// GetProperty returns a property, served from cache when possible.
func (s *PropertyService) GetProperty(ctx context.Context, id uuid.UUID) (*PropertyDTO, error) {
	var result PropertyDTO
	err := s.cache.Fetch(ctx, cache.EntityKey(propertyEntity, id.String()), &result, func(ctx context.Context) (any, error) {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return toPropertyDTO(p), nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateProperty applies a partial update on behalf of the owning host.
func (s *PropertyService) UpdateProperty(ctx context.Context, id, hostID uuid.UUID, req UpdatePropertyRequest) (*PropertyDTO, error) {
	var changes propertyDomain.Changes
	if req.Latitude != nil || req.Longitude != nil {
		coords, err := coordinatesOf(req.Latitude, req.Longitude)
		if err != nil {
			return nil, err
		}
		changes.Coordinates = coords
	}
	changes.Title = req.Title
	changes.Description = req.Description
	changes.Location = req.Location
	changes.NightlyRate = req.NightlyRate
	changes.MediaURLs = req.MediaURLs

	var p *propertyDomain.Property
	err := s.tx.WithinPropertyLock(ctx, id, func(ctx context.Context, st Stores) error {
		var err error
		p, err = st.Properties.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !p.IsOwnedBy(hostID) {
			return domain.NewForbiddenError("only the property host can update it")
		}
		if err := p.Update(changes); err != nil {
			return err
		}
		p.IncrementVersion()
		return st.Properties.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	s.logger.Info("property updated", zap.String("property_id", id.String()))
	s.publishPropertyEvent(ctx, events.PropertyUpdated, p, 0)

	result := toPropertyDTO(p)
	return &result, nil
}

// DeleteProperty removes a listing on behalf of its host. Every active booking is canceled
// under the same property lock before the listing disappears.
func (s *PropertyService) DeleteProperty(ctx context.Context, id, hostID uuid.UUID) error {
	var (
		p        *propertyDomain.Property
		canceled []*bookingDomain.Booking
	)
	err := s.tx.WithinPropertyLock(ctx, id, func(ctx context.Context, st Stores) error {
		var err error
		p, err = st.Properties.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !p.IsOwnedBy(hostID) {
			return domain.NewForbiddenError("only the property host can delete it")
		}

		active, err := st.Bookings.FindActiveByPropertyID(ctx, id, uuid.Nil)
		if err != nil {
			return fmt.Errorf("failed to load property bookings: %w", err)
		}
		for _, bk := range active {
			if err := bk.Cancel(bookingDomain.SystemActor, hostID, "property removed by host", s.now()); err != nil {
				return err
			}
			bk.IncrementVersion()
			if err := st.Bookings.Update(ctx, bk); err != nil {
				return err
			}
		}
		canceled = active

		return st.Properties.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)

	s.logger.Info("property deleted",
		zap.String("property_id", id.String()),
		zap.Int("canceled_bookings", len(canceled)),
	)
	for _, bk := range canceled {
		s.events.publish(ctx, events.TopicBookingEvents, events.BookingCanceled, id.String(),
			newBookingEvent(bk, hostID, bookingDomain.PartySystem))
	}
	s.publishPropertyEvent(ctx, events.PropertyDeleted, p, len(canceled))
	return nil
}

// ListProperties searches listings. With a Near point the results are ordered by distance.
func (s *PropertyService) ListProperties(ctx context.Context, q ListPropertiesQuery) (*domain.PaginatedResult[PropertyDTO], error) {
	if q.Near != nil {
		if err := q.Near.Validate(); err != nil {
			return nil, err
		}
		if q.RadiusKm <= 0 {
			q.RadiusKm = defaultRadiusKm
		}
		if q.RadiusKm > maxRadiusKm {
			return nil, domain.NewValidationError(fmt.Sprintf("radius_km cannot exceed %.0f", maxRadiusKm))
		}
	}
	switch q.SortBy {
	case "", propertyDomain.SortByCreatedAt, propertyDomain.SortByPrice, propertyDomain.SortByTitle:
	default:
		return nil, domain.NewValidationError("sort_by must be one of created_at, price, title")
	}

	gen := s.cache.Generation(ctx, propertyListSpace)
	key := cache.QueryKey(propertyListSpace, gen, listCacheParams(q))

	var result domain.PaginatedResult[PropertyDTO]
	err := s.cache.Fetch(ctx, key, &result, func(ctx context.Context) (any, error) {
		return s.listFromStore(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *PropertyService) listFromStore(ctx context.Context, q ListPropertiesQuery) (domain.PaginatedResult[PropertyDTO], error) {
	filter := propertyDomain.ListFilter{
		Search:   strings.TrimSpace(q.Search),
		HostID:   q.OwnedBy,
		SortBy:   q.SortBy,
		SortDesc: !strings.EqualFold(q.SortOrder, "asc"),
		Page:     q.Page,
		Limit:    q.Limit,
	}

	if q.Near == nil {
		props, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return domain.PaginatedResult[PropertyDTO]{}, fmt.Errorf("failed to list properties: %w", err)
		}
		dtos := make([]PropertyDTO, len(props))
		for i, p := range props {
			dtos[i] = toPropertyDTO(p)
		}
		return domain.NewPaginatedResult(dtos, total, q.Page, q.Limit), nil
	}

	box := boundingBox(*q.Near, q.RadiusKm)
	filter.Within = &box
	filter.Unpaged = true
	filter.Limit = maxGeoCandidates
	props, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.PaginatedResult[PropertyDTO]{}, fmt.Errorf("failed to list properties: %w", err)
	}

	origin := haversine.Coord{Lat: q.Near.Latitude, Lon: q.Near.Longitude}
	nearby := make([]PropertyDTO, 0, len(props))
	for _, p := range props {
		c := p.Coordinates()
		if c == nil {
			continue
		}
		_, km := haversine.Distance(origin, haversine.Coord{Lat: c.Latitude, Lon: c.Longitude})
		if km > q.RadiusKm {
			continue
		}
		dto := toPropertyDTO(p)
		dist := math.Round(km*100) / 100
		dto.DistanceKm = &dist
		nearby = append(nearby, dto)
	}
	sort.SliceStable(nearby, func(i, j int) bool { return *nearby[i].DistanceKm < *nearby[j].DistanceKm })

	total := int64(len(nearby))
	start := (q.Page - 1) * q.Limit
	if start > len(nearby) {
		start = len(nearby)
	}
	end := start + q.Limit
	if end > len(nearby) {
		end = len(nearby)
	}
	return domain.NewPaginatedResult(nearby[start:end], total, q.Page, q.Limit), nil
}

func (s *PropertyService) invalidate(ctx context.Context, id uuid.UUID) {
	s.cache.Invalidate(ctx, cache.EntityKey(propertyEntity, id.String()))
	s.cache.BumpGeneration(ctx, propertyListSpace)
}

func (s *PropertyService) publishPropertyEvent(ctx context.Context, eventType string, p *propertyDomain.Property, canceledBookings int) {
	evt := events.PropertyEvent{
		PropertyID:       p.ID(),
		HostID:           p.HostID(),
		Title:            p.Title(),
		NightlyRate:      p.NightlyRate(),
		CanceledBookings: canceledBookings,
		OccurredAt:       time.Now().UTC(),
	}
	s.events.publish(ctx, events.TopicPropertyEvents, eventType, p.ID().String(), evt)
}

// --- Helpers ---

func coordinatesOf(lat, lng *float64) (*propertyDomain.Coordinates, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, domain.NewValidationError("latitude and longitude must be provided together")
	}
	c := &propertyDomain.Coordinates{Latitude: *lat, Longitude: *lng}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// boundingBox returns a lat/lng rectangle enclosing the circle of radiusKm around center.
func boundingBox(center propertyDomain.Coordinates, radiusKm float64) propertyDomain.BoundingBox {
	dLat := radiusKm / kmPerDegreeLatitude
	dLng := 180.0
	if cos := math.Cos(center.Latitude * math.Pi / 180); cos > 1e-6 {
		dLng = math.Min(180, radiusKm/(kmPerDegreeLatitude*cos))
	}
	box := propertyDomain.BoundingBox{
		MinLat: math.Max(-90, center.Latitude-dLat),
		MaxLat: math.Min(90, center.Latitude+dLat),
		MinLng: center.Longitude - dLng,
		MaxLng: center.Longitude + dLng,
	}
	// A circle crossing the antimeridian spans both ends of the longitude range;
	// leave longitude open and let the haversine pass do the filtering.
	if box.MinLng < -180 || box.MaxLng > 180 {
		box.MinLng, box.MaxLng = -180, 180
	}
	return box
}

func listCacheParams(q ListPropertiesQuery) map[string]string {
	params := map[string]string{
		"search":     strings.ToLower(strings.TrimSpace(q.Search)),
		"sort_by":    q.SortBy,
		"sort_order": strings.ToLower(q.SortOrder),
		"page":       strconv.Itoa(q.Page),
		"limit":      strconv.Itoa(q.Limit),
	}
	if q.OwnedBy != nil {
		params["owned_by"] = q.OwnedBy.String()
	}
	if q.Near != nil {
		params["near"] = strconv.FormatFloat(q.Near.Latitude, 'f', 5, 64) + "," + strconv.FormatFloat(q.Near.Longitude, 'f', 5, 64)
		params["radius_km"] = strconv.FormatFloat(q.RadiusKm, 'f', 2, 64)
	}
	return params
}

func toPropertyDTO(p *propertyDomain.Property) PropertyDTO {
	dto := PropertyDTO{
		ID:          p.ID(),
		HostID:      p.HostID(),
		Title:       p.Title(),
		Description: p.Description(),
		Location:    p.Location(),
		NightlyRate: p.NightlyRate(),
		Currency:    p.Currency(),
		MediaURLs:   p.MediaURLs(),
		Version:     p.Version(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
	if dto.MediaURLs == nil {
		dto.MediaURLs = []string{}
	}
	if c := p.Coordinates(); c != nil {
		lat, lng := c.Latitude, c.Longitude
		dto.Latitude = &lat
		dto.Longitude = &lng
	}
	return dto
}
