package application_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodi-rentals/service-rental/internal/application"
	bookingDomain "github.com/kodi-rentals/service-rental/internal/domain/booking"
	propertyDomain "github.com/kodi-rentals/service-rental/internal/domain/property"
	"github.com/kodi-rentals/service-rental/pkg/domain"
	"github.com/kodi-rentals/service-rental/pkg/events"
)

func ptr[T any](v T) *T { return &v }

func createListing(t *testing.T, f *fixture, hostID uuid.UUID, title string, rate int64, lat, lng *float64) *application.PropertyDTO {
	t.Helper()
	p, err := f.properties.CreateProperty(context.Background(), hostID, application.CreatePropertyRequest{
		Title:       title,
		Location:    "Kigali",
		Latitude:    lat,
		Longitude:   lng,
		NightlyRate: rate,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProperty(t *testing.T) {
	f := newFixture(t, beforeStays)
	ctx := context.Background()
	hostID := uuid.New()

	p, err := f.properties.CreateProperty(ctx, hostID, application.CreatePropertyRequest{
		Title:       "  Lake Kivu cabin ",
		NightlyRate: 25000,
		Latitude:    ptr(-1.94),
		Longitude:   ptr(29.87),
		MediaURLs:   []string{"https://cdn.example.com/a.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Lake Kivu cabin", p.Title)
	assert.Equal(t, "RWF", p.Currency)
	assert.Equal(t, hostID, p.HostID)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, p.MediaURLs)
	assert.Equal(t, []string{events.PropertyCreated}, f.publisher.types())

	_, err = f.properties.CreateProperty(ctx, hostID, application.CreatePropertyRequest{Title: "x", NightlyRate: 0})
	assert.True(t, domain.IsValidation(err))

	_, err = f.properties.CreateProperty(ctx, hostID, application.CreatePropertyRequest{Title: "x", NightlyRate: 1, Latitude: ptr(1.0)})
	assert.True(t, domain.IsValidation(err), "latitude without longitude")

	_, err = f.properties.CreateProperty(ctx, hostID, application.CreatePropertyRequest{Title: "x", NightlyRate: 1, Latitude: ptr(91.0), Longitude: ptr(0.0)})
	assert.True(t, domain.IsValidation(err))

	got, err := f.properties.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Latitude)
	assert.InDelta(t, -1.94, *got.Latitude, 1e-9)

	_, err = f.properties.GetProperty(ctx, uuid.New())
	assert.True(t, domain.IsNotFound(err))
}

func TestUpdateProperty(t *testing.T) {
	f := newFixture(t, beforeStays)
	ctx := context.Background()
	hostID := uuid.New()
	p := createListing(t, f, hostID, "Studio", 10000, nil, nil)

	_, err := f.properties.UpdateProperty(ctx, p.ID, uuid.New(), application.UpdatePropertyRequest{NightlyRate: ptr(int64(1))})
	assert.True(t, domain.IsForbidden(err))

	updated, err := f.properties.UpdateProperty(ctx, p.ID, hostID, application.UpdatePropertyRequest{
		Title:       ptr("Loft"),
		NightlyRate: ptr(int64(12000)),
	})
	require.NoError(t, err)
	assert.Equal(t, "Loft", updated.Title)
	assert.Equal(t, int64(12000), updated.NightlyRate)
	assert.Equal(t, "Kigali", updated.Location)
	assert.Equal(t, p.Version+1, updated.Version)

	_, err = f.properties.UpdateProperty(ctx, p.ID, hostID, application.UpdatePropertyRequest{Title: ptr("   ")})
	assert.True(t, domain.IsValidation(err))

	got, err := f.properties.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Loft", got.Title, "failed update must not leak")

	_, err = f.properties.UpdateProperty(ctx, uuid.New(), hostID, application.UpdatePropertyRequest{})
	assert.True(t, domain.IsNotFound(err))
}

func TestUpdateProperty_NewRateAppliesToLaterBookingsOnly(t *testing.T) {
	f := newFixture(t, beforeStays)
	ctx := context.Background()
	hostID := uuid.New()
	p := createListing(t, f, hostID, "Studio", 10000, nil, nil)

	b, err := f.bookings.CreateBooking(ctx, p.ID, uuid.New(), day("2024-03-01"), day("2024-03-03"))
	require.NoError(t, err)
	_, err = f.properties.UpdateProperty(ctx, p.ID, hostID, application.UpdatePropertyRequest{NightlyRate: ptr(int64(15000))})
	require.NoError(t, err)

	got, err := f.bookings.GetBooking(ctx, b.ID, host(hostID))
	require.NoError(t, err)
	assert.Equal(t, int64(20000), got.TotalCost)

	later, err := f.bookings.CreateBooking(ctx, p.ID, uuid.New(), day("2024-03-05"), day("2024-03-07"))
	require.NoError(t, err)
	assert.Equal(t, int64(30000), later.TotalCost)
}

func TestDeleteProperty_CancelsActiveBookings(t *testing.T) {
	f := newFixture(t, beforeStays)
	ctx := context.Background()
	hostID := uuid.New()
	p := createListing(t, f, hostID, "Studio", 100, nil, nil)
	r1, r2 := uuid.New(), uuid.New()

	pending, err := f.bookings.CreateBooking(ctx, p.ID, r1, day("2024-03-01"), day("2024-03-03"))
	require.NoError(t, err)
	confirmed, err := f.bookings.CreateBooking(ctx, p.ID, r2, day("2024-03-05"), day("2024-03-07"))
	require.NoError(t, err)
	_, err = f.bookings.UpdateBookingStatus(ctx, confirmed.ID, host(hostID), "CONFIRMED", "")
	require.NoError(t, err)

	err = f.properties.DeleteProperty(ctx, p.ID, uuid.New())
	assert.True(t, domain.IsForbidden(err))

	require.NoError(t, f.properties.DeleteProperty(ctx, p.ID, hostID))

	_, err = f.properties.GetProperty(ctx, p.ID)
	assert.True(t, domain.IsNotFound(err))

	admin := bookingDomain.Actor{Role: bookingDomain.RoleAdmin}
	for _, id := range []uuid.UUID{pending.ID, confirmed.ID} {
		got, err := f.bookings.GetBooking(ctx, id, admin)
		require.NoError(t, err)
		assert.Equal(t, "CANCELED", got.Status)
		assert.Equal(t, "system", got.CancelledBy)
	}

	// Renters keep access to their history after the listing is gone.
	got, err := f.bookings.GetBooking(ctx, pending.ID, renter(r1))
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", got.Status)
	require.NoError(t, f.bookings.DeleteBooking(ctx, pending.ID, r1))

	_, err = f.bookings.CreateBooking(ctx, p.ID, uuid.New(), day("2024-04-01"), day("2024-04-03"))
	assert.True(t, domain.IsNotFound(err))

	err = f.properties.DeleteProperty(ctx, p.ID, hostID)
	assert.True(t, domain.IsNotFound(err))

	types := f.publisher.types()
	assert.Equal(t, events.PropertyDeleted, types[len(types)-2])
	assert.Equal(t, events.BookingDeleted, types[len(types)-1])
}

func TestListProperties(t *testing.T) {
	f := newFixture(t, beforeStays)
	ctx := context.Background()
	h1, h2 := uuid.New(), uuid.New()
	createListing(t, f, h1, "Garden cottage", 30000, nil, nil)
	createListing(t, f, h1, "City loft", 10000, nil, nil)
	createListing(t, f, h2, "Garden suite", 20000, nil, nil)

	all, err := f.properties.ListProperties(ctx, application.ListPropertiesQuery{SortBy: "price", SortOrder: "asc", Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, "City loft", all.Items[0].Title)
	assert.Equal(t, "Garden cottage", all.Items[2].Title)

	garden, err := f.properties.ListProperties(ctx, application.ListPropertiesQuery{Search: "GARDEN", SortBy: "price", Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, garden.Items, 2)
	assert.Equal(t, "Garden cottage", garden.Items[0].Title, "descending by default")

	mine, err := f.properties.ListProperties(ctx, application.ListPropertiesQuery{OwnedBy: &h2, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Total)

	paged, err := f.properties.ListProperties(ctx, application.ListPropertiesQuery{SortBy: "title", SortOrder: "asc", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), paged.Total)
	require.Len(t, paged.Items, 1)
	assert.Equal(t, "Garden suite", paged.Items[0].Title)

	_, err = f.properties.ListProperties(ctx, application.ListPropertiesQuery{SortBy: "rating", Page: 1, Limit: 20})
	assert.True(t, domain.IsValidation(err))
}

func TestListProperties_Near(t *testing.T) {
	f := newFixture(t, beforeStays)
	ctx := context.Background()
	h := uuid.New()
	// Kigali city centre, Nyamirambo (~3 km), Musanze (~60 km), and one without coordinates.
	createListing(t, f, h, "Nyamirambo flat", 100, ptr(-1.9786), ptr(30.0431))
	createListing(t, f, h, "Centre apartment", 100, ptr(-1.9441), ptr(30.0619))
	createListing(t, f, h, "Musanze lodge", 100, ptr(-1.4997), ptr(29.6350))
	createListing(t, f, h, "Unmapped room", 100, nil, nil)

	centre := &propertyDomain.Coordinates{Latitude: -1.9441, Longitude: 30.0619}
	near, err := f.properties.ListProperties(ctx, application.ListPropertiesQuery{Near: centre, Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, near.Items, 2)
	assert.Equal(t, "Centre apartment", near.Items[0].Title)
	assert.Equal(t, "Nyamirambo flat", near.Items[1].Title)
	require.NotNil(t, near.Items[1].DistanceKm)
	assert.InDelta(t, 4.3, *near.Items[1].DistanceKm, 1.0)

	wide, err := f.properties.ListProperties(ctx, application.ListPropertiesQuery{Near: centre, RadiusKm: 100, Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, wide.Items, 3)
	assert.Equal(t, "Musanze lodge", wide.Items[2].Title)

	_, err = f.properties.ListProperties(ctx, application.ListPropertiesQuery{Near: centre, RadiusKm: 501, Page: 1, Limit: 20})
	assert.True(t, domain.IsValidation(err))

	_, err = f.properties.ListProperties(ctx, application.ListPropertiesQuery{
		Near: &propertyDomain.Coordinates{Latitude: 95, Longitude: 0}, Page: 1, Limit: 20,
	})
	assert.True(t, domain.IsValidation(err))
}

func TestListProperties_NearAcrossAntimeridian(t *testing.T) {
	f := newFixture(t, beforeStays)
	ctx := context.Background()
	h := uuid.New()
	// Taveuni sits on the 180th meridian; both listings are within a few km of each other.
	createListing(t, f, h, "East of the line", 100, ptr(-16.80), ptr(179.95))
	createListing(t, f, h, "West of the line", 100, ptr(-16.80), ptr(-179.99))
	createListing(t, f, h, "Suva hotel", 100, ptr(-18.14), ptr(178.44))

	centre := &propertyDomain.Coordinates{Latitude: -16.80, Longitude: -179.99}
	near, err := f.properties.ListProperties(ctx, application.ListPropertiesQuery{Near: centre, Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, near.Items, 2)
	assert.Equal(t, "West of the line", near.Items[0].Title)
	assert.Equal(t, "East of the line", near.Items[1].Title)
	require.NotNil(t, near.Items[1].DistanceKm)
	assert.InDelta(t, 6.4, *near.Items[1].DistanceKm, 1.0)
}
