// Package events holds the topic names, CloudEvent types and payloads exchanged over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents  = "booking.events"
	TopicPropertyEvents = "property.events"
	TopicReviewEvents   = "review.events"
	TopicAccountEvents  = "account.events"
)

// Booking event types.
const (
	BookingRequested    = "booking.requested"
	BookingDatesChanged = "booking.dates_changed"
	BookingConfirmed    = "booking.confirmed"
	BookingCanceled     = "booking.canceled"
	BookingDeleted      = "booking.deleted"
)

// Property event types.
const (
	PropertyCreated = "property.created"
	PropertyUpdated = "property.updated"
	PropertyDeleted = "property.deleted"
)

// Review event types.
const (
	ReviewCreated = "review.created"
	ReviewUpdated = "review.updated"
	ReviewDeleted = "review.deleted"
)

// Account event types consumed by this service.
const (
	UserDeactivated = "user.deactivated"
)

// BookingEvent is the payload of every booking.* event.
type BookingEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PropertyID uuid.UUID `json:"property_id"`
	RenterID   uuid.UUID `json:"renter_id"`
	HostID     uuid.UUID `json:"host_id,omitempty"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Status     string    `json:"status"`
	TotalCost  int64     `json:"total_cost"`
	Currency   string    `json:"currency"`
	ChangedBy  string    `json:"changed_by,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PropertyEvent is the payload of every property.* event.
type PropertyEvent struct {
	PropertyID       uuid.UUID `json:"property_id"`
	HostID           uuid.UUID `json:"host_id"`
	Title            string    `json:"title"`
	NightlyRate      int64     `json:"nightly_rate"`
	CanceledBookings int       `json:"canceled_bookings,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// ReviewEvent is the payload of every review.* event.
type ReviewEvent struct {
	ReviewID   uuid.UUID `json:"review_id"`
	PropertyID uuid.UUID `json:"property_id"`
	RenterID   uuid.UUID `json:"renter_id"`
	Rating     int       `json:"rating"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserDeactivatedEvent is published by the account service when a user is disabled.
type UserDeactivatedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
