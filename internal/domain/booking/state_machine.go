package booking

import (
	"github.com/google/uuid"

	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// Role is the account type of whoever triggers a change.
type Role string

const (
	RoleRenter Role = "RENTER"
	RoleHost   Role = "HOST"
	RoleAdmin  Role = "ADMIN"
	// RoleSystem is used by background jobs and event consumers, never by HTTP callers.
	RoleSystem Role = "SYSTEM"
)

// Actor identifies who is acting on a booking.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// SystemActor is the actor for scheduled and event-driven changes.
var SystemActor = Actor{Role: RoleSystem}

// Party is the relationship between an actor and one specific booking.
type Party string

const (
	PartyNone   Party = "none"
	PartyRenter Party = "renter"
	PartyHost   Party = "host"
	PartySystem Party = "system"
)

// transitionRules lists, per from-status, the reachable statuses and who may trigger each.
// Date changes are authorized separately by AuthorizeDateChange.
var transitionRules = map[BookingStatus]map[BookingStatus][]Party{
	StatusPending: {
		StatusConfirmed: {PartyHost},
		StatusCanceled:  {PartyHost, PartyRenter, PartySystem},
	},
	StatusConfirmed: {
		StatusCanceled: {PartyRenter, PartySystem},
	},
	StatusCanceled: {},
}

// PartyOf resolves how actor relates to a booking owned by renterID on a property hosted by hostID.
func PartyOf(actor Actor, renterID, hostID uuid.UUID) Party {
	switch {
	case actor.Role == RoleSystem:
		return PartySystem
	case actor.Role == RoleHost && actor.UserID != uuid.Nil && actor.UserID == hostID:
		return PartyHost
	case actor.Role == RoleRenter && actor.UserID != uuid.Nil && actor.UserID == renterID:
		return PartyRenter
	default:
		return PartyNone
	}
}

// CanTransition reports whether party may move a booking from one status to another.
func CanTransition(from, to BookingStatus, party Party) bool {
	for _, allowed := range transitionRules[from][to] {
		if allowed == party {
			return true
		}
	}
	return false
}

// AuthorizeTransition fails with an unauthorized-transition error unless party may perform from → to.
// Transitions absent from the table have an empty allowed set.
func AuthorizeTransition(from, to BookingStatus, party Party) error {
	if !CanTransition(from, to, party) {
		return domain.NewUnauthorizedTransitionError(string(from), string(to), string(party))
	}
	return nil
}

// AuthorizeDateChange allows only the booking's renter to move the stay of a live booking.
func AuthorizeDateChange(current BookingStatus, party Party) error {
	if party != PartyRenter || current == StatusCanceled {
		return domain.NewUnauthorizedTransitionError(string(current), string(StatusPending), string(party))
	}
	return nil
}
