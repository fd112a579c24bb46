package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies business errors so transports can map them without string matching.
type ErrorKind string

const (
	KindValidation             ErrorKind = "VALIDATION"
	KindNotFound               ErrorKind = "NOT_FOUND"
	KindForbidden              ErrorKind = "FORBIDDEN"
	KindUnauthorizedTransition ErrorKind = "UNAUTHORIZED_TRANSITION"
	KindBookingConflict        ErrorKind = "BOOKING_CONFLICT"
	KindDuplicateActiveBooking ErrorKind = "DUPLICATE_ACTIVE_BOOKING"
	KindConflict               ErrorKind = "CONFLICT"
)

// AppError is a typed business error. Infrastructure faults are never AppErrors.
type AppError struct {
	Kind    ErrorKind
	Message string
	Details map[string]string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports kind equality so errors.Is(err, &AppError{Kind: KindNotFound}) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// NewValidationError reports malformed or out-of-range input.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewInvalidRangeError reports a date range whose check-out is not strictly after its check-in.
func NewInvalidRangeError(checkIn, checkOut string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: "check-out date must be after check-in date",
		Details: map[string]string{"check_in": checkIn, "check_out": checkOut},
	}
}

// NewNotFoundError reports a missing (or invisible) entity.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Details: map[string]string{"entity": entity, "id": id},
	}
}

// NewForbiddenError reports that the caller may not touch the resource at all.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewUnauthorizedTransitionError reports an actor outside the allowed set for a status change.
func NewUnauthorizedTransitionError(from, to, actor string) *AppError {
	return &AppError{
		Kind:    KindUnauthorizedTransition,
		Message: fmt.Sprintf("%s may not move booking from %s to %s", actor, from, to),
		Details: map[string]string{"from": from, "to": to, "actor": actor},
	}
}

// NewBookingConflictError reports a date overlap with another active booking.
func NewBookingConflictError(conflictingID string) *AppError {
	return &AppError{
		Kind:    KindBookingConflict,
		Message: "property already booked for these dates",
		Details: map[string]string{"conflicting_booking_id": conflictingID},
	}
}

// NewDuplicateActiveBookingError reports that the renter already holds a live reservation on the property.
func NewDuplicateActiveBookingError(existingID string) *AppError {
	return &AppError{
		Kind:    KindDuplicateActiveBooking,
		Message: "you already have an active booking for this property",
		Details: map[string]string{"existing_booking_id": existingID},
	}
}

// NewConflictError reports a concurrent-modification conflict.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}


// KindOf returns the kind of err, or "" when err is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func IsValidation(err error) bool             { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool               { return KindOf(err) == KindNotFound }
func IsForbidden(err error) bool              { return KindOf(err) == KindForbidden }
func IsUnauthorizedTransition(err error) bool { return KindOf(err) == KindUnauthorizedTransition }
func IsBookingConflict(err error) bool        { return KindOf(err) == KindBookingConflict }
func IsDuplicateActiveBooking(err error) bool { return KindOf(err) == KindDuplicateActiveBooking }
func IsConflict(err error) bool               { return KindOf(err) == KindConflict }
