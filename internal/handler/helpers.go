package handler

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	bookingDomain "github.com/kodi-rentals/service-rental/internal/domain/booking"
	"github.com/kodi-rentals/service-rental/pkg/auth"
	"github.com/kodi-rentals/service-rental/pkg/domain"
	"github.com/kodi-rentals/service-rental/pkg/middleware"
	"github.com/kodi-rentals/service-rental/pkg/response"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request structs:
// "date" accepts a calendar date in YYYY-MM-DD form.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic("handler: gin binding engine is not a go-playground validator")
		}
		if err := v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(bookingDomain.DateLayout, fl.Field().String())
			return err == nil
		}); err != nil {
			panic("handler: register date validator: " + err.Error())
		}
	})
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

// pathID parses a UUID path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user id, writing a 401 when absent.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// currentActor maps the token's identity onto the booking state machine's actor.
func currentActor(c *gin.Context) (bookingDomain.Actor, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return bookingDomain.Actor{}, false
	}
	role, _ := middleware.GetUserRole(c)

	actor := bookingDomain.Actor{UserID: userID}
	switch role {
	case auth.RoleRenter:
		actor.Role = bookingDomain.RoleRenter
	case auth.RoleHost:
		actor.Role = bookingDomain.RoleHost
	case auth.RoleAdmin:
		actor.Role = bookingDomain.RoleAdmin
	default:
		response.Unauthorized(c, "unknown role")
		return bookingDomain.Actor{}, false
	}
	return actor, true
}

// parseStay reads a check-in/check-out pair of YYYY-MM-DD strings.
func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse(bookingDomain.DateLayout, checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError("check_in must be a date in YYYY-MM-DD format")
	}
	out, err := time.Parse(bookingDomain.DateLayout, checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError("check_out must be a date in YYYY-MM-DD format")
	}
	return in, out, nil
}
