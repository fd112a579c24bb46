package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/kodi-rentals/service-rental/internal/application"
	"github.com/kodi-rentals/service-rental/pkg/auth"
	"github.com/kodi-rentals/service-rental/pkg/middleware"
	"github.com/kodi-rentals/service-rental/pkg/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	r.GET("/api/v1/properties/:id/quote", h.Quote)

	byProperty := r.Group("/api/v1/properties/:id/bookings")
	byProperty.Use(authMW)
	{
		byProperty.POST("", middleware.RequireRole(auth.RoleRenter), h.CreateBooking)
		byProperty.GET("", middleware.RequireRole(auth.RoleHost, auth.RoleAdmin), h.ListPropertyBookings)
	}

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id/dates", middleware.RequireRole(auth.RoleRenter), h.UpdateBookingDates)
		bookings.PUT("/:id/status", h.UpdateBookingStatus)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.DELETE("/:id", middleware.RequireRole(auth.RoleRenter), h.DeleteBooking)
	}
}

// CreateBooking handles POST /api/v1/properties/:id/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	propertyID, ok := pathID(c, "id", "property")
	if !ok {
		return
	}
	renterID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), propertyID, renterID, checkIn, checkOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListPropertyBookings handles GET /api/v1/properties/:id/bookings.
func (h *BookingHandler) ListPropertyBookings(c *gin.Context) {
	propertyID, ok := pathID(c, "id", "property")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListPropertyBookings(c.Request.Context(), propertyID, actor, c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// Quote handles GET /api/v1/properties/:id/quote.
func (h *BookingHandler) Quote(c *gin.Context) {
	propertyID, ok := pathID(c, "id", "property")
	if !ok {
		return
	}
	checkIn, checkOut, err := parseStay(c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Quote(c.Request.Context(), propertyID, checkIn, checkOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListBookings handles GET /api/v1/bookings: the caller's own bookings as a renter.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListRenterBookings(c.Request.Context(), userID, c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateBookingDates handles PUT /api/v1/bookings/:id/dates.
func (h *BookingHandler) UpdateBookingDates(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	renterID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.UpdateBookingDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.UpdateBookingDates(c.Request.Context(), bookingID, renterID, checkIn, checkOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateBookingStatus handles PUT /api/v1/bookings/:id/status.
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req application.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateBookingStatus(c.Request.Context(), bookingID, actor, req.Status, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	// The body is optional; an empty one cancels without a reason.
	var req application.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, actor, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteBooking handles DELETE /api/v1/bookings/:id.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	renterID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), bookingID, renterID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
