package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kodi-rentals/service-rental/internal/application"
	"github.com/kodi-rentals/service-rental/pkg/auth"
	"github.com/kodi-rentals/service-rental/pkg/middleware"
	"github.com/kodi-rentals/service-rental/pkg/response"
)

// ReviewHandler handles HTTP requests for property reviews.
type ReviewHandler struct {
	service *application.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *application.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers review routes nested under a property.
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	reviews := r.Group("/api/v1/properties/:id/reviews")
	{
		reviews.GET("", h.ListReviews)
		reviews.POST("", authMW, middleware.RequireRole(auth.RoleRenter), h.CreateReview)
		reviews.PUT("/:reviewId", authMW, h.UpdateReview)
		reviews.DELETE("/:reviewId", authMW, h.DeleteReview)
	}
}

// CreateReview handles POST /api/v1/properties/:id/reviews.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	propertyID, ok := pathID(c, "id", "property")
	if !ok {
		return
	}
	renterID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateReview(c.Request.Context(), propertyID, renterID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListReviews handles GET /api/v1/properties/:id/reviews.
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	propertyID, ok := pathID(c, "id", "property")
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListPropertyReviews(c.Request.Context(), propertyID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateReview handles PUT /api/v1/properties/:id/reviews/:reviewId.
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	propertyID, ok := pathID(c, "id", "property")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "reviewId", "review")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateReview(c.Request.Context(), propertyID, reviewID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteReview handles DELETE /api/v1/properties/:id/reviews/:reviewId.
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	propertyID, ok := pathID(c, "id", "property")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "reviewId", "review")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteReview(c.Request.Context(), propertyID, reviewID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
