package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kodi-rentals/service-rental/internal/application"
	propertyDomain "github.com/kodi-rentals/service-rental/internal/domain/property"
	"github.com/kodi-rentals/service-rental/pkg/auth"
	"github.com/kodi-rentals/service-rental/pkg/middleware"
	"github.com/kodi-rentals/service-rental/pkg/response"
)

// PropertyHandler handles HTTP requests for listings.
type PropertyHandler struct {
	service *application.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(service *application.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// RegisterRoutes registers property routes. Reads are public.
func (h *PropertyHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	hostOnly := middleware.RequireRole(auth.RoleHost)

	properties := r.Group("/api/v1/properties")
	{
		properties.GET("", h.ListProperties)
		properties.GET("/:id", h.GetProperty)
		properties.POST("", authMW, hostOnly, h.CreateProperty)
		properties.PUT("/:id", authMW, hostOnly, h.UpdateProperty)
		properties.DELETE("/:id", authMW, hostOnly, h.DeleteProperty)
	}
}

// CreateProperty handles POST /api/v1/properties.
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	hostID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateProperty(c.Request.Context(), hostID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetProperty handles GET /api/v1/properties/:id.
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	id, ok := pathID(c, "id", "property")
	if !ok {
		return
	}

	result, err := h.service.GetProperty(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateProperty handles PUT /api/v1/properties/:id.
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
	id, ok := pathID(c, "id", "property")
	if !ok {
		return
	}
	hostID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateProperty(c.Request.Context(), id, hostID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteProperty handles DELETE /api/v1/properties/:id.
func (h *PropertyHandler) DeleteProperty(c *gin.Context) {
	id, ok := pathID(c, "id", "property")
	if !ok {
		return
	}
	hostID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProperty(c.Request.Context(), id, hostID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// ListProperties handles GET /api/v1/properties.
//
// Query: search, owned_by_user (host id), sort_by, sort_order, near ("lat,lng"), radius_km, page, limit.
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	page, limit := parsePagination(c)
	q := application.ListPropertiesQuery{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      page,
		Limit:     limit,
	}

	if raw := c.Query("owned_by_user"); raw != "" {
		hostID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "owned_by_user must be a user ID")
			return
		}
		q.OwnedBy = &hostID
	}

	if raw := c.Query("near"); raw != "" {
		near, err := parseNear(raw)
		if err != nil {
			response.BadRequest(c, "near must be \"lat,lng\"")
			return
		}
		q.Near = near
	}
	if raw := c.Query("radius_km"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			response.BadRequest(c, "radius_km must be a positive number")
			return
		}
		q.RadiusKm = radius
	}

	result, err := h.service.ListProperties(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

func parseNear(raw string) (*propertyDomain.Coordinates, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, strconv.ErrSyntax
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, err
	}
	return &propertyDomain.Coordinates{Latitude: lat, Longitude: lng}, nil
}
