package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodi-rentals/service-rental/pkg/domain"
)

func TestError_MapsKindsToStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError("bad"), http.StatusBadRequest, "VALIDATION"},
		{"not found", domain.NewNotFoundError("Booking", "x"), http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", domain.NewForbiddenError("not yours"), http.StatusForbidden, "FORBIDDEN"},
		{"transition", domain.NewUnauthorizedTransitionError("PENDING", "CONFIRMED", "renter"), http.StatusForbidden, "UNAUTHORIZED_TRANSITION"},
		{"overlap", domain.NewBookingConflictError("b1"), http.StatusConflict, "BOOKING_CONFLICT"},
		{"duplicate", domain.NewDuplicateActiveBookingError("b1"), http.StatusConflict, "DUPLICATE_ACTIVE_BOOKING"},
		{"stale version", domain.NewConflictError("modified"), http.StatusConflict, "CONFLICT"},
		{"wrapped", fmt.Errorf("ctx: %w", domain.NewNotFoundError("Property", "p")), http.StatusNotFound, "NOT_FOUND"},
		{"infra", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Error(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.NotContains(t, body.Error.Message, "connection reset")
		})
	}
}
