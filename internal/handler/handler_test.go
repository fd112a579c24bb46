package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kodi-rentals/service-rental/internal/application"
	"github.com/kodi-rentals/service-rental/internal/cache"
	bookingDomain "github.com/kodi-rentals/service-rental/internal/domain/booking"
	"github.com/kodi-rentals/service-rental/internal/handler"
	"github.com/kodi-rentals/service-rental/internal/repository/memory"
	"github.com/kodi-rentals/service-rental/pkg/auth"
	"github.com/kodi-rentals/service-rental/pkg/kafka"
)

type noopPublisher struct{}

func (noopPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	jwt    *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler.RegisterValidators()

	store := memory.NewStore()
	log := zap.NewNop()
	pub := noopPublisher{}

	bookings := application.NewBookingService(
		store.Bookings(), store.Properties(), store,
		bookingDomain.NewNightlyPricingStrategy(), pub, log,
	)
	bookings.SetClock(func() time.Time { return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC) })
	properties := application.NewPropertyService(store.Properties(), store, cache.NewNoop(), pub, "RWF", log)
	reviews := application.NewReviewService(store.Reviews(), store.Properties(), pub, log)

	jwt := auth.NewJWTManager("test-secret", time.Hour, time.Hour)
	r := gin.New()
	api := r.Group("")
	handler.NewPropertyHandler(properties).RegisterRoutes(api, jwt)
	handler.NewBookingHandler(bookings).RegisterRoutes(api, jwt)
	handler.NewReviewHandler(reviews).RegisterRoutes(api, jwt)
	handler.NewAdminBookingHandler(bookings).RegisterRoutes(api, jwt)

	return &testServer{t: t, router: r, jwt: jwt}
}

func (s *testServer) token(userID uuid.UUID, role auth.Role) string {
	tok, err := s.jwt.GenerateAccessToken(userID, "user@example.com", role)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	return s.doRaw(method, path, token, buf.String())
}

func (s *testServer) doRaw(method, path, token, body string) (int, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestBookingFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	hostID, r1, r2 := uuid.New(), uuid.New(), uuid.New()
	hostTok := s.token(hostID, auth.RoleHost)
	r1Tok := s.token(r1, auth.RoleRenter)
	r2Tok := s.token(r2, auth.RoleRenter)

	code, env := s.do(http.MethodPost, "/api/v1/properties", r1Tok, map[string]interface{}{"title": "Loft", "nightly_rate": 10000})
	assert.Equal(t, http.StatusForbidden, code, "renters cannot list properties")

	code, env = s.do(http.MethodPost, "/api/v1/properties", hostTok, map[string]interface{}{"title": "Loft", "nightly_rate": 10000})
	require.Equal(t, http.StatusCreated, code)
	prop := decode[application.PropertyDTO](t, env.Data)
	base := "/api/v1/properties/" + prop.ID.String()

	code, env = s.do(http.MethodGet, base+"/quote?check_in=2024-03-01&check_out=2024-03-04", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(30000), decode[application.QuoteDTO](t, env.Data).TotalCost)

	code, env = s.do(http.MethodPost, base+"/bookings", r1Tok, map[string]string{"check_in": "2024-03-01", "check_out": "2024-03-04"})
	require.Equal(t, http.StatusCreated, code)
	b1 := decode[application.BookingDTO](t, env.Data)
	assert.Equal(t, "PENDING", b1.Status)
	assert.Equal(t, int64(30000), b1.TotalCost)

	code, env = s.do(http.MethodPost, base+"/bookings", r2Tok, map[string]string{"check_in": "2024-03-03", "check_out": "2024-03-06"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "BOOKING_CONFLICT", env.Error.Code)
	assert.Equal(t, b1.ID.String(), env.Error.Details["conflicting_booking_id"])

	code, env = s.do(http.MethodPut, "/api/v1/bookings/"+b1.ID.String()+"/status", r1Tok, map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "UNAUTHORIZED_TRANSITION", env.Error.Code)

	code, env = s.do(http.MethodPut, "/api/v1/bookings/"+b1.ID.String()+"/status", hostTok, map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CONFIRMED", decode[application.BookingDTO](t, env.Data).Status)

	code, _ = s.do(http.MethodGet, "/api/v1/bookings/"+b1.ID.String(), r2Tok, nil)
	assert.Equal(t, http.StatusNotFound, code, "strangers cannot see the booking")

	code, env = s.do(http.MethodGet, base+"/bookings?status=CONFIRMED", hostTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1), env.Meta.Total)

	code, env = s.do(http.MethodPut, "/api/v1/bookings/"+b1.ID.String()+"/dates", r1Tok, map[string]string{"check_in": "2024-03-02", "check_out": "2024-03-05"})
	require.Equal(t, http.StatusOK, code)
	moved := decode[application.BookingDTO](t, env.Data)
	assert.Equal(t, "PENDING", moved.Status)
	assert.Equal(t, "2024-03-02", moved.CheckIn)

	code, env = s.do(http.MethodPost, "/api/v1/bookings/"+b1.ID.String()+"/cancel", r1Tok, map[string]string{"reason": "plans changed"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CANCELED", decode[application.BookingDTO](t, env.Data).Status)

	code, _ = s.do(http.MethodPost, base+"/bookings", r2Tok, map[string]string{"check_in": "2024-03-03", "check_out": "2024-03-06"})
	assert.Equal(t, http.StatusCreated, code)

	code, env = s.do(http.MethodGet, "/api/v1/bookings", r1Tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1), env.Meta.Total)

	code, _ = s.do(http.MethodDelete, "/api/v1/bookings/"+b1.ID.String(), hostTok, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodDelete, "/api/v1/bookings/"+b1.ID.String(), r1Tok, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestBookingRequestValidation(t *testing.T) {
	s := newTestServer(t)
	hostTok := s.token(uuid.New(), auth.RoleHost)
	renterTok := s.token(uuid.New(), auth.RoleRenter)

	_, env := s.do(http.MethodPost, "/api/v1/properties", hostTok, map[string]interface{}{"title": "Loft", "nightly_rate": 100})
	prop := decode[application.PropertyDTO](t, env.Data)
	path := "/api/v1/properties/" + prop.ID.String() + "/bookings"

	code, env := s.do(http.MethodPost, path, renterTok, map[string]string{"check_in": "03/01/2024", "check_out": "2024-03-04"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodPost, path, renterTok, map[string]string{"check_in": "2024-03-04", "check_out": "2024-03-04"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION", env.Error.Code)

	code, _ = s.do(http.MethodPost, "/api/v1/properties/not-a-uuid/bookings", renterTok, map[string]string{"check_in": "2024-03-01", "check_out": "2024-03-04"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/v1/properties/"+uuid.NewString()+"/bookings", renterTok, map[string]string{"check_in": "2024-03-01", "check_out": "2024-03-04"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPost, path, "", map[string]string{"check_in": "2024-03-01", "check_out": "2024-03-04"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, path, hostTok, map[string]string{"check_in": "2024-03-01", "check_out": "2024-03-04"})
	assert.Equal(t, http.StatusForbidden, code, "hosts do not rent")
}

func TestPropertyAndReviewRoutes(t *testing.T) {
	s := newTestServer(t)
	hostID, renterID := uuid.New(), uuid.New()
	hostTok := s.token(hostID, auth.RoleHost)
	renterTok := s.token(renterID, auth.RoleRenter)
	otherHostTok := s.token(uuid.New(), auth.RoleHost)

	_, env := s.do(http.MethodPost, "/api/v1/properties", hostTok, map[string]interface{}{
		"title": "Garden house", "nightly_rate": 100, "latitude": -1.95, "longitude": 30.06,
	})
	prop := decode[application.PropertyDTO](t, env.Data)
	base := "/api/v1/properties/" + prop.ID.String()

	code, env := s.do(http.MethodGet, "/api/v1/properties?search=garden&near=-1.95,30.06&radius_km=5", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1), env.Meta.Total)

	code, _ = s.do(http.MethodGet, "/api/v1/properties?near=oops", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPut, base, otherHostTok, map[string]interface{}{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPut, base, hostTok, map[string]interface{}{"nightly_rate": 150})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(150), decode[application.PropertyDTO](t, env.Data).NightlyRate)

	code, env = s.do(http.MethodPost, base+"/reviews", renterTok, map[string]interface{}{"rating": 4, "comment": "Lovely"})
	require.Equal(t, http.StatusCreated, code)
	rv := decode[application.ReviewDTO](t, env.Data)

	code, _ = s.do(http.MethodPost, base+"/reviews", renterTok, map[string]interface{}{"rating": 9, "comment": "Lovely"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, base+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[application.ReviewListDTO](t, env.Data)
	assert.Equal(t, 4.0, list.AverageRating)

	code, _ = s.do(http.MethodDelete, base+"/reviews/"+rv.ID.String(), otherHostTok, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodDelete, base+"/reviews/"+rv.ID.String(), hostTok, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodDelete, base, hostTok, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/api/v1/admin/stats/bookings", s.token(uuid.New(), auth.RoleHost), nil)
	assert.Equal(t, http.StatusForbidden, code)

	adminTok := s.token(uuid.New(), auth.RoleAdmin)
	code, env := s.do(http.MethodGet, "/api/v1/admin/stats/bookings", adminTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(0), decode[application.BookingStatsDTO](t, env.Data).TotalBookings)

	code, _ = s.do(http.MethodGet, "/api/v1/admin/bookings?status=BOGUS", adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCancelBookingRequestBody(t *testing.T) {
	s := newTestServer(t)
	hostTok := s.token(uuid.New(), auth.RoleHost)
	renterTok := s.token(uuid.New(), auth.RoleRenter)

	_, env := s.do(http.MethodPost, "/api/v1/properties", hostTok, map[string]interface{}{"title": "Loft", "nightly_rate": 100})
	prop := decode[application.PropertyDTO](t, env.Data)
	_, env = s.do(http.MethodPost, "/api/v1/properties/"+prop.ID.String()+"/bookings", renterTok,
		map[string]string{"check_in": "2024-03-01", "check_out": "2024-03-04"})
	bk := decode[application.BookingDTO](t, env.Data)
	cancelPath := "/api/v1/bookings/" + bk.ID.String() + "/cancel"

	code, env := s.do(http.MethodPost, cancelPath, renterTok, map[string]string{"reason": strings.Repeat("x", 501)})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION", env.Error.Code)

	code, _ = s.doRaw(http.MethodPost, cancelPath, renterTok, `{"reason":`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, "/api/v1/bookings/"+bk.ID.String(), renterTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PENDING", decode[application.BookingDTO](t, env.Data).Status, "rejected requests leave the booking alone")

	code, env = s.do(http.MethodPost, cancelPath, renterTok, nil)
	require.Equal(t, http.StatusOK, code)
	canceled := decode[application.BookingDTO](t, env.Data)
	assert.Equal(t, "CANCELED", canceled.Status)
	assert.Empty(t, canceled.CancelReason)
}
