package booking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cottage/internal/domain"
	"cottage/internal/middleware"
	"cottage/internal/pkg/jwt"
	"cottage/internal/pkg/logger"
	engine "cottage/internal/pricing"
	"cottage/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(f *fixture, tokens *jwt.Service) *gin.Engine {
	h := NewHandler(f.svc, logger.Discard())
	r := gin.New()
	api := r.Group("/api/v1", middleware.OptionalJWT(tokens))
	h.RegisterRoutes(api)
	h.RegisterUserRoutes(api.Group("", middleware.JWTAuth(tokens)))
	return r
}

func do(r *gin.Engine, method, path string, body any, header http.Header) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestHandler_CreateBooking(t *testing.T) {
	f := newFixture()
	f.bookings.On("HasOverlap", mock.Anything, mock.Anything).Return(false, nil)
	f.quoter.On("QuoteStay", mock.Anything, mock.Anything).Return(&engine.Quote{TotalUAH: 15800, Nights: 2}, nil)
	f.bookings.On("CreateExclusive", mock.Anything, mock.Anything).Return(nil)

	w, env := do(newRouter(f, jwt.New("test-secret-123", time.Hour)), http.MethodPost, "/api/v1/bookings", validRequest(), nil)

	require.Equal(t, http.StatusCreated, w.Code)
	var data CreateBookingResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "2025-11-01", data.Booking.CheckIn)
	assert.Equal(t, "2025-11-03", data.Booking.CheckOut)
	assert.Equal(t, int64(15800), *data.Booking.QuoteTotalUAH)
	assert.Equal(t, domain.BookingPending, data.Booking.Status)
	assert.Equal(t, int64(15800), data.Quote.TotalUAH)
}

func TestHandler_CreateBooking_AttachesSessionUser(t *testing.T) {
	f := newFixture()
	tokens := jwt.New("test-secret-123", time.Hour)
	token, err := tokens.GenerateToken(5, "USER")
	require.NoError(t, err)

	f.bookings.On("HasOverlap", mock.Anything, mock.Anything).Return(false, nil)
	f.users.On("GetByID", mock.Anything, int64(5)).Return(&domain.User{ID: 5}, nil)
	f.quoter.On("QuoteStay", mock.Anything, mock.Anything).Return(&engine.Quote{}, nil)
	f.bookings.On("CreateExclusive", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.UserID != nil && *b.UserID == 5
	})).Return(nil)

	w, _ := do(newRouter(f, tokens), http.MethodPost, "/api/v1/bookings", validRequest(),
		http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandler_CreateBooking_Errors(t *testing.T) {
	f := newFixture()
	f.bookings.On("HasOverlap", mock.Anything, mock.Anything).Return(true, nil)
	r := newRouter(f, jwt.New("test-secret-123", time.Hour))

	w, env := do(r, http.MethodPost, "/api/v1/bookings", validRequest(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "BOOKING_CONFLICT", env.Error.Code)

	bad := validRequest()
	bad.Adults = 0
	w, env = do(r, http.MethodPost, "/api/v1/bookings", bad, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.NotEmpty(t, env.Error.Message)
}

func TestHandler_UpdateStatus(t *testing.T) {
	f := newFixture()
	confirmed := pending("b1")
	confirmed.Status = domain.BookingConfirmed
	f.bookings.On("GetByID", mock.Anything, "b1").Return(pending("b1"), nil)
	f.bookings.On("UpdateStatus", mock.Anything, "b1", domain.BookingPending, domain.BookingConfirmed).Return(confirmed, nil)
	r := newRouter(f, jwt.New("test-secret-123", time.Hour))

	w, env := do(r, http.MethodPatch, "/api/v1/bookings/b1", UpdateStatusRequest{Status: "CONFIRMED"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	w, _ = do(r, http.MethodPatch, "/api/v1/bookings/b1?key=wrong", UpdateStatusRequest{Status: "CONFIRMED"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = do(r, http.MethodPatch, "/api/v1/bookings/b1?key="+testAdminKey, UpdateStatusRequest{Status: "PENDING"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w, env = do(r, http.MethodPatch, "/api/v1/bookings/b1?key="+testAdminKey, UpdateStatusRequest{Status: "CONFIRMED"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got BookingResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, domain.BookingConfirmed, got.Status)
}

func TestHandler_Action(t *testing.T) {
	f := newFixture()
	cancelled := pending("b1")
	cancelled.Status = domain.BookingCancelled
	f.bookings.On("GetByID", mock.Anything, "b1").Return(pending("b1"), nil)
	f.bookings.On("UpdateStatus", mock.Anything, "b1", domain.BookingPending, domain.BookingCancelled).Return(cancelled, nil)
	r := newRouter(f, jwt.New("test-secret-123", time.Hour))

	w, _ := do(r, http.MethodPost, "/api/v1/bookings/b1", ActionRequest{Action: "archive", AdminKey: testAdminKey}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(r, http.MethodPost, "/api/v1/bookings/b1", ActionRequest{Action: "cancel", AdminKey: testAdminKey}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Action_InvalidTransition(t *testing.T) {
	f := newFixture()
	b := pending("b1")
	b.Status = domain.BookingCancelled
	f.bookings.On("GetByID", mock.Anything, "b1").Return(b, nil)

	w, env := do(newRouter(f, jwt.New("test-secret-123", time.Hour)), http.MethodPost, "/api/v1/bookings/b1",
		ActionRequest{Action: "confirm"}, http.Header{middleware.AdminKeyHeader: {testAdminKey}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", env.Error.Code)
}

func TestHandler_GetBooking(t *testing.T) {
	f := newFixture()
	f.bookings.On("GetByID", mock.Anything, "b1").Return(pending("b1"), nil)
	f.bookings.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound)
	r := newRouter(f, jwt.New("test-secret-123", time.Hour))

	w, _ := do(r, http.MethodGet, "/api/v1/bookings/b1", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := do(r, http.MethodGet, "/api/v1/bookings/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestHandler_PaymentInfo(t *testing.T) {
	f := newFixture()
	f.svc.opts.PaymentIBAN = "UA000000000000000000000000000"
	f.bookings.On("GetByID", mock.Anything, "b1").Return(pending("b1"), nil)

	w, env := do(newRouter(f, jwt.New("test-secret-123", time.Hour)), http.MethodGet, "/api/v1/bookings/b1/payment", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info PaymentInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, int64(15800), *info.AmountUAH)
	assert.Equal(t, "UA000000000000000000000000000", info.IBAN)
	assert.Contains(t, info.Purpose, "b1")
}

func TestHandler_MyBookings(t *testing.T) {
	f := newFixture()
	tokens := jwt.New("test-secret-123", time.Hour)
	token, _ := tokens.GenerateToken(5, "USER")
	f.bookings.On("ListByUser", mock.Anything, int64(5), 50).Return([]domain.Booking{*pending("b1")}, nil)
	r := newRouter(f, tokens)

	w, _ := do(r, http.MethodGet, "/api/v1/me/bookings", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := do(r, http.MethodGet, "/api/v1/me/bookings", nil, http.Header{"Authorization": {"Bearer " + token}})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Bookings []BookingResponse `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Bookings, 1)
	assert.Equal(t, "b1", data.Bookings[0].ID)
}
