package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"cottage/internal/app"
	"cottage/internal/config"
	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"
	"cottage/internal/pkg/logger"
	"cottage/internal/repository"
	"cottage/internal/testutil"
)

const adminKey = "e2e-admin-key"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type client struct {
	t      *testing.T
	router *gin.Engine
}

func (c client) do(method, path string, body any, headers map[string]string) (int, envelope, string) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env, w.Body.String()
}

func (c client) admin(method, path string, body any) (int, envelope) {
	code, env, _ := c.do(method, path, body, map[string]string{"X-Admin-Key": adminKey})
	return code, env
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:          "test",
		HTTPAddr:        ":0",
		JWTSecret:       "e2e-jwt-secret",
		JWTTTL:          time.Hour,
		AdminKey:        adminKey,
		Timezone:        "UTC",
		Location:        time.UTC,
		Currency:        "UAH",
		CountryCode:     "380",
		PublicURL:       "https://tysha.example",
		NotifyQueueSize: 16,
		MetricsEnabled:  true,
	}
}

func setup(t *testing.T) (client, *gorm.DB) {
	t.Helper()
	now := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
	db := testutil.NewDB(t)
	a, err := app.New(testConfig(), db, nil, prometheus.NewRegistry(), logger.Discard(), app.Options{
		Now:        func() time.Time { return now },
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	assert.Nil(t, a.Bot)

	c := client{t: t, router: a.Router}

	code, _ := c.admin(http.MethodPost, "/api/v1/admin/seasons", map[string]any{
		"startDate": "2025-01-01", "endDate": "2025-12-31",
		"weekdayPrice": 6900, "weekendPrice": 7900, "weekendDays": "FRI,SAT,SUN",
	})
	require.Equal(t, http.StatusCreated, code)

	code, _ = c.admin(http.MethodPut, "/api/v1/admin/surcharges/EXTRA_GUEST", map[string]any{
		"amount": 1900, "unit": "PER_NIGHT", "includedGuests": 2,
	})
	require.Equal(t, http.StatusOK, code)
	return c, db
}

func createBooking(c client, in, out string, headers map[string]string) (int, envelope) {
	code, env, _ := c.do(http.MethodPost, "/api/v1/bookings", map[string]any{
		"name":     "Олена",
		"contact":  "+380501234567",
		"checkIn":  in,
		"checkOut": out,
		"adults":   2,
	}, headers)
	return code, env
}

type bookingView struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	QuoteTotalUAH *int64 `json:"quoteTotalUAH"`
	UserID        *int64 `json:"userId"`
}

func TestPricingScenarios(t *testing.T) {
	c, _ := setup(t)

	var quote struct {
		Nights           int   `json:"nights"`
		BaseNightsSumUAH int64 `json:"baseNightsSumUAH"`
		SurchargesSumUAH int64 `json:"surchargesSumUAH"`
		TotalUAH         int64 `json:"totalUAH"`
	}

	code, env, _ := c.do(http.MethodGet, "/api/v1/pricing?checkIn=2025-10-24&checkOut=2025-10-26&adults=2", nil, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	assert.Equal(t, 2, quote.Nights)
	assert.Equal(t, int64(15800), quote.BaseNightsSumUAH)
	assert.Equal(t, int64(15800), quote.TotalUAH)

	code, env, _ = c.do(http.MethodGet, "/api/v1/pricing?checkIn=2025-10-20&checkOut=2025-10-21&adults=3", nil, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	assert.Equal(t, int64(6900), quote.BaseNightsSumUAH)
	assert.Equal(t, int64(1900), quote.SurchargesSumUAH)
	assert.Equal(t, int64(8800), quote.TotalUAH)
}

func TestBookingFlow(t *testing.T) {
	c, _ := setup(t)

	code, env := createBooking(c, "2025-11-02", "2025-11-05", nil)
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		Booking bookingView `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created.Booking.ID
	require.NotNil(t, created.Booking.QuoteTotalUAH)
	frozen := *created.Booking.QuoteTotalUAH
	// A phone contact gets a password-less owner account.
	assert.NotNil(t, created.Booking.UserID)

	code, _, _ = c.do(http.MethodPatch, "/api/v1/bookings/"+id+"?key=wrong", map[string]string{"status": "CONFIRMED"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env, _ = c.do(http.MethodPatch, "/api/v1/bookings/"+id+"?key="+adminKey, map[string]string{"status": "CONFIRMED"}, nil)
	require.Equal(t, http.StatusOK, code)

	// Overlapping a confirmed stay is rejected and nothing is stored.
	code, env = createBooking(c, "2025-11-01", "2025-11-03", nil)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BOOKING_CONFLICT", env.Error.Code)

	code, env = c.admin(http.MethodGet, "/api/v1/admin/bookings", nil)
	require.Equal(t, http.StatusOK, code)
	var listed struct {
		Bookings []bookingView `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed.Bookings, 1)
	assert.Equal(t, "CONFIRMED", listed.Bookings[0].Status)

	// Back-to-back stays share no night.
	code, _ = createBooking(c, "2025-11-05", "2025-11-07", nil)
	assert.Equal(t, http.StatusCreated, code)

	// Later price changes never touch a stored quote.
	code, _ = c.admin(http.MethodPut, "/api/v1/admin/price-overrides/2025-11-03", map[string]any{"price": 20000})
	require.Equal(t, http.StatusOK, code)

	code, env, _ = c.do(http.MethodGet, "/api/v1/bookings/"+id, nil, nil)
	require.Equal(t, http.StatusOK, code)
	var fetched bookingView
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	require.NotNil(t, fetched.QuoteTotalUAH)
	assert.Equal(t, frozen, *fetched.QuoteTotalUAH)

	code, env, _ = c.do(http.MethodGet, "/api/v1/availability", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var busy []struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &busy))
	require.Len(t, busy, 2)
	assert.Equal(t, "2025-11-02", busy[0].Start)

	code, _, body := c.do(http.MethodGet, "/api/v1/admin/bookings/export", nil, map[string]string{"X-Admin-Key": adminKey})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, strings.HasPrefix(body, "\ufeffsep=;"))
	assert.Contains(t, body, id)

	_, _, metrics := c.do(http.MethodGet, "/metrics", nil, nil)
	assert.Contains(t, metrics, `cottage_bookings_created_total{source="web"} 2`)
	assert.Contains(t, metrics, "cottage_booking_conflicts_total 1")
}

func TestSignupClaimsAnonymousBooking(t *testing.T) {
	c, db := setup(t)

	checkIn, _ := daterange.Parse("2025-11-10")
	checkOut, _ := daterange.Parse("2025-11-12")
	anon := &domain.Booking{
		ID:                uuid.NewString(),
		Name:              "Олена",
		Contact:           "+380501234567",
		ContactNormalized: "+380501234567",
		CheckIn:           checkIn,
		CheckOut:          checkOut,
		Adults:            2,
		Status:            domain.BookingPending,
		PaymentStatus:     domain.PaymentUnpaid,
		Currency:          "UAH",
		Source:            domain.SourceTelegram,
	}
	require.NoError(t, repository.NewBookingRepository(db).CreateExclusive(context.Background(), anon))

	code, env, _ := c.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name": "Олена", "contact": "+380501234567", "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, code)
	var auth struct {
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
		AccessToken string `json:"accessToken"`
		Linked      int64  `json:"linkedBookings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	assert.Equal(t, int64(1), auth.Linked)

	code, env, _ = c.do(http.MethodGet, "/api/v1/bookings/"+anon.ID, nil, nil)
	require.Equal(t, http.StatusOK, code)
	var fetched bookingView
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	require.NotNil(t, fetched.UserID)
	assert.Equal(t, auth.User.ID, *fetched.UserID)

	bearer := map[string]string{"Authorization": "Bearer " + auth.AccessToken}
	code, env, _ = c.do(http.MethodGet, "/api/v1/me/bookings", nil, bearer)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), anon.ID)

	// A signed-in booking is owned by the session user straight away.
	code, env = createBooking(c, "2025-12-01", "2025-12-03", bearer)
	require.Equal(t, http.StatusCreated, code)
	var own struct {
		Booking bookingView `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &own))
	require.NotNil(t, own.Booking.UserID)
	assert.Equal(t, auth.User.ID, *own.Booking.UserID)

	code, env, _ = c.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"contact": "0501234567", "password": "another",
	}, nil)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONTACT_EXISTS", env.Error.Code)
}

func TestAdminRoutesRequireKey(t *testing.T) {
	c, _ := setup(t)

	code, env, _ := c.do(http.MethodGet, "/api/v1/admin/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	code, _, _ = c.do(http.MethodGet, "/api/v1/admin/stats?key="+adminKey, nil, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _, _ = c.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _, _ = c.do(http.MethodGet, "/api/v1/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
