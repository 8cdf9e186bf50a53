package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"
	"cottage/internal/pkg/logger"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListActive(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockRepository) HasOverlap(ctx context.Context, rng daterange.Range) (bool, error) {
	args := m.Called(ctx, rng)
	return args.Bool(0), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func day(s string) time.Time {
	d, err := daterange.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func activeBookings() []domain.Booking {
	return []domain.Booking{
		{ID: "a", CheckIn: day("2025-10-20").Add(14 * time.Hour), CheckOut: day("2025-10-23"), Status: domain.BookingPending},
		{ID: "b", CheckIn: day("2025-11-01"), CheckOut: day("2025-11-03"), Status: domain.BookingConfirmed},
	}
}

func TestService_BusyRanges(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListActive", mock.Anything).Return(activeBookings(), nil)
	svc := NewService(repo)

	busy, err := svc.Busy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []BusyRange{
		{Start: "2025-10-20", End: "2025-10-23"},
		{Start: "2025-11-01", End: "2025-11-03"},
	}, busy)
}

func TestService_IsRangeFree(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListActive", mock.Anything).Return(activeBookings(), nil)
	svc := NewService(repo)
	ctx := context.Background()

	backToBack, _ := daterange.New(day("2025-10-23"), day("2025-10-25"))
	free, err := svc.IsRangeFree(ctx, backToBack)
	require.NoError(t, err)
	assert.True(t, free)

	shared, _ := daterange.New(day("2025-10-22"), day("2025-10-24"))
	free, err = svc.IsRangeFree(ctx, shared)
	require.NoError(t, err)
	assert.False(t, free)
}

func TestService_HasOverlap_WrapsError(t *testing.T) {
	repo := new(MockRepository)
	rng, _ := daterange.New(day("2025-10-20"), day("2025-10-21"))
	repo.On("HasOverlap", mock.Anything, rng).Return(false, errors.New("db gone"))

	_, err := NewService(repo).HasOverlap(context.Background(), rng)
	assert.ErrorContains(t, err, "check overlap")
}

func TestHandler_GetAvailability(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListActive", mock.Anything).Return(activeBookings(), nil)
	h := NewHandler(NewService(repo), nil, logger.Discard())

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/availability", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")

	var body struct {
		Success bool        `json:"success"`
		Data    []BusyRange `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Data, 2)
}

func TestHandler_GetAvailability_StorageError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListActive", mock.Anything).Return(nil, errors.New("db gone"))
	h := NewHandler(NewService(repo), nil, logger.Discard())

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/availability", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHub_PushesSnapshotAndChanges(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListActive", mock.Anything).Return(activeBookings(), nil)
	hub := NewHub(NewService(repo), logger.Discard(), nil)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var ev Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventAvailabilityChanged, ev.Type)
	assert.Len(t, ev.Busy, 2)

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)
	hub.AvailabilityChanged()

	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventAvailabilityChanged, ev.Type)
}
