package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListSeasons(ctx context.Context) ([]domain.Season, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Season), args.Error(1)
}

func (m *MockRepository) ListOverrides(ctx context.Context, rng daterange.Range) ([]domain.PriceOverride, error) {
	args := m.Called(ctx, rng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PriceOverride), args.Error(1)
}

func (m *MockRepository) ListSurcharges(ctx context.Context) ([]domain.Surcharge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Surcharge), args.Error(1)
}

func (m *MockRepository) CreateSeason(ctx context.Context, s *domain.Season) error {
	args := m.Called(ctx, s)
	if s != nil {
		s.ID = 1
	}
	return args.Error(0)
}

func (m *MockRepository) UpsertOverride(ctx context.Context, o domain.PriceOverride) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockRepository) DeleteOverride(ctx context.Context, date string) error {
	return m.Called(ctx, date).Error(0)
}

func (m *MockRepository) UpsertSurcharge(ctx context.Context, s *domain.Surcharge) error {
	return m.Called(ctx, s).Error(0)
}

func day(s string) time.Time {
	d, _ := daterange.Parse(s)
	return d
}

func seededRepo() *MockRepository {
	repo := new(MockRepository)
	repo.On("ListSeasons", mock.Anything).Return([]domain.Season{{
		StartDate: day("2025-01-01"), EndDate: day("2025-12-31"),
		WeekdayPrice: 6900, WeekendPrice: 7900, WeekendDays: "FRI,SAT,SUN",
	}}, nil)
	repo.On("ListOverrides", mock.Anything, mock.Anything).Return([]domain.PriceOverride{}, nil)
	included := 2
	repo.On("ListSurcharges", mock.Anything).Return([]domain.Surcharge{{
		Type: domain.SurchargeExtraGuest, Amount: 1900, Unit: domain.PerNight, Active: true,
		Params: domain.SurchargeParams{IncludedGuests: &included},
	}}, nil)
	return repo
}

func TestService_Quote_WeekendScenario(t *testing.T) {
	svc := NewService(seededRepo(), "UAH")

	q, err := svc.Quote(context.Background(), QuoteRequest{CheckIn: "2025-10-24", CheckOut: "2025-10-26", Adults: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, q.Nights)
	assert.Equal(t, int64(15800), q.BaseNightsSumUAH)
	assert.Equal(t, int64(15800), q.TotalUAH)
	assert.Equal(t, "UAH", q.Currency)
}

func TestService_Quote_ExtraGuestScenario(t *testing.T) {
	svc := NewService(seededRepo(), "UAH")

	q, err := svc.Quote(context.Background(), QuoteRequest{CheckIn: "2025-10-20", CheckOut: "2025-10-21", Adults: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(6900), q.BaseNightsSumUAH)
	assert.Equal(t, int64(1900), q.SurchargesSumUAH)
	assert.Equal(t, int64(8800), q.TotalUAH)
}

func TestService_Quote_Validation(t *testing.T) {
	svc := NewService(new(MockRepository), "UAH")
	ctx := context.Background()

	cases := []QuoteRequest{
		{CheckIn: "", CheckOut: "2025-10-21"},
		{CheckIn: "2025-10-20", CheckOut: "21.10.2025"},
		{CheckIn: "2025-10-21", CheckOut: "2025-10-21"},
		{CheckIn: "2025-10-21", CheckOut: "2025-10-20"},
		{CheckIn: "2025-10-20", CheckOut: "2025-10-21", Adults: -1},
	}
	for _, req := range cases {
		_, err := svc.Quote(ctx, req)
		assert.ErrorIs(t, err, ErrValidation, "%+v", req)
	}
}

func TestService_Quote_StorageFailure(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListSeasons", mock.Anything).Return(nil, errors.New("db down"))
	svc := NewService(repo, "UAH")

	_, err := svc.Quote(context.Background(), QuoteRequest{CheckIn: "2025-10-20", CheckOut: "2025-10-21", Adults: 2})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestService_Month(t *testing.T) {
	svc := NewService(seededRepo(), "UAH")

	cal, err := svc.Month(context.Background(), "2025-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-10", cal.Month)
	require.Len(t, cal.Days, 31)
	assert.Equal(t, "2025-10-01", cal.Days[0].Date)
	assert.Equal(t, int64(6900), cal.Days[0].Price)

	_, err = svc.Month(context.Background(), "2025-13")
	assert.ErrorIs(t, err, ErrBadMonth)
}

func TestService_AddSeason_DefaultsWeekend(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateSeason", mock.Anything, mock.MatchedBy(func(s *domain.Season) bool {
		return s.WeekendDays == domain.DefaultWeekendDays && s.Currency == "UAH"
	})).Return(nil)
	svc := NewService(repo, "")

	season, err := svc.AddSeason(context.Background(), SeasonRequest{StartDate: "2026-01-01", EndDate: "2026-12-31", WeekdayPrice: 7000, WeekendPrice: 8000})
	require.NoError(t, err)
	assert.Equal(t, int64(1), season.ID)
	repo.AssertExpectations(t)

	_, err = svc.AddSeason(context.Background(), SeasonRequest{StartDate: "2026-12-31", EndDate: "2026-01-01"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_SetSurcharge_Validation(t *testing.T) {
	repo := new(MockRepository)
	repo.On("UpsertSurcharge", mock.Anything, mock.Anything).Return(nil)
	svc := NewService(repo, "UAH")
	ctx := context.Background()

	_, err := svc.SetSurcharge(ctx, "SAUNA", SurchargeRequest{Unit: "PER_STAY"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SetSurcharge(ctx, "PET", SurchargeRequest{Unit: "PER_HOUR"})
	assert.ErrorIs(t, err, ErrValidation)

	sc, err := svc.SetSurcharge(ctx, "pet", SurchargeRequest{Amount: 700, Unit: "per_stay"})
	require.NoError(t, err)
	assert.Equal(t, domain.SurchargePet, sc.Type)
	assert.True(t, sc.Active)
}
