package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cottage/internal/domain"
	"cottage/internal/pkg/logger"
	"cottage/internal/repository"
	"cottage/internal/seed"
	"cottage/internal/testutil"
)

func TestApply_DefaultFileIsIdempotent(t *testing.T) {
	f, err := seed.Load("../../configs/seed.toml")
	require.NoError(t, err)
	require.Len(t, f.Seasons, 1)
	require.Len(t, f.Surcharges, 3)

	repo := repository.NewPricingRepository(testutil.NewDB(t))
	ctx := context.Background()

	res, err := seed.Apply(ctx, repo, f, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, seed.Result{SeasonsCreated: 1, SurchargesCreated: 3}, res)

	res, err = seed.Apply(ctx, repo, f, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, seed.Result{}, res)

	seasons, err := repo.ListSeasons(ctx)
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	assert.Equal(t, int64(6900), seasons[0].WeekdayPrice)
	assert.Equal(t, int64(7900), seasons[0].WeekendPrice)
	assert.Equal(t, "FRI,SAT,SUN", seasons[0].WeekendDays)

	surcharges, err := repo.ListSurcharges(ctx)
	require.NoError(t, err)
	byType := map[domain.SurchargeType]domain.Surcharge{}
	for _, s := range surcharges {
		byType[s.Type] = s
	}
	require.Len(t, byType, 3)
	require.NotNil(t, byType[domain.SurchargeExtraGuest].Params.IncludedGuests)
	assert.Equal(t, 2, *byType[domain.SurchargeExtraGuest].Params.IncludedGuests)
	assert.Equal(t, domain.PerNight, byType[domain.SurchargeExtraGuest].Unit)
	require.NotNil(t, byType[domain.SurchargeChildOverAge].Params.AgeThreshold)
	assert.Equal(t, 6, *byType[domain.SurchargeChildOverAge].Params.AgeThreshold)
	assert.Equal(t, int64(700), byType[domain.SurchargePet].Amount)
}

func TestApply_KeepsExistingSeasons(t *testing.T) {
	repo := repository.NewPricingRepository(testutil.NewDB(t))
	ctx := context.Background()

	f, err := seed.Parse(`
[[seasons]]
start_date = "2026-01-01"
end_date = "2026-12-31"
weekday_price = 8000
weekend_price = 9000
`)
	require.NoError(t, err)
	res, err := seed.Apply(ctx, repo, f, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, res.SeasonsCreated)

	seasons, err := repo.ListSeasons(ctx)
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	assert.Equal(t, domain.DefaultWeekendDays, seasons[0].WeekendDays)
	assert.Equal(t, domain.DefaultCurrency, seasons[0].Currency)

	other, err := seed.Parse(`
[[seasons]]
start_date = "2027-01-01"
end_date = "2027-12-31"
weekday_price = 1
weekend_price = 1
`)
	require.NoError(t, err)
	res, err = seed.Apply(ctx, repo, other, logger.Discard())
	require.NoError(t, err)
	assert.Zero(t, res.SeasonsCreated)
}

func TestApply_RejectsBadInput(t *testing.T) {
	repo := repository.NewPricingRepository(testutil.NewDB(t))

	cases := map[string]string{
		"unknown type": `
[[surcharges]]
type = "SAUNA"
amount = 100
unit = "PER_STAY"
`,
		"unknown unit": `
[[surcharges]]
type = "PET"
amount = 100
unit = "PER_HOUR"
`,
		"reversed season": `
[[seasons]]
start_date = "2025-12-31"
end_date = "2025-01-01"
weekday_price = 1
weekend_price = 1
`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			f, err := seed.Parse(data)
			require.NoError(t, err)
			_, err = seed.Apply(context.Background(), repo, f, logger.Discard())
			assert.Error(t, err)
		})
	}

	count, err := repo.CountSeasons(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
