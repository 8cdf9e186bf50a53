package linking_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cottage/internal/domain"
	"cottage/internal/modules/linking"
	"cottage/internal/pkg/contact"
	"cottage/internal/pkg/daterange"
	"cottage/internal/pkg/logger"
	"cottage/internal/repository"
	"cottage/internal/testutil"
)

func day(s string) time.Time {
	d, err := daterange.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func booking(t *testing.T, repo *repository.BookingRepository, in, out, rawContact string, owner *int64) *domain.Booking {
	t.Helper()
	b := &domain.Booking{
		ID:                uuid.NewString(),
		Name:              "Guest",
		Contact:           rawContact,
		ContactNormalized: contact.Default.NormalizeAny(rawContact),
		CheckIn:           day(in),
		CheckOut:          day(out),
		Adults:            2,
		Status:            domain.BookingPending,
		PaymentStatus:     domain.PaymentUnpaid,
		Currency:          "UAH",
		Source:            domain.SourceWeb,
		UserID:            owner,
	}
	require.NoError(t, repo.CreateExclusive(context.Background(), b))
	return b
}

func strPtr(s string) *string { return &s }

func TestResolver_LinkUser(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	bookings := repository.NewBookingRepository(db)
	resolver := linking.NewResolver(users, bookings, logger.Discard())
	ctx := context.Background()

	u := &domain.User{Name: "Guest", Phone: strPtr("+380501234567"), Email: strPtr("guest@mail.com"), Role: domain.RoleUser}
	require.NoError(t, users.Create(ctx, u))

	other := &domain.User{Name: "Other", Email: strPtr("other@mail.com"), Role: domain.RoleUser}
	require.NoError(t, users.Create(ctx, other))

	byPhone := booking(t, bookings, "2025-11-01", "2025-11-03", "050 123 45 67", nil)
	byEmail := booking(t, bookings, "2025-11-05", "2025-11-06", "Guest@Mail.com", nil)
	stranger := booking(t, bookings, "2025-11-10", "2025-11-12", "+380671112233", nil)
	owned := booking(t, bookings, "2025-11-15", "2025-11-16", "guest@mail.com", &other.ID)

	n, err := resolver.LinkUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, id := range []string{byPhone.ID, byEmail.ID} {
		got, err := bookings.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got.UserID)
		assert.Equal(t, u.ID, *got.UserID)
	}

	got, err := bookings.GetByID(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserID)

	got, err = bookings.GetByID(ctx, owned.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, *got.UserID)

	n, err = resolver.LinkUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestResolver_LinkKeys_Empty(t *testing.T) {
	db := testutil.NewDB(t)
	resolver := linking.NewResolver(repository.NewUserRepository(db), repository.NewBookingRepository(db), logger.Discard())

	n, err := resolver.LinkKeys(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestResolver_LinkUser_UnknownUser(t *testing.T) {
	db := testutil.NewDB(t)
	resolver := linking.NewResolver(repository.NewUserRepository(db), repository.NewBookingRepository(db), logger.Discard())

	_, err := resolver.LinkUser(context.Background(), 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResolver_Backfill(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	bookings := repository.NewBookingRepository(db)
	resolver := linking.NewResolver(users, bookings, logger.Discard())
	ctx := context.Background()

	stale := booking(t, bookings, "2025-11-01", "2025-11-03", "050 123 45 67", nil)
	require.NoError(t, bookings.SetContactNormalized(ctx, stale.ID, ""))
	email := booking(t, bookings, "2025-11-05", "2025-11-06", "guest@mail.com", nil)

	u := &domain.User{Name: "Guest", Phone: strPtr("+380501234567"), Role: domain.RoleUser}
	require.NoError(t, users.Create(ctx, u))

	res, err := resolver.Backfill(ctx, bookings, users, contact.Default)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Renormalized)
	assert.Equal(t, int64(1), res.Linked)

	got, err := bookings.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, "+380501234567", got.ContactNormalized)
	require.NotNil(t, got.UserID)
	assert.Equal(t, u.ID, *got.UserID)

	got, err = bookings.GetByID(ctx, email.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserID)

	res, err = resolver.Backfill(ctx, bookings, users, contact.Default)
	require.NoError(t, err)
	assert.Equal(t, linking.BackfillResult{}, res)
}
