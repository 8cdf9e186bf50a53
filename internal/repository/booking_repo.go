package repository

import (
	"context"
	"time"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID                string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	CreatedAt         time.Time `gorm:"column:created_at;index"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
	Name              string    `gorm:"column:name;not null"`
	Contact           string    `gorm:"column:contact;not null"`
	ContactNormalized string    `gorm:"column:contact_normalized;not null;index"`
	CheckIn           string    `gorm:"column:check_in;type:varchar(10);not null;index"`
	CheckOut          string    `gorm:"column:check_out;type:varchar(10);not null;index"`
	Adults            int       `gorm:"column:adults;not null"`
	ChildrenTotal     int       `gorm:"column:children_total;not null;default:0"`
	ChildrenOver6     int       `gorm:"column:children_over6;not null;default:0"`
	HasPet            bool      `gorm:"column:has_pet;not null;default:false"`
	Status            string    `gorm:"column:status;type:varchar(16);not null;index"`
	PaymentStatus     string    `gorm:"column:payment_status;type:varchar(16);not null"`
	QuoteTotal        *int64    `gorm:"column:quote_total"`
	Currency          string    `gorm:"column:currency;type:varchar(8);not null"`
	Source            string    `gorm:"column:source;type:varchar(32);not null"`
	Comment           *string   `gorm:"column:comment;type:text"`
	UserID            *int64    `gorm:"column:user_id;index"`
}

func (bookingModel) TableName() string { return "bookings" }

// bookingNightModel holds one row per occupied night. The primary key on the
// night makes two active bookings sharing a night impossible at the storage
// level, whatever the interleaving of concurrent requests.
type bookingNightModel struct {
	Night     string `gorm:"column:night;primaryKey;type:varchar(10)"`
	BookingID string `gorm:"column:booking_id;type:varchar(36);not null;index"`
}

func (bookingNightModel) TableName() string { return "booking_nights" }

func toDomainBooking(m bookingModel) *domain.Booking {
	checkIn, _ := daterange.Parse(m.CheckIn)
	checkOut, _ := daterange.Parse(m.CheckOut)

	return &domain.Booking{
		ID:                m.ID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		Name:              m.Name,
		Contact:           m.Contact,
		ContactNormalized: m.ContactNormalized,
		CheckIn:           checkIn,
		CheckOut:          checkOut,
		Adults:            m.Adults,
		ChildrenTotal:     m.ChildrenTotal,
		ChildrenOver6:     m.ChildrenOver6,
		HasPet:            m.HasPet,
		Status:            domain.BookingStatus(m.Status),
		PaymentStatus:     domain.PaymentStatus(m.PaymentStatus),
		QuoteTotal:        m.QuoteTotal,
		Currency:          m.Currency,
		Source:            m.Source,
		Comment:           m.Comment,
		UserID:            m.UserID,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	return bookingModel{
		ID:                b.ID,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
		Name:              b.Name,
		Contact:           b.Contact,
		ContactNormalized: b.ContactNormalized,
		CheckIn:           daterange.Format(b.CheckIn),
		CheckOut:          daterange.Format(b.CheckOut),
		Adults:            b.Adults,
		ChildrenTotal:     b.ChildrenTotal,
		ChildrenOver6:     b.ChildrenOver6,
		HasPet:            b.HasPet,
		Status:            string(b.Status),
		PaymentStatus:     string(b.PaymentStatus),
		QuoteTotal:        b.QuoteTotal,
		Currency:          b.Currency,
		Source:            b.Source,
		Comment:           b.Comment,
		UserID:            b.UserID,
	}
}

func toDomainBookings(ms []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out
}

func activeStatuses() []string {
	out := make([]string, 0, len(domain.ActiveStatuses))
	for _, s := range domain.ActiveStatuses {
		out = append(out, string(s))
	}
	return out
}

// overlapping selects active bookings sharing at least one night with r.
// Dates are stored as YYYY-MM-DD so string comparison is date comparison.
func overlapping(db *gorm.DB, r daterange.Range) *gorm.DB {
	return db.Model(&bookingModel{}).
		Where("status IN ?", activeStatuses()).
		Where("check_in < ? AND check_out > ?", daterange.Format(r.CheckOut), daterange.Format(r.CheckIn))
}

func (r *BookingRepository) HasOverlap(ctx context.Context, rng daterange.Range) (bool, error) {
	var cnt int64
	if err := overlapping(r.db.WithContext(ctx), rng).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// CreateExclusive re-checks the range and inserts the booking together with
// its night rows in one transaction. A lost race surfaces as ErrRangeTaken.
func (r *BookingRepository) CreateExclusive(ctx context.Context, b *domain.Booking) error {
	return r.createExclusive(ctx, b, nil)
}

// CreateExclusiveForPhone is CreateExclusive for an anonymous guest who left
// a phone number. The guest's password-less account is found or created in
// the same transaction and becomes the owner, so a lost race leaves no
// account behind.
func (r *BookingRepository) CreateExclusiveForPhone(ctx context.Context, b *domain.Booking, phone, name string) (*domain.User, bool, error) {
	var (
		owner   *domain.User
		created bool
	)
	err := r.createExclusive(ctx, b, func(tx *gorm.DB, m *bookingModel) error {
		u, isNew, err := findOrCreatePhoneUser(tx, phone, name)
		if err != nil {
			return err
		}
		owner, created = u, isNew
		m.UserID = &u.ID
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return owner, created, nil
}

// findOrCreatePhoneUser inserts with ON CONFLICT DO NOTHING so a concurrent
// insert of the same phone does not abort the surrounding transaction.
func findOrCreatePhoneUser(tx *gorm.DB, phone, name string) (*domain.User, bool, error) {
	p := phone
	m := toUserModel(&domain.User{Name: name, Phone: &p, Role: domain.RoleUser})
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone_normalized"}},
		DoNothing: true,
	}).Create(&m)
	if res.Error != nil {
		return nil, false, res.Error
	}

	var existing userModel
	if err := tx.Where("phone_normalized = ?", phone).First(&existing).Error; err != nil {
		return nil, false, err
	}
	return toDomainUser(existing), res.RowsAffected == 1, nil
}

// before runs inside the transaction, after the overlap re-check and
// before the booking row is written.
func (r *BookingRepository) createExclusive(ctx context.Context, b *domain.Booking, before func(tx *gorm.DB, m *bookingModel) error) error {
	m := toBookingModel(b)
	days := b.Range().Days()
	nights := make([]bookingNightModel, 0, len(days))
	for _, d := range days {
		nights = append(nights, bookingNightModel{Night: daterange.Format(d), BookingID: m.ID})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := overlapping(tx, b.Range()).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrRangeTaken
		}
		if before != nil {
			if err := before(tx, &m); err != nil {
				return err
			}
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		if err := tx.Create(&nights).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrRangeTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return toDomainBooking(m), nil
}

// UpdateStatus moves a booking from one status to another. Cancelling frees
// the nights in the same transaction.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&m).Error; err != nil {
			return notFound(err)
		}
		if domain.BookingStatus(m.Status) != from {
			return ErrStatusChanged
		}

		res := tx.Model(&bookingModel{}).
			Where("id = ? AND status = ?", id, string(from)).
			Update("status", string(to))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStatusChanged
		}

		if !to.Active() {
			if err := tx.Where("booking_id = ?", id).Delete(&bookingNightModel{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).First(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ?", id).Update("payment_status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkUnowned attaches every ownerless booking whose contact key is in keys.
func (r *BookingRepository) LinkUnowned(ctx context.Context, userID int64, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("user_id IS NULL AND contact_normalized IN ?", keys).
		Update("user_id", userID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ContactRow is the slice of a booking the contact backfill rewrites.
type ContactRow struct {
	ID                string
	Contact           string
	ContactNormalized string
}

func (r *BookingRepository) ListContacts(ctx context.Context) ([]ContactRow, error) {
	var rows []ContactRow
	err := r.db.WithContext(ctx).Model(&bookingModel{}).
		Select("id", "contact", "contact_normalized").
		Order("created_at ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *BookingRepository) SetContactNormalized(ctx context.Context, id, value string) error {
	res := r.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ?", id).Update("contact_normalized", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns PENDING and CONFIRMED bookings ordered by check-in.
func (r *BookingRepository) ListActive(ctx context.Context) ([]domain.Booking, error) {
	var ms []bookingModel
	err := r.db.WithContext(ctx).
		Where("status IN ?", activeStatuses()).
		Order("check_in ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var ms []bookingModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("check_in DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var ms []bookingModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) ListActiveByUser(ctx context.Context, userID int64, limit int) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, activeStatuses()).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var ms []bookingModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

// ListByDay returns active bookings arriving or departing on day.
func (r *BookingRepository) ListByDay(ctx context.Context, day time.Time) ([]domain.Booking, error) {
	key := daterange.Format(day)

	var ms []bookingModel
	err := r.db.WithContext(ctx).
		Where("status IN ?", activeStatuses()).
		Where("(check_in = ? OR check_out = ?)", key, key).
		Order("check_in ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&bookingModel{}).Where("user_id = ?", userID).Count(&cnt).Error
	return cnt, err
}
