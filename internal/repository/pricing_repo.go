package repository

import (
	"context"
	"encoding/json"
	"errors"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

type seasonModel struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement"`
	StartDate    string `gorm:"column:start_date;type:varchar(10);not null;index"`
	EndDate      string `gorm:"column:end_date;type:varchar(10);not null"`
	WeekdayPrice int64  `gorm:"column:weekday_price;not null"`
	WeekendPrice int64  `gorm:"column:weekend_price;not null"`
	WeekendDays  string `gorm:"column:weekend_days;type:varchar(32)"`
	Currency     string `gorm:"column:currency;type:varchar(8);not null"`
}

func (seasonModel) TableName() string { return "seasons" }

type priceOverrideModel struct {
	Date  string `gorm:"column:date;primaryKey;type:varchar(10)"`
	Price int64  `gorm:"column:price;not null"`
}

func (priceOverrideModel) TableName() string { return "price_overrides" }

type surchargeModel struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Type   string `gorm:"column:type;type:varchar(32);not null;index"`
	Amount int64  `gorm:"column:amount;not null"`
	Unit   string `gorm:"column:unit;type:varchar(16);not null"`
	Active bool   `gorm:"column:active;not null;default:true"`
	Params string `gorm:"column:params;type:text"`
}

func (surchargeModel) TableName() string { return "surcharges" }

func toDomainSeason(m seasonModel) domain.Season {
	start, _ := daterange.Parse(m.StartDate)
	end, _ := daterange.Parse(m.EndDate)
	return domain.Season{
		ID:           m.ID,
		StartDate:    start,
		EndDate:      end,
		WeekdayPrice: m.WeekdayPrice,
		WeekendPrice: m.WeekendPrice,
		WeekendDays:  m.WeekendDays,
		Currency:     m.Currency,
	}
}

func toDomainSurcharge(m surchargeModel) domain.Surcharge {
	var params domain.SurchargeParams
	if m.Params != "" {
		// a malformed bag falls back to engine defaults
		_ = json.Unmarshal([]byte(m.Params), &params)
	}
	return domain.Surcharge{
		ID:     m.ID,
		Type:   domain.SurchargeType(m.Type),
		Amount: m.Amount,
		Unit:   domain.SurchargeUnit(m.Unit),
		Active: m.Active,
		Params: params,
	}
}

func toSurchargeModel(s domain.Surcharge) (surchargeModel, error) {
	params, err := json.Marshal(s.Params)
	if err != nil {
		return surchargeModel{}, err
	}
	return surchargeModel{
		ID:     s.ID,
		Type:   string(s.Type),
		Amount: s.Amount,
		Unit:   string(s.Unit),
		Active: s.Active,
		Params: string(params),
	}, nil
}

// ListSeasons returns seasons in insertion order, which is the order the
// pricing engine consults them in.
func (r *PricingRepository) ListSeasons(ctx context.Context) ([]domain.Season, error) {
	var ms []seasonModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Season, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomainSeason(m))
	}
	return out, nil
}

// ListOverrides returns overrides with from <= date < to.
func (r *PricingRepository) ListOverrides(ctx context.Context, rng daterange.Range) ([]domain.PriceOverride, error) {
	var ms []priceOverrideModel
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", daterange.Format(rng.CheckIn), daterange.Format(rng.CheckOut)).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.PriceOverride, 0, len(ms))
	for _, m := range ms {
		d, _ := daterange.Parse(m.Date)
		out = append(out, domain.PriceOverride{Date: d, Price: m.Price})
	}
	return out, nil
}

func (r *PricingRepository) ListSurcharges(ctx context.Context) ([]domain.Surcharge, error) {
	var ms []surchargeModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Surcharge, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomainSurcharge(m))
	}
	return out, nil
}

func (r *PricingRepository) CreateSeason(ctx context.Context, s *domain.Season) error {
	m := seasonModel{
		StartDate:    daterange.Format(s.StartDate),
		EndDate:      daterange.Format(s.EndDate),
		WeekdayPrice: s.WeekdayPrice,
		WeekendPrice: s.WeekendPrice,
		WeekendDays:  s.WeekendDays,
		Currency:     s.Currency,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*s = toDomainSeason(m)
	return nil
}

func (r *PricingRepository) CountSeasons(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&seasonModel{}).Count(&cnt).Error
	return cnt, err
}

func (r *PricingRepository) UpsertOverride(ctx context.Context, o domain.PriceOverride) error {
	m := priceOverrideModel{Date: daterange.Format(o.Date), Price: o.Price}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"price"}),
	}).Create(&m).Error
}

func (r *PricingRepository) DeleteOverride(ctx context.Context, date string) error {
	return r.db.WithContext(ctx).Where("date = ?", date).Delete(&priceOverrideModel{}).Error
}

// UpsertSurcharge replaces the first rule of the given type or creates one.
func (r *PricingRepository) UpsertSurcharge(ctx context.Context, s *domain.Surcharge) error {
	m, err := toSurchargeModel(*s)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing surchargeModel
		err := tx.Where("type = ?", m.Type).Order("id ASC").First(&existing).Error
		switch {
		case err == nil:
			m.ID = existing.ID
			if err := tx.Model(&surchargeModel{}).Where("id = ?", existing.ID).Updates(map[string]any{
				"amount": m.Amount,
				"unit":   m.Unit,
				"active": m.Active,
				"params": m.Params,
			}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		default:
			return err
		}
		*s = toDomainSurcharge(m)
		return nil
	})
}
