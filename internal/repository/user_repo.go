package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cottage/internal/domain"
	"cottage/internal/pkg/contact"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userModel struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string    `gorm:"column:name"`
	Email          *string   `gorm:"column:email;uniqueIndex"`
	Phone          *string   `gorm:"column:phone_normalized;uniqueIndex"`
	TelegramHandle *string   `gorm:"column:telegram_handle;uniqueIndex"`
	TelegramChatID *int64    `gorm:"column:telegram_chat_id;uniqueIndex"`
	PasswordHash   *string   `gorm:"column:password_hash"`
	Role           string    `gorm:"column:role;type:varchar(16);not null;default:USER"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func toDomainUser(m userModel) *domain.User {
	var hash string
	if m.PasswordHash != nil {
		hash = *m.PasswordHash
	}

	return &domain.User{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		Phone:          m.Phone,
		TelegramHandle: m.TelegramHandle,
		TelegramChatID: m.TelegramChatID,
		PasswordHash:   hash,
		Role:           domain.UserRole(m.Role),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toUserModel(u *domain.User) userModel {
	var hash *string
	if u.PasswordHash != "" {
		v := u.PasswordHash
		hash = &v
	}
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}

	return userModel{
		ID:             u.ID,
		Name:           u.Name,
		Email:          nonEmpty(u.Email),
		Phone:          nonEmpty(u.Phone),
		TelegramHandle: nonEmpty(u.TelegramHandle),
		TelegramChatID: u.TelegramChatID,
		PasswordHash:   hash,
		Role:           string(role),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// nonEmpty keeps empty identifiers out of unique columns.
func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err)
	}
	return toDomainUser(m), nil
}

// FindByIdentifier looks a user up by exactly the column the identifier's
// kind maps to.
func (r *UserRepository) FindByIdentifier(ctx context.Context, id contact.Identifier) (*domain.User, error) {
	var column string
	switch id.Kind {
	case contact.KindEmail:
		column = "email"
	case contact.KindPhone:
		column = "phone_normalized"
	case contact.KindTelegram:
		column = "telegram_handle"
	default:
		return nil, ErrNotFound
	}
	if id.Value == "" {
		return nil, ErrNotFound
	}

	var m userModel
	err := r.db.WithContext(ctx).Where(fmt.Sprintf("%s = ?", column), id.Value).First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) FindByChatID(ctx context.Context, chatID int64) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where("telegram_chat_id = ?", chatID).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return toDomainUser(m), nil
}

// FindOrCreateByPhone returns the user owning phone, creating a password-less
// account when none exists. A concurrent creator wins and its row is returned.
func (r *UserRepository) FindOrCreateByPhone(ctx context.Context, phone, name string) (*domain.User, bool, error) {
	id := contact.Identifier{Kind: contact.KindPhone, Value: phone}
	u, err := r.FindByIdentifier(ctx, id)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	p := phone
	u = &domain.User{Name: name, Phone: &p, Role: domain.RoleUser}
	if err := r.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			existing, ferr := r.FindByIdentifier(ctx, id)
			return existing, false, ferr
		}
		return nil, false, err
	}
	return u, true, nil
}

// SetChatID binds a Telegram chat to the user, releasing it from whichever
// account held it before.
func (r *UserRepository) SetChatID(ctx context.Context, userID, chatID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&userModel{}).
			Where("telegram_chat_id = ? AND id <> ?", chatID, userID).
			Update("telegram_chat_id", nil).Error; err != nil {
			return err
		}
		res := tx.Model(&userModel{}).Where("id = ?", userID).Update("telegram_chat_id", chatID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *UserRepository) SetRole(ctx context.Context, userID int64, role domain.UserRole) error {
	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", userID).Update("role", string(role))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListIDs returns every user id in ascending order.
func (r *UserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&userModel{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}
