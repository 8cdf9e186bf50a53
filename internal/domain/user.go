package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

func (r UserRole) Valid() bool { return r == RoleUser || r == RoleAdmin }

// User is an account. Every identifier is optional but at most one user may
// hold a given value; identifiers are stored in normalized form.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name,omitempty"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	TelegramHandle *string   `json:"telegram,omitempty"`
	TelegramChatID *int64    `json:"-"`
	PasswordHash   string    `json:"-"`
	Role           UserRole  `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// LinkKeys lists the normalized identifiers bookings may carry for this user.
func (u *User) LinkKeys() []string {
	keys := make([]string, 0, 3)
	for _, v := range []*string{u.Email, u.Phone, u.TelegramHandle} {
		if v != nil && *v != "" {
			keys = append(keys, *v)
		}
	}
	return keys
}

func (u *User) HasPassword() bool { return u.PasswordHash != "" }
