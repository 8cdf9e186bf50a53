package auth

import (
	"strings"

	"cottage/internal/domain"
)

const minPasswordLength = 6

// SignupRequest accepts the contact under any of the names older forms used.
type SignupRequest struct {
	Name       string `json:"name"`
	Contact    string `json:"contact"`
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (r SignupRequest) RawContact() string {
	for _, v := range []string{r.Identifier, r.Contact, r.Email} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type UserPublic struct {
	ID       int64           `json:"id"`
	Role     domain.UserRole `json:"role"`
	Name     string          `json:"name,omitempty"`
	Email    *string         `json:"email,omitempty"`
	Phone    *string         `json:"phone,omitempty"`
	Telegram *string         `json:"telegram,omitempty"`
	Linked   bool            `json:"telegramLinked"`
}

func toPublic(u *domain.User) UserPublic {
	return UserPublic{
		ID:       u.ID,
		Role:     u.Role,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Telegram: u.TelegramHandle,
		Linked:   u.TelegramChatID != nil,
	}
}

type AuthResult struct {
	User        UserPublic `json:"user"`
	AccessToken string     `json:"accessToken"`
	Linked      int64      `json:"linkedBookings"`
}

type Profile struct {
	User     UserPublic `json:"user"`
	Bookings int64      `json:"bookings"`
}
