package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"cottage/internal/domain"
	"cottage/internal/pkg/contact"
	"cottage/internal/repository"
)

// Service contains all business logic for authentication
type Service struct {
	users      UserRepository
	linker     Linker
	bookings   BookingCounter
	tokens     tokenIssuer
	normalizer contact.Normalizer
	log        *slog.Logger
	bcryptCost int
}

type Option func(*Service)

// WithBcryptCost lowers hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(
	users UserRepository,
	linker Linker,
	bookings BookingCounter,
	tokens tokenIssuer,
	normalizer contact.Normalizer,
	log *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		users:      users,
		linker:     linker,
		bookings:   bookings,
		tokens:     tokens,
		normalizer: normalizer,
		log:        log,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Signup registers an account under a single contact and claims the
// anonymous bookings made with any spelling of it.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	raw := req.RawContact()
	if raw == "" {
		return nil, &ValidationError{Message: "Вкажіть контакт (email/телефон/Telegram)."}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &ValidationError{Message: "Пароль має містити щонайменше 6 символів."}
	}

	id := s.normalizer.Split(raw)
	if !id.Valid() {
		return nil, &ValidationError{Message: "Невірний формат контакту."}
	}

	if _, err := s.users.FindByIdentifier(ctx, id); err == nil {
		return nil, ErrContactExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup contact: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	v := id.Value
	switch id.Kind {
	case contact.KindEmail:
		u.Email = &v
	case contact.KindPhone:
		u.Phone = &v
	case contact.KindTelegram:
		u.TelegramHandle = &v
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrContactExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	linked, err := s.linker.LinkKeys(ctx, u.ID, s.normalizer.Keys(raw))
	if err != nil {
		s.log.Error("link bookings after signup", "user_id", u.ID, "error", err)
	}
	s.log.Info("user signed up", "user_id", u.ID, "kind", id.Kind.String())

	return s.issue(u, linked)
}

// Login resolves the identifier to exactly one account field. Every failure
// looks the same to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	id := s.normalizer.Split(req.Identifier)
	if !id.Valid() || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.FindByIdentifier(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !u.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	linked, err := s.linker.LinkUser(ctx, u.ID)
	if err != nil {
		s.log.Error("link bookings after login", "user_id", u.ID, "error", err)
	}

	return s.issue(u, linked)
}

func (s *Service) Me(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	count, err := s.bookings.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	return &Profile{User: toPublic(u), Bookings: count}, nil
}

// SetRole changes the role of the account holding rawContact. Tokens
// issued earlier keep their old role until they expire.
func (s *Service) SetRole(ctx context.Context, rawContact string, role domain.UserRole) (*UserPublic, error) {
	if !role.Valid() {
		return nil, &ValidationError{Message: fmt.Sprintf("unknown role %q", role)}
	}
	id := s.normalizer.Split(rawContact)
	if !id.Valid() {
		return nil, &ValidationError{Message: "Невірний формат контакту."}
	}

	u, err := s.users.FindByIdentifier(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u.Role == role {
		out := toPublic(u)
		return &out, nil
	}
	if err := s.users.SetRole(ctx, u.ID, role); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	u.Role = role
	s.log.Info("user role changed", "user_id", u.ID, "role", role)

	out := toPublic(u)
	return &out, nil
}

func (s *Service) issue(u *domain.User, linked int64) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: toPublic(u), AccessToken: token, Linked: linked}, nil
}
