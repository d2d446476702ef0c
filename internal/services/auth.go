package services

import (
	"context"
	"strings"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/config"
	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// AuthService registers and authenticates accounts and manages the
// caller's own profile. Field-shape validation happens at the HTTP
// boundary; this layer owns hashing, uniqueness and credential checks.
type AuthService struct {
	users  UserStore
	tokens *TokenManager
	cost   int
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(cfg config.Config, log zerolog.Logger, users UserStore, tokens *TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens, cost: cfg.BcryptCost, log: log, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", domain.User{}, err
	}
	now := s.now()
	u := domain.User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, &u); err != nil {
		return "", domain.User{}, err
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, u, nil
}

// Login checks credentials. Unknown email and wrong password both come
// back as ErrInvalidCredentials so responses cannot be used to probe
// which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if err == domain.ErrNotFound {
			return "", domain.User{}, domain.ErrInvalidCredentials
		}
		return "", domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, u, nil
}

// Me returns the caller's record with a fresh token.
func (s *AuthService) Me(ctx context.Context, userID primitive.ObjectID) (string, domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", domain.User{}, err
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, u, nil
}

// UpdateProfile applies the provided fields. An email change re-checks
// uniqueness against every other account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, name, email *string) (string, domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", domain.User{}, err
	}
	if name != nil {
		u.Name = strings.TrimSpace(*name)
	}
	if email != nil {
		u.Email = normalizeEmail(*email)
	}
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return "", domain.User{}, err
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, u, nil
}

// DeleteAccount hard-deletes the record. Issues referencing the user
// keep their dangling ids; aggregation joins drop them silently.
func (s *AuthService) DeleteAccount(ctx context.Context, userID primitive.ObjectID) error {
	return s.users.Delete(ctx, userID)
}
