package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/internal/models"
	"github.com/Skotchmaster/lapcraft/internal/repo"
	pkg_hash "github.com/Skotchmaster/lapcraft/pkg/hash"
	"github.com/Skotchmaster/lapcraft/pkg/logging"
	authmw "github.com/Skotchmaster/lapcraft/pkg/middleware/auth"
	"github.com/Skotchmaster/lapcraft/pkg/tokens"
)

const MinPasswordLength = 6

type AuthService struct {
	Repo       *repo.GormRepo
	Tokens     *tokens.Issuer
	RefreshTTL time.Duration
	Events     EventPublisher
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// issuePair signs an access token and stores a fresh refresh token inside tx.
func (s *AuthService) issuePair(tx *gorm.DB, u *models.User) (*LoginResult, error) {
	access, accessExp, err := s.Tokens.Issue(u.ID.String(), u.Email, u.Name)
	if err != nil {
		return nil, err
	}
	refresh, err := tokens.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	refreshExp := time.Now().UTC().Add(s.RefreshTTL)
	if err := s.Repo.CreateRefreshToken(tx, &models.RefreshToken{
		TokenHash: tokens.Sha256Hex(refresh),
		UserID:    u.ID,
		ExpiresAt: refreshExp,
	}); err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", ErrValidation)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	u := &models.User{Name: name, Email: email, Phone: in.Phone, HashedPassword: pwHash}

	var res *LoginResult
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		taken, err := s.Repo.EmailTaken(tx, email)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("email already registered: %w", ErrConflict)
		}
		if err := s.Repo.CreateUser(tx, u); err != nil {
			return conflictOnDuplicate(err, "email already registered")
		}
		res, err = s.issuePair(tx, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicUserEvents, u.ID.String(), map[string]any{
		"type":    "user_registered",
		"user_id": u.ID,
		"email":   u.Email,
	})
	return res, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", ErrValidation)
	}

	var res *LoginResult
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		u, err := s.Repo.UserByEmail(tx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
			}
			return err
		}
		if !pkg_hash.CheckPassword(u.HashedPassword, password) {
			return fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
		}
		if err := s.Repo.TouchLastLogin(tx, u.ID, time.Now().UTC()); err != nil {
			return err
		}
		res, err = s.issuePair(tx, u)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		}
		return nil, err
	}
	return res, nil
}

// Refresh exchanges a valid refresh token for a new pair. The old token is revoked in the
// same transaction, so it can be used only once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required: %w", ErrValidation)
	}
	hash := tokens.Sha256Hex(refreshToken)

	var res *LoginResult
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		stored, err := s.Repo.RefreshTokenForUpdate(tx, hash)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
			}
			return err
		}
		if !stored.Valid(time.Now().UTC()) {
			return fmt.Errorf("refresh token expired or revoked: %w", ErrUnauthorized)
		}
		u, err := s.Repo.UserByID(tx, stored.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user not found: %w", ErrUnauthorized)
			}
			return err
		}
		if _, err := s.Repo.RevokeRefreshToken(tx, hash); err != nil {
			return err
		}
		res, err = s.issuePair(tx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Logout revokes the refresh token. Revoking an already revoked token succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("refresh token is required: %w", ErrValidation)
	}
	ok, err := s.Repo.RevokeRefreshToken(s.Repo.Conn(ctx), tokens.Sha256Hex(refreshToken))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("invalid refresh token: %w", ErrValidation)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.Repo.UserByID(s.Repo.Conn(ctx), id)
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	return u, nil
}

// LoadPrincipal backs the bearer middleware; a token whose user is gone is rejected.
func (s *AuthService) LoadPrincipal(ctx context.Context, id uuid.UUID) (*authmw.Principal, error) {
	u, err := s.Repo.UserByID(s.Repo.Conn(ctx), id)
	if err != nil {
		return nil, err
	}
	return &authmw.Principal{ID: u.ID, Email: u.Email, Name: u.Name, IsSuperuser: u.IsSuperuser}, nil
}
