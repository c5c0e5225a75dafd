package auth

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/stockroom-backend/internal/users"
	pkgauth "github.com/angelmondragon/stockroom-backend/pkg/auth"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/security"
)

// LoginRequest carries the credential pair.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is a minted session token plus the authenticated user.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Service authenticates credentials and issues tokens.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
}

type service struct {
	users  users.Repository
	issuer *pkgauth.TokenIssuer
	logg   *logger.Logger
}

// NewService wires the authentication service.
func NewService(usersRepo users.Repository, issuer *pkgauth.TokenIssuer, logg *logger.Logger) Service {
	return &service{users: usersRepo, issuer: issuer, logg: logg}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	// A missing user and a wrong password report the same error so the
	// endpoint does not leak which emails are registered.
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is deactivated")
	}

	if user.Role == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user has no role assigned")
	}
	role, err := enums.ParseUserRole(user.Role.Name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "user role is not recognized")
	}

	token, expiresAt, err := s.issuer.Mint(user.ID, user.Email, role)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.login")
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
