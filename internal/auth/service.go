package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/user"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	FindByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

// SessionPolicy supplies an access token lifetime override, zero meaning none.
type SessionPolicy interface {
	SessionTimeout(ctx context.Context) time.Duration
}

// Blacklist revokes tokens by jti. It may be nil when redis is not configured.
type Blacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

type Service struct {
	users     UserRepository
	tokens    *JWTTokenGenerator
	sessions  SessionPolicy
	blacklist Blacklist
	logger    *slog.Logger
}

func NewService(users UserRepository, tokens *JWTTokenGenerator, sessions SessionPolicy, blacklist Blacklist, logger *slog.Logger) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		sessions:  sessions,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	row, err := s.users.FindByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		return AuthTokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	u := user.FromDataModel(row)
	if !u.IsActive() {
		return AuthTokens{}, internal.ErrUserInactive
	}

	tokens, err := s.issue(ctx, u)
	if err != nil {
		return AuthTokens{}, err
	}
	s.logger.Info("user logged in", "user_id", u.ID, "role", u.Role)
	return tokens, nil
}

// RefreshTokens rotates a refresh token. The presented token is revoked.
func (s *Service) RefreshTokens(ctx context.Context, dto RefreshTokenDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}
	claims, err := s.check(ctx, RefreshToken, dto.RefreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	row, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrInvalidToken
		}
		return AuthTokens{}, err
	}
	u := user.FromDataModel(row)
	if !u.IsActive() {
		return AuthTokens{}, internal.ErrUserInactive
	}

	tokens, err := s.issue(ctx, u)
	if err != nil {
		return AuthTokens{}, err
	}
	s.revoke(ctx, claims)
	return tokens, nil
}

// Logout revokes the access token and, if given, the refresh token.
func (s *Service) Logout(ctx context.Context, accessToken string, dto LogoutDTO) error {
	claims, err := s.check(ctx, AccessToken, accessToken)
	if err != nil {
		return err
	}
	s.revoke(ctx, claims)

	if dto.RefreshToken != "" {
		if rc, err := s.tokens.Validate(RefreshToken, dto.RefreshToken); err == nil && rc.UserID == claims.UserID {
			s.revoke(ctx, rc)
		}
	}
	s.logger.Info("user logged out", "user_id", claims.UserID)
	return nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(ctx context.Context, token string) (*Claims, error) {
	return s.check(ctx, AccessToken, token)
}

func (s *Service) issue(ctx context.Context, u *user.User) (AuthTokens, error) {
	var ttl time.Duration
	if s.sessions != nil {
		ttl = s.sessions.SessionTimeout(ctx)
	}
	access, expiresAt, err := s.tokens.Generate(AccessToken, u.ID, string(u.Role), ttl)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign token", err)
	}
	refresh, _, err := s.tokens.Generate(RefreshToken, u.ID, string(u.Role), 0)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign token", err)
	}
	return AuthTokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

func (s *Service) check(ctx context.Context, kind TokenKind, token string) (*Claims, error) {
	claims, err := s.tokens.Validate(kind, token)
	if err != nil {
		return nil, err
	}
	if s.blacklist == nil {
		return claims, nil
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		// redis being down must not lock everyone out
		s.logger.Warn("blacklist lookup failed", "error", err)
		return claims, nil
	}
	if revoked {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) revoke(ctx context.Context, claims *Claims) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, claims.Remaining(time.Now())); err != nil {
		s.logger.Warn("failed to blacklist token", "user_id", claims.UserID, "error", err)
	}
}
