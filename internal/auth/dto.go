package auth

import (
	"strings"

	"github.com/frahmantamala/gatepass/internal/core/common/validation"
)

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (d *LoginDTO) Validate() error {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	return validation.Struct(d)
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (d *RefreshTokenDTO) Validate() error {
	return validation.Struct(d)
}

// LogoutDTO optionally names the refresh token to revoke alongside the access token.
type LogoutDTO struct {
	RefreshToken string `json:"refresh_token"`
}
