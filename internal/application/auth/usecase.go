// Package auth implementa login y el flujo de redefinición de contraseña.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/almoxarifado-api/internal/application/dto"
	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
	"github.com/jhoicas/almoxarifado-api/pkg/jwt"
)

const (
	resetTokenTTL  = time.Hour
	minPasswordLen = 6
)

// Mailer envía el correo de redefinición de contraseña. La implementación SMTP
// vive en infraestructura; los tests usan un fake.
type Mailer interface {
	SendPasswordReset(to, username, resetURL string) error
}

// Config parámetros de firma de tokens y construcción de links.
type Config struct {
	JWTSecret  string
	JWTIssuer  string
	ExpMinutes int
	BaseURL    string
}

// UseCase casos de uso de autenticación.
type UseCase struct {
	users  repository.UserRepository
	mailer Mailer
	cfg    Config
	now    func() time.Time
}

// NewUseCase construye el caso de uso. now == nil usa time.Now.
func NewUseCase(users repository.UserRepository, mailer Mailer, cfg Config, now func() time.Time) *UseCase {
	if now == nil {
		now = time.Now
	}
	return &UseCase{users: users, mailer: mailer, cfg: cfg, now: now}
}

// Login autentica por username o email. Usuarios inactivos no pueden entrar.
func (uc *UseCase) Login(in dto.LoginRequest) (*dto.LoginResponse, error) {
	if in.Username == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	user, err := uc.users.GetByUsername(in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil && strings.Contains(in.Username, "@") {
		user, err = uc.users.GetByEmail(strings.ToLower(in.Username))
		if err != nil {
			return nil, err
		}
	}
	if user == nil || !user.Active {
		return nil, domain.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, domain.ErrUnauthorized
	}

	token, err := jwt.Generate(uc.cfg.JWTSecret, user.ID, user.Role, user.IsAdmin, uc.cfg.JWTIssuer, uc.cfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, User: toUserResponse(user)}, nil
}

// ForgotPassword genera un token de un solo uso y dispara el correo. Para no
// filtrar qué emails existen, un email desconocido también responde OK.
func (uc *UseCase) ForgotPassword(in dto.ForgotPasswordRequest) error {
	if in.Email == "" {
		return domain.ErrInvalidInput
	}
	user, err := uc.users.GetByEmail(strings.ToLower(in.Email))
	if err != nil {
		return err
	}
	if user == nil || !user.Active {
		return nil
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	expires := uc.now().Add(resetTokenTTL)
	user.ResetToken = token
	user.ResetTokenExpires = &expires
	if err := uc.users.Update(user); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(uc.cfg.BaseURL, "/"), token)
	return uc.mailer.SendPasswordReset(user.Email, user.Username, resetURL)
}

// ResetPassword consume el token y define la nueva contraseña. El token se
// invalida aunque ya estuviera expirado.
func (uc *UseCase) ResetPassword(in dto.ResetPasswordRequest) error {
	if in.Token == "" || len(in.Password) < minPasswordLen {
		return domain.ErrInvalidInput
	}
	user, err := uc.users.GetByResetToken(in.Token)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUnauthorized
	}
	if user.ResetTokenExpires == nil || uc.now().After(*user.ResetTokenExpires) {
		user.ResetToken = ""
		user.ResetTokenExpires = nil
		_ = uc.users.Update(user)
		return domain.ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.ResetToken = ""
	user.ResetTokenExpires = nil
	return uc.users.Update(user)
}

// Me devuelve el usuario autenticado (para el endpoint de sesión).
func (uc *UseCase) Me(userID string) (*dto.UserResponse, error) {
	user, err := uc.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	out := toUserResponse(user)
	return &out, nil
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func toUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsAdmin:   u.IsAdmin,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}
