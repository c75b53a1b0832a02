package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin = "admin"

	adminSubject  = "admin"
	tokenLifetime = 72 * time.Hour
	bcryptCost    = 12
)

// HashPassword produces the bcrypt hash expected in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", ErrValidationFailed)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthService interface {
	Login(password string) (*LoginResult, error)
}

type authService struct {
	passwordHash string
	jwtSecret    []byte
	now          func() time.Time
	logger       *slog.Logger
}

func NewAuthService(passwordHash, jwtSecret string, logger *slog.Logger) AuthService {
	return &authService{
		passwordHash: passwordHash,
		jwtSecret:    []byte(jwtSecret),
		now:          time.Now,
		logger:       logger,
	}
}

func (s *authService) Login(password string) (*LoginResult, error) {
	if s.passwordHash == "" || len(s.jwtSecret) == 0 {
		return nil, ErrAdminLoginDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("admin login rejected")
			return nil, ErrInvalidCredentials
		}
		return nil, ErrAuthenticationFailed
	}

	now := s.now()
	expires := now.Add(tokenLifetime)
	claims := jwt.MapClaims{
		"user_id": adminSubject,
		"role":    RoleAdmin,
		"name":    adminSubject,
		"exp":     expires.Unix(),
		"iat":     now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		s.logger.Error("failed to sign token", slog.Any("error", err))
		return nil, ErrAuthenticationFailed
	}
	return &LoginResult{Token: token, ExpiresAt: expires}, nil
}
