package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"portfolio-server/internal/models"
)

// AuthService authenticates the site owner and manages admin session tokens.
// There is a single admin identity; credentials come from configuration.
type AuthService interface {
	Login(ctx context.Context, password string) (string, error)
	VerifyToken(tokenString string) (*models.SessionClaims, error)
}

type AuthServiceImpl struct {
	passwordHash []byte
	jwtSecret    []byte
	sessionTTL   time.Duration
	logger       *zap.Logger
}

func NewAuthService(passwordHash, jwtSecret string, sessionTTL time.Duration, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		sessionTTL:   sessionTTL,
		logger:       logger.Named("AuthService"),
	}
}

// Login compares the password against the configured bcrypt hash and issues
// a signed session token.
func (s *AuthServiceImpl) Login(_ context.Context, password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		s.logger.Warn("Admin login attempt with wrong password")
		return "", models.ErrInvalidCredentials
	}

	now := time.Now()
	claims := models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	s.logger.Info("Admin logged in", zap.Time("expiresAt", claims.ExpiresAt.Time))
	return signed, nil
}

// VerifyToken parses and validates a session token.
func (s *AuthServiceImpl) VerifyToken(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrTokenInvalid
	}
	if !token.Valid || claims.Subject != "admin" {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}
