package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials means the presented merchant API key does not match.
var ErrInvalidCredentials = errors.New("invalid merchant API key")

type LoginRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// AuthService exchanges the merchant API key for a short-lived JWT used on
// the order-management endpoints. Single-merchant backend, so there is no
// user table; the bcrypt hash of the key comes from configuration.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
}

type authService struct {
	apiKeyHash []byte
	jwtSecret  []byte
	tokenTTL   time.Duration
}

func NewAuthService(apiKeyHash, jwtSecret []byte) AuthService {
	return &authService{
		apiKeyHash: apiKeyHash,
		jwtSecret:  jwtSecret,
		tokenTTL:   24 * time.Hour,
	}
}

func (s *authService) Login(_ context.Context, req LoginRequest) (*TokenResponse, error) {
	if err := bcrypt.CompareHashAndPassword(s.apiKeyHash, []byte(req.APIKey)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "merchant",
		"exp": time.Now().Add(s.tokenTTL).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, errors.New("failed to sign token")
	}

	return &TokenResponse{Token: tokenString}, nil
}
