package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login for a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthConfig configures the single administrator account.
type AuthConfig struct {
	Username     string
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
}

// AuthService issues and checks the tokens that guard catalog writes.
type AuthService struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	tokenDurat   time.Duration
}

// NewAuthService creates a new AuthService. An empty secret disables auth.
func NewAuthService(cfg AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		username:     cfg.Username,
		passwordHash: []byte(cfg.PasswordHash),
		jwtSecret:    []byte(cfg.JWTSecret),
		tokenDurat:   ttl,
	}
}

// Enabled reports whether tokens are required.
func (s *AuthService) Enabled() bool {
	return s != nil && len(s.jwtSecret) > 0
}

// Login checks the administrator credentials and returns a signed token.
func (s *AuthService) Login(username, password string) (string, error) {
	if !s.Enabled() || s.username == "" || username != s.username {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": now.Add(s.tokenDurat).Unix(),
		"iat": now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
