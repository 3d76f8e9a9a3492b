package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Session is what a successful CMS login returns.
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Authenticator guards the CMS mutations.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	// Verify returns the session email for a valid, unexpired token.
	Verify(ctx context.Context, token string) (string, error)
}

// JWTAuthenticator checks a single configured admin credential and issues
// HS256 tokens.
type JWTAuthenticator struct {
	email        string
	passwordHash []byte
	secret       []byte
	expiry       time.Duration
	now          func() time.Time
}

func NewJWTAuthenticator(email, passwordHash, secret string, expiry time.Duration) (*JWTAuthenticator, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(passwordHash) == "" {
		return nil, fmt.Errorf("admin email and password hash must be configured")
	}
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is not set in config")
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("token expiry must be positive")
	}
	return &JWTAuthenticator{
		email:        strings.TrimSpace(email),
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		expiry:       expiry,
		now:          time.Now,
	}, nil
}

func (a *JWTAuthenticator) Login(_ context.Context, email, password string) (*Session, error) {
	if !strings.EqualFold(strings.TrimSpace(email), a.email) {
		return nil, UnauthorizedError("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return nil, UnauthorizedError("Invalid email or password")
	}

	now := a.now()
	expiresAt := now.Add(a.expiry)
	claims := jwt.RegisteredClaims{
		Subject:   a.email,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Session{Token: token, Email: a.email, ExpiresAt: expiresAt}, nil
}

func (a *JWTAuthenticator) Verify(_ context.Context, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return "", UnauthorizedError("Invalid or expired token")
	}
	if !strings.EqualFold(claims.Subject, a.email) {
		return "", UnauthorizedError("Invalid or expired token")
	}
	return claims.Subject, nil
}
