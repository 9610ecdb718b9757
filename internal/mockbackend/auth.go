// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockbackend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// Login failures. The message is what the client shows on its login form.
var (
	ErrAccessDenied = errors.New("ACCESS DENIED")
	ErrOTPRequired  = errors.New("ONE-TIME CODE REQUIRED")
	ErrOTPInvalid   = errors.New("INVALID ONE-TIME CODE")
)

// Claims are the JWT claims issued at login.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// authenticate checks the password and, when the account has a TOTP
// secret, the one-time code.
func (s *Server) authenticate(ctx context.Context, username, password, code string) (*User, error) {
	u, err := s.store.FindUser(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrAccessDenied
	}
	if u.TOTPSecret != "" {
		if strings.TrimSpace(code) == "" {
			return nil, ErrOTPRequired
		}
		if !totp.Validate(strings.TrimSpace(code), u.TOTPSecret) {
			return nil, ErrOTPInvalid
		}
	}
	return u, nil
}

func (s *Server) issueToken(u *User) (string, error) {
	now := s.now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name: u.Name,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Auth.TokenTTL())),
		},
	}).SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// ParseToken validates tok and returns its claims.
func (s *Server) ParseToken(tok string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Auth.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// requireToken rejects requests without a valid bearer token.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.cfg.Auth.RequireToken {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			return
		}
		claims, err := s.ParseToken(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}
		c.Set("user", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}
