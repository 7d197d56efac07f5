package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the access token payload. It lives in models because the
// services, middleware and ws packages all read it.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
