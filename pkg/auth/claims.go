package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	IsVendor bool
	IsStaff  bool
}

// AccessTokenClaims represents the typed JWT presented by clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	IsVendor bool      `json:"is_vendor,omitempty"`
	IsStaff  bool      `json:"is_staff,omitempty"`
	jwt.RegisteredClaims
}
