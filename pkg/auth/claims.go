package auth

import (
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload carried by every authenticated request.
type Claims struct {
	UserID uuid.UUID      `json:"uid"`
	Email  string         `json:"email"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
