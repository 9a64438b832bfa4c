package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is an operator account. Operators can trigger retraining and manage
// the bootstrap corpus; classification itself is unauthenticated.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// Claims defines the structure of the JWT claims.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
