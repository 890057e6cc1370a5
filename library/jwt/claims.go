package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims identifies a visitor session.
//
// Subject carries the session id.
type SessionClaims struct {
	jwt.RegisteredClaims
}
