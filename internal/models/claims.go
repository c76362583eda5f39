package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the JWT claims carried by the admin session cookie.
// The portfolio has a single admin identity, so the subject is fixed and
// only issue/expiry matter.
type SessionClaims struct {
	jwt.RegisteredClaims
}
