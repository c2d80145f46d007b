package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var claimsParser = jwt.NewParser()

// credentialExpired reports whether token is a JWT whose exp claim is not
// after now. The signature is not checked: the remote API does that. Opaque
// tokens and JWTs without exp never expire locally.
func credentialExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := claimsParser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
