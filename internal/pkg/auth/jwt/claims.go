package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims issued by the auth service and accepted here.
// Token issuance itself lives outside this server; GenerateToken exists for tooling and tests.
type Payload struct {
	jwt.StandardClaims

	// UserID is the identity the bearer acts as.
	UserID string `json:"userId"`

	// Username is the display name at the time the token was issued.
	Username string `json:"username,omitempty"`
}
