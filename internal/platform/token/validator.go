package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"caseflow/internal/platform/middleware"
)

// Validator verifies HMAC-signed service tokens and extracts the actor
// identity the audit trail records.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

type caseflowClaims struct {
	FirstName string `json:"given_name"`
	LastName  string `json:"family_name"`
	jwt.RegisteredClaims
}

// ValidateToken parses and verifies a bearer token.
func (v *Validator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	var claims caseflowClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}

	return &middleware.JWTClaims{
		ActorID:   claims.Subject,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}, nil
}
