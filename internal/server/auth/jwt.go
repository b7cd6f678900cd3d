// Package auth issues and verifies the HS256 access tokens field devices
// present to the gateway.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every token and required on verification.
const Issuer = "fieldsync-gateway"

// now is replaced in tests.
var now = time.Now

// GenerateToken signs a token for subject (a device or reviewer id) valid
// for validity.
func GenerateToken(subject string, secretKey []byte, validity time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("empty subject: %w", common.ErrInvalidValue)
	}
	t := now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(t),
		ExpiresAt: jwt.NewNumericDate(t.Add(validity)),
	})
	return token.SignedString(secretKey)
}

// VerifyToken returns the token subject. Any failure, expiry included, is
// reported as common.ErrInvalidAccessToken.
func VerifyToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: expired", common.ErrInvalidAccessToken)
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidAccessToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", common.ErrInvalidAccessToken)
	}
	return claims.Subject, nil
}
