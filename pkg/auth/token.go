package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/artisansally/ally/config"
)

// Token purposes. A token minted for one purpose is rejected for any other.
const (
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset      = "password_reset"
	PurposeEbayOAuth          = "ebay_oauth"
)

var (
	ErrTokenInvalid = errors.New("auth: invalid token")
	ErrTokenExpired = errors.New("auth: token expired")
)

// Claims is the payload of every purpose-scoped token.
type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func secret() []byte { return []byte(config.AppKey()) }

// IssueToken signs a token for subject that is only valid for purpose and
// expires after ttl.
func IssueToken(purpose string, subject uint, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(subject),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

// ParseToken verifies signature, expiry and purpose, and returns the subject.
func ParseToken(raw, purpose string) (uint, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret(), nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return 0, ErrTokenExpired
	case err != nil:
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.Purpose != purpose {
		return 0, fmt.Errorf("%w: purpose %q", ErrTokenInvalid, claims.Purpose)
	}

	var id uint
	if _, err := fmt.Sscan(claims.Subject, &id); err != nil || id == 0 {
		return 0, fmt.Errorf("%w: subject", ErrTokenInvalid)
	}
	return id, nil
}
