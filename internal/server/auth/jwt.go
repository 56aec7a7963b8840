// Package auth signs and verifies the short-lived tokens mailed in password
// reset links.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/swaphubteam/SwapIt/internal/common"
)

// PurposeReset marks tokens that may only complete a password reset.
const PurposeReset = "password_reset"

// ResetClaims binds a reset token to a user and to the password hash it was
// issued against, so a token stops working once the password changes.
type ResetClaims struct {
	jwt.RegisteredClaims
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"pwf"`
}

// UserID parses the subject claim.
func (c *ResetClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, common.ErrInvalidToken
	}
	return id, nil
}

func GenerateResetToken(userID int64, fingerprint string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Purpose:     PurposeReset,
		Fingerprint: fingerprint,
	})

	return token.SignedString(secretKey)
}

// ParseResetToken verifies signature, expiry and purpose. Expired tokens
// return common.ErrTokenExpired, every other failure common.ErrInvalidToken.
func ParseResetToken(tokenString string, secretKey []byte) (*ResetClaims, error) {
	claims := &ResetClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Purpose != PurposeReset {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
