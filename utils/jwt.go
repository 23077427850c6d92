// file: utils/jwt.go
package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID uint32  `json:"user_id"`
	TeamID *uint32 `json:"team_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for the user. The team claim reflects membership
// at issue time and is informational only; handlers re-read membership from the
// database because it can change while the token is still valid.
func GenerateToken(secret []byte, validFor time.Duration, userID uint32, teamID *uint32) (string, error) {
	claims := Claims{
		UserID: userID,
		TeamID: teamID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validFor)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
