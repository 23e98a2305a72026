package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/tradedesk/portal_backend/config"
)

const devJwtSecret = "portal-dev-secret"

// ErrJwtSecretMissing is returned in production when API_SECRET is unset.
var ErrJwtSecretMissing = errors.New("API_SECRET is not set")

// JwtCustomClaim is issued by the portal's login service; this backend only validates it.
type JwtCustomClaim struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.StandardClaims
}

// JwtSecret returns the signing key. Outside production an unset API_SECRET
// falls back to a fixed development key.
func JwtSecret() ([]byte, error) {
	secret := os.Getenv("API_SECRET")
	if secret != "" {
		return []byte(secret), nil
	}
	if config.IsProduction() {
		return nil, ErrJwtSecretMissing
	}
	return []byte(devJwtSecret), nil
}

// JwtGenerate signs a token for userID. Used by tooling and tests.
func JwtGenerate(userID string, role string) (string, error) {
	secret, err := JwtSecret()
	if err != nil {
		return "", err
	}

	tokenLifespan, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil || tokenLifespan <= 0 {
		tokenLifespan = 1
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID:   userID,
		Role: role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour * time.Duration(tokenLifespan)).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})

	return t.SignedString(secret)
}

func JwtValidate(token string) (*jwt.Token, error) {
	secret, err := JwtSecret()
	if err != nil {
		return nil, err
	}
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return secret, nil
	})
}
