package clerk

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/localspot/localspot-backend/pkg/config"
)

var sessionSigningMethod = jwt.SigningMethodRS256

// ParseSessionToken validates a provider session JWT against the configured
// instance public key and returns the typed claims.
func ParseSessionToken(cfg config.ClerkConfig, tokenString string) (*SessionClaims, error) {
	key, err := sessionPublicKey(cfg)
	if err != nil {
		return nil, err
	}

	parseOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{sessionSigningMethod.Alg()}),
	}
	if cfg.JWTIssuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(cfg.JWTIssuer))
	}

	claims := &SessionClaims{}
	_, err = jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != sessionSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return key, nil
		},
		parseOpts...,
	)
	if err != nil {
		return nil, err
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("session token missing subject")
	}
	return claims, nil
}

func sessionPublicKey(cfg config.ClerkConfig) (*rsa.PublicKey, error) {
	if cfg.JWTPublicKeyPEM == "" {
		return nil, fmt.Errorf("clerk jwt public key is required")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.JWTPublicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parsing clerk jwt public key: %w", err)
	}
	return key, nil
}
