package share

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ShareClaims holds the JWT payload for patient share codes.
type ShareClaims struct {
	jwt.RegisteredClaims
	PatientID string `json:"pid"`
}

// TokenService issues and validates patient share codes. A share code is a
// signed JWT scoped to a single patient; anyone holding it can read that
// patient's data until it expires.
type TokenService struct {
	secret  []byte
	codeTTL time.Duration
}

// NewTokenService creates a TokenService with the given signing secret and
// share code lifetime.
func NewTokenService(secret []byte, codeTTL time.Duration) *TokenService {
	return &TokenService{
		secret:  secret,
		codeTTL: codeTTL,
	}
}

// IssueShareCode generates a signed share code for the given patient.
func (s *TokenService) IssueShareCode(patientID string) (code string, expiresAt time.Time, err error) {
	now := time.Now()
	expiresAt = now.Add(s.codeTTL)
	claims := ShareClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   patientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "vitalsim",
		},
		PatientID: patientID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign share code: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateShareCode parses and validates a share code, returning the claims.
func (s *TokenService) ValidateShareCode(code string) (*ShareClaims, error) {
	token, err := jwt.ParseWithClaims(code, &ShareClaims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse share code: %w", err)
	}

	claims, ok := token.Claims.(*ShareClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid share code claims")
	}
	return claims, nil
}

// CodeTTL returns the configured share code lifetime.
func (s *TokenService) CodeTTL() time.Duration {
	return s.codeTTL
}
