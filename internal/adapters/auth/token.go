package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eventbooking/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var errWrongTokenType = errors.New("wrong token type")

type jwtClaims struct {
	jwt.RegisteredClaims
	Type  string   `json:"typ"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// JWTService issues and verifies HS256 access and refresh tokens.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService returns a JWTService signing with secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret), now: time.Now}
}

var (
	_ domain.TokenIssuer   = (*JWTService)(nil)
	_ domain.TokenVerifier = (*JWTService)(nil)
)

// Issue signs an access token carrying email and roles for clients.
func (s *JWTService) Issue(userID, email string, roles []string, expiry time.Duration) (string, error) {
	return s.sign(jwtClaims{
		RegisteredClaims: s.registered(userID, expiry),
		Type:             tokenTypeAccess,
		Email:            email,
		Roles:            roles,
	})
}

// IssueRefresh signs a refresh token that can only be exchanged for access tokens.
func (s *JWTService) IssueRefresh(userID string, expiry time.Duration) (string, error) {
	return s.sign(jwtClaims{
		RegisteredClaims: s.registered(userID, expiry),
		Type:             tokenTypeRefresh,
	})
}

// Verify validates an access token and returns its subject.
func (s *JWTService) Verify(token string) (string, error) {
	return s.parse(token, tokenTypeAccess)
}

// VerifyRefresh validates a refresh token and returns its subject.
func (s *JWTService) VerifyRefresh(token string) (string, error) {
	return s.parse(token, tokenTypeRefresh)
}

func (s *JWTService) registered(userID string, expiry time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}
}

func (s *JWTService) sign(claims jwtClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (s *JWTService) parse(token, wantType string) (string, error) {
	claims := &jwtClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if claims.Type != wantType {
		return "", errWrongTokenType
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
