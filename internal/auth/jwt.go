package auth

import (
	"errors"
	"fmt"
	"time"

	"orders-api/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes for single-use email links.
const (
	PurposeEmailConfirmation = "email_confirmation"
	PurposePasswordReset     = "password_reset"
)

const (
	confirmationTTL = 24 * time.Hour
	resetTTL        = time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// Claims holds the typed access token payload.
type Claims struct {
	Email string         `json:"email"`
	Role  model.UserType `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// IsAdmin reports whether the token carries the Admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == model.UserTypeAdmin
}

// PurposeClaims is the payload of confirmation and reset tokens. The stamp
// ties the token to the user's current security stamp, so that rotating the
// stamp invalidates every outstanding token.
type PurposeClaims struct {
	Purpose string `json:"purpose"`
	Stamp   string `json:"stamp"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service. ttl applies to access tokens.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// IssueAccessToken signs a token for the user and returns it with its expiry.
func (s *TokenService) IssueAccessToken(u *model.User) (*model.Token, error) {
	now := s.now()
	exp := now.Add(s.ttl)

	claims := Claims{
		Email: u.Email,
		Role:  u.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	return &model.Token{Token: signed, Expiration: exp}, nil
}

// ParseAccessToken validates the signature and expiry of an access token.
func (s *TokenService) ParseAccessToken(token string) (*Claims, error) {
	claims := &Claims{}
	if err := s.parse(token, claims); err != nil {
		return nil, err
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssuePurposeToken signs a token for an email link.
func (s *TokenService) IssuePurposeToken(u *model.User, purpose string) (string, error) {
	ttl := resetTTL
	if purpose == PurposeEmailConfirmation {
		ttl = confirmationTTL
	}

	now := s.now()
	claims := PurposeClaims{
		Purpose: purpose,
		Stamp:   u.SecurityStamp.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", purpose, err)
	}
	return signed, nil
}

// VerifyPurposeToken checks that token was issued for u with the given
// purpose and that u's security stamp has not changed since.
func (s *TokenService) VerifyPurposeToken(token string, u *model.User, purpose string) error {
	claims := &PurposeClaims{}
	if err := s.parse(token, claims); err != nil {
		return err
	}
	if claims.Purpose != purpose || claims.Subject != u.ID.String() || claims.Stamp != u.SecurityStamp.String() {
		return ErrInvalidToken
	}
	return nil
}

func (s *TokenService) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
