package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeAccess        = "access"
	PurposePasswordReset = "password_reset"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of every token the service signs.
type Claims struct {
	UserID  string `json:"userId"`
	Role    string `json:"role,omitempty"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// JWTIssuer signs and verifies HS256 tokens.
type JWTIssuer struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

func NewJWTIssuer(config JWTConfig) *JWTIssuer {
	return &JWTIssuer{
		secret:    []byte(config.Secret),
		issuer:    config.Issuer,
		accessTTL: config.AccessTTL(),
		resetTTL:  config.ResetTTL(),
		now:       time.Now,
	}
}

func (i *JWTIssuer) AccessTTL() time.Duration { return i.accessTTL }

func (i *JWTIssuer) ResetTTL() time.Duration { return i.resetTTL }

// Issue signs an access token carrying userID and role.
func (i *JWTIssuer) Issue(userID, role string) (string, error) {
	return i.sign(Claims{
		UserID:  userID,
		Role:    role,
		Purpose: PurposeAccess,
	}, userID, "", i.accessTTL)
}

// Verify accepts only unexpired access tokens signed by this issuer.
func (i *JWTIssuer) Verify(token string) (*Claims, error) {
	return i.parse(token, PurposeAccess)
}

// IssueReset signs a password reset grant. tokenID must match the one stored on the user.
func (i *JWTIssuer) IssueReset(userID, email, tokenID string) (string, error) {
	return i.sign(Claims{
		UserID:  userID,
		Email:   email,
		Purpose: PurposePasswordReset,
	}, userID, tokenID, i.resetTTL)
}

func (i *JWTIssuer) VerifyReset(token string) (*Claims, error) {
	return i.parse(token, PurposePasswordReset)
}

func (i *JWTIssuer) sign(claims Claims, subject, tokenID string, ttl time.Duration) (string, error) {
	now := i.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   subject,
		ID:        tokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (i *JWTIssuer) parse(token, purpose string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(i.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: purpose %q", ErrInvalidToken, claims.Purpose)
	}
	if claims.UserID == "" || claims.UserID != claims.Subject {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}

	return claims, nil
}
