package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrWrongTokenType = errors.New("wrong token type")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// DefaultAccessTTL and DefaultRefreshTTL are the token lifetimes used
// when the config leaves them unset.
const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type SessionClaim struct {
	jwt.RegisteredClaims

	// private claims
	TokenType string `json:"savr/tokenType"`
}

// Issuer signs and verifies session tokens with HMAC-SHA256.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Issuer{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

type TokenPair struct {
	Access  string
	Refresh string
}

// IssuePair issues an access + refresh token pair for the user.
func (i *Issuer) IssuePair(userId int64) (TokenPair, error) {
	access, err := i.issue(userId, tokenTypeAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.issue(userId, tokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (i *Issuer) issue(userId int64, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claim := SessionClaim{
		RegisteredClaims: jwt.RegisteredClaims{
			// jti
			ID: uuid.NewString(),

			// sub
			Subject: strconv.FormatInt(userId, 10),

			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claim).SignedString(i.secret)
}

// VerifyAccess verifies an access token and returns the user id.
func (i *Issuer) VerifyAccess(token string) (int64, error) {
	return i.verify(token, tokenTypeAccess)
}

// VerifyRefresh verifies a refresh token and returns the user id.
func (i *Issuer) VerifyRefresh(token string) (int64, error) {
	return i.verify(token, tokenTypeRefresh)
}

func (i *Issuer) verify(token string, tokenType string) (int64, error) {
	claim := new(SessionClaim)
	parsed, err := jwt.ParseWithClaims(
		token, claim,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return 0, ErrTokenInvalid
	}
	if claim.TokenType != tokenType {
		return 0, fmt.Errorf("%w: %s", ErrWrongTokenType, claim.TokenType)
	}
	userId, err := strconv.ParseInt(claim.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed subject", ErrTokenInvalid)
	}
	return userId, nil
}
