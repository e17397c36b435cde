package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/reyer3/Pulso-Back-sub001/internal/auth/service TokenGenerator

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	autherror "github.com/reyer3/Pulso-Back-sub001/internal/errors"
)

const accessTokenType = "access"

// opaqueTokenBytes is the entropy of refresh and CSRF tokens.
const opaqueTokenBytes = 64

// TokenGenerator abstracts access-token issuance for the session service.
type TokenGenerator interface {
	IssueAccessToken(userID, email, role string) (string, time.Time, error)
	VerifyAccessToken(tokenString string) (*AccessClaims, error)
	AccessTokenTTL() time.Duration
}

// AccessClaims is the signed claim set of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
}

type TokenService struct {
	secret    []byte
	method    jwt.SigningMethod
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokenService builds the codec. The secret length and algorithm name are
// validated by config.Load before this is called.
func NewTokenService(secret, algorithm string, accessTTL time.Duration) (*TokenService, error) {
	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &TokenService{
		secret:    []byte(secret),
		method:    method,
		accessTTL: accessTTL,
		now:       time.Now,
	}, nil
}

// IssueAccessToken signs a short-lived token carrying the subject, a unique
// token id and the access kind marker.
func (ts *TokenService) IssueAccessToken(userID, email, role string) (string, time.Time, error) {
	now := ts.now()
	expiresAt := now.Add(ts.accessTTL)

	claims := AccessClaims{
		TokenType: accessTokenType,
		Email:     email,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(ts.method, claims).SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, expiresAt, nil
}

// VerifyAccessToken checks signature, expiry and the kind marker. Callers
// receive ErrTokenExpired or ErrInvalidToken, never parser internals.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secret, nil
	}, jwt.WithTimeFunc(ts.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherror.ErrTokenExpired
		}
		return nil, autherror.ErrInvalidToken
	}
	if !token.Valid || claims.TokenType != accessTokenType || claims.Subject == "" {
		return nil, autherror.ErrInvalidToken
	}
	return claims, nil
}

func (ts *TokenService) AccessTokenTTL() time.Duration {
	return ts.accessTTL
}

// NewOpaqueToken generates a random refresh/CSRF token. The raw value goes
// to the client; only the hash is persisted.
func NewOpaqueToken() (raw, hash string, err error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate opaque token: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, HashOpaque(raw), nil
}

// HashOpaque maps a raw opaque token to its stored form.
func HashOpaque(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ConstantTimeEqual compares two token hashes without timing leaks.
func ConstantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
