package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var ErrInvalidToken = errors.New("invalid token")

// PurposeVerifyEmail marks tokens mailed out to confirm an address. They are
// never accepted as sessions, and sessions are never accepted in their place.
const PurposeVerifyEmail = "verify-email"

// Claims represents the JWT claims of a session
type Claims struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Verified bool   `json:"verified,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
	jwt.StandardClaims
}

// TokenMaker signs and verifies HS256 session and email verification tokens
type TokenMaker struct {
	key       []byte
	ttl       time.Duration
	verifyTTL time.Duration
	now       func() time.Time
}

// NewTokenMaker returns a TokenMaker that issues tokens valid for ttl.
func NewTokenMaker(secret string, ttl time.Duration) (*TokenMaker, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	return &TokenMaker{key: []byte(secret), ttl: ttl, verifyTTL: 48 * time.Hour, now: time.Now}, nil
}

// GenerateJWT generates a signed session token for the given identity.
// verified reports whether the email address has been confirmed.
func (m *TokenMaker) GenerateJWT(uid, email, role string, verified bool) (string, time.Time, error) {
	return m.sign(&Claims{UID: uid, Email: email, Role: role, Verified: verified}, m.ttl)
}

// GenerateVerificationToken signs a token proving control of email, valid for 48 hours.
func (m *TokenMaker) GenerateVerificationToken(uid, email string) (string, error) {
	token, _, err := m.sign(&Claims{UID: uid, Email: email, Purpose: PurposeVerifyEmail}, m.verifyTTL)
	return token, err
}

func (m *TokenMaker) sign(claims *Claims, ttl time.Duration) (string, time.Time, error) {
	issuedAt := m.now()
	expirationTime := issuedAt.Add(ttl)
	claims.StandardClaims = jwt.StandardClaims{
		Subject:   claims.UID,
		IssuedAt:  issuedAt.Unix(),
		ExpiresAt: expirationTime.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expirationTime, nil
}

// VerifyJWT checks the signature and expiry of a session token and returns its claims.
func (m *TokenMaker) VerifyJWT(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, "")
}

// VerifyEmailToken accepts only tokens made by GenerateVerificationToken.
func (m *TokenMaker) VerifyEmailToken(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, PurposeVerifyEmail)
}

func (m *TokenMaker) parse(tokenStr, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UID == "" || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
