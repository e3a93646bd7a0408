package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edugate/sitecms/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every editor token and required on verification.
const Issuer = "sitecms"

var (
	ErrNoSecret     = errors.New("editor token secret is empty")
	ErrNoExpiry     = errors.New("editor token has no expiry")
	ErrEmptySubject = errors.New("editor token subject is empty")
)

// Editor signs and verifies HS256 editor tokens with a shared secret.
type Editor struct {
	secret []byte
	now    func() time.Time
}

func NewEditor(secret string) (*Editor, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Editor{secret: []byte(secret), now: time.Now}, nil
}

// Generate mints a token for sub that expires after ttl.
func (e *Editor) Generate(sub string, ttl time.Duration) (string, error) {
	if sub == "" {
		return "", ErrEmptySubject
	}
	now := e.now()
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.secret)
	if err != nil {
		return "", fmt.Errorf("sign editor token: %w", err)
	}
	return s, nil
}

// Verify implements middleware.Verifier.
func (e *Editor) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return e.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(e.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse editor token: %w", err)
	}
	if exp, _ := claims.GetExpirationTime(); exp == nil {
		return nil, ErrNoExpiry
	}
	if sub, _ := claims.GetSubject(); sub == "" {
		return nil, ErrEmptySubject
	}
	return claimsToken(claims), nil
}

type claimsToken jwt.MapClaims

func (t claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(map[string]interface{}(t))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
