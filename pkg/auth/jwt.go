package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const (
	userKey ctxKey = iota + 1
	sessionKey
)

var ErrNoSubject = errors.New("token has no subject")

// WithUser adds a user ID to the context
func WithUser(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, userKey, uid)
}

// UserID extracts the user ID from the context, empty when unauthenticated
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(userKey).(string)
	return v
}

// WithSession adds the login session ID to the context
func WithSession(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionKey, sid)
}

// SessionID extracts the login session ID from the context
func SessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionKey).(string)
	return v
}

// JWT wraps a signing secret for issuing/verifying tokens
type JWT struct{ secret []byte }

// New creates a new JWT signer/verifier.
func New(secret string) *JWT { return &JWT{secret: []byte(secret)} }

// Sign creates a token for uid carrying the session id sid.
func (j *JWT) Sign(uid, sid string, ttl time.Duration) (string, error) {
	if uid == "" {
		return "", errors.New("empty uid")
	}
	claims := jwt.MapClaims{
		"sub": uid,
		"sid": sid,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(j.secret)
}

// Verify checks a token and returns its user and session ids.
func (j *JWT) Verify(tok string) (uid, sid string, err error) {
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil {
		return "", "", err
	}
	uid, _ = claims["sub"].(string)
	if uid == "" {
		return "", "", ErrNoSubject
	}
	sid, _ = claims["sid"].(string)
	return uid, sid, nil
}
