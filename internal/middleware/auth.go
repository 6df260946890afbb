package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const uidCtxKey ctxKey = "uid"

// Authenticator verifies HS256 bearer tokens. The token subject is the caller uid.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator returns an Authenticator for the shared secret.
func NewAuthenticator(secret string) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Authenticator{secret: []byte(secret)}, nil
}

// Sign issues a token for uid valid for ttl.
func (a *Authenticator) Sign(uid string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := gojwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses raw and returns its subject.
func (a *Authenticator) Verify(raw string) (string, error) {
	var claims gojwt.RegisteredClaims
	token, err := gojwt.ParseWithClaims(raw, &claims, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, gojwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// Handler stores the uid of a valid bearer token in the request context.
// Requests without a valid token pass through anonymously; the services
// reject them as unauthenticated before looking at the payload.
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := bearerToken(r); ok {
			if uid, err := a.Verify(raw); err == nil {
				r = r.WithContext(WithUserID(r.Context(), uid))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, raw, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// WithUserID returns a context carrying uid.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, uidCtxKey, uid)
}

// UserID returns the authenticated uid, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	uid, _ := ctx.Value(uidCtxKey).(string)
	return uid
}
