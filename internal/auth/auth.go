// Package auth turns bearer tokens into permission principals at the HTTP
// edge. Nothing below the handlers reads the request context for identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleet/internal/permissions"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingToken = errors.New("authorization header missing")

// Claims is the token payload. The subject is the user id.
type Claims struct {
	Role      string `json:"role"`
	CompanyID string `json:"companyId"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 tokens with a shared secret.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for p that expires after ttl.
func (a *Authenticator) Issue(p permissions.Principal, ttl time.Duration) (string, error) {
	if _, err := permissions.ParseRole(string(p.Role)); err != nil {
		return "", err
	}
	now := a.now()
	claims := Claims{
		Role:      string(p.Role),
		CompanyID: p.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse verifies tokenString and returns its principal.
func (a *Authenticator) Parse(tokenString string) (permissions.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil {
		return permissions.Principal{}, err
	}
	role, err := permissions.ParseRole(claims.Role)
	if err != nil {
		return permissions.Principal{}, err
	}
	if claims.Subject == "" || claims.CompanyID == "" {
		return permissions.Principal{}, errors.New("token lacks subject or company")
	}
	return permissions.Principal{UserID: claims.Subject, Role: role, CompanyID: claims.CompanyID}, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// principal on the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		p, err := a.Parse(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p permissions.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored by Middleware.
func FromContext(ctx context.Context) (permissions.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(permissions.Principal)
	return p, ok
}
