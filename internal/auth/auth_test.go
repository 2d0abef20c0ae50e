package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleet/internal/permissions"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var principal = permissions.Principal{UserID: "u-1", Role: permissions.Finance, CompanyID: "acme"}

func TestIssueAndParse(t *testing.T) {
	a := New("secret")
	token, err := a.Issue(principal, time.Hour)
	require.NoError(t, err)

	got, err := a.Parse(token)
	require.NoError(t, err)
	require.Equal(t, principal, got)

	_, err = New("other").Parse(token)
	require.Error(t, err)

	_, err = a.Issue(permissions.Principal{UserID: "u", Role: "captain", CompanyID: "acme"}, time.Hour)
	require.Error(t, err)
}

func TestParseRejectsExpiredTokens(t *testing.T) {
	a := New("secret")
	issued := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issued }
	token, err := a.Issue(principal, time.Minute)
	require.NoError(t, err)

	a.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = a.Parse(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsForeignAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             "owner",
		CompanyID:        "acme",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = New("secret").Parse(s)
	require.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	a := New("secret")
	var seen permissions.Principal
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		require.True(t, ok)
		seen = p
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := a.Issue(principal, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, principal, seen)
}
