package testutils

import (
	"context"
	"net/http"

	"fleet/internal/auth"
	"fleet/internal/permissions"

	"github.com/go-chi/chi/v5"
)

// WithChiURLParams puts path parameters into the chi route context of req.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for k, v := range params {
		chiCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

// AsPrincipal attaches p to req the way the auth middleware does.
func AsPrincipal(req *http.Request, p permissions.Principal) *http.Request {
	return req.WithContext(auth.WithPrincipal(req.Context(), p))
}
