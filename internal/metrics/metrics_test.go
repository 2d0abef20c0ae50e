package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	r := New()
	ctx := context.Background()
	r.Observe(ctx, "ships.create", true, 10*time.Millisecond)
	r.Observe(ctx, "ships.create", false, 5*time.Millisecond)
	r.Observe(ctx, "ships.create", true, time.Millisecond)
	r.Observe(ctx, "", true, time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("ships.create", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("ships.create", "error")))
	require.Equal(t, 2, testutil.CollectAndCount(r.operations), "empty operations are dropped")
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := New()
	router := chi.NewRouter()
	router.Use(r.Middleware)
	router.Get("/ships/{shipId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Handle("/metrics", r.Handler())

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ships/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	require.Equal(t, 2.0, testutil.ToFloat64(r.requests.WithLabelValues("GET", "/ships/{shipId}", "404")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), `fleet_http_requests_total{code="404",method="GET",route="/ships/{shipId}"} 2`))
}
