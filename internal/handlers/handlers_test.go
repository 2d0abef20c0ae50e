package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fleet/db"
	"fleet/db/dbtest"
	"fleet/internal/auth"
	"fleet/internal/blob"
	"fleet/internal/handlers"
	"fleet/internal/handlers/testutils"
	"fleet/internal/metrics"
	"fleet/internal/permissions"
	"fleet/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func as(user string, role permissions.Role) permissions.Principal {
	return permissions.Principal{UserID: user, Role: role, CompanyID: "acme"}
}

var (
	procurement = as("pete", permissions.Procurement)
	finance     = as("fiona", permissions.Finance)
	viewer      = as("vic", permissions.Viewer)
)

func newHandler(t *testing.T, opts ...repository.Option) (*handlers.Handler, *blob.MemoryStore) {
	t.Helper()
	store := dbtest.NewStorage(t)
	files := blob.NewMemoryStore("https://files.example")
	opts = append(opts, repository.WithClock(func() time.Time { return now }))
	repos := repository.New(store, opts...)
	return handlers.NewHandler(repos, files, zap.NewNop()), files
}

const shipBody = `{"name":"Northern Star","imoNumber":"9321483","type":"bulk_carrier","flag":"MT"}`

func createShip(t *testing.T, h *handlers.Handler, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ships", strings.NewReader(body))
	req = testutils.AsPrincipal(req, procurement)
	w := httptest.NewRecorder()

	h.CreateShipHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var ship map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&ship))
	return ship
}

func TestPingHandler(t *testing.T) {
	h, _ := newHandler(t)
	w := httptest.NewRecorder()

	h.PingHandler(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}

func TestCreateAndGetShipHandler(t *testing.T) {
	h, _ := newHandler(t)
	ship := createShip(t, h, shipBody)
	require.Equal(t, "Northern Star", ship["name"])
	require.Equal(t, "active", ship["status"])
	require.Equal(t, "acme", ship["companyId"])
	id, _ := ship["id"].(string)
	require.NotEmpty(t, id)

	req := httptest.NewRequest(http.MethodGet, "/api/ships/"+id, nil)
	req = testutils.WithChiURLParams(req, map[string]string{"shipId": id})
	req = testutils.AsPrincipal(req, viewer)
	w := httptest.NewRecorder()

	h.GetShipHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "Northern Star")
}

func TestCreateShipHandlerRejectsBadInput(t *testing.T) {
	h, _ := newHandler(t)

	tests := []struct {
		name string
		body string
		as   permissions.Principal
		code int
		want string
	}{
		{"invalid json", `{"name":`, procurement, http.StatusBadRequest, "Invalid JSON format"},
		{"missing fields", `{"flag":"MT"}`, procurement, http.StatusBadRequest, "name"},
		{"viewer", shipBody, viewer, http.StatusForbidden, "Access Denied"},
		{"anonymous", shipBody, permissions.Principal{}, http.StatusForbidden, "Access Denied"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/ships", strings.NewReader(tc.body))
			req = testutils.AsPrincipal(req, tc.as)
			w := httptest.NewRecorder()

			h.CreateShipHandler(w, req)

			require.Equal(t, tc.code, w.Code)
			require.Contains(t, w.Body.String(), tc.want)
		})
	}
}

func TestGetShipHandlerNotFound(t *testing.T) {
	h, _ := newHandler(t)
	ship := createShip(t, h, shipBody)

	req := httptest.NewRequest(http.MethodGet, "/api/ships/missing", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"shipId": "missing"})
	req = testutils.AsPrincipal(req, viewer)
	w := httptest.NewRecorder()
	h.GetShipHandler(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	// another company's ship reads as absent
	id := ship["id"].(string)
	req = httptest.NewRequest(http.MethodGet, "/api/ships/"+id, nil)
	req = testutils.WithChiURLParams(req, map[string]string{"shipId": id})
	req = testutils.AsPrincipal(req, permissions.Principal{UserID: "eve", Role: permissions.Owner, CompanyID: "globex"})
	w = httptest.NewRecorder()
	h.GetShipHandler(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateShipHandlerStaleVersion(t *testing.T) {
	h, _ := newHandler(t)
	id := createShip(t, h, shipBody)["id"].(string)

	patch := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/api/ships/"+id, strings.NewReader(body))
		req = testutils.WithChiURLParams(req, map[string]string{"shipId": id})
		req = testutils.AsPrincipal(req, procurement)
		w := httptest.NewRecorder()
		h.UpdateShipHandler(w, req)
		return w
	}

	w := patch(`{"version":1,"homePort":"Valletta"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"homePort":"Valletta"`)
	require.Contains(t, w.Body.String(), `"version":2`)

	w = patch(`{"version":1,"homePort":"Piraeus"}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestGetShipsHandlerPaginates(t *testing.T) {
	h, _ := newHandler(t)
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		createShip(t, h, strings.Replace(shipBody, "Northern Star", name, 1))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ships?limit=2&offset=1", nil)
	req = testutils.AsPrincipal(req, viewer)
	w := httptest.NewRecorder()

	h.GetShipsHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "3", w.Header().Get("X-Total-Count"))
	var ships []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ships))
	require.Len(t, ships, 2)

	req = httptest.NewRequest(http.MethodGet, "/api/ships?offset=10", nil)
	req = testutils.AsPrincipal(req, viewer)
	w = httptest.NewRecorder()
	h.GetShipsHandler(w, req)
	require.Equal(t, "[]\n", w.Body.String())
}

func TestDeleteShipHandler(t *testing.T) {
	h, _ := newHandler(t)
	id := createShip(t, h, shipBody)["id"].(string)

	del := func(p permissions.Principal) int {
		req := httptest.NewRequest(http.MethodDelete, "/api/ships/"+id, nil)
		req = testutils.WithChiURLParams(req, map[string]string{"shipId": id})
		req = testutils.AsPrincipal(req, p)
		w := httptest.NewRecorder()
		h.DeleteShipHandler(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusForbidden, del(procurement))
	require.Equal(t, http.StatusNoContent, del(as("olga", permissions.Owner)))
	require.Equal(t, http.StatusNotFound, del(as("olga", permissions.Owner)))
}

func TestAdjustStockHandler(t *testing.T) {
	h, _ := newHandler(t)
	shipID := createShip(t, h, shipBody)["id"].(string)

	req := httptest.NewRequest(http.MethodPost, "/api/ships/"+shipID+"/inventory",
		strings.NewReader(`{"name":"Fuel filter","category":"engine","unit":"pcs","currentStock":1,"minimumStock":2,"reorderPoint":4,"unitPrice":"12.5"}`))
	req = testutils.WithChiURLParams(req, map[string]string{"shipId": shipID})
	req = testutils.AsPrincipal(req, procurement)
	w := httptest.NewRecorder()
	h.CreateInventoryItemHandler(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), `"status":"low_stock"`)

	var item struct{ ID string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))

	adjust := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/stock", strings.NewReader(body))
		req = testutils.WithChiURLParams(req, map[string]string{"shipId": shipID, "itemId": item.ID})
		req = testutils.AsPrincipal(req, procurement)
		w := httptest.NewRecorder()
		h.AdjustStockHandler(w, req)
		return w
	}

	w = adjust(`{"delta":9,"reason":"delivery"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"currentStock":10`)
	require.Contains(t, w.Body.String(), `"status":"in_stock"`)

	w = adjust(`{"delta":-11,"reason":"consumed"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAttachmentHandler(t *testing.T) {
	h, files := newHandler(t)

	upload := func(p permissions.Principal, kind string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("kind", kind))
		part, err := mw.CreateFormFile("file", "class cert.pdf")
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.7"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/attachments", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req = testutils.AsPrincipal(req, p)
		w := httptest.NewRecorder()
		h.UploadAttachmentHandler(w, req)
		return w
	}

	w := upload(procurement, "certificates")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res struct{ Key, URL string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, strings.HasPrefix(res.Key, "acme/certificates/"), res.Key)
	require.True(t, strings.HasSuffix(res.Key, "-class_cert.pdf"), res.Key)
	require.Equal(t, "https://files.example/"+res.Key, res.URL)

	data, _, ok := files.Object(res.Key)
	require.True(t, ok)
	require.Equal(t, "%PDF-1.7", string(data))

	require.Equal(t, http.StatusForbidden, upload(viewer, "certificates").Code)
	require.Equal(t, http.StatusBadRequest, upload(procurement, "../etc").Code)
}

// brokenStore fails every call.
type brokenStore struct{}

var errDown = errors.New("connection refused")

func (brokenStore) InsertDocument(context.Context, *db.Document) error { return errDown }
func (brokenStore) GetDocument(context.Context, string, string) (*db.Document, error) {
	return nil, errDown
}
func (brokenStore) ListDocuments(context.Context, db.Query) ([]db.Document, error) {
	return nil, errDown
}
func (brokenStore) UpdateDocument(context.Context, *db.Document, int64) error { return errDown }
func (brokenStore) DeleteDocument(context.Context, string, string) error    { return errDown }
func (brokenStore) NextSequence(context.Context, string, string) (int64, error) {
	return 0, errDown
}

func TestStoreFailureIsNotLeaked(t *testing.T) {
	h := handlers.NewHandler(repository.New(brokenStore{}), blob.NewMemoryStore(""), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/ships", nil)
	req = testutils.AsPrincipal(req, viewer)
	w := httptest.NewRecorder()

	h.GetShipsHandler(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "connection refused")
}

// Router level: bearer tokens, lifecycle routes and request metrics.

func TestRequisitionLifecycleThroughRouter(t *testing.T) {
	rec := metrics.New()
	h, _ := newHandler(t, repository.WithMetrics(rec))
	authn := auth.New("test-secret")
	srv := httptest.NewServer(handlers.NewRouter(h, handlers.RouterConfig{
		Authenticate: authn.Middleware,
		Metrics:      rec,
	}))
	defer srv.Close()

	token := func(p permissions.Principal) string {
		tok, err := authn.Issue(p, time.Hour)
		require.NoError(t, err)
		return tok
	}
	call := func(method, path, tok, body string) (int, string) {
		req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		b, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return res.StatusCode, string(b)
	}

	code, body := call(http.MethodGet, "/api/ping", "", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body)

	code, _ = call(http.MethodGet, "/api/ships", "", "")
	require.Equal(t, http.StatusUnauthorized, code)

	code, body = call(http.MethodPost, "/api/ships", token(procurement), shipBody)
	require.Equal(t, http.StatusCreated, code, body)
	var ship struct{ ID string }
	require.NoError(t, json.Unmarshal([]byte(body), &ship))

	code, body = call(http.MethodPost, "/api/requisitions", token(procurement), `{
		"shipId": "`+ship.ID+`",
		"title": "Engine spares",
		"currency": "EUR",
		"items": [
			{"name": "Fuel filter", "quantity": 4, "unit": "pcs", "unitPrice": "12.50"},
			{"name": "Gasket set", "quantity": 2, "unit": "set", "unitPrice": "80"}
		]
	}`)
	require.Equal(t, http.StatusCreated, code, body)
	var req struct {
		ID        string `json:"id"`
		PRNumber  string `json:"prNumber"`
		Status    string `json:"status"`
		TotalCost string `json:"totalCost"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.Equal(t, "PR-202610-000001", req.PRNumber)
	require.Equal(t, "pending", req.Status)
	require.Equal(t, "210", req.TotalCost)

	approve := "/api/requisitions/" + req.ID + "/approve"
	code, _ = call(http.MethodPost, approve, token(viewer), "")
	require.Equal(t, http.StatusForbidden, code)

	code, body = call(http.MethodPost, approve, token(finance), `{"comment":"ok"}`)
	require.Equal(t, http.StatusOK, code, body)
	require.Contains(t, body, `"status":"approved"`)
	require.Contains(t, body, `"version":2`)

	code, body = call(http.MethodPost, approve, token(finance), "")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"version":2`, "re-approval changes nothing")

	code, _ = call(http.MethodPost, "/api/requisitions/"+req.ID+"/reject", token(finance), `{"reason":"too late"}`)
	require.Equal(t, http.StatusConflict, code)

	code, body = call(http.MethodGet, "/api/requisitions/stats", token(viewer), "")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"approved":1`)

	_, body = call(http.MethodGet, "/metrics", "", "")
	require.Contains(t, body, `fleet_http_requests_total{code="403",method="POST",route="/api/requisitions/{requisitionId}/approve"} 1`)
	require.Contains(t, body, `fleet_repository_operations_total{operation="requisitions.approve",result="success"} 2`)
}
