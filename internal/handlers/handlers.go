package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"fleet/internal/apperr"
	"fleet/internal/auth"
	"fleet/internal/blob"
	"fleet/internal/permissions"
	"fleet/internal/repository"

	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1048576

// Handler serves the fleet API over the repositories.
type Handler struct {
	Repos *repository.Repositories
	Blob  blob.Store
	Log   *zap.Logger
}

func NewHandler(repos *repository.Repositories, store blob.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Repos: repos, Blob: store, Log: log}
}

// PingHandler answers "ok" for liveness checks.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// principal returns the caller set by the auth middleware. A request without
// one gets the zero principal, which the permission gate rejects.
func principal(r *http.Request) permissions.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

// decodeJSON reads a size-limited JSON body into dst. An empty body is
// accepted when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	defer r.Body.Close()

	if len(body) == 0 && optional {
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fail maps repository errors to status codes. Store failures are logged and
// answered with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case apperr.KindAuthorization:
		http.Error(w, "Access Denied", http.StatusForbidden)
	case apperr.KindNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	case apperr.KindConflict:
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// found writes v, or 404 when the repository reported it absent.
func found[T any](h *Handler, w http.ResponseWriter, r *http.Request, what string, v *T, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if v == nil {
		http.Error(w, what+" not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// created answers a create call with the stored entity.
func created[T any](h *Handler, w http.ResponseWriter, r *http.Request, id string, err error, get func(id string) (*T, error)) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := get(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// listed writes one page of items and the unpaged count in X-Total-Count.
func listed[T any](h *Handler, w http.ResponseWriter, r *http.Request, items []T, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	writeJSON(w, http.StatusOK, paginate(items, parsePaginationParams(r)))
}

func (h *Handler) deleted(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
