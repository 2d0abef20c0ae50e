package handlers

import (
	"errors"
	"net/http"

	"fleet/internal/blob"
	"fleet/internal/permissions"

	"go.uber.org/zap"
)

// maxUploadBytes caps multipart attachment uploads.
const maxUploadBytes = 20 << 20

// attachmentKinds are the folders an upload may target.
var attachmentKinds = map[string]bool{
	"ships":           true,
	"crew":            true,
	"certificates":    true,
	"drawings":        true,
	"requisitions":    true,
	"purchase-orders": true,
	"work-orders":     true,
	"vendors":         true,
	"audits":          true,
	"legal-documents": true,
}

type attachmentResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// UploadAttachmentHandler handles POST /attachments: a multipart form with a
// "kind" field and a "file" part. It answers with the URL to store on the
// entity.
func (h *Handler) UploadAttachmentHandler(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if err := permissions.Check(p, permissions.Create, permissions.Attachments); err != nil {
		h.fail(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	kind := r.FormValue("kind")
	if !attachmentKinds[kind] {
		http.Error(w, "Invalid kind", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	key := blob.Key(p.CompanyID, kind, header.Filename)
	url, err := h.Blob.Put(r.Context(), key, file, header.Header.Get("Content-Type"))
	if err != nil {
		h.Log.Error("attachment upload failed", zap.String("key", key), zap.Error(err))
		http.Error(w, "Failed to store attachment", http.StatusInternalServerError)
		return
	}
	h.Log.Debug("attachment stored", zap.String("key", key), zap.Int64("size", header.Size))
	writeJSON(w, http.StatusCreated, attachmentResponse{Key: key, URL: url})
}
