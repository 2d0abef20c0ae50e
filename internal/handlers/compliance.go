package handlers

import (
	"net/http"

	"fleet/internal/repository"
	"fleet/internal/status"
	"fleet/models"

	"github.com/go-chi/chi/v5"
)

// Audit reports

type createAuditRequest struct {
	ShipID string `json:"shipId"`
	models.AuditInput
}

func (h *Handler) CreateAuditHandler(w http.ResponseWriter, r *http.Request) {
	var req createAuditRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	p := principal(r)
	id, err := h.Repos.Audits.Create(r.Context(), p, req.ShipID, req.AuditInput)
	created(h, w, r, id, err, func(id string) (*models.AuditReport, error) {
		return h.Repos.Audits.Get(r.Context(), p, id)
	})
}

func (h *Handler) GetAuditsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reports, err := h.Repos.Audits.List(r.Context(), principal(r), repository.AuditFilter{
		ShipID: q.Get("shipId"),
		Type:   models.AuditType(q.Get("type")),
		Status: models.AuditStatus(q.Get("status")),
	})
	listed(h, w, r, reports, err)
}

func (h *Handler) GetAuditHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.Repos.Audits.Get(r.Context(), principal(r), chi.URLParam(r, "auditId"))
	found(h, w, r, "audit report", report, err)
}

func (h *Handler) UpdateAuditHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.AuditPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	report, err := h.Repos.Audits.Update(r.Context(), principal(r), chi.URLParam(r, "auditId"), patch)
	found(h, w, r, "audit report", report, err)
}

func (h *Handler) AddFindingHandler(w http.ResponseWriter, r *http.Request) {
	var in models.FindingInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	report, err := h.Repos.Audits.AddFinding(r.Context(), principal(r), chi.URLParam(r, "auditId"), in)
	found(h, w, r, "audit report", report, err)
}

func (h *Handler) CloseFindingHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.Repos.Audits.CloseFinding(r.Context(), principal(r), chi.URLParam(r, "auditId"), chi.URLParam(r, "findingId"))
	found(h, w, r, "audit report", report, err)
}

func (h *Handler) DeleteAuditHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.Audits.Delete(r.Context(), principal(r), chi.URLParam(r, "auditId")))
}

func (h *Handler) AuditStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.Audits.Stats(r.Context(), principal(r), r.URL.Query().Get("shipId"))
	h.stats(w, r, st, err)
}

// Legal documents

func (h *Handler) CreateLegalDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var in models.LegalInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	p := principal(r)
	id, err := h.Repos.LegalDocuments.Create(r.Context(), p, in)
	created(h, w, r, id, err, func(id string) (*models.LegalDocument, error) {
		return h.Repos.LegalDocuments.Get(r.Context(), p, id)
	})
}

func (h *Handler) GetLegalDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docs, err := h.Repos.LegalDocuments.List(r.Context(), principal(r), repository.LegalDocumentFilter{
		Type:   models.LegalType(q.Get("type")),
		Status: models.LegalStatus(q.Get("status")),
		Expiry: status.ExpiryBadge(q.Get("expiry")),
	})
	listed(h, w, r, docs, err)
}

func (h *Handler) GetLegalDocumentHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Repos.LegalDocuments.Get(r.Context(), principal(r), chi.URLParam(r, "documentId"))
	found(h, w, r, "legal document", doc, err)
}

func (h *Handler) UpdateLegalDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.LegalPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	doc, err := h.Repos.LegalDocuments.Update(r.Context(), principal(r), chi.URLParam(r, "documentId"), patch)
	found(h, w, r, "legal document", doc, err)
}

func (h *Handler) DeleteLegalDocumentHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.LegalDocuments.Delete(r.Context(), principal(r), chi.URLParam(r, "documentId")))
}

func (h *Handler) LegalStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.LegalDocuments.Stats(r.Context(), principal(r))
	h.stats(w, r, st, err)
}
