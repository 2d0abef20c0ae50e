package handlers

import (
	"net/http"

	"fleet/internal/repository"
	"fleet/models"

	"github.com/go-chi/chi/v5"
)

// Vendors

func (h *Handler) CreateVendorHandler(w http.ResponseWriter, r *http.Request) {
	var in models.VendorInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	p := principal(r)
	id, err := h.Repos.Vendors.Create(r.Context(), p, in)
	created(h, w, r, id, err, func(id string) (*models.Vendor, error) {
		return h.Repos.Vendors.Get(r.Context(), p, id)
	})
}

func (h *Handler) GetVendorsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vendors, err := h.Repos.Vendors.List(r.Context(), principal(r), repository.VendorFilter{
		Status:   models.VendorStatus(q.Get("status")),
		Category: q.Get("category"),
	})
	listed(h, w, r, vendors, err)
}

func (h *Handler) GetVendorHandler(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.Repos.Vendors.Get(r.Context(), principal(r), chi.URLParam(r, "vendorId"))
	found(h, w, r, "vendor", vendor, err)
}

func (h *Handler) UpdateVendorHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.VendorPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	vendor, err := h.Repos.Vendors.Update(r.Context(), principal(r), chi.URLParam(r, "vendorId"), patch)
	found(h, w, r, "vendor", vendor, err)
}

func (h *Handler) DeleteVendorHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.Vendors.Delete(r.Context(), principal(r), chi.URLParam(r, "vendorId")))
}

func (h *Handler) VendorStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.Vendors.Stats(r.Context(), principal(r))
	h.stats(w, r, st, err)
}

// Vendor quotes

func (h *Handler) CreateQuoteHandler(w http.ResponseWriter, r *http.Request) {
	var in models.QuoteInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	p := principal(r)
	id, err := h.Repos.VendorQuotes.Create(r.Context(), p, in)
	created(h, w, r, id, err, func(id string) (*models.VendorQuote, error) {
		return h.Repos.VendorQuotes.Get(r.Context(), p, id)
	})
}

func (h *Handler) GetQuotesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quotes, err := h.Repos.VendorQuotes.List(r.Context(), principal(r), repository.VendorQuoteFilter{
		RequisitionID: q.Get("requisitionId"),
		VendorID:      q.Get("vendorId"),
		Status:        models.QuoteStatus(q.Get("status")),
	})
	listed(h, w, r, quotes, err)
}

func (h *Handler) GetQuoteHandler(w http.ResponseWriter, r *http.Request) {
	quote, err := h.Repos.VendorQuotes.Get(r.Context(), principal(r), chi.URLParam(r, "quoteId"))
	found(h, w, r, "vendor quote", quote, err)
}

func (h *Handler) UpdateQuoteHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.QuotePatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	quote, err := h.Repos.VendorQuotes.Update(r.Context(), principal(r), chi.URLParam(r, "quoteId"), patch)
	found(h, w, r, "vendor quote", quote, err)
}

// AcceptQuoteHandler accepts a quote; its pending siblings on the same
// requisition are rejected.
func (h *Handler) AcceptQuoteHandler(w http.ResponseWriter, r *http.Request) {
	quote, err := h.Repos.VendorQuotes.Accept(r.Context(), principal(r), chi.URLParam(r, "quoteId"))
	found(h, w, r, "vendor quote", quote, err)
}

func (h *Handler) RejectQuoteHandler(w http.ResponseWriter, r *http.Request) {
	quote, err := h.Repos.VendorQuotes.Reject(r.Context(), principal(r), chi.URLParam(r, "quoteId"))
	found(h, w, r, "vendor quote", quote, err)
}

func (h *Handler) DeleteQuoteHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.VendorQuotes.Delete(r.Context(), principal(r), chi.URLParam(r, "quoteId")))
}

func (h *Handler) QuoteStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.VendorQuotes.Stats(r.Context(), principal(r))
	h.stats(w, r, st, err)
}
