package handlers

import (
	"net/http"
	"strconv"

	"fleet/internal/repository"
	"fleet/internal/workflow"
	"fleet/models"

	"github.com/go-chi/chi/v5"
)

// asDraft reads the ?draft= flag of create requests.
func asDraft(r *http.Request) bool {
	draft, _ := strconv.ParseBool(r.URL.Query().Get("draft"))
	return draft
}

type noteRequest struct {
	Comment string `json:"comment"`
	Reason  string `json:"reason"`
}

// Requisitions

type createRequisitionRequest struct {
	ShipID string `json:"shipId"`
	models.RequisitionInput
}

// CreateRequisitionHandler handles POST /requisitions. ?draft=true stores a
// draft instead of submitting for approval.
func (h *Handler) CreateRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	var req createRequisitionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	p := principal(r)
	id, err := h.Repos.Requisitions.Create(r.Context(), p, req.ShipID, req.RequisitionInput, asDraft(r))
	created(h, w, r, id, err, func(id string) (*models.Requisition, error) {
		return h.Repos.Requisitions.Get(r.Context(), p, id)
	})
}

func (h *Handler) GetRequisitionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reqs, err := h.Repos.Requisitions.List(r.Context(), principal(r), repository.RequisitionFilter{
		ShipID:      q.Get("shipId"),
		Status:      workflow.State(q.Get("status")),
		Type:        models.RequisitionType(q.Get("type")),
		Priority:    models.Priority(q.Get("priority")),
		RequestedBy: q.Get("requestedBy"),
	})
	listed(h, w, r, reqs, err)
}

func (h *Handler) GetRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	req, err := h.Repos.Requisitions.Get(r.Context(), principal(r), chi.URLParam(r, "requisitionId"))
	found(h, w, r, "requisition", req, err)
}

func (h *Handler) UpdateRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.RequisitionPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	req, err := h.Repos.Requisitions.Update(r.Context(), principal(r), chi.URLParam(r, "requisitionId"), patch)
	found(h, w, r, "requisition", req, err)
}

func (h *Handler) SubmitRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	req, err := h.Repos.Requisitions.Submit(r.Context(), principal(r), chi.URLParam(r, "requisitionId"))
	found(h, w, r, "requisition", req, err)
}

func (h *Handler) ApproveRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	var note noteRequest
	if !decodeJSON(w, r, &note, true) {
		return
	}
	req, err := h.Repos.Requisitions.Approve(r.Context(), principal(r), chi.URLParam(r, "requisitionId"), note.Comment)
	found(h, w, r, "requisition", req, err)
}

func (h *Handler) RejectRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	var note noteRequest
	if !decodeJSON(w, r, &note, true) {
		return
	}
	req, err := h.Repos.Requisitions.Reject(r.Context(), principal(r), chi.URLParam(r, "requisitionId"), note.Reason)
	found(h, w, r, "requisition", req, err)
}

func (h *Handler) CancelRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	var note noteRequest
	if !decodeJSON(w, r, &note, true) {
		return
	}
	req, err := h.Repos.Requisitions.Cancel(r.Context(), principal(r), chi.URLParam(r, "requisitionId"), note.Reason)
	found(h, w, r, "requisition", req, err)
}

func (h *Handler) CompleteRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	var note noteRequest
	if !decodeJSON(w, r, &note, true) {
		return
	}
	req, err := h.Repos.Requisitions.Complete(r.Context(), principal(r), chi.URLParam(r, "requisitionId"), note.Comment)
	found(h, w, r, "requisition", req, err)
}

func (h *Handler) DeleteRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.Requisitions.Delete(r.Context(), principal(r), chi.URLParam(r, "requisitionId")))
}

func (h *Handler) RequisitionStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.Requisitions.Stats(r.Context(), principal(r), r.URL.Query().Get("shipId"))
	h.stats(w, r, st, err)
}

// Purchase orders

func (h *Handler) CreatePurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	var in models.POInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	p := principal(r)
	id, err := h.Repos.PurchaseOrders.Create(r.Context(), p, in, asDraft(r))
	created(h, w, r, id, err, func(id string) (*models.PurchaseOrder, error) {
		return h.Repos.PurchaseOrders.Get(r.Context(), p, id)
	})
}

func (h *Handler) GetPurchaseOrdersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.Repos.PurchaseOrders.List(r.Context(), principal(r), repository.PurchaseOrderFilter{
		ShipID:        q.Get("shipId"),
		Status:        workflow.State(q.Get("status")),
		VendorID:      q.Get("vendorId"),
		RequisitionID: q.Get("requisitionId"),
	})
	listed(h, w, r, orders, err)
}

func (h *Handler) GetPurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	po, err := h.Repos.PurchaseOrders.Get(r.Context(), principal(r), chi.URLParam(r, "poId"))
	found(h, w, r, "purchase order", po, err)
}

func (h *Handler) UpdatePurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.POPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	po, err := h.Repos.PurchaseOrders.Update(r.Context(), principal(r), chi.URLParam(r, "poId"), patch)
	found(h, w, r, "purchase order", po, err)
}

type transitionRequest struct {
	Status workflow.State `json:"status"`
}

func (h *Handler) TransitionPurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Status == "" {
		http.Error(w, "status is required", http.StatusBadRequest)
		return
	}
	po, err := h.Repos.PurchaseOrders.Transition(r.Context(), principal(r), chi.URLParam(r, "poId"), req.Status)
	found(h, w, r, "purchase order", po, err)
}

type deliveryRequest struct {
	Lines []models.DeliveryLine `json:"lines"`
	Note  string                `json:"note"`
}

// RecordDeliveryHandler handles POST /purchase-orders/{poId}/deliveries.
func (h *Handler) RecordDeliveryHandler(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	po, err := h.Repos.PurchaseOrders.RecordDelivery(r.Context(), principal(r), chi.URLParam(r, "poId"), req.Lines, req.Note)
	found(h, w, r, "purchase order", po, err)
}

func (h *Handler) DeletePurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.PurchaseOrders.Delete(r.Context(), principal(r), chi.URLParam(r, "poId")))
}

func (h *Handler) PurchaseOrderStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.PurchaseOrders.Stats(r.Context(), principal(r), r.URL.Query().Get("shipId"))
	h.stats(w, r, st, err)
}

// Work orders

type createWorkOrderRequest struct {
	ShipID string `json:"shipId"`
	models.WorkOrderInput
}

func (h *Handler) CreateWorkOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req createWorkOrderRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	p := principal(r)
	id, err := h.Repos.WorkOrders.Create(r.Context(), p, req.ShipID, req.WorkOrderInput, asDraft(r))
	created(h, w, r, id, err, func(id string) (*models.WorkOrder, error) {
		return h.Repos.WorkOrders.Get(r.Context(), p, id)
	})
}

func (h *Handler) GetWorkOrdersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.Repos.WorkOrders.List(r.Context(), principal(r), repository.WorkOrderFilter{
		ShipID:        q.Get("shipId"),
		Status:        workflow.State(q.Get("status")),
		Priority:      models.Priority(q.Get("priority")),
		RequisitionID: q.Get("requisitionId"),
		AssignedTo:    q.Get("assignedTo"),
	})
	listed(h, w, r, orders, err)
}

func (h *Handler) GetWorkOrderHandler(w http.ResponseWriter, r *http.Request) {
	wo, err := h.Repos.WorkOrders.Get(r.Context(), principal(r), chi.URLParam(r, "woId"))
	found(h, w, r, "work order", wo, err)
}

func (h *Handler) UpdateWorkOrderHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.WorkOrderPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	wo, err := h.Repos.WorkOrders.Update(r.Context(), principal(r), chi.URLParam(r, "woId"), patch)
	found(h, w, r, "work order", wo, err)
}

func (h *Handler) TransitionWorkOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Status == "" {
		http.Error(w, "status is required", http.StatusBadRequest)
		return
	}
	wo, err := h.Repos.WorkOrders.Transition(r.Context(), principal(r), chi.URLParam(r, "woId"), req.Status)
	found(h, w, r, "work order", wo, err)
}

func (h *Handler) HoldWorkOrderHandler(w http.ResponseWriter, r *http.Request) {
	var note noteRequest
	if !decodeJSON(w, r, &note, true) {
		return
	}
	wo, err := h.Repos.WorkOrders.Hold(r.Context(), principal(r), chi.URLParam(r, "woId"), note.Reason)
	found(h, w, r, "work order", wo, err)
}

func (h *Handler) ResumeWorkOrderHandler(w http.ResponseWriter, r *http.Request) {
	wo, err := h.Repos.WorkOrders.Resume(r.Context(), principal(r), chi.URLParam(r, "woId"))
	found(h, w, r, "work order", wo, err)
}

func (h *Handler) DeleteWorkOrderHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.WorkOrders.Delete(r.Context(), principal(r), chi.URLParam(r, "woId")))
}

func (h *Handler) WorkOrderStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.WorkOrders.Stats(r.Context(), principal(r), r.URL.Query().Get("shipId"))
	h.stats(w, r, st, err)
}
