package handlers

import (
	"net/http"

	"fleet/internal/repository"
	"fleet/internal/status"
	"fleet/models"

	"github.com/go-chi/chi/v5"
)

// Ships

func (h *Handler) CreateShipHandler(w http.ResponseWriter, r *http.Request) {
	var in models.ShipInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	p := principal(r)
	id, err := h.Repos.Ships.Create(r.Context(), p, in)
	created(h, w, r, id, err, func(id string) (*models.Ship, error) {
		return h.Repos.Ships.Get(r.Context(), p, id)
	})
}

func (h *Handler) GetShipsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ships, err := h.Repos.Ships.List(r.Context(), principal(r), repository.ShipFilter{
		Status: models.ShipStatus(q.Get("status")),
		Type:   q.Get("type"),
		Flag:   q.Get("flag"),
	})
	listed(h, w, r, ships, err)
}

func (h *Handler) GetShipHandler(w http.ResponseWriter, r *http.Request) {
	ship, err := h.Repos.Ships.Get(r.Context(), principal(r), chi.URLParam(r, "shipId"))
	found(h, w, r, "ship", ship, err)
}

func (h *Handler) UpdateShipHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.ShipPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	ship, err := h.Repos.Ships.Update(r.Context(), principal(r), chi.URLParam(r, "shipId"), patch)
	found(h, w, r, "ship", ship, err)
}

func (h *Handler) DeleteShipHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.Ships.Delete(r.Context(), principal(r), chi.URLParam(r, "shipId")))
}

func (h *Handler) ShipStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.Ships.Stats(r.Context(), principal(r))
	h.stats(w, r, st, err)
}

// Crew

func (h *Handler) CreateCrewHandler(w http.ResponseWriter, r *http.Request) {
	var in models.CrewInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	p, shipID := principal(r), chi.URLParam(r, "shipId")
	id, err := h.Repos.Crew.Create(r.Context(), p, shipID, in)
	created(h, w, r, id, err, func(id string) (*models.CrewMember, error) {
		return h.Repos.Crew.Get(r.Context(), p, shipID, id)
	})
}

func (h *Handler) GetCrewHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	crew, err := h.Repos.Crew.List(r.Context(), principal(r), chi.URLParam(r, "shipId"), repository.CrewFilter{
		Department: models.Department(q.Get("department")),
		Status:     models.CrewStatus(q.Get("status")),
		Rank:       q.Get("rank"),
	})
	listed(h, w, r, crew, err)
}

func (h *Handler) GetCrewMemberHandler(w http.ResponseWriter, r *http.Request) {
	member, err := h.Repos.Crew.Get(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "crewId"))
	found(h, w, r, "crew member", member, err)
}

func (h *Handler) UpdateCrewMemberHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.CrewPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	member, err := h.Repos.Crew.Update(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "crewId"), patch)
	found(h, w, r, "crew member", member, err)
}

func (h *Handler) DeleteCrewMemberHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.Crew.Delete(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "crewId")))
}

func (h *Handler) CrewStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.Crew.Stats(r.Context(), principal(r), chi.URLParam(r, "shipId"))
	h.stats(w, r, st, err)
}

// Certificates

func (h *Handler) CreateCertificateHandler(w http.ResponseWriter, r *http.Request) {
	var in models.CertificateInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	p, shipID := principal(r), chi.URLParam(r, "shipId")
	id, err := h.Repos.Certificates.Create(r.Context(), p, shipID, in)
	created(h, w, r, id, err, func(id string) (*models.Certificate, error) {
		return h.Repos.Certificates.Get(r.Context(), p, shipID, id)
	})
}

func (h *Handler) GetCertificatesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	certs, err := h.Repos.Certificates.List(r.Context(), principal(r), chi.URLParam(r, "shipId"), repository.CertificateFilter{
		Type:   q.Get("type"),
		Status: status.CertificateStatus(q.Get("status")),
	})
	listed(h, w, r, certs, err)
}

func (h *Handler) GetCertificateHandler(w http.ResponseWriter, r *http.Request) {
	cert, err := h.Repos.Certificates.Get(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "certificateId"))
	found(h, w, r, "certificate", cert, err)
}

func (h *Handler) UpdateCertificateHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.CertificatePatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	cert, err := h.Repos.Certificates.Update(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "certificateId"), patch)
	found(h, w, r, "certificate", cert, err)
}

func (h *Handler) DeleteCertificateHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.Certificates.Delete(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "certificateId")))
}

func (h *Handler) CertificateStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.Certificates.Stats(r.Context(), principal(r), chi.URLParam(r, "shipId"))
	h.stats(w, r, st, err)
}

// Drawings

func (h *Handler) CreateDrawingHandler(w http.ResponseWriter, r *http.Request) {
	var in models.DrawingInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	p, shipID := principal(r), chi.URLParam(r, "shipId")
	id, err := h.Repos.Drawings.Create(r.Context(), p, shipID, in)
	created(h, w, r, id, err, func(id string) (*models.Drawing, error) {
		return h.Repos.Drawings.Get(r.Context(), p, shipID, id)
	})
}

func (h *Handler) GetDrawingsHandler(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Repos.Drawings.List(r.Context(), principal(r), chi.URLParam(r, "shipId"), repository.DrawingFilter{
		Category: r.URL.Query().Get("category"),
	})
	listed(h, w, r, ds, err)
}

func (h *Handler) GetDrawingHandler(w http.ResponseWriter, r *http.Request) {
	d, err := h.Repos.Drawings.Get(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "drawingId"))
	found(h, w, r, "drawing", d, err)
}

func (h *Handler) UpdateDrawingHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.DrawingPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	d, err := h.Repos.Drawings.Update(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "drawingId"), patch)
	found(h, w, r, "drawing", d, err)
}

func (h *Handler) DeleteDrawingHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.Drawings.Delete(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "drawingId")))
}

// Inventory

func (h *Handler) CreateInventoryItemHandler(w http.ResponseWriter, r *http.Request) {
	var in models.InventoryInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	p, shipID := principal(r), chi.URLParam(r, "shipId")
	id, err := h.Repos.Inventory.Create(r.Context(), p, shipID, in)
	created(h, w, r, id, err, func(id string) (*models.InventoryItem, error) {
		return h.Repos.Inventory.Get(r.Context(), p, shipID, id)
	})
}

func (h *Handler) GetInventoryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Repos.Inventory.List(r.Context(), principal(r), chi.URLParam(r, "shipId"), repository.InventoryFilter{
		Category: q.Get("category"),
		Status:   status.StockStatus(q.Get("status")),
	})
	listed(h, w, r, items, err)
}

func (h *Handler) GetInventoryItemHandler(w http.ResponseWriter, r *http.Request) {
	item, err := h.Repos.Inventory.Get(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "itemId"))
	found(h, w, r, "inventory item", item, err)
}

func (h *Handler) UpdateInventoryItemHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.InventoryPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	item, err := h.Repos.Inventory.Update(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "itemId"), patch)
	found(h, w, r, "inventory item", item, err)
}

type stockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// AdjustStockHandler handles POST /ships/{shipId}/inventory/{itemId}/stock.
func (h *Handler) AdjustStockHandler(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	item, err := h.Repos.Inventory.AdjustStock(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "itemId"), req.Delta, req.Reason)
	found(h, w, r, "inventory item", item, err)
}

func (h *Handler) DeleteInventoryItemHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.Inventory.Delete(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "itemId")))
}

func (h *Handler) InventoryStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.Inventory.Stats(r.Context(), principal(r), chi.URLParam(r, "shipId"))
	h.stats(w, r, st, err)
}

// Tasks

func (h *Handler) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var in models.TaskInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	p, shipID := principal(r), chi.URLParam(r, "shipId")
	id, err := h.Repos.Tasks.Create(r.Context(), p, shipID, in)
	created(h, w, r, id, err, func(id string) (*models.Task, error) {
		return h.Repos.Tasks.Get(r.Context(), p, shipID, id)
	})
}

func (h *Handler) GetTasksHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.Repos.Tasks.List(r.Context(), principal(r), chi.URLParam(r, "shipId"), repository.TaskFilter{
		Status:     models.TaskStatus(q.Get("status")),
		Priority:   models.Priority(q.Get("priority")),
		AssignedTo: q.Get("assignedTo"),
	})
	listed(h, w, r, tasks, err)
}

func (h *Handler) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, err := h.Repos.Tasks.Get(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "taskId"))
	found(h, w, r, "task", task, err)
}

func (h *Handler) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.TaskPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	task, err := h.Repos.Tasks.Update(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "taskId"), patch)
	found(h, w, r, "task", task, err)
}

func (h *Handler) CompleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, err := h.Repos.Tasks.Complete(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "taskId"))
	found(h, w, r, "task", task, err)
}

func (h *Handler) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.Repos.Tasks.Delete(r.Context(), principal(r), chi.URLParam(r, "shipId"), chi.URLParam(r, "taskId")))
}

func (h *Handler) TaskStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.Repos.Tasks.Stats(r.Context(), principal(r), chi.URLParam(r, "shipId"))
	h.stats(w, r, st, err)
}
