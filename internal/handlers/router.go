package handlers

import (
	"net/http"
	"time"

	"fleet/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterConfig carries the cross-cutting pieces NewRouter wires around the
// handlers. Nil fields are skipped.
type RouterConfig struct {
	Authenticate func(http.Handler) http.Handler
	Metrics      *metrics.Recorder
}

// NewRouter mounts the API under /api. /api/ping and /metrics are public.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Log))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		r.Group(func(r chi.Router) {
			if cfg.Authenticate != nil {
				r.Use(cfg.Authenticate)
			}
			h.routes(r)
		})
	})
	return r
}

func (h *Handler) routes(r chi.Router) {
	r.Post("/attachments", h.UploadAttachmentHandler)

	r.Route("/ships", func(r chi.Router) {
		r.Post("/", h.CreateShipHandler)
		r.Get("/", h.GetShipsHandler)
		r.Get("/stats", h.ShipStatsHandler)

		r.Route("/{shipId}", func(r chi.Router) {
			r.Get("/", h.GetShipHandler)
			r.Patch("/", h.UpdateShipHandler)
			r.Delete("/", h.DeleteShipHandler)

			r.Route("/crew", func(r chi.Router) {
				r.Post("/", h.CreateCrewHandler)
				r.Get("/", h.GetCrewHandler)
				r.Get("/stats", h.CrewStatsHandler)
				r.Get("/{crewId}", h.GetCrewMemberHandler)
				r.Patch("/{crewId}", h.UpdateCrewMemberHandler)
				r.Delete("/{crewId}", h.DeleteCrewMemberHandler)
			})
			r.Route("/certificates", func(r chi.Router) {
				r.Post("/", h.CreateCertificateHandler)
				r.Get("/", h.GetCertificatesHandler)
				r.Get("/stats", h.CertificateStatsHandler)
				r.Get("/{certificateId}", h.GetCertificateHandler)
				r.Patch("/{certificateId}", h.UpdateCertificateHandler)
				r.Delete("/{certificateId}", h.DeleteCertificateHandler)
			})
			r.Route("/drawings", func(r chi.Router) {
				r.Post("/", h.CreateDrawingHandler)
				r.Get("/", h.GetDrawingsHandler)
				r.Get("/{drawingId}", h.GetDrawingHandler)
				r.Patch("/{drawingId}", h.UpdateDrawingHandler)
				r.Delete("/{drawingId}", h.DeleteDrawingHandler)
			})
			r.Route("/inventory", func(r chi.Router) {
				r.Post("/", h.CreateInventoryItemHandler)
				r.Get("/", h.GetInventoryHandler)
				r.Get("/stats", h.InventoryStatsHandler)
				r.Get("/{itemId}", h.GetInventoryItemHandler)
				r.Patch("/{itemId}", h.UpdateInventoryItemHandler)
				r.Post("/{itemId}/stock", h.AdjustStockHandler)
				r.Delete("/{itemId}", h.DeleteInventoryItemHandler)
			})
			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", h.CreateTaskHandler)
				r.Get("/", h.GetTasksHandler)
				r.Get("/stats", h.TaskStatsHandler)
				r.Get("/{taskId}", h.GetTaskHandler)
				r.Patch("/{taskId}", h.UpdateTaskHandler)
				r.Post("/{taskId}/complete", h.CompleteTaskHandler)
				r.Delete("/{taskId}", h.DeleteTaskHandler)
			})
		})
	})

	r.Route("/requisitions", func(r chi.Router) {
		r.Post("/", h.CreateRequisitionHandler)
		r.Get("/", h.GetRequisitionsHandler)
		r.Get("/stats", h.RequisitionStatsHandler)
		r.Get("/{requisitionId}", h.GetRequisitionHandler)
		r.Patch("/{requisitionId}", h.UpdateRequisitionHandler)
		r.Delete("/{requisitionId}", h.DeleteRequisitionHandler)
		r.Post("/{requisitionId}/submit", h.SubmitRequisitionHandler)
		r.Post("/{requisitionId}/approve", h.ApproveRequisitionHandler)
		r.Post("/{requisitionId}/reject", h.RejectRequisitionHandler)
		r.Post("/{requisitionId}/cancel", h.CancelRequisitionHandler)
		r.Post("/{requisitionId}/complete", h.CompleteRequisitionHandler)
	})

	r.Route("/purchase-orders", func(r chi.Router) {
		r.Post("/", h.CreatePurchaseOrderHandler)
		r.Get("/", h.GetPurchaseOrdersHandler)
		r.Get("/stats", h.PurchaseOrderStatsHandler)
		r.Get("/{poId}", h.GetPurchaseOrderHandler)
		r.Patch("/{poId}", h.UpdatePurchaseOrderHandler)
		r.Delete("/{poId}", h.DeletePurchaseOrderHandler)
		r.Post("/{poId}/transition", h.TransitionPurchaseOrderHandler)
		r.Post("/{poId}/deliveries", h.RecordDeliveryHandler)
	})

	r.Route("/work-orders", func(r chi.Router) {
		r.Post("/", h.CreateWorkOrderHandler)
		r.Get("/", h.GetWorkOrdersHandler)
		r.Get("/stats", h.WorkOrderStatsHandler)
		r.Get("/{woId}", h.GetWorkOrderHandler)
		r.Patch("/{woId}", h.UpdateWorkOrderHandler)
		r.Delete("/{woId}", h.DeleteWorkOrderHandler)
		r.Post("/{woId}/transition", h.TransitionWorkOrderHandler)
		r.Post("/{woId}/hold", h.HoldWorkOrderHandler)
		r.Post("/{woId}/resume", h.ResumeWorkOrderHandler)
	})

	r.Route("/vendors", func(r chi.Router) {
		r.Post("/", h.CreateVendorHandler)
		r.Get("/", h.GetVendorsHandler)
		r.Get("/stats", h.VendorStatsHandler)
		r.Get("/{vendorId}", h.GetVendorHandler)
		r.Patch("/{vendorId}", h.UpdateVendorHandler)
		r.Delete("/{vendorId}", h.DeleteVendorHandler)
	})

	r.Route("/vendor-quotes", func(r chi.Router) {
		r.Post("/", h.CreateQuoteHandler)
		r.Get("/", h.GetQuotesHandler)
		r.Get("/stats", h.QuoteStatsHandler)
		r.Get("/{quoteId}", h.GetQuoteHandler)
		r.Patch("/{quoteId}", h.UpdateQuoteHandler)
		r.Delete("/{quoteId}", h.DeleteQuoteHandler)
		r.Post("/{quoteId}/accept", h.AcceptQuoteHandler)
		r.Post("/{quoteId}/reject", h.RejectQuoteHandler)
	})

	r.Route("/audits", func(r chi.Router) {
		r.Post("/", h.CreateAuditHandler)
		r.Get("/", h.GetAuditsHandler)
		r.Get("/stats", h.AuditStatsHandler)
		r.Get("/{auditId}", h.GetAuditHandler)
		r.Patch("/{auditId}", h.UpdateAuditHandler)
		r.Delete("/{auditId}", h.DeleteAuditHandler)
		r.Post("/{auditId}/findings", h.AddFindingHandler)
		r.Post("/{auditId}/findings/{findingId}/close", h.CloseFindingHandler)
	})

	r.Route("/legal-documents", func(r chi.Router) {
		r.Post("/", h.CreateLegalDocumentHandler)
		r.Get("/", h.GetLegalDocumentsHandler)
		r.Get("/stats", h.LegalStatsHandler)
		r.Get("/{documentId}", h.GetLegalDocumentHandler)
		r.Patch("/{documentId}", h.UpdateLegalDocumentHandler)
		r.Delete("/{documentId}", h.DeleteLegalDocumentHandler)
	})
}

// RequestLogger logs one line per request with its status and latency.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
