// Package repository implements the tenant-scoped entity repositories. Every
// method takes the acting principal explicitly, consults the permission gate
// before touching the store and reports failures as apperr kinds.
package repository

import (
	"context"
	"time"

	"fleet/db"
	"fleet/internal/permissions"
	"fleet/internal/refnum"
	"fleet/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentStore is the persistence the repositories need. *db.Storage
// implements it.
type DocumentStore interface {
	InsertDocument(ctx context.Context, d *db.Document) error
	GetDocument(ctx context.Context, collection, id string) (*db.Document, error)
	ListDocuments(ctx context.Context, q db.Query) ([]db.Document, error)
	UpdateDocument(ctx context.Context, d *db.Document, expectedVersion int64) error
	DeleteDocument(ctx context.Context, collection, id string) error
	NextSequence(ctx context.Context, companyID, name string) (int64, error)
}

var _ DocumentStore = (*db.Storage)(nil)

// MetricsRecorder receives one observation per repository operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) Observe(context.Context, string, bool, time.Duration) {}

type env struct {
	store   DocumentStore
	now     func() time.Time
	minter  refnum.Minter
	log     *zap.Logger
	metrics MetricsRecorder
	newID   func() string
}

// Option configures New.
type Option func(*env)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *env) { e.now = now }
}

// WithMinter replaces the default sequence based reference number minter.
func WithMinter(m refnum.Minter) Option {
	return func(e *env) { e.minter = m }
}

func WithLogger(log *zap.Logger) Option {
	return func(e *env) { e.log = log }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(e *env) { e.metrics = m }
}

// Repositories bundles one repository per entity kind over a shared store.
type Repositories struct {
	Ships          *ShipRepository
	Crew           *CrewRepository
	Certificates   *CertificateRepository
	Drawings       *DrawingRepository
	Inventory      *InventoryRepository
	Tasks          *TaskRepository
	Requisitions   *RequisitionRepository
	PurchaseOrders *PurchaseOrderRepository
	WorkOrders     *WorkOrderRepository
	Vendors        *VendorRepository
	VendorQuotes   *VendorQuoteRepository
	Audits         *AuditRepository
	LegalDocuments *LegalDocumentRepository
}

// New wires every repository to store.
func New(store DocumentStore, opts ...Option) *Repositories {
	e := &env{
		store:   store,
		now:     time.Now,
		log:     zap.NewNop(),
		metrics: noopRecorder{},
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.minter == nil {
		e.minter = refnum.SequenceMinter{Seq: store, Now: e.now}
	}

	ships := newCollection[models.Ship](e, "ships", permissions.Ships, "ship")
	scope := shipScope{ships: ships}
	requisitions := &RequisitionRepository{
		c:     newCollection[models.Requisition](e, "requisitions", permissions.Requisitions, "requisition"),
		scope: scope,
	}
	vendors := newCollection[models.Vendor](e, "vendors", permissions.Vendors, "vendor")

	return &Repositories{
		Ships: &ShipRepository{c: ships},
		Crew: &CrewRepository{
			c:     newCollection[models.CrewMember](e, "crew", permissions.Crew, "crew member"),
			scope: scope,
		},
		Certificates: &CertificateRepository{
			c:     newCollection[models.Certificate](e, "certificates", permissions.Certificates, "certificate"),
			scope: scope,
		},
		Drawings: &DrawingRepository{
			c:     newCollection[models.Drawing](e, "drawings", permissions.Drawings, "drawing"),
			scope: scope,
		},
		Inventory: &InventoryRepository{
			c:     newCollection[models.InventoryItem](e, "inventory", permissions.Inventory, "inventory item"),
			scope: scope,
		},
		Tasks: &TaskRepository{
			c:     newCollection[models.Task](e, "tasks", permissions.Tasks, "task"),
			scope: scope,
		},
		Requisitions: requisitions,
		PurchaseOrders: &PurchaseOrderRepository{
			c:       newCollection[models.PurchaseOrder](e, "purchase_orders", permissions.PurchaseOrders, "purchase order"),
			reqs:    requisitions,
			vendors: vendors,
		},
		WorkOrders: &WorkOrderRepository{
			c:       newCollection[models.WorkOrder](e, "work_orders", permissions.WorkOrders, "work order"),
			scope:   scope,
			reqs:    requisitions.c,
			vendors: vendors,
		},
		Vendors: &VendorRepository{c: vendors},
		VendorQuotes: &VendorQuoteRepository{
			c:       newCollection[models.VendorQuote](e, "vendor_quotes", permissions.VendorQuotes, "vendor quote"),
			reqs:    requisitions.c,
			vendors: vendors,
		},
		Audits: &AuditRepository{
			c:     newCollection[models.AuditReport](e, "audit_reports", permissions.AuditReports, "audit report"),
			scope: scope,
		},
		LegalDocuments: &LegalDocumentRepository{
			c: newCollection[models.LegalDocument](e, "legal_documents", permissions.LegalDocuments, "legal document"),
		},
	}
}
