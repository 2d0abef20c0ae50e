package models

import (
	"time"

	"fleet/internal/status"
	"fleet/internal/workflow"

	"github.com/shopspring/decimal"
)

type RequisitionType string

const (
	RequisitionPurchase RequisitionType = "purchase"
	RequisitionService  RequisitionType = "service"
	RequisitionWork     RequisitionType = "work"
	RequisitionTransfer RequisitionType = "transfer"
	RequisitionOther    RequisitionType = "other"
)

func (t RequisitionType) IsValid() bool {
	switch t {
	case RequisitionPurchase, RequisitionService, RequisitionWork, RequisitionTransfer, RequisitionOther:
		return true
	}
	return false
}

// LineItem is one requested article. TotalPrice is derived from quantity and
// unit price and is zero when no price is known.
type LineItem struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	PartNumber  string           `json:"partNumber,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        string           `json:"unit"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
	TotalPrice  decimal.Decimal  `json:"totalPrice"`
}

// Priced returns the item with TotalPrice recomputed.
func (li LineItem) Priced() LineItem {
	li.TotalPrice = decimal.Zero
	if li.UnitPrice != nil {
		li.TotalPrice = li.Quantity.Mul(*li.UnitPrice)
	}
	return li
}

// PriceItems recomputes every line and returns the priced copy with its total.
func PriceItems(items []LineItem) ([]LineItem, decimal.Decimal) {
	out := make([]LineItem, len(items))
	total := decimal.Zero
	for i, li := range items {
		out[i] = li.Priced()
		total = total.Add(out[i].TotalPrice)
	}
	return out, total
}

type RequisitionInput struct {
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Type         RequisitionType `json:"type"`
	Priority     Priority        `json:"priority"`
	Department   string          `json:"department,omitempty"`
	Items        []LineItem      `json:"items"`
	Currency     string          `json:"currency,omitempty"`
	RequestDate  time.Time       `json:"requestDate,omitzero"`
	RequiredDate time.Time       `json:"requiredDate,omitzero"`
	Notes        string          `json:"notes,omitempty"`
	Attachments  []string        `json:"attachments,omitempty"`
}

// Decision is what an approval step did to a requisition.
type Decision string

const (
	DecisionSubmitted Decision = "submitted"
	DecisionApproved  Decision = "approved"
	DecisionRejected  Decision = "rejected"
	DecisionCancelled Decision = "cancelled"
	DecisionCompleted Decision = "completed"
)

// ApprovalStep is one entry of a requisition's decision history.
type ApprovalStep struct {
	Actor    string    `json:"actor"`
	Role     string    `json:"role"`
	Decision Decision  `json:"decision"`
	Comment  string    `json:"comment,omitempty"`
	At       time.Time `json:"at"`
}

type Requisition struct {
	Meta
	RequisitionInput
	PRNumber           string          `json:"prNumber"`
	Status             workflow.State  `json:"status"`
	TotalCost          decimal.Decimal `json:"totalCost"`
	RequestedBy        string          `json:"requestedBy"`
	Approvals          []ApprovalStep  `json:"approvals,omitempty"`
	RejectionReason    string          `json:"rejectionReason,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	ApprovedAt         time.Time       `json:"approvedAt,omitzero"`
	CompletedAt        time.Time       `json:"completedAt,omitzero"`
}

type RequisitionPatch struct {
	Version      *int64           `json:"version"`
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Type         *RequisitionType `json:"type"`
	Priority     *Priority        `json:"priority"`
	Department   *string          `json:"department"`
	Items        *[]LineItem      `json:"items"`
	Currency     *string          `json:"currency"`
	RequestDate  *time.Time       `json:"requestDate"`
	RequiredDate *time.Time       `json:"requiredDate"`
	Notes        *string          `json:"notes"`
	Attachments  *[]string        `json:"attachments"`
}

func (p RequisitionPatch) Apply(in *RequisitionInput) {
	set(&in.Title, p.Title)
	set(&in.Description, p.Description)
	set(&in.Type, p.Type)
	set(&in.Priority, p.Priority)
	set(&in.Department, p.Department)
	set(&in.Items, p.Items)
	set(&in.Currency, p.Currency)
	set(&in.RequestDate, p.RequestDate)
	set(&in.RequiredDate, p.RequiredDate)
	set(&in.Notes, p.Notes)
	set(&in.Attachments, p.Attachments)
}

// Purchase orders

// POItem tracks delivery of one ordered line. QuantityReceived plus
// QuantityPending always equals Quantity.
type POItem struct {
	Name             string          `json:"name"`
	PartNumber       string          `json:"partNumber,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	QuantityReceived decimal.Decimal `json:"quantityReceived"`
	QuantityPending  decimal.Decimal `json:"quantityPending"`
}

type POInput struct {
	RequisitionID        string    `json:"requisitionId"`
	VendorID             string    `json:"vendorId"`
	Items                []POItem  `json:"items"`
	Currency             string    `json:"currency,omitempty"`
	PaymentTerms         string    `json:"paymentTerms,omitempty"`
	DeliveryAddress      string    `json:"deliveryAddress,omitempty"`
	ExpectedDeliveryDate time.Time `json:"expectedDeliveryDate,omitzero"`
	Notes                string    `json:"notes,omitempty"`
}

// DeliveryLine reports the quantity received for the item at Index.
type DeliveryLine struct {
	Index    int             `json:"index"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Delivery is one receipt against a purchase order. Deliveries are only ever
// appended.
type Delivery struct {
	Lines      []DeliveryLine `json:"lines"`
	ReceivedBy string         `json:"receivedBy"`
	ReceivedAt time.Time      `json:"receivedAt"`
	Note       string         `json:"note,omitempty"`
}

type PurchaseOrder struct {
	Meta
	POInput
	PONumber    string          `json:"poNumber"`
	Status      workflow.State  `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Deliveries  []Delivery      `json:"deliveries,omitempty"`
	ApprovedBy  string          `json:"approvedBy,omitempty"`
	SentAt      time.Time       `json:"sentAt,omitzero"`
	CompletedAt time.Time       `json:"completedAt,omitzero"`
}

// Outstanding reports whether any ordered quantity is still pending.
func (po *PurchaseOrder) Outstanding() bool {
	for _, it := range po.Items {
		if it.QuantityPending.IsPositive() {
			return true
		}
	}
	return false
}

type POPatch struct {
	Version              *int64     `json:"version"`
	Currency             *string    `json:"currency"`
	PaymentTerms         *string    `json:"paymentTerms"`
	DeliveryAddress      *string    `json:"deliveryAddress"`
	ExpectedDeliveryDate *time.Time `json:"expectedDeliveryDate"`
	Notes                *string    `json:"notes"`
}

// Apply merges the editable header fields. Items and references are fixed at
// creation so delivery accounting stays consistent.
func (p POPatch) Apply(in *POInput) {
	set(&in.Currency, p.Currency)
	set(&in.PaymentTerms, p.PaymentTerms)
	set(&in.DeliveryAddress, p.DeliveryAddress)
	set(&in.ExpectedDeliveryDate, p.ExpectedDeliveryDate)
	set(&in.Notes, p.Notes)
}

// Work orders

type WorkOrderInput struct {
	Title              string          `json:"title"`
	Description        string          `json:"description,omitempty"`
	Type               string          `json:"type"`
	Priority           Priority        `json:"priority"`
	RequisitionID      string          `json:"requisitionId,omitempty"`
	VendorID           string          `json:"vendorId,omitempty"`
	Location           string          `json:"location,omitempty"`
	AssignedTo         []string        `json:"assignedTo,omitempty"`
	ScheduledStartDate time.Time       `json:"scheduledStartDate,omitzero"`
	ScheduledEndDate   time.Time       `json:"scheduledEndDate,omitzero"`
	EstimatedCost      decimal.Decimal `json:"estimatedCost"`
	Notes              string          `json:"notes,omitempty"`
}

type WorkOrder struct {
	Meta
	WorkOrderInput
	WONumber        string           `json:"woNumber"`
	Status          workflow.State   `json:"status"`
	HeldFrom        workflow.State   `json:"heldFrom,omitempty"`
	HoldReason      string           `json:"holdReason,omitempty"`
	ActualStartDate time.Time        `json:"actualStartDate,omitzero"`
	ActualEndDate   time.Time        `json:"actualEndDate,omitzero"`
	ActualCost      *decimal.Decimal `json:"actualCost,omitempty"`
	Overdue         bool             `json:"overdue"`
}

type WorkOrderPatch struct {
	Version            *int64           `json:"version"`
	Title              *string          `json:"title"`
	Description        *string          `json:"description"`
	Type               *string          `json:"type"`
	Priority           *Priority        `json:"priority"`
	VendorID           *string          `json:"vendorId"`
	Location           *string          `json:"location"`
	AssignedTo         *[]string        `json:"assignedTo"`
	ScheduledStartDate *time.Time       `json:"scheduledStartDate"`
	ScheduledEndDate   *time.Time       `json:"scheduledEndDate"`
	EstimatedCost      *decimal.Decimal `json:"estimatedCost"`
	Notes              *string          `json:"notes"`
}

func (p WorkOrderPatch) Apply(in *WorkOrderInput) {
	set(&in.Title, p.Title)
	set(&in.Description, p.Description)
	set(&in.Type, p.Type)
	set(&in.Priority, p.Priority)
	set(&in.VendorID, p.VendorID)
	set(&in.Location, p.Location)
	set(&in.AssignedTo, p.AssignedTo)
	set(&in.ScheduledStartDate, p.ScheduledStartDate)
	set(&in.ScheduledEndDate, p.ScheduledEndDate)
	set(&in.EstimatedCost, p.EstimatedCost)
	set(&in.Notes, p.Notes)
}

// Derive flags open work orders past their scheduled end.
func (wo *WorkOrder) Derive(now time.Time) {
	open := !workflow.WorkOrder.Terminal(wo.Status)
	wo.Overdue = open && status.Overdue(wo.ScheduledEndDate, now)
}
