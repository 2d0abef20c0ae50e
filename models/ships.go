package models

import (
	"time"

	"fleet/internal/status"

	"github.com/shopspring/decimal"
)

type ShipStatus string

const (
	ShipActive      ShipStatus = "active"
	ShipMaintenance ShipStatus = "maintenance"
	ShipDocked      ShipStatus = "docked"
	ShipInactive    ShipStatus = "inactive"
)

func (s ShipStatus) IsValid() bool {
	switch s {
	case ShipActive, ShipMaintenance, ShipDocked, ShipInactive:
		return true
	}
	return false
}

type ShipInput struct {
	Name         string          `json:"name"`
	IMONumber    string          `json:"imoNumber"`
	Type         string          `json:"type"`
	Flag         string          `json:"flag,omitempty"`
	Status       ShipStatus      `json:"status"`
	YearBuilt    int             `json:"yearBuilt,omitempty"`
	GrossTonnage decimal.Decimal `json:"grossTonnage"`
	HomePort     string          `json:"homePort,omitempty"`
	ImageURL     string          `json:"imageUrl,omitempty"`
}

type Ship struct {
	Meta
	ShipInput
}

type ShipPatch struct {
	Version      *int64           `json:"version"`
	Name         *string          `json:"name"`
	IMONumber    *string          `json:"imoNumber"`
	Type         *string          `json:"type"`
	Flag         *string          `json:"flag"`
	Status       *ShipStatus      `json:"status"`
	YearBuilt    *int             `json:"yearBuilt"`
	GrossTonnage *decimal.Decimal `json:"grossTonnage"`
	HomePort     *string          `json:"homePort"`
	ImageURL     *string          `json:"imageUrl"`
}

func (p ShipPatch) Apply(in *ShipInput) {
	set(&in.Name, p.Name)
	set(&in.IMONumber, p.IMONumber)
	set(&in.Type, p.Type)
	set(&in.Flag, p.Flag)
	set(&in.Status, p.Status)
	set(&in.YearBuilt, p.YearBuilt)
	set(&in.GrossTonnage, p.GrossTonnage)
	set(&in.HomePort, p.HomePort)
	set(&in.ImageURL, p.ImageURL)
}

// Crew

type Department string

const (
	DepartmentDeck     Department = "deck"
	DepartmentEngine   Department = "engine"
	DepartmentCatering Department = "catering"
	DepartmentOther    Department = "other"
)

func (d Department) IsValid() bool {
	switch d {
	case DepartmentDeck, DepartmentEngine, DepartmentCatering, DepartmentOther:
		return true
	}
	return false
}

type CrewStatus string

const (
	CrewOnboard   CrewStatus = "onboard"
	CrewOnLeave   CrewStatus = "on_leave"
	CrewSignedOff CrewStatus = "signed_off"
)

func (s CrewStatus) IsValid() bool {
	switch s {
	case CrewOnboard, CrewOnLeave, CrewSignedOff:
		return true
	}
	return false
}

type CrewInput struct {
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Rank            string     `json:"rank"`
	Department      Department `json:"department"`
	Nationality     string     `json:"nationality,omitempty"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Status          CrewStatus `json:"status"`
	JoinDate        time.Time  `json:"joinDate,omitzero"`
	ContractEndDate time.Time  `json:"contractEndDate,omitzero"`
	PhotoURL        string     `json:"photoUrl,omitempty"`
}

type CrewMember struct {
	Meta
	CrewInput
	// DaysUntilContractEnd is nil when no contract end date is recorded.
	DaysUntilContractEnd *int `json:"daysUntilContractEnd,omitempty"`
}

type CrewPatch struct {
	Version         *int64      `json:"version"`
	FirstName       *string     `json:"firstName"`
	LastName        *string     `json:"lastName"`
	Rank            *string     `json:"rank"`
	Department      *Department `json:"department"`
	Nationality     *string     `json:"nationality"`
	Email           *string     `json:"email"`
	Phone           *string     `json:"phone"`
	Status          *CrewStatus `json:"status"`
	JoinDate        *time.Time  `json:"joinDate"`
	ContractEndDate *time.Time  `json:"contractEndDate"`
	PhotoURL        *string     `json:"photoUrl"`
}

func (p CrewPatch) Apply(in *CrewInput) {
	set(&in.FirstName, p.FirstName)
	set(&in.LastName, p.LastName)
	set(&in.Rank, p.Rank)
	set(&in.Department, p.Department)
	set(&in.Nationality, p.Nationality)
	set(&in.Email, p.Email)
	set(&in.Phone, p.Phone)
	set(&in.Status, p.Status)
	set(&in.JoinDate, p.JoinDate)
	set(&in.ContractEndDate, p.ContractEndDate)
	set(&in.PhotoURL, p.PhotoURL)
}

// Derive fills the countdown fields for now.
func (c *CrewMember) Derive(now time.Time) {
	c.DaysUntilContractEnd = nil
	if days, ok := status.DaysUntil(c.ContractEndDate, now); ok {
		c.DaysUntilContractEnd = &days
	}
}

// Certificates

// DefaultReminderDays applies when a certificate or legal document is created
// without a reminder window.
const DefaultReminderDays = 30

func reminderWindow(days *int) int {
	if days == nil {
		return DefaultReminderDays
	}
	return *days
}

type CertificateInput struct {
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	Number           string    `json:"number,omitempty"`
	IssuingAuthority string    `json:"issuingAuthority,omitempty"`
	IssueDate        time.Time `json:"issueDate,omitzero"`
	ExpiryDate       time.Time `json:"expiryDate,omitzero"`
	ReminderDays     *int      `json:"reminderDays"`
	FileURL          string    `json:"fileUrl,omitempty"`
	Notes            string    `json:"notes,omitempty"`
}

type Certificate struct {
	Meta
	CertificateInput
	Status          status.CertificateStatus `json:"status"`
	DaysUntilExpiry *int                     `json:"daysUntilExpiry,omitempty"`
}

type CertificatePatch struct {
	Version          *int64     `json:"version"`
	Name             *string    `json:"name"`
	Type             *string    `json:"type"`
	Number           *string    `json:"number"`
	IssuingAuthority *string    `json:"issuingAuthority"`
	IssueDate        *time.Time `json:"issueDate"`
	ExpiryDate       *time.Time `json:"expiryDate"`
	ReminderDays     *int       `json:"reminderDays"`
	FileURL          *string    `json:"fileUrl"`
	Notes            *string    `json:"notes"`
}

func (p CertificatePatch) Apply(in *CertificateInput) {
	set(&in.Name, p.Name)
	set(&in.Type, p.Type)
	set(&in.Number, p.Number)
	set(&in.IssuingAuthority, p.IssuingAuthority)
	set(&in.IssueDate, p.IssueDate)
	set(&in.ExpiryDate, p.ExpiryDate)
	if p.ReminderDays != nil {
		in.ReminderDays = p.ReminderDays
	}
	set(&in.FileURL, p.FileURL)
	set(&in.Notes, p.Notes)
}

// Reminder returns the reminder window; nil means DefaultReminderDays and an
// explicit 0 means no early warning.
func (in CertificateInput) Reminder() int { return reminderWindow(in.ReminderDays) }

// Derive recomputes the status from the expiry date. The stored status is
// never trusted.
func (c *Certificate) Derive(now time.Time) {
	c.Status = status.Certificate(c.ExpiryDate, c.Reminder(), now)
	c.DaysUntilExpiry = nil
	if days, ok := status.DaysUntil(c.ExpiryDate, now); ok {
		c.DaysUntilExpiry = &days
	}
}

// Drawings

type DrawingInput struct {
	Title       string `json:"title"`
	Number      string `json:"number,omitempty"`
	Category    string `json:"category"`
	Revision    string `json:"revision,omitempty"`
	Description string `json:"description,omitempty"`
	FileURL     string `json:"fileUrl,omitempty"`
}

type Drawing struct {
	Meta
	DrawingInput
}

type DrawingPatch struct {
	Version     *int64  `json:"version"`
	Title       *string `json:"title"`
	Number      *string `json:"number"`
	Category    *string `json:"category"`
	Revision    *string `json:"revision"`
	Description *string `json:"description"`
	FileURL     *string `json:"fileUrl"`
}

func (p DrawingPatch) Apply(in *DrawingInput) {
	set(&in.Title, p.Title)
	set(&in.Number, p.Number)
	set(&in.Category, p.Category)
	set(&in.Revision, p.Revision)
	set(&in.Description, p.Description)
	set(&in.FileURL, p.FileURL)
}

// Inventory

type InventoryInput struct {
	Name         string          `json:"name"`
	PartNumber   string          `json:"partNumber,omitempty"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	CurrentStock int             `json:"currentStock"`
	MinimumStock int             `json:"minimumStock"`
	ReorderPoint int             `json:"reorderPoint"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Location     string          `json:"location,omitempty"`
	Supplier     string          `json:"supplier,omitempty"`
	OnOrder      bool            `json:"onOrder,omitempty"`
}

// StockMovement records one AdjustStock call.
type StockMovement struct {
	Delta  int       `json:"delta"`
	Result int       `json:"result"`
	Reason string    `json:"reason"`
	By     string    `json:"by"`
	At     time.Time `json:"at"`
}

type InventoryItem struct {
	Meta
	InventoryInput
	Movements  []StockMovement    `json:"movements,omitempty"`
	Status     status.StockStatus `json:"status"`
	StockValue decimal.Decimal    `json:"stockValue"`
}

type InventoryPatch struct {
	Version      *int64           `json:"version"`
	Name         *string          `json:"name"`
	PartNumber   *string          `json:"partNumber"`
	Category     *string          `json:"category"`
	Unit         *string          `json:"unit"`
	CurrentStock *int             `json:"currentStock"`
	MinimumStock *int             `json:"minimumStock"`
	ReorderPoint *int             `json:"reorderPoint"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	Location     *string          `json:"location"`
	Supplier     *string          `json:"supplier"`
	OnOrder      *bool            `json:"onOrder"`
}

func (p InventoryPatch) Apply(in *InventoryInput) {
	set(&in.Name, p.Name)
	set(&in.PartNumber, p.PartNumber)
	set(&in.Category, p.Category)
	set(&in.Unit, p.Unit)
	set(&in.CurrentStock, p.CurrentStock)
	set(&in.MinimumStock, p.MinimumStock)
	set(&in.ReorderPoint, p.ReorderPoint)
	set(&in.UnitPrice, p.UnitPrice)
	set(&in.Location, p.Location)
	set(&in.Supplier, p.Supplier)
	set(&in.OnOrder, p.OnOrder)
}

// Derive recomputes the stock badge and value.
func (i *InventoryItem) Derive() {
	i.Status = status.Item(i.CurrentStock, i.ReorderPoint, i.OnOrder)
	i.StockValue = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.CurrentStock)))
}

// Tasks

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	DueDate     time.Time  `json:"dueDate,omitzero"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
}

type Task struct {
	Meta
	TaskInput
	CompletedAt time.Time `json:"completedAt,omitzero"`
	CompletedBy string    `json:"completedBy,omitempty"`
	Overdue     bool      `json:"overdue"`
}

type TaskPatch struct {
	Version     *int64      `json:"version"`
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Category    *string     `json:"category"`
	AssignedTo  *string     `json:"assignedTo"`
	DueDate     *time.Time  `json:"dueDate"`
	Priority    *Priority   `json:"priority"`
	Status      *TaskStatus `json:"status"`
}

func (p TaskPatch) Apply(in *TaskInput) {
	set(&in.Title, p.Title)
	set(&in.Description, p.Description)
	set(&in.Category, p.Category)
	set(&in.AssignedTo, p.AssignedTo)
	set(&in.DueDate, p.DueDate)
	set(&in.Priority, p.Priority)
	set(&in.Status, p.Status)
}

// Derive flags open tasks whose due date has passed.
func (t *Task) Derive(now time.Time) {
	t.Overdue = t.Status != TaskCompleted && status.Overdue(t.DueDate, now)
}
