// Package stats reduces fetched entity slices to dashboard counters. Every
// function rescans its whole input and has no side effects.
package stats

import (
	"time"

	"fleet/internal/status"
	"fleet/internal/workflow"
	"fleet/models"

	"github.com/shopspring/decimal"
)

// ContractWindowDays is how far ahead crew contract ends are counted.
const ContractWindowDays = 30

// Counts groups a total by a discriminant value.
type Counts map[string]int

func (c Counts) add(key string) {
	if key == "" {
		key = "unspecified"
	}
	c[key]++
}

type ShipStats struct {
	Total    int    `json:"total"`
	ByStatus Counts `json:"byStatus"`
	ByType   Counts `json:"byType"`
}

func Ships(ships []models.Ship) ShipStats {
	s := ShipStats{Total: len(ships), ByStatus: Counts{}, ByType: Counts{}}
	for _, sh := range ships {
		s.ByStatus.add(string(sh.Status))
		s.ByType.add(sh.Type)
	}
	return s
}

type CrewStats struct {
	Total           int    `json:"total"`
	Onboard         int    `json:"onboard"`
	ByDepartment    Counts `json:"byDepartment"`
	ByStatus        Counts `json:"byStatus"`
	ByRank          Counts `json:"byRank"`
	ContractsEnding int    `json:"contractsEnding"`
}

func Crew(crew []models.CrewMember, now time.Time) CrewStats {
	s := CrewStats{Total: len(crew), ByDepartment: Counts{}, ByStatus: Counts{}, ByRank: Counts{}}
	for _, c := range crew {
		s.ByDepartment.add(string(c.Department))
		s.ByStatus.add(string(c.Status))
		s.ByRank.add(c.Rank)
		if c.Status == models.CrewOnboard {
			s.Onboard++
		}
		if c.Status != models.CrewSignedOff && status.EndingWithin(c.ContractEndDate, ContractWindowDays, now) {
			s.ContractsEnding++
		}
	}
	return s
}

type CertificateStats struct {
	Total        int    `json:"total"`
	Valid        int    `json:"valid"`
	ExpiringSoon int    `json:"expiringSoon"`
	Expired      int    `json:"expired"`
	ByType       Counts `json:"byType"`
}

// Certificates derives each status for now rather than trusting the stored one.
func Certificates(certs []models.Certificate, now time.Time) CertificateStats {
	s := CertificateStats{Total: len(certs), ByType: Counts{}}
	for _, c := range certs {
		s.ByType.add(c.Type)
		switch status.Certificate(c.ExpiryDate, c.Reminder(), now) {
		case status.CertificateExpired:
			s.Expired++
		case status.CertificateExpiringSoon:
			s.ExpiringSoon++
		default:
			s.Valid++
		}
	}
	return s
}

type InventoryStats struct {
	Total      int             `json:"total"`
	ByStatus   Counts          `json:"byStatus"`
	ByCategory Counts          `json:"byCategory"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

func Inventory(items []models.InventoryItem) InventoryStats {
	s := InventoryStats{Total: len(items), ByStatus: Counts{}, ByCategory: Counts{}, TotalValue: decimal.Zero}
	for _, it := range items {
		s.ByStatus.add(string(status.Item(it.CurrentStock, it.ReorderPoint, it.OnOrder)))
		s.ByCategory.add(it.Category)
		if it.CurrentStock > 0 {
			s.TotalValue = s.TotalValue.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.CurrentStock))))
		}
	}
	return s
}

type TaskStats struct {
	Total      int    `json:"total"`
	ByStatus   Counts `json:"byStatus"`
	ByPriority Counts `json:"byPriority"`
	Overdue    int    `json:"overdue"`
}

func Tasks(tasks []models.Task, now time.Time) TaskStats {
	s := TaskStats{Total: len(tasks), ByStatus: Counts{}, ByPriority: Counts{}}
	for _, t := range tasks {
		s.ByStatus.add(string(t.Status))
		s.ByPriority.add(string(t.Priority))
		if t.Status != models.TaskCompleted && status.Overdue(t.DueDate, now) {
			s.Overdue++
		}
	}
	return s
}

type RequisitionStats struct {
	Total      int             `json:"total"`
	ByStatus   Counts          `json:"byStatus"`
	ByType     Counts          `json:"byType"`
	ByPriority Counts          `json:"byPriority"`
	TotalValue decimal.Decimal `json:"totalValue"`
	// ApprovalRate is approved / (approved + rejected), where completed
	// requisitions count as approved. Nil until something was decided.
	ApprovalRate *float64 `json:"approvalRate"`
	// AverageProcessingTime has no computation path and is always nil.
	AverageProcessingTime *time.Duration `json:"averageProcessingTime"`
}

func Requisitions(reqs []models.Requisition) RequisitionStats {
	s := RequisitionStats{
		Total:      len(reqs),
		ByStatus:   Counts{},
		ByType:     Counts{},
		ByPriority: Counts{},
		TotalValue: decimal.Zero,
	}
	var approved, rejected int
	for _, r := range reqs {
		s.ByStatus.add(string(r.Status))
		s.ByType.add(string(r.Type))
		s.ByPriority.add(string(r.Priority))
		s.TotalValue = s.TotalValue.Add(r.TotalCost)
		switch r.Status {
		case workflow.RequisitionApproved, workflow.RequisitionCompleted:
			approved++
		case workflow.RequisitionRejected:
			rejected++
		}
	}
	s.ApprovalRate = rate(approved, approved+rejected)
	return s
}

type PurchaseOrderStats struct {
	Total          int             `json:"total"`
	ByStatus       Counts          `json:"byStatus"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	OpenDeliveries int             `json:"openDeliveries"`
}

func PurchaseOrders(orders []models.PurchaseOrder) PurchaseOrderStats {
	s := PurchaseOrderStats{Total: len(orders), ByStatus: Counts{}, TotalValue: decimal.Zero}
	for i := range orders {
		po := &orders[i]
		s.ByStatus.add(string(po.Status))
		if po.Status != workflow.POCancelled {
			s.TotalValue = s.TotalValue.Add(po.TotalAmount)
		}
		switch po.Status {
		case workflow.POSentToVendor, workflow.POAcknowledged, workflow.POPartiallyDelivered:
			if po.Outstanding() {
				s.OpenDeliveries++
			}
		}
	}
	return s
}

type WorkOrderStats struct {
	Total         int             `json:"total"`
	ByStatus      Counts          `json:"byStatus"`
	ByPriority    Counts          `json:"byPriority"`
	Overdue       int             `json:"overdue"`
	EstimatedCost decimal.Decimal `json:"estimatedCost"`
}

func WorkOrders(orders []models.WorkOrder, now time.Time) WorkOrderStats {
	s := WorkOrderStats{Total: len(orders), ByStatus: Counts{}, ByPriority: Counts{}, EstimatedCost: decimal.Zero}
	for _, wo := range orders {
		s.ByStatus.add(string(wo.Status))
		s.ByPriority.add(string(wo.Priority))
		s.EstimatedCost = s.EstimatedCost.Add(wo.EstimatedCost)
		if !workflow.WorkOrder.Terminal(wo.Status) && status.Overdue(wo.ScheduledEndDate, now) {
			s.Overdue++
		}
	}
	return s
}

type VendorStats struct {
	Total             int    `json:"total"`
	ByStatus          Counts `json:"byStatus"`
	ByCategory        Counts `json:"byCategory"`
	InsuranceExpiring int    `json:"insuranceExpiring"`
	// OnTimeDeliveryRate and QualityRating are never computed and stay nil.
	OnTimeDeliveryRate *float64 `json:"onTimeDeliveryRate"`
	QualityRating      *float64 `json:"qualityRating"`
}

func Vendors(vendors []models.Vendor, now time.Time) VendorStats {
	s := VendorStats{Total: len(vendors), ByStatus: Counts{}, ByCategory: Counts{}}
	for _, v := range vendors {
		s.ByStatus.add(string(v.Status))
		for _, c := range v.Categories {
			s.ByCategory.add(c)
		}
		switch status.Expiry(v.Compliance.InsuranceExpiry, models.DefaultReminderDays, now) {
		case status.ExpiryExpiringSoon, status.ExpiryExpired:
			s.InsuranceExpiring++
		}
	}
	return s
}

type QuoteStats struct {
	Total    int    `json:"total"`
	ByStatus Counts `json:"byStatus"`
	Expired  int    `json:"expired"`
}

func Quotes(quotes []models.VendorQuote, now time.Time) QuoteStats {
	s := QuoteStats{Total: len(quotes), ByStatus: Counts{}}
	for _, q := range quotes {
		s.ByStatus.add(string(q.Status))
		if q.Status == models.QuotePending && status.Overdue(q.ValidUntil, now) {
			s.Expired++
		}
	}
	return s
}

type AuditStats struct {
	Total        int    `json:"total"`
	ByStatus     Counts `json:"byStatus"`
	ByType       Counts `json:"byType"`
	OpenFindings Counts `json:"openFindings"`
}

// Audits counts open findings by severity.
func Audits(reports []models.AuditReport) AuditStats {
	s := AuditStats{Total: len(reports), ByStatus: Counts{}, ByType: Counts{}, OpenFindings: Counts{}}
	for _, a := range reports {
		s.ByStatus.add(string(a.Status))
		s.ByType.add(string(a.Type))
		for _, f := range a.Findings {
			if !f.Closed {
				s.OpenFindings.add(string(f.Severity))
			}
		}
	}
	return s
}

type LegalStats struct {
	Total    int    `json:"total"`
	ByType   Counts `json:"byType"`
	ByStatus Counts `json:"byStatus"`
	ByExpiry Counts `json:"byExpiry"`
}

func LegalDocuments(docs []models.LegalDocument, now time.Time) LegalStats {
	s := LegalStats{Total: len(docs), ByType: Counts{}, ByStatus: Counts{}, ByExpiry: Counts{}}
	for _, d := range docs {
		s.ByType.add(string(d.Type))
		s.ByStatus.add(string(d.Status))
		badge := status.ExpiryNone
		if d.Status != models.LegalTerminated {
			badge = status.Expiry(d.ExpiryDate, d.Reminder(), now)
		}
		s.ByExpiry.add(string(badge))
	}
	return s
}

func rate(n, of int) *float64 {
	if of == 0 {
		return nil
	}
	r := float64(n) / float64(of)
	return &r
}
