package models

import (
	"time"

	"fleet/internal/status"

	"github.com/shopspring/decimal"
)

type VendorStatus string

const (
	VendorPendingApproval VendorStatus = "pending_approval"
	VendorActive          VendorStatus = "active"
	VendorInactive        VendorStatus = "inactive"
	VendorBlacklisted     VendorStatus = "blacklisted"
)

func (s VendorStatus) IsValid() bool {
	switch s {
	case VendorPendingApproval, VendorActive, VendorInactive, VendorBlacklisted:
		return true
	}
	return false
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

type Business struct {
	TaxID              string `json:"taxId,omitempty"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
	PaymentTerms       string `json:"paymentTerms,omitempty"`
	Currency           string `json:"currency,omitempty"`
}

type Compliance struct {
	InsuranceExpiry time.Time `json:"insuranceExpiry,omitzero"`
	Certifications  []string  `json:"certifications,omitempty"`
}

// Performance starts zeroed. OnTimeDeliveryRate and QualityRating have no
// computation path and stay nil until an external process fills them.
type Performance struct {
	TotalOrders        int              `json:"totalOrders"`
	OnTimeDeliveryRate *decimal.Decimal `json:"onTimeDeliveryRate"`
	QualityRating      *decimal.Decimal `json:"qualityRating"`
}

type VendorInput struct {
	Name       string       `json:"name"`
	Type       string       `json:"type,omitempty"`
	Categories []string     `json:"categories,omitempty"`
	Contact    Contact      `json:"contact"`
	Address    Address      `json:"address"`
	Business   Business     `json:"business"`
	Compliance Compliance   `json:"compliance"`
	Status     VendorStatus `json:"status"`
	Notes      string       `json:"notes,omitempty"`
}

type Vendor struct {
	Meta
	VendorInput
	VendorCode      string             `json:"vendorCode"`
	Performance     Performance        `json:"performance"`
	InsuranceStatus status.ExpiryBadge `json:"insuranceStatus"`
}

type VendorPatch struct {
	Version    *int64        `json:"version"`
	Name       *string       `json:"name"`
	Type       *string       `json:"type"`
	Categories *[]string     `json:"categories"`
	Contact    *Contact      `json:"contact"`
	Address    *Address      `json:"address"`
	Business   *Business     `json:"business"`
	Compliance *Compliance   `json:"compliance"`
	Status     *VendorStatus `json:"status"`
	Notes      *string       `json:"notes"`
}

func (p VendorPatch) Apply(in *VendorInput) {
	set(&in.Name, p.Name)
	set(&in.Type, p.Type)
	set(&in.Categories, p.Categories)
	set(&in.Contact, p.Contact)
	set(&in.Address, p.Address)
	set(&in.Business, p.Business)
	set(&in.Compliance, p.Compliance)
	set(&in.Status, p.Status)
	set(&in.Notes, p.Notes)
}

// Derive recomputes the insurance badge.
func (v *Vendor) Derive(now time.Time) {
	v.InsuranceStatus = status.Expiry(v.Compliance.InsuranceExpiry, DefaultReminderDays, now)
}

// Vendor quotes

type QuoteStatus string

const (
	QuotePending  QuoteStatus = "pending"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
)

type QuoteInput struct {
	VendorID      string     `json:"vendorId"`
	RequisitionID string     `json:"requisitionId"`
	QuoteNumber   string     `json:"quoteNumber,omitempty"`
	Items         []LineItem `json:"items"`
	Currency      string     `json:"currency,omitempty"`
	DeliveryDays  int        `json:"deliveryDays,omitempty"`
	ValidUntil    time.Time  `json:"validUntil,omitzero"`
	Notes         string     `json:"notes,omitempty"`
}

type VendorQuote struct {
	Meta
	QuoteInput
	Status      QuoteStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	DecidedBy   string          `json:"decidedBy,omitempty"`
	DecidedAt   time.Time       `json:"decidedAt,omitzero"`
	Expired     bool            `json:"expired"`
}

type QuotePatch struct {
	Version      *int64      `json:"version"`
	QuoteNumber  *string     `json:"quoteNumber"`
	Items        *[]LineItem `json:"items"`
	Currency     *string     `json:"currency"`
	DeliveryDays *int        `json:"deliveryDays"`
	ValidUntil   *time.Time  `json:"validUntil"`
	Notes        *string     `json:"notes"`
}

func (p QuotePatch) Apply(in *QuoteInput) {
	set(&in.QuoteNumber, p.QuoteNumber)
	set(&in.Items, p.Items)
	set(&in.Currency, p.Currency)
	set(&in.DeliveryDays, p.DeliveryDays)
	set(&in.ValidUntil, p.ValidUntil)
	set(&in.Notes, p.Notes)
}

// Derive flags pending quotes past their validity.
func (q *VendorQuote) Derive(now time.Time) {
	q.Expired = q.Status == QuotePending && status.Overdue(q.ValidUntil, now)
}
