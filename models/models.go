// Package models holds the stored entities of the fleet backend together with
// their create inputs and partial-update patches.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Meta is stamped by the repositories on every stored entity. Callers never
// set it.
type Meta struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	ShipID    string    `json:"shipId,omitempty"`
	Version   int64     `json:"version"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Metadata gives generic code access to the embedded Meta.
func (m *Meta) Metadata() *Meta { return m }

// Priority is shared by tasks, requisitions and work orders.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// set copies *src into dst when the patch carries a value.
func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Sum adds up the given amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
