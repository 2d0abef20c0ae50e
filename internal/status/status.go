// Package status derives display statuses from stored fields and the current
// time. Everything here is pure.
package status

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// CertificateStatus is the validity of a ship certificate.
type CertificateStatus string

const (
	CertificateValid        CertificateStatus = "valid"
	CertificateExpiringSoon CertificateStatus = "expiring_soon"
	CertificateExpired      CertificateStatus = "expired"
)

// StockStatus is the stock badge of an inventory item.
type StockStatus string

const (
	InStock    StockStatus = "in_stock"
	LowStock   StockStatus = "low_stock"
	OutOfStock StockStatus = "out_of_stock"
	OnOrder    StockStatus = "on_order"
)

// ExpiryBadge is the countdown badge used for documents that lapse.
type ExpiryBadge string

const (
	ExpiryNone         ExpiryBadge = "none"
	ExpiryActive       ExpiryBadge = "active"
	ExpiryExpiringSoon ExpiryBadge = "expiring_soon"
	ExpiryExpired      ExpiryBadge = "expired"
)

// DaysUntil returns the ceiling of (date - now) in days. ok is false when
// date is the zero time, which stands for "no date".
func DaysUntil(date, now time.Time) (days int, ok bool) {
	if date.IsZero() {
		return 0, false
	}
	d := date.Sub(now)
	return int(math.Ceil(float64(d) / float64(day))), true
}

// Certificate derives the certificate status. A certificate without expiry
// never lapses and is valid.
func Certificate(expiry time.Time, reminderDays int, now time.Time) CertificateStatus {
	if expiry.IsZero() {
		return CertificateValid
	}
	if expiry.Before(now) {
		return CertificateExpired
	}
	if days, _ := DaysUntil(expiry, now); days <= reminderDays {
		return CertificateExpiringSoon
	}
	return CertificateValid
}

// Inventory derives the stock badge from stock levels. The reorder point is
// the only threshold; the minimum stock level does not affect the badge.
func Inventory(current, reorderPoint int) StockStatus {
	switch {
	case current <= 0:
		return OutOfStock
	case current <= reorderPoint:
		return LowStock
	default:
		return InStock
	}
}

// Item applies an explicit on-order flag over the derived stock badge.
func Item(current, reorderPoint int, onOrder bool) StockStatus {
	if onOrder {
		return OnOrder
	}
	return Inventory(current, reorderPoint)
}

// Expiry derives the countdown badge for a document with an optional expiry.
func Expiry(expiry time.Time, reminderDays int, now time.Time) ExpiryBadge {
	if expiry.IsZero() {
		return ExpiryNone
	}
	switch Certificate(expiry, reminderDays, now) {
	case CertificateExpired:
		return ExpiryExpired
	case CertificateExpiringSoon:
		return ExpiryExpiringSoon
	default:
		return ExpiryActive
	}
}

// EndingWithin reports whether end falls within window days from now and has
// not already passed. A zero end date never qualifies.
func EndingWithin(end time.Time, window int, now time.Time) bool {
	days, ok := DaysUntil(end, now)
	return ok && !end.Before(now) && days <= window
}

// Overdue reports whether due has passed. A zero due date is never overdue.
func Overdue(due, now time.Time) bool {
	return !due.IsZero() && due.Before(now)
}
