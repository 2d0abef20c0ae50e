// Package refnum mints the human readable reference numbers carried by
// requisitions, purchase orders, work orders, audits and vendors.
package refnum

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// Kind is the prefix of a reference number.
type Kind string

const (
	Requisition   Kind = "PR"
	PurchaseOrder Kind = "PO"
	WorkOrder     Kind = "WO"
	Audit         Kind = "AUD"
	Vendor        Kind = "VND"
)

const (
	datedDigits  = 6
	vendorDigits = 8
)

var (
	datedPattern  = regexp.MustCompile(`^(PR|PO|WO|AUD)-\d{6}-\d{6}$`)
	vendorPattern = regexp.MustCompile(`^VND-\d{8}$`)
)

// Minter produces the next reference number of a kind for a company.
type Minter interface {
	Next(ctx context.Context, companyID string, kind Kind) (string, error)
}

// Format renders a reference number. n is reduced to its low-order digits:
// six for dated kinds, eight for vendors.
func Format(kind Kind, t time.Time, n int64) string {
	if n < 0 {
		n = -n
	}
	if kind == Vendor {
		return fmt.Sprintf("%s-%0*d", kind, vendorDigits, n%pow10(vendorDigits))
	}
	t = t.UTC()
	return fmt.Sprintf("%s-%04d%02d-%0*d", kind, t.Year(), int(t.Month()), datedDigits, n%pow10(datedDigits))
}

// Valid reports whether s is a well formed reference number of kind.
func Valid(kind Kind, s string) bool {
	if kind == Vendor {
		return vendorPattern.MatchString(s)
	}
	if !datedPattern.MatchString(s) {
		return false
	}
	return len(s) > len(kind) && s[:len(kind)+1] == string(kind)+"-"
}

// Dated reports whether numbers of kind carry a year-month segment.
func Dated(kind Kind) bool { return kind != Vendor }

func pow10(n int) int64 {
	p := int64(1)
	for range n {
		p *= 10
	}
	return p
}

// ClockMinter derives the suffix from the millisecond epoch of the current
// time. Two calls within the same millisecond, or whose timestamps share the
// low-order digits, produce the same number; uniqueness is probabilistic.
type ClockMinter struct {
	Now func() time.Time
}

func (m ClockMinter) Next(_ context.Context, _ string, kind Kind) (string, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	t := now()
	return Format(kind, t, t.UnixMilli()), nil
}

// Sequencer is the persistent counter the SequenceMinter draws from.
// NextSequence must increment atomically and return the new value.
type Sequencer interface {
	NextSequence(ctx context.Context, companyID, name string) (int64, error)
}

// SequenceMinter derives the suffix from a counter keyed by company, kind and
// period (year-month for dated kinds). Numbers are unique per company until
// the counter outgrows the suffix digits within one period.
type SequenceMinter struct {
	Seq Sequencer
	Now func() time.Time
}

func (m SequenceMinter) Next(ctx context.Context, companyID string, kind Kind) (string, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	t := now().UTC()
	n, err := m.Seq.NextSequence(ctx, companyID, SequenceName(kind, t))
	if err != nil {
		return "", fmt.Errorf("next %s sequence: %w", kind, err)
	}
	return Format(kind, t, n), nil
}

// SequenceName is the counter key for kind at t, e.g. "PR-202610" or "VND".
func SequenceName(kind Kind, t time.Time) string {
	if !Dated(kind) {
		return string(kind)
	}
	t = t.UTC()
	return fmt.Sprintf("%s-%04d%02d", kind, t.Year(), int(t.Month()))
}
