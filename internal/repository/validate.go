package repository

import (
	"fmt"
	"strings"
	"time"

	"fleet/internal/apperr"

	"github.com/shopspring/decimal"
)

// validator collects the names of missing or malformed fields.
type validator struct {
	fields []string
}

func (v *validator) require(ok bool, field string) {
	if !ok {
		v.fields = append(v.fields, field)
	}
}

func (v *validator) err(op string) error {
	if len(v.fields) == 0 {
		return nil
	}
	return apperr.NewValidation(op, "missing or invalid fields", v.fields...)
}

func present(s string) bool { return strings.TrimSpace(s) != "" }

// ordered reports whether start <= end. Missing dates impose nothing.
func ordered(start, end time.Time) bool {
	return start.IsZero() || end.IsZero() || !end.Before(start)
}

func positive(d decimal.Decimal) bool { return d.IsPositive() }

func indexed(name string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", name, i, field)
}

// eq matches when no filter value is set or the values are equal.
func eq[S ~string](want, got S) bool {
	return want == "" || want == got
}

func keep[T any](items []T, match func(*T) bool) []T {
	out := make([]T, 0, len(items))
	for i := range items {
		if match(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
