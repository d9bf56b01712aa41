// Package validation collects field-level input problems.
package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-purchases/internal/models"
)

// Violations maps a field name to a violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MaxLength(field, value string, limit int, v Violations) {
	if len(value) > limit {
		v[field] = "too_long"
	}
}

func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v[field] = "must_not_be_negative"
	}
}

// Date parses an optional YYYY-MM-DD value. Empty input yields def.
func Date(field, value string, def models.Date, v Violations) models.Date {
	if strings.TrimSpace(value) == "" {
		return def
	}
	d, err := models.ParseDate(value)
	if err != nil {
		v[field] = "invalid_date"
		return def
	}
	return d
}

// maxAmount is the first value that no longer fits NUMERIC(14,2).
var maxAmount = decimal.New(1, 12)

// Decimal parses an optional amount. Empty input yields zero. Amounts must
// fit the stored precision of two decimals and twelve integer digits.
func Decimal(field, value string, v Violations) decimal.Decimal {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		v[field] = "invalid_number"
		return decimal.Zero
	}
	if !d.Equal(d.Truncate(2)) {
		v[field] = "too_many_decimals"
		return decimal.Zero
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		v[field] = "too_large"
		return decimal.Zero
	}
	return d
}
