package validation

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-purchases/internal/models"
)

func TestValidators(t *testing.T) {
	v := Violations{}
	Required("bill_number", "  ", v)
	PositiveDecimal("amount", decimal.Zero, v)
	NonNegativeDecimal("bill_amount", decimal.NewFromInt(-5), v)
	MaxLength("item", "abcdef", 3, v)

	want := map[string]string{
		"bill_number": "required",
		"amount":      "must_be_positive",
		"bill_amount": "must_not_be_negative",
		"item":        "too_long",
	}
	for field, code := range want {
		if v[field] != code {
			t.Errorf("%s = %q, want %q", field, v[field], code)
		}
	}

	ok := Violations{}
	Required("bill_number", "B1", ok)
	PositiveDecimal("amount", decimal.NewFromInt(1), ok)
	NonNegativeDecimal("bill_amount", decimal.Zero, ok)
	if !ok.Empty() {
		t.Errorf("unexpected violations %v", ok)
	}
}

func TestDateAndDecimal(t *testing.T) {
	v := Violations{}
	def := models.MustDate("2024-01-01")
	if got := Date("purchase_date", "", def, v); got != def {
		t.Errorf("empty date should default, got %s", got)
	}
	if got := Date("bill_date", "2024-02-29", def, v); got.String() != "2024-02-29" {
		t.Errorf("got %s", got)
	}
	Date("payment_date", "29/02/2024", def, v)
	if v["payment_date"] != "invalid_date" {
		t.Errorf("violations = %v", v)
	}

	if got := Decimal("amount", " 12.50 ", v); !got.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("Decimal = %s", got)
	}
	Decimal("bill_amount", "12,5", v)
	if v["bill_amount"] != "invalid_number" {
		t.Errorf("violations = %v", v)
	}
}

func TestDecimalRejectsUnstorableAmounts(t *testing.T) {
	cases := []struct {
		value string
		code  string
	}{
		{"100.005", "too_many_decimals"},
		{"0.001", "too_many_decimals"},
		{"1000000000000", "too_large"},
		{"-1000000000000", "too_large"},
		{"999999999999.99", ""},
		{"100.50", ""},
		{"100.500", ""},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			v := Violations{}
			Decimal("bill_amount", tc.value, v)
			if v["bill_amount"] != tc.code {
				t.Fatalf("code = %q, want %q", v["bill_amount"], tc.code)
			}
		})
	}
}
