package billing

import (
	"strings"

	"github.com/satheeshds/invoicing/models"
	"github.com/shopspring/decimal"
)

// VATRate is the only tax rate applied to VAT lines.
var VATRate = decimal.RequireFromString("0.12")

// Conversion is a charge amount expressed in the invoice currency together
// with the audit triple it was derived from.
type Conversion struct {
	Amount           models.Money
	OriginalAmount   models.Money
	OriginalCurrency string
	RateUsed         decimal.Decimal
}

// NeedsConversion reports whether a charge in currency must be converted to
// target. Currency codes compare case-insensitively.
func NeedsConversion(currency, target string) bool {
	return !strings.EqualFold(currency, target)
}

// Convert expresses amount in the target currency using the operator-entered
// rate. Charges already in the target currency keep their amount at rate 1.
// A zero rate yields a zero amount; callers validate the rate before submitting.
func Convert(amount models.Money, currency, target string, rate decimal.Decimal) Conversion {
	c := Conversion{
		OriginalAmount:   amount,
		OriginalCurrency: currency,
	}
	if !NeedsConversion(currency, target) {
		c.Amount = amount
		c.RateUsed = decimal.NewFromInt(1)
		return c
	}
	c.Amount = amount.Mul(rate)
	c.RateUsed = rate
	return c
}

// LineTax returns the tax owed on a line amount.
func LineTax(amount models.Money, taxType string) models.Money {
	if taxType != models.TaxVAT {
		return 0
	}
	return amount.Mul(VATRate)
}

// ValidTaxType reports whether t is a supported tax classification.
func ValidTaxType(t string) bool {
	return t == models.TaxVAT || t == models.TaxNonVAT
}
