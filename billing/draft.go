package billing

import (
	"fmt"

	"github.com/satheeshds/invoicing/models"
	"github.com/shopspring/decimal"
)

const (
	// DefaultPaymentTermDays is added to the invoice date when no due date is set.
	DefaultPaymentTermDays = 30

	// DraftNumber is the placeholder id and number of an unsaved invoice.
	DraftNumber = "DRAFT"
)

// DraftInput is everything a draft invoice is computed from.
type DraftInput struct {
	Charges       []models.ChargeRecord
	Overrides     map[string]models.LineOverride
	Currency      string
	ExchangeRate  decimal.Decimal
	InvoiceDate   models.Date
	DueDate       *models.Date
	Customer      models.Customer
	ProjectNumber string
	Notes         string
	Metadata      models.InvoiceMetadata
}

// NeedsRate reports whether any charge is in a currency other than the invoice currency.
func (in DraftInput) NeedsRate() bool {
	for _, c := range in.Charges {
		if NeedsConversion(c.Currency, in.Currency) {
			return true
		}
	}
	return false
}

// Validate checks the input is complete enough to be submitted.
func (in DraftInput) Validate() error {
	if len(in.Charges) == 0 {
		return &ValidationError{Field: "charges", Err: ErrNoCharges}
	}
	if in.Currency == "" {
		return &ValidationError{Field: "currency", Err: ErrMissingCurrency}
	}
	for _, c := range in.Charges {
		if !c.Selectable() {
			return &ValidationError{Field: "charges", Err: fmt.Errorf("%w: %s is %s", ErrNotSelectable, c.ID, c.Status)}
		}
		if o, ok := in.Overrides[c.ID]; ok && !ValidTaxType(o.TaxType) {
			return &ValidationError{Field: "tax_type", Err: fmt.Errorf("%w: %q", ErrInvalidTaxType, o.TaxType)}
		}
	}
	if in.NeedsRate() && !in.ExchangeRate.IsPositive() {
		return &ValidationError{Field: "exchange_rate", Err: ErrMissingRate}
	}
	return nil
}

// ComputeDraft aggregates the selected charges into a draft invoice. It is a
// pure function of its input: the live preview and the submitted payload are
// both built by it.
func ComputeDraft(in DraftInput) models.Invoice {
	due := in.InvoiceDate.AddDays(DefaultPaymentTermDays)
	if in.DueDate != nil && !in.DueDate.IsZero() {
		due = *in.DueDate
	}

	rate := decimal.NewFromInt(1)
	if in.NeedsRate() {
		rate = in.ExchangeRate
	}

	inv := models.Invoice{
		ID:              DraftNumber,
		InvoiceNumber:   DraftNumber,
		InvoiceDate:     in.InvoiceDate,
		DueDate:         due,
		CustomerID:      in.Customer.ID,
		CustomerName:    in.Customer.Name,
		CustomerAddress: in.Customer.Address,
		ProjectNumber:   in.ProjectNumber,
		Currency:        in.Currency,
		ExchangeRate:    rate,
		LineItems:       make([]models.InvoiceLineItem, 0, len(in.Charges)),
		Notes:           in.Notes,
		PaymentStatus:   models.PaymentOpen,
		Status:          models.InvoiceDraft,
		Metadata:        in.Metadata,
	}
	if len(in.Charges) > 0 {
		inv.OriginalCurrency = in.Charges[0].Currency
	}

	for _, c := range in.Charges {
		o, ok := in.Overrides[c.ID]
		if !ok {
			o = models.DefaultOverride()
		}
		conv := Convert(c.Amount, c.Currency, in.Currency, in.ExchangeRate)
		tax := LineTax(conv.Amount, o.TaxType)
		inv.LineItems = append(inv.LineItems, models.InvoiceLineItem{
			SourceID:            c.ID,
			Description:         c.Description,
			Remarks:             o.Remarks,
			Quantity:            1,
			UnitPrice:           conv.Amount,
			Amount:              conv.Amount,
			TaxType:             o.TaxType,
			TaxAmount:           tax,
			OriginalAmount:      conv.OriginalAmount,
			OriginalCurrency:    conv.OriginalCurrency,
			ExchangeRateApplied: conv.RateUsed,
		})
		inv.Subtotal += conv.Amount
		inv.TaxAmount += tax
	}
	inv.TotalAmount = inv.Subtotal + inv.TaxAmount
	return inv
}
