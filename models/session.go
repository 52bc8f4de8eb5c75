package models

import (
	"github.com/shopspring/decimal"
)

// SessionInput opens a drafting session for a project.
type SessionInput struct {
	ProjectID string `json:"project_id" validate:"required"`
	Currency  string `json:"currency" validate:"omitempty,len=3,uppercase"`
}

func (s *SessionInput) Validate() string {
	return checkStruct(s)
}

// SelectInput names charges to select or deselect.
type SelectInput struct {
	ChargeIDs []string `json:"charge_ids" validate:"required,min=1,dive,required"`
}

func (s *SelectInput) Validate() string {
	return checkStruct(s)
}

// OverrideInput replaces the remark and tax type of a selected charge.
type OverrideInput struct {
	Remarks string `json:"remarks"`
	TaxType string `json:"tax_type" validate:"required,oneof=VAT NON-VAT"`
}

func (o *OverrideInput) Validate() string {
	return checkStruct(o)
}

// TermsInput sets the invoice-level fields of a draft.
type TermsInput struct {
	Currency      string           `json:"currency" validate:"required,len=3,uppercase"`
	ExchangeRate  *decimal.Decimal `json:"exchange_rate"`
	InvoiceDate   *Date            `json:"invoice_date"`
	DueDate       *Date            `json:"due_date"`
	Customer      Customer         `json:"customer"`
	ProjectNumber string           `json:"project_number"`
	Notes         string           `json:"notes"`
	Metadata      InvoiceMetadata  `json:"metadata"`
}

func (t *TermsInput) Validate() string {
	if msg := checkStruct(t); msg != "" {
		return msg
	}
	if t.ExchangeRate != nil && t.ExchangeRate.IsNegative() {
		return "exchange_rate must not be negative"
	}
	if t.InvoiceDate != nil && t.DueDate != nil && t.DueDate.Before(t.InvoiceDate.Time) {
		return "due_date must not be before invoice_date"
	}
	return ""
}

// SubmitInput carries the options of a final submission. An empty revenue
// account id means no ledger posting.
type SubmitInput struct {
	RevenueAccountID *string `json:"revenue_account_id"`
}

func (s *SubmitInput) Validate() string {
	return checkStruct(s)
}
