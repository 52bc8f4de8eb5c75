package models

import (
	"github.com/shopspring/decimal"
)

const (
	TaxVAT    = "VAT"
	TaxNonVAT = "NON-VAT"
)

const (
	InvoiceDraft  = "draft"
	InvoicePosted = "posted"
)

// Payment statuses derived on read from collections.
const (
	PaymentOpen    = "open"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"
	PaymentOverdue = "overdue"
)

// LineOverride holds the operator's per-line remark and tax classification.
type LineOverride struct {
	Remarks string `json:"remarks"`
	TaxType string `json:"tax_type"`
}

// DefaultOverride is attached to a charge when it is first selected.
func DefaultOverride() LineOverride {
	return LineOverride{Remarks: "", TaxType: TaxNonVAT}
}

// InvoiceLineItem is one billed charge, frozen at creation time.
type InvoiceLineItem struct {
	SourceID            string          `json:"source_id"`
	Description         string          `json:"description"`
	Remarks             string          `json:"remarks"`
	Quantity            int             `json:"quantity"`
	UnitPrice           Money           `json:"unit_price"`
	Amount              Money           `json:"amount"`
	TaxType             string          `json:"tax_type"`
	TaxAmount           Money           `json:"tax_amount"`
	OriginalAmount      Money           `json:"original_amount"`
	OriginalCurrency    string          `json:"original_currency"`
	ExchangeRateApplied decimal.Decimal `json:"exchange_rate_applied"`
}

// InvoiceMetadata carries print-only settings. Changing it never affects totals.
type InvoiceMetadata struct {
	Signatories    map[string]string `json:"signatories,omitempty"`
	DisplayOptions map[string]bool   `json:"display_options,omitempty"`
	// ZoneAFields holds jurisdiction-specific header fields such as tax ID,
	// bill of lading, consignee and credit terms.
	ZoneAFields map[string]string `json:"zone_a_fields,omitempty"`
}

// Invoice represents a receivable invoice to a customer.
type Invoice struct {
	ID               string            `json:"id"`
	InvoiceNumber    string            `json:"invoice_number"`
	InvoiceDate      Date              `json:"invoice_date"`
	DueDate          Date              `json:"due_date"`
	CustomerID       string            `json:"customer_id"`
	CustomerName     string            `json:"customer_name"`
	CustomerAddress  string            `json:"customer_address"`
	ProjectNumber    string            `json:"project_number"`
	Currency         string            `json:"currency"`
	ExchangeRate     decimal.Decimal   `json:"exchange_rate"`
	OriginalCurrency string            `json:"original_currency"`
	LineItems        []InvoiceLineItem `json:"line_items"`
	Subtotal         Money             `json:"subtotal"`
	TaxAmount        Money             `json:"tax_amount"`
	TotalAmount      Money             `json:"total_amount"`
	Notes            string            `json:"notes"`
	PaymentStatus    string            `json:"payment_status"`
	Status           string            `json:"status"`
	Metadata         InvoiceMetadata   `json:"metadata"`
	RevenueAccountID *string           `json:"revenue_account_id,omitempty"`
	JournalEntryID   *string           `json:"journal_entry_id,omitempty"`
}

// Reprint returns a copy with new notes and print metadata. Line items and
// totals are copied from the stored invoice and cannot be changed this way.
func (inv Invoice) Reprint(notes string, meta InvoiceMetadata) Invoice {
	out := inv
	out.LineItems = append([]InvoiceLineItem(nil), inv.LineItems...)
	out.Notes = notes
	out.Metadata = meta
	return out
}

// Customer identifies who the invoice is billed to.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// CreateInvoiceRequest is the payload sent to the invoice-creation endpoint.
type CreateInvoiceRequest struct {
	ProjectID        string            `json:"project_id"`
	BillingItemIDs   []string          `json:"billing_item_ids"`
	InvoiceDate      Date              `json:"invoice_date"`
	DueDate          Date              `json:"due_date"`
	CustomerID       string            `json:"customer_id"`
	CustomerName     string            `json:"customer_name"`
	CustomerAddress  string            `json:"customer_address"`
	ProjectNumber    string            `json:"project_number"`
	LineItems        []InvoiceLineItem `json:"line_items"`
	Subtotal         Money             `json:"subtotal"`
	TaxAmount        Money             `json:"tax_amount"`
	TotalAmount      Money             `json:"total_amount"`
	Currency         string            `json:"currency"`
	ExchangeRate     decimal.Decimal   `json:"exchange_rate"`
	OriginalCurrency string            `json:"original_currency"`
	RevenueAccountID *string           `json:"revenue_account_id,omitempty"`
	Notes            string            `json:"notes"`
	Metadata         InvoiceMetadata   `json:"metadata"`
}

// CreateInvoiceResult is the normalized success response of invoice creation.
type CreateInvoiceResult struct {
	InvoiceID      string  `json:"id,omitempty"`
	InvoiceNumber  string  `json:"invoice_number"`
	JournalEntryID *string `json:"journal_entry_id,omitempty"`
}
