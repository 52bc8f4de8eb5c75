package models

import "time"

const (
	ChargeUnbilled = "unbilled"
	ChargeBilled   = "billed"
)

// ChargeRecord is an amount owed by a customer for a project (a "billing item").
// Virtual records are materialized from a quotation line and have not been persisted yet.
type ChargeRecord struct {
	ID                    string    `json:"id"`
	ProjectID             string    `json:"project_id,omitempty"`
	Description           string    `json:"description"`
	Amount                Money     `json:"amount"`
	Currency              string    `json:"currency"`
	ServiceType           string    `json:"service_type,omitempty"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
	IsVirtual             bool      `json:"is_virtual"`
	SourceQuotationItemID *string   `json:"source_quotation_item_id,omitempty"`
}

// Selectable reports whether the charge may be put on a new invoice.
func (c ChargeRecord) Selectable() bool {
	return c.Status == ChargeUnbilled
}

// NewChargeRecord is the persistence payload for promoting a virtual charge.
type NewChargeRecord struct {
	Description           string  `json:"description"`
	Amount                Money   `json:"amount"`
	Currency              string  `json:"currency"`
	ServiceType           string  `json:"service_type,omitempty"`
	Status                string  `json:"status"`
	SourceQuotationItemID *string `json:"source_quotation_item_id,omitempty"`
}

// QuotationItem is a priced line of an accepted quotation.
type QuotationItem struct {
	ID          string `json:"id"`
	QuotationID string `json:"quotation_id"`
	Description string `json:"description"`
	Amount      Money  `json:"amount"`
	Currency    string `json:"currency"`
	ServiceType string `json:"service_type,omitempty"`
}
