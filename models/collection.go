package models

// Collection is a payment received against an invoice.
type Collection struct {
	ID        string `json:"id"`
	InvoiceID string `json:"invoice_id"`
	Amount    Money  `json:"amount"`
	Date      Date   `json:"date"`
}
