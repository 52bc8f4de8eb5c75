package billing

import (
	"time"

	"github.com/satheeshds/invoicing/models"
)

// Balance is the outstanding amount of an invoice and its payment status.
type Balance struct {
	InvoiceID string       `json:"invoice_id"`
	Total     models.Money `json:"total_amount"`
	Collected models.Money `json:"collected"`
	Balance   models.Money `json:"balance"`
	Status    string       `json:"status"`
	DaysLate  int          `json:"days_late"`
}

// EvaluateBalance derives the balance of inv from the collections recorded
// against it as of the given day. Collections for other invoices are ignored.
// The result is never stored; call it on every read.
func EvaluateBalance(inv models.Invoice, collections []models.Collection, asOf time.Time) Balance {
	b := Balance{InvoiceID: inv.ID, Total: inv.TotalAmount}
	for _, c := range collections {
		if c.InvoiceID == inv.ID {
			b.Collected += c.Amount
		}
	}
	b.Balance = inv.TotalAmount - b.Collected

	today := models.NewDate(asOf)
	overdue := !inv.DueDate.IsZero() && today.After(inv.DueDate.Time)
	switch {
	case b.Balance <= 0:
		b.Status = models.PaymentPaid
	case overdue:
		b.Status = models.PaymentOverdue
		b.DaysLate = int(today.Sub(inv.DueDate.Time).Hours() / 24)
	case b.Balance < inv.TotalAmount:
		b.Status = models.PaymentPartial
	default:
		b.Status = models.PaymentOpen
	}
	return b
}
