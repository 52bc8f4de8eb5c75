package reports

import (
	"context"
	"testing"
	"time"

	"github.com/satheeshds/invoicing/models"
)

func TestReceivables(t *testing.T) {
	r, err := Open()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	asOf := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
	day := func(s string) models.Date {
		d, err := models.ParseDate(s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	invoices := []models.Invoice{
		{ID: "inv-1", CustomerID: "acme", CustomerName: "Acme", TotalAmount: 100000, DueDate: day("2026-07-15")},
		{ID: "inv-2", CustomerID: "acme", CustomerName: "Acme", TotalAmount: 50000, DueDate: day("2026-06-10")},
		{ID: "inv-3", CustomerID: "zen", CustomerName: "Zen Freight", TotalAmount: 80000, DueDate: day("2026-03-01")},
		{ID: "inv-4", CustomerID: "zen", CustomerName: "Zen Freight", TotalAmount: 20000, DueDate: day("2026-01-01")},
	}
	collections := []models.Collection{
		{ID: "col-1", InvoiceID: "inv-1", Amount: 30000},
		{ID: "col-2", InvoiceID: "inv-4", Amount: 20000},
	}

	got, err := r.Receivables(context.Background(), invoices, collections, asOf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Outstanding != 70000+50000+80000 {
		t.Errorf("outstanding = %s", got.Outstanding)
	}

	want := map[string]models.Money{
		models.PaymentPartial + "/current": 70000,
		models.PaymentOverdue + "/1-30":    50000,
		models.PaymentOverdue + "/90+":     80000,
	}
	if len(got.Aging) != len(want) {
		t.Fatalf("aging rows = %+v", got.Aging)
	}
	for _, row := range got.Aging {
		key := row.Status + "/" + row.Bucket
		if want[key] != row.Balance || row.Invoices != 1 {
			t.Errorf("row %s = %s over %d invoices, want %s", key, row.Balance, row.Invoices, want[key])
		}
	}

	if len(got.Customers) != 2 {
		t.Fatalf("customers = %+v", got.Customers)
	}
	if got.Customers[0].CustomerID != "acme" || got.Customers[0].Balance != 120000 || got.Customers[0].Invoices != 2 {
		t.Errorf("top customer = %+v", got.Customers[0])
	}
	if got.Customers[1].CustomerID != "zen" || got.Customers[1].Balance != 80000 {
		t.Errorf("second customer = %+v", got.Customers[1])
	}

	// The scratch table does not leak into the next run.
	again, err := r.Receivables(context.Background(), invoices[:1], nil, asOf)
	if err != nil {
		t.Fatal(err)
	}
	if again.Outstanding != 100000 {
		t.Errorf("second run outstanding = %s, want 1000.00", again.Outstanding)
	}
}

func TestReceivablesEmpty(t *testing.T) {
	r, err := Open()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := r.Receivables(context.Background(), nil, nil, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if got.Outstanding != 0 || len(got.Aging) != 0 || len(got.Customers) != 0 {
		t.Errorf("empty report = %+v", got)
	}
}
