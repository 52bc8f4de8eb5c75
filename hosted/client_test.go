package hosted

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "secret", 5*time.Second)
}

func TestPromoteChargesResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"nested under data", `{"success":true,"data":{"items":[{"id":"bi-1","description":"Trucking","amount":1500.00,"currency":"PHP","status":"unbilled"}]}}`},
		{"top level items", `{"success":true,"items":[{"id":"bi-1","description":"Trucking","amount":"1500.00","currency":"PHP","status":"unbilled"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got batchRequest
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/billing-items/batch" {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}
				if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
					t.Errorf("Authorization = %q", auth)
				}
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					t.Errorf("decoding request: %v", err)
				}
				w.Write([]byte(tt.body))
			})

			qid := "q2"
			records, err := c.PromoteCharges(context.Background(), "p1", []models.NewChargeRecord{{
				Description:           "Trucking",
				Amount:                150000,
				Currency:              "PHP",
				Status:                models.ChargeUnbilled,
				SourceQuotationItemID: &qid,
			}})
			if err != nil {
				t.Fatal(err)
			}
			if len(records) != 1 || records[0].ID != "bi-1" || records[0].Amount != 150000 {
				t.Errorf("records = %+v", records)
			}
			if got.ProjectID != "p1" || len(got.Items) != 1 || got.Items[0].Amount != 150000 {
				t.Errorf("request body = %+v", got)
			}
		})
	}
}

func TestPromoteChargesMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no items", `{"success":true,"data":{}}`},
		{"not json", `<html>gateway</html>`},
		{"items not a list", `{"success":true,"items":{"id":"bi-1"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := c.PromoteCharges(context.Background(), "p1", nil)
			if !errors.Is(err, billing.ErrMalformedResponse) {
				t.Errorf("err = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestCreateInvoice(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   bool
		journalID string
	}{
		{"posted", http.StatusCreated, `{"success":true,"data":{"id":"inv-1","invoice_number":"INV-0001","journal_entry_id":"je-9"}}`, false, "je-9"},
		{"no ledger", http.StatusCreated, `{"success":true,"data":{"id":"inv-1","invoice_number":"INV-0001"}}`, false, ""},
		{"success false", http.StatusOK, `{"success":false,"error":"customer is required"}`, true, ""},
		{"missing success flag", http.StatusOK, `{"data":{"invoice_number":"INV-0001"}}`, true, ""},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			res, err := c.CreateInvoice(context.Background(), models.CreateInvoiceRequest{ProjectID: "p1"})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", res)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if res.InvoiceNumber != "INV-0001" {
				t.Errorf("invoice number = %q", res.InvoiceNumber)
			}
			if tt.journalID == "" && res.JournalEntryID != nil {
				t.Errorf("journal entry = %q, want none", *res.JournalEntryID)
			}
			if tt.journalID != "" && (res.JournalEntryID == nil || *res.JournalEntryID != tt.journalID) {
				t.Errorf("journal entry = %v, want %s", res.JournalEntryID, tt.journalID)
			}
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"error":"amount must be positive"}`))
	})
	_, err := c.ListChargeRecords(context.Background(), "p1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Message != "amount must be positive" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestGetInvoiceNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.GetInvoice(context.Background(), "inv-404")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListQueries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/accounts":
			if r.URL.Query().Get("type") != models.AccountTypeIncome {
				t.Errorf("type = %q", r.URL.Query().Get("type"))
			}
			w.Write([]byte(`{"success":true,"data":[{"id":"acc-1","code":"4000","name":"Service revenue","type":"Income"}]}`))
		case "/collections":
			if r.URL.Query().Get("invoice_id") != "inv-1" || r.URL.Query().Has("project_id") {
				t.Errorf("query = %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"success":true,"data":[{"id":"col-1","invoice_id":"inv-1","amount":250.50,"date":"2026-03-05"}]}`))
		case "/projects/p%201/quotation-items", "/projects/p 1/quotation-items":
			w.Write([]byte(`{"success":true,"data":[]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	accounts, err := c.ListAccounts(ctx, models.AccountTypeIncome)
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 1 || !accounts[0].Chargeable() {
		t.Errorf("accounts = %+v", accounts)
	}

	cols, err := c.ListCollections(ctx, "inv-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 1 || cols[0].Amount != 25050 {
		t.Errorf("collections = %+v", cols)
	}

	items, err := c.ListQuotationItems(ctx, "p 1")
	if err != nil {
		t.Fatal(err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %v, want empty list", items)
	}
}

func TestCurrencyCodesUpperCased(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects/p1/billing-items":
			w.Write([]byte(`{"success":true,"data":[{"id":"bi-1","description":"Trucking","amount":1500,"currency":"php","status":"unbilled"}]}`))
		case "/projects/p1/quotation-items":
			w.Write([]byte(`{"success":true,"data":[{"id":"q1","description":"Customs clearance","amount":2500,"currency":"usd"}]}`))
		case "/billing-items/batch":
			w.Write([]byte(`{"success":true,"data":[{"id":"bi-2","description":"Customs clearance","amount":2500,"currency":"Usd","status":"unbilled"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	records, err := c.ListChargeRecords(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Currency != "PHP" {
		t.Errorf("records = %+v", records)
	}

	items, err := c.ListQuotationItems(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Currency != "USD" {
		t.Errorf("quotation items = %+v", items)
	}

	promoted, err := c.PromoteCharges(ctx, "p1", []models.NewChargeRecord{{Description: "Customs clearance", Amount: 250000, Currency: "USD", Status: models.ChargeUnbilled}})
	if err != nil {
		t.Fatal(err)
	}
	if len(promoted) != 1 || promoted[0].Currency != "USD" {
		t.Errorf("promoted = %+v", promoted)
	}
}
