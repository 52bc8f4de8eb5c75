package handlers

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/reports"
)

// HostedService is the part of the hosted back-office API the handlers use.
type HostedService interface {
	billing.ChargeSource
	ListAccounts(ctx context.Context, accountType string) ([]models.Account, error)
	GetInvoice(ctx context.Context, id string) (models.Invoice, error)
	ListInvoices(ctx context.Context, projectID string) ([]models.Invoice, error)
	ListCollections(ctx context.Context, invoiceID, projectID string) ([]models.Collection, error)
}

// AttemptReader reads recorded submission attempts.
type AttemptReader interface {
	GetAttempt(ctx context.Context, id uuid.UUID) (models.SubmissionAttempt, error)
	ListUnfinished(ctx context.Context, projectID string) ([]models.SubmissionAttempt, error)
}

// Shared dependencies, set once at startup.
var (
	Hosted    HostedService
	Submitter *billing.Submitter
	Attempts  AttemptReader
	Reporter  *reports.Reporter
	Sessions  = billing.NewSessionStore()

	// Now is the clock used for default dates and balance evaluation.
	Now = time.Now
)

// Routes registers the API endpoints on r.
func Routes(r chi.Router) {
	// Drafting sessions
	r.Post("/sessions", CreateSession)
	r.Get("/sessions/{id}", GetSession)
	r.Delete("/sessions/{id}", DeleteSession)
	r.Post("/sessions/{id}/select", SelectCharges)
	r.Post("/sessions/{id}/deselect", DeselectCharges)
	r.Post("/sessions/{id}/select-all", SelectAllCharges)
	r.Put("/sessions/{id}/overrides/{chargeId}", SetOverride)
	r.Put("/sessions/{id}/terms", SetTerms)
	r.Get("/sessions/{id}/draft", GetDraft)
	r.Post("/sessions/{id}/submit", SubmitSession)

	// Invoices (read path)
	r.Get("/invoices", ListInvoices)
	r.Get("/invoices/{id}/balance", GetInvoiceBalance)
	r.Post("/invoices/{id}/reprint", ReprintInvoice)

	// Accounts
	r.Get("/accounts/revenue", ListRevenueAccounts)

	// Submission attempts
	r.Get("/projects/{id}/attempts", ListProjectAttempts)
	r.Get("/attempts/{id}", GetAttempt)

	// Reports
	r.Get("/reports/receivables", GetReceivables)
}
