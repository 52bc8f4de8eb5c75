package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicing/models"
)

// InvoiceCreator is the invoice-creation endpoint. Ledger posting happens on
// its side when a revenue account is given.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, req models.CreateInvoiceRequest) (models.CreateInvoiceResult, error)
}

// AttemptStore records the progress of each submission.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, a *models.SubmissionAttempt) error
	UpdateAttempt(ctx context.Context, a *models.SubmissionAttempt) error
}

// Outcome tells whether invoice creation also produced a journal entry.
type Outcome string

const (
	OutcomePosted               Outcome = "posted_with_ledger_entry"
	OutcomeCreatedWithoutLedger Outcome = "created_without_ledger_entry"
)

// SubmitRequest is one invoice-creation attempt.
type SubmitRequest struct {
	ProjectID        string
	Draft            DraftInput
	RevenueAccountID *string
}

// Result describes a created invoice.
type Result struct {
	AttemptID uuid.UUID
	Invoice   models.Invoice
	Outcome   Outcome
	ChargeIDs []string
	Mapping   Mapping
}

// Submitter promotes virtual charges and creates the invoice. The two calls
// run in sequence and are never retried.
type Submitter struct {
	Promoter *Promoter
	Creator  InvoiceCreator
	Attempts AttemptStore
}

// Submit validates the draft, promotes its virtual charges, recomputes the
// invoice from the remapped charges and creates it.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	if req.ProjectID == "" {
		return nil, &ValidationError{Field: "project_id", Err: errors.New("project is required")}
	}
	if err := req.Draft.Validate(); err != nil {
		return nil, err
	}
	if req.RevenueAccountID != nil && *req.RevenueAccountID == "" {
		req.RevenueAccountID = nil
	}

	// Promotion and creation run under one project lock so no other
	// submission can pick up the same records in between.
	release, err := s.Promoter.Lock(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	defer release()

	attempt := &models.SubmissionAttempt{
		ID:        uuid.New(),
		ProjectID: req.ProjectID,
		State:     models.AttemptPending,
		ChargeIDs: chargeIDs(req.Draft.Charges),
		IDMapping: map[string]string{},
	}
	if err := s.Attempts.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("recording submission attempt: %w", err)
	}
	log := slog.With("attempt_id", attempt.ID, "project_id", req.ProjectID)

	mapping, err := s.Promoter.PromoteLocked(ctx, req.ProjectID, req.Draft.Charges)
	if err != nil {
		phase := models.PhasePromotion
		var im *InconsistentMapping
		if errors.As(err, &im) {
			// The batch went through; the records exist but are not linked.
			phase = models.PhaseMapping
		}
		for k, v := range mapping {
			attempt.IDMapping[k] = v
		}
		s.fail(ctx, attempt, phase, err)
		log.Error("promotion failed", "error", err, "phase", phase)
		return nil, err
	}
	attempt.State = models.AttemptPromoted
	attempt.IDMapping = mapping
	if err := s.Attempts.UpdateAttempt(ctx, attempt); err != nil {
		log.Error("failed to record promotion", "error", err, "id_mapping", mapping)
		return nil, &SubmissionFailure{ProjectID: req.ProjectID, Promoted: mapping, Err: fmt.Errorf("recording promotion: %w", err)}
	}

	final := req.Draft
	final.Charges = mapping.Apply(req.Draft.Charges)
	final.Overrides = rekeyOverrides(req.Draft.Overrides, mapping)
	inv := ComputeDraft(final)
	ids := chargeIDs(final.Charges)

	res, err := s.Creator.CreateInvoice(ctx, models.CreateInvoiceRequest{
		ProjectID:        req.ProjectID,
		BillingItemIDs:   ids,
		InvoiceDate:      inv.InvoiceDate,
		DueDate:          inv.DueDate,
		CustomerID:       inv.CustomerID,
		CustomerName:     inv.CustomerName,
		CustomerAddress:  inv.CustomerAddress,
		ProjectNumber:    inv.ProjectNumber,
		LineItems:        inv.LineItems,
		Subtotal:         inv.Subtotal,
		TaxAmount:        inv.TaxAmount,
		TotalAmount:      inv.TotalAmount,
		Currency:         inv.Currency,
		ExchangeRate:     inv.ExchangeRate,
		OriginalCurrency: inv.OriginalCurrency,
		RevenueAccountID: req.RevenueAccountID,
		Notes:            inv.Notes,
		Metadata:         inv.Metadata,
	})
	if err == nil && res.InvoiceNumber == "" {
		err = fmt.Errorf("%w: missing invoice number", ErrMalformedResponse)
	}
	if err != nil {
		s.fail(ctx, attempt, models.PhaseSubmission, err)
		log.Error("invoice creation failed", "error", err, "promoted", len(mapping))
		return nil, &SubmissionFailure{ProjectID: req.ProjectID, Promoted: mapping, Err: err}
	}

	attempt.State = models.AttemptSubmitted
	attempt.InvoiceNumber = &res.InvoiceNumber
	attempt.JournalEntryID = res.JournalEntryID
	if err := s.Attempts.UpdateAttempt(ctx, attempt); err != nil {
		// The invoice exists at this point.
		log.Error("failed to record submitted attempt", "error", err, "invoice_number", res.InvoiceNumber)
	}

	inv.ID = res.InvoiceID
	if inv.ID == "" {
		inv.ID = res.InvoiceNumber
	}
	inv.InvoiceNumber = res.InvoiceNumber
	inv.Status = models.InvoicePosted
	inv.RevenueAccountID = req.RevenueAccountID
	inv.JournalEntryID = res.JournalEntryID

	outcome := OutcomeCreatedWithoutLedger
	if res.JournalEntryID != nil && *res.JournalEntryID != "" {
		outcome = OutcomePosted
	} else if req.RevenueAccountID != nil {
		log.Warn("revenue account given but no journal entry returned", "invoice_number", res.InvoiceNumber)
	}
	log.Info("invoice created", "invoice_number", res.InvoiceNumber, "outcome", outcome, "total", inv.TotalAmount)

	return &Result{
		AttemptID: attempt.ID,
		Invoice:   inv,
		Outcome:   outcome,
		ChargeIDs: ids,
		Mapping:   mapping,
	}, nil
}

func (s *Submitter) fail(ctx context.Context, a *models.SubmissionAttempt, phase string, cause error) {
	msg := cause.Error()
	a.State = models.AttemptFailed
	a.FailurePhase = &phase
	a.Error = &msg
	if err := s.Attempts.UpdateAttempt(ctx, a); err != nil {
		slog.Error("failed to record failed attempt", "attempt_id", a.ID, "phase", phase, "id_mapping", a.IDMapping, "error", err)
	}
}

func chargeIDs(charges []models.ChargeRecord) []string {
	ids := make([]string, len(charges))
	for i, c := range charges {
		ids[i] = c.ID
	}
	return ids
}

func rekeyOverrides(in map[string]models.LineOverride, m Mapping) map[string]models.LineOverride {
	out := make(map[string]models.LineOverride, len(in))
	for id, o := range in {
		out[m.Resolve(id)] = o
	}
	return out
}
