package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/satheeshds/invoicing/models"
)

var errNetwork = errors.New("connection reset by peer")

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func charge(id string, amount models.Money, currency string) models.ChargeRecord {
	return models.ChargeRecord{
		ID:          id,
		ProjectID:   "p1",
		Description: "charge " + id,
		Amount:      amount,
		Currency:    currency,
		Status:      models.ChargeUnbilled,
		CreatedAt:   testNow,
	}
}

// fakeHosted stands in for the hosted back-office API.
type fakeHosted struct {
	mu         sync.Mutex
	records    []models.ChargeRecord
	quotation  []models.QuotationItem
	promoteErr error
	listErr    error
	// dropRefs strips the quotation reference from promoted records.
	dropRefs bool
	// rename changes the description of promoted records.
	rename bool
	// mangle edits each promoted record as returned to the caller.
	mangle   func(*models.ChargeRecord)
	promotes int
	nextID   int
}

func (f *fakeHosted) ListChargeRecords(ctx context.Context, projectID string) ([]models.ChargeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.ChargeRecord(nil), f.records...), nil
}

func (f *fakeHosted) ListQuotationItems(ctx context.Context, projectID string) ([]models.QuotationItem, error) {
	return f.quotation, nil
}

func (f *fakeHosted) PromoteCharges(ctx context.Context, projectID string, items []models.NewChargeRecord) ([]models.ChargeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.promotes++
	if f.promoteErr != nil {
		return nil, f.promoteErr
	}
	var out []models.ChargeRecord
	for _, it := range items {
		f.nextID++
		r := models.ChargeRecord{
			ID:                    fmt.Sprintf("bi-%d", f.nextID),
			ProjectID:             projectID,
			Description:           it.Description,
			Amount:                it.Amount,
			Currency:              it.Currency,
			ServiceType:           it.ServiceType,
			Status:                it.Status,
			CreatedAt:             testNow,
			SourceQuotationItemID: it.SourceQuotationItemID,
		}
		if f.rename {
			r.Description += " (edited)"
		}
		f.records = append(f.records, r)
		if f.dropRefs {
			r.SourceQuotationItemID = nil
		}
		if f.mangle != nil {
			f.mangle(&r)
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeHosted) markBilled(ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		for i := range f.records {
			if f.records[i].ID == id {
				f.records[i].Status = models.ChargeBilled
			}
		}
	}
}

// fakeCreator records invoice-creation requests.
type fakeCreator struct {
	hosted   *fakeHosted
	err      error
	blank    bool
	// during runs inside CreateInvoice, before the invoice exists.
	during   func()
	result   models.CreateInvoiceResult
	requests []models.CreateInvoiceRequest
}

func (f *fakeCreator) CreateInvoice(ctx context.Context, req models.CreateInvoiceRequest) (models.CreateInvoiceResult, error) {
	f.requests = append(f.requests, req)
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return models.CreateInvoiceResult{}, f.err
	}
	if f.blank {
		return models.CreateInvoiceResult{}, nil
	}
	if f.hosted != nil {
		f.hosted.markBilled(req.BillingItemIDs)
	}
	res := f.result
	if res.InvoiceNumber == "" {
		res = models.CreateInvoiceResult{InvoiceID: "inv-1", InvoiceNumber: "INV-0001"}
		if req.RevenueAccountID != nil {
			res.JournalEntryID = strPtr("je-1")
		}
	}
	return res, nil
}

// fakeAttempts keeps every state an attempt went through.
type fakeAttempts struct {
	created   int
	states    []string
	last      models.SubmissionAttempt
	updateErr error
}

func (f *fakeAttempts) CreateAttempt(ctx context.Context, a *models.SubmissionAttempt) error {
	f.created++
	f.states = append(f.states, a.State)
	f.last = *a
	return nil
}

func (f *fakeAttempts) UpdateAttempt(ctx context.Context, a *models.SubmissionAttempt) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.states = append(f.states, a.State)
	f.last = *a
	return nil
}

// fakeLocker refuses keys that are already held.
type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	obtained []string
}

func (f *fakeLocker) Obtain(ctx context.Context, key string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held == nil {
		f.held = make(map[string]bool)
	}
	if f.held[key] {
		return nil, ErrPromotionLocked
	}
	f.held[key] = true
	f.obtained = append(f.obtained, key)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, key)
	}, nil
}
