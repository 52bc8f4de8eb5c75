package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicing/models"
	"github.com/shopspring/decimal"
)

// QuotationSource lists the quotation lines virtual charges are built from.
type QuotationSource interface {
	ListQuotationItems(ctx context.Context, projectID string) ([]models.QuotationItem, error)
}

// ChargeSource supplies both persisted charges and quotation lines.
type ChargeSource interface {
	ChargeStore
	QuotationSource
}

// LoadCharges returns the merged charge list of a project.
func LoadCharges(ctx context.Context, src ChargeSource, projectID string, now time.Time) ([]models.ChargeRecord, error) {
	persisted, err := src.ListChargeRecords(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing charges: %w", err)
	}
	items, err := src.ListQuotationItems(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing quotation items: %w", err)
	}
	return MergeCharges(persisted, items, projectID, now), nil
}

// Terms are the invoice-level fields of a draft.
type Terms struct {
	Currency      string                 `json:"currency"`
	ExchangeRate  decimal.Decimal        `json:"exchange_rate"`
	InvoiceDate   models.Date            `json:"invoice_date"`
	DueDate       *models.Date           `json:"due_date,omitempty"`
	Customer      models.Customer        `json:"customer"`
	ProjectNumber string                 `json:"project_number"`
	Notes         string                 `json:"notes"`
	Metadata      models.InvoiceMetadata `json:"metadata"`
}

// Session is one operator's invoice draft. Callers hold the embedded mutex
// while reading or changing it.
type Session struct {
	sync.Mutex

	ID        uuid.UUID
	ProjectID string
	Selection *Selection

	terms    Terms
	termsRev uint64

	memoSel   uint64
	memoTerms uint64
	memo      *models.Invoice
}

// NewSession starts a draft over the charges of a project.
func NewSession(projectID string, charges []models.ChargeRecord, terms Terms) *Session {
	return &Session{
		ID:        uuid.New(),
		ProjectID: projectID,
		Selection: NewSelection(charges),
		terms:     terms,
	}
}

func (s *Session) Terms() Terms {
	return s.terms
}

func (s *Session) SetTerms(t Terms) {
	s.terms = t
	s.termsRev++
}

// Input assembles the draft input from the current selection and terms.
func (s *Session) Input() DraftInput {
	return DraftInput{
		Charges:       s.Selection.Selected(),
		Overrides:     s.Selection.Overrides(),
		Currency:      s.terms.Currency,
		ExchangeRate:  s.terms.ExchangeRate,
		InvoiceDate:   s.terms.InvoiceDate,
		DueDate:       s.terms.DueDate,
		Customer:      s.terms.Customer,
		ProjectNumber: s.terms.ProjectNumber,
		Notes:         s.terms.Notes,
		Metadata:      s.terms.Metadata,
	}
}

// Draft returns the current draft invoice, recomputing it only when the
// selection or terms changed since the last call.
func (s *Session) Draft() models.Invoice {
	sel := s.Selection.Version()
	if s.memo == nil || s.memoSel != sel || s.memoTerms != s.termsRev {
		inv := ComputeDraft(s.Input())
		s.memo = &inv
		s.memoSel = sel
		s.memoTerms = s.termsRev
	}
	out := *s.memo
	out.LineItems = append([]models.InvoiceLineItem(nil), s.memo.LineItems...)
	return out
}

// Submit runs the submission for the current draft. On success the consumed
// charges are marked billed. When a failure happens after promotion the
// charge list is reloaded from src and the selection follows the promoted
// ids, so a retry re-runs the merge instead of resending virtual ids. Any
// other failure leaves the session untouched.
func (s *Session) Submit(ctx context.Context, sub *Submitter, src ChargeSource, revenueAccountID *string, now time.Time) (*Result, error) {
	res, err := sub.Submit(ctx, SubmitRequest{
		ProjectID:        s.ProjectID,
		Draft:            s.Input(),
		RevenueAccountID: revenueAccountID,
	})
	if err == nil {
		s.Selection.Rekey(res.Mapping)
		s.Selection.MarkBilled(res.ChargeIDs)
		return res, nil
	}

	var promoted Mapping
	var sf *SubmissionFailure
	var im *InconsistentMapping
	switch {
	case errors.As(err, &sf):
		promoted = sf.Promoted
	case errors.As(err, &im):
		promoted = im.Resolved
	default:
		return nil, err
	}
	charges, lerr := LoadCharges(ctx, src, s.ProjectID, now)
	if lerr != nil {
		slog.Error("failed to reload charges after partial submission", "session_id", s.ID, "error", lerr)
		s.Selection.Rekey(promoted)
		return nil, err
	}
	s.Selection.Reload(charges, promoted)
	return nil, err
}

// SessionStore keeps open drafting sessions in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]*Session)}
}

func (st *SessionStore) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *SessionStore) Get(id uuid.UUID) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete discards a session with its selection and overrides.
func (st *SessionStore) Delete(id uuid.UUID) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}
