package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the invoice currency of new sessions that do not name one.
var DefaultCurrency = "PHP"

// ChargeView is a charge as shown in a drafting session.
type ChargeView struct {
	models.ChargeRecord
	Selected bool                 `json:"selected"`
	Override *models.LineOverride `json:"override,omitempty"`
}

// SessionView is the state of a drafting session.
type SessionView struct {
	ID        uuid.UUID      `json:"id"`
	ProjectID string         `json:"project_id"`
	Charges   []ChargeView   `json:"charges"`
	Terms     billing.Terms  `json:"terms"`
	Draft     models.Invoice `json:"draft"`
	Issue     string         `json:"issue,omitempty"`
}

// DraftView is a draft invoice with the reason it cannot be submitted yet, if any.
type DraftView struct {
	Draft models.Invoice `json:"draft"`
	Issue string         `json:"issue,omitempty"`
}

// SubmitView is the result of a successful submission.
type SubmitView struct {
	AttemptID    uuid.UUID       `json:"attempt_id"`
	Invoice      models.Invoice  `json:"invoice"`
	Outcome      billing.Outcome `json:"outcome"`
	LedgerPosted bool            `json:"ledger_posted"`
	Message      string          `json:"message"`
	ChargeIDs    []string        `json:"charge_ids"`
}

// viewSession renders s; the caller holds its lock.
func viewSession(s *billing.Session) SessionView {
	charges := s.Selection.Charges()
	v := SessionView{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		Charges:   make([]ChargeView, 0, len(charges)),
		Terms:     s.Terms(),
		Draft:     s.Draft(),
	}
	for _, c := range charges {
		cv := ChargeView{ChargeRecord: c}
		if o, ok := s.Selection.Override(c.ID); ok {
			cv.Selected = true
			cv.Override = &o
		}
		v.Charges = append(v.Charges, cv)
	}
	if err := s.Input().Validate(); err != nil {
		v.Issue = err.Error()
	}
	return v
}

func loadSession(w http.ResponseWriter, r *http.Request) (*billing.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}
	s, ok := Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

// CreateSession opens a drafting session
// @Summary      Create drafting session
// @Description  Load the unbilled charges of a project, including virtual charges from its quotation, and start a draft.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        session  body      models.SessionInput  true  "Project and currency"
// @Success      201      {object}  Response{data=SessionView}
// @Failure      400      {object}  Response{error=string}
// @Failure      502      {object}  Response{error=string}
// @Router       /sessions [post]
// @Security     BasicAuth
func CreateSession(w http.ResponseWriter, r *http.Request) {
	var input models.SessionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	now := Now()
	charges, err := billing.LoadCharges(r.Context(), Hosted, input.ProjectID, now)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	currency := input.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	s := billing.NewSession(input.ProjectID, charges, billing.Terms{
		Currency:    currency,
		InvoiceDate: models.NewDate(now),
	})
	Sessions.Put(s)
	slog.Info("session created", "session_id", s.ID, "project_id", s.ProjectID, "charges", len(charges))

	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusCreated, viewSession(s))
}

// GetSession retrieves a drafting session
// @Summary      Get drafting session
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  Response{data=SessionView}
// @Failure      404  {object}  Response{error=string}
// @Router       /sessions/{id} [get]
// @Security     BasicAuth
func GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := loadSession(w, r)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusOK, viewSession(s))
}

// DeleteSession cancels a drafting session
// @Summary      Cancel drafting session
// @Description  Discard the selection and overrides of a session.
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /sessions/{id} [delete]
// @Security     BasicAuth
func DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if !Sessions.Delete(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// SelectCharges selects charges
// @Summary      Select charges
// @Description  Select unbilled charges; each gets a default NON-VAT override. All or none are selected.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id     path      string              true  "Session ID"
// @Param        input  body      models.SelectInput  true  "Charge ids"
// @Success      200    {object}  Response{data=SessionView}
// @Failure      400    {object}  Response{error=string}
// @Router       /sessions/{id}/select [post]
// @Security     BasicAuth
func SelectCharges(w http.ResponseWriter, r *http.Request) {
	s, ok := loadSession(w, r)
	if !ok {
		return
	}
	var input models.SelectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s.Lock()
	defer s.Unlock()
	if err := s.Selection.SelectMany(input.ChargeIDs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewSession(s))
}

// DeselectCharges deselects charges
// @Summary      Deselect charges
// @Description  Remove charges and their overrides from the selection.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id     path      string              true  "Session ID"
// @Param        input  body      models.SelectInput  true  "Charge ids"
// @Success      200    {object}  Response{data=SessionView}
// @Router       /sessions/{id}/deselect [post]
// @Security     BasicAuth
func DeselectCharges(w http.ResponseWriter, r *http.Request) {
	s, ok := loadSession(w, r)
	if !ok {
		return
	}
	var input models.SelectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s.Lock()
	defer s.Unlock()
	for _, id := range input.ChargeIDs {
		s.Selection.Deselect(id)
	}
	writeJSON(w, http.StatusOK, viewSession(s))
}

// SelectAllCharges selects every unbilled charge
// @Summary      Select all charges
// @Description  Select every unbilled charge that is not selected yet. Existing overrides are kept.
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  Response{data=SessionView}
// @Router       /sessions/{id}/select-all [post]
// @Security     BasicAuth
func SelectAllCharges(w http.ResponseWriter, r *http.Request) {
	s, ok := loadSession(w, r)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	added := s.Selection.SelectAll()
	slog.Debug("select all", "session_id", s.ID, "added", added)
	writeJSON(w, http.StatusOK, viewSession(s))
}

// SetOverride sets the remark and tax type of a selected charge
// @Summary      Set line override
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id        path      string                true  "Session ID"
// @Param        chargeId  path      string                true  "Charge ID"
// @Param        override  body      models.OverrideInput  true  "Remarks and tax type"
// @Success      200       {object}  Response{data=SessionView}
// @Failure      400       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Router       /sessions/{id}/overrides/{chargeId} [put]
// @Security     BasicAuth
func SetOverride(w http.ResponseWriter, r *http.Request) {
	s, ok := loadSession(w, r)
	if !ok {
		return
	}
	var input models.OverrideInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s.Lock()
	defer s.Unlock()
	err := s.Selection.SetOverride(chi.URLParam(r, "chargeId"), models.LineOverride{Remarks: input.Remarks, TaxType: input.TaxType})
	if errors.Is(err, billing.ErrNotSelected) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewSession(s))
}

// SetTerms sets the invoice-level fields of a draft
// @Summary      Set invoice terms
// @Description  Set currency, exchange rate, dates, customer, notes and print metadata.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id     path      string             true  "Session ID"
// @Param        terms  body      models.TermsInput  true  "Invoice terms"
// @Success      200    {object}  Response{data=SessionView}
// @Failure      400    {object}  Response{error=string}
// @Router       /sessions/{id}/terms [put]
// @Security     BasicAuth
func SetTerms(w http.ResponseWriter, r *http.Request) {
	s, ok := loadSession(w, r)
	if !ok {
		return
	}
	var input models.TermsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s.Lock()
	defer s.Unlock()
	t := billing.Terms{
		Currency:      input.Currency,
		ExchangeRate:  decimal.Zero,
		InvoiceDate:   s.Terms().InvoiceDate,
		DueDate:       input.DueDate,
		Customer:      input.Customer,
		ProjectNumber: input.ProjectNumber,
		Notes:         input.Notes,
		Metadata:      input.Metadata,
	}
	if input.ExchangeRate != nil {
		t.ExchangeRate = *input.ExchangeRate
	}
	if input.InvoiceDate != nil {
		t.InvoiceDate = *input.InvoiceDate
	}
	s.SetTerms(t)
	writeJSON(w, http.StatusOK, viewSession(s))
}

// GetDraft computes the draft invoice
// @Summary      Preview draft invoice
// @Description  Compute the draft invoice exactly as it would be submitted, with the reason it cannot be submitted yet.
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  Response{data=DraftView}
// @Router       /sessions/{id}/draft [get]
// @Security     BasicAuth
func GetDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := loadSession(w, r)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	v := DraftView{Draft: s.Draft()}
	if err := s.Input().Validate(); err != nil {
		v.Issue = err.Error()
	}
	writeJSON(w, http.StatusOK, v)
}

// SubmitSession creates the invoice
// @Summary      Submit invoice
// @Description  Promote virtual charges and create the invoice. A journal entry is posted only when a revenue account is given. Nothing is retried; on failure the draft is kept.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id     path      string              true   "Session ID"
// @Param        input  body      models.SubmitInput  false  "Revenue account"
// @Success      201    {object}  Response{data=SubmitView}
// @Failure      400    {object}  Response{error=string}
// @Failure      409    {object}  Response{error=string}
// @Failure      502    {object}  Response{error=string}
// @Router       /sessions/{id}/submit [post]
// @Security     BasicAuth
func SubmitSession(w http.ResponseWriter, r *http.Request) {
	s, ok := loadSession(w, r)
	if !ok {
		return
	}
	var input models.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s.Lock()
	defer s.Unlock()
	res, err := s.Submit(r.Context(), Submitter, Hosted, input.RevenueAccountID, Now())
	if err != nil {
		writeBillingError(w, err)
		return
	}
	Sessions.Delete(s.ID)

	v := SubmitView{
		AttemptID: res.AttemptID,
		Invoice:   res.Invoice,
		Outcome:   res.Outcome,
		ChargeIDs: res.ChargeIDs,
	}
	if res.Outcome == billing.OutcomePosted {
		v.LedgerPosted = true
		v.Message = fmt.Sprintf("invoice %s posted with journal entry %s", res.Invoice.InvoiceNumber, *res.Invoice.JournalEntryID)
	} else {
		v.Message = fmt.Sprintf("invoice %s created without a ledger entry", res.Invoice.InvoiceNumber)
	}
	writeJSON(w, http.StatusCreated, v)
}
