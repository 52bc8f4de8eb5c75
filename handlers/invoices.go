package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/hosted"
	"github.com/satheeshds/invoicing/models"
)

// InvoiceBalance is an invoice with its balance evaluated at read time.
type InvoiceBalance struct {
	models.Invoice
	Balance billing.Balance `json:"balance"`
}

// ReprintInput replaces the print-only fields of an invoice.
type ReprintInput struct {
	Notes    string                 `json:"notes"`
	Metadata models.InvoiceMetadata `json:"metadata"`
}

// ListInvoices lists invoices with their balances
// @Summary      List invoices
// @Description  Get the invoices of a project, each with its outstanding balance and payment status evaluated now.
// @Tags         invoices
// @Produce      json
// @Param        project_id  query     string  false  "Filter by project"
// @Param        status      query     string  false  "Filter by payment status (open, partial, paid, overdue)"
// @Success      200         {object}  Response{data=[]InvoiceBalance}
// @Failure      502         {object}  Response{error=string}
// @Router       /invoices [get]
// @Security     BasicAuth
func ListInvoices(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	invoices, err := Hosted.ListInvoices(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	collections, err := Hosted.ListCollections(r.Context(), "", projectID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	status := r.URL.Query().Get("status")
	now := Now()
	out := []InvoiceBalance{}
	for _, inv := range invoices {
		b := billing.EvaluateBalance(inv, collections, now)
		if status != "" && b.Status != status {
			continue
		}
		inv.PaymentStatus = b.Status
		out = append(out, InvoiceBalance{Invoice: inv, Balance: b})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetInvoiceBalance evaluates the balance of an invoice
// @Summary      Get invoice balance
// @Description  Outstanding balance and payment status of an invoice, derived from its collections on every call.
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  Response{data=billing.Balance}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id}/balance [get]
// @Security     BasicAuth
func GetInvoiceBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inv, err := Hosted.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, hosted.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
		} else {
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	collections, err := Hosted.ListCollections(r.Context(), id, "")
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, billing.EvaluateBalance(inv, collections, Now()))
}

// ReprintInvoice renders an invoice with new print fields
// @Summary      Reprint invoice
// @Description  Return the stored invoice with replaced notes and print metadata. Line items and totals always come from the stored invoice.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id     path      string        true  "Invoice ID"
// @Param        input  body      ReprintInput  true  "Notes and metadata"
// @Success      200    {object}  Response{data=models.Invoice}
// @Failure      404    {object}  Response{error=string}
// @Router       /invoices/{id}/reprint [post]
// @Security     BasicAuth
func ReprintInvoice(w http.ResponseWriter, r *http.Request) {
	var input ReprintInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	inv, err := Hosted.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, hosted.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
		} else {
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, inv.Reprint(input.Notes, input.Metadata))
}
