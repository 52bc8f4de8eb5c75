package handlers

import (
	"net/http"

	"github.com/satheeshds/invoicing/models"
)

// GetReceivables retrieves the receivables aging summary
// @Summary      Receivables summary
// @Description  Unpaid balances grouped by payment status, days overdue and customer.
// @Tags         reports
// @Produce      json
// @Param        project_id  query     string  false  "Filter by project"
// @Param        as_of       query     string  false  "Evaluation day (YYYY-MM-DD), defaults to today"
// @Success      200         {object}  Response{data=reports.Receivables}
// @Failure      400         {object}  Response{error=string}
// @Failure      502         {object}  Response{error=string}
// @Router       /reports/receivables [get]
// @Security     BasicAuth
func GetReceivables(w http.ResponseWriter, r *http.Request) {
	asOf := Now()
	if s := r.URL.Query().Get("as_of"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
		asOf = d.Time
	}

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

	summary, err := Reporter.Receivables(r.Context(), invoices, collections, asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
