package handlers

import (
	"net/http"

	"github.com/satheeshds/invoicing/models"
)

// ListRevenueAccounts lists accounts revenue can be credited to
// @Summary      List revenue accounts
// @Description  Income accounts that may be chosen as revenue_account_id when submitting an invoice.
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  Response{data=[]models.Account}
// @Failure      502  {object}  Response{error=string}
// @Router       /accounts/revenue [get]
// @Security     BasicAuth
func ListRevenueAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := Hosted.ListAccounts(r.Context(), models.AccountTypeIncome)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	// Keep only Income accounts even if the service ignores the type filter.
	out := []models.Account{}
	for _, a := range accounts {
		if a.Chargeable() {
			out = append(out, a)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
