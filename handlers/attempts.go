package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/satheeshds/invoicing/db"
)

// ListProjectAttempts lists unfinished submission attempts
// @Summary      List unfinished submissions
// @Description  Attempts of a project that stopped after promoting charges but before an invoice was created.
// @Tags         projects
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  Response{data=[]models.SubmissionAttempt}
// @Router       /projects/{id}/attempts [get]
// @Security     BasicAuth
func ListProjectAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := Attempts.ListUnfinished(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

// GetAttempt retrieves a submission attempt
// @Summary      Get submission attempt
// @Description  State, failure phase and virtual-to-persisted id mapping of one submission.
// @Tags         attempts
// @Produce      json
// @Param        id   path      string  true  "Attempt ID"
// @Success      200  {object}  Response{data=models.SubmissionAttempt}
// @Failure      400  {object}  Response{error=string}
// @Failure      404  {object}  Response{error=string}
// @Router       /attempts/{id} [get]
// @Security     BasicAuth
func GetAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid attempt id")
		return
	}
	a, err := Attempts.GetAttempt(r.Context(), id)
	if errors.Is(err, db.ErrAttemptNotFound) {
		writeError(w, http.StatusNotFound, "attempt not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}
