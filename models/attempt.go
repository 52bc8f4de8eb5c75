package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission attempt states. An attempt moves pending -> promoted -> submitted,
// or to failed from either of the first two.
const (
	AttemptPending   = "pending"
	AttemptPromoted  = "promoted"
	AttemptSubmitted = "submitted"
	AttemptFailed    = "failed"
)

// Failure phases. A mapping failure means the batch promotion succeeded but
// some created records could not be linked to their virtual charges.
const (
	PhasePromotion  = "promotion"
	PhaseMapping    = "mapping"
	PhaseSubmission = "submission"
)

// SubmissionAttempt records one promote-then-create run so that a crash
// between the two calls leaves the identifier mapping behind.
type SubmissionAttempt struct {
	ID             uuid.UUID         `json:"id"`
	ProjectID      string            `json:"project_id"`
	State          string            `json:"state"`
	ChargeIDs      []string          `json:"charge_ids"`
	IDMapping      map[string]string `json:"id_mapping"`
	InvoiceNumber  *string           `json:"invoice_number,omitempty"`
	JournalEntryID *string           `json:"journal_entry_id,omitempty"`
	FailurePhase   *string           `json:"failure_phase,omitempty"`
	Error          *string           `json:"error,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
