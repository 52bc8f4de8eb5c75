package billing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCharges is returned when a draft or submission has nothing selected.
	ErrNoCharges = errors.New("no charges selected")

	// ErrMissingCurrency is returned when the invoice currency has not been set.
	ErrMissingCurrency = errors.New("invoice currency is required")

	// ErrMissingRate is returned when a line needs conversion but no positive
	// exchange rate was entered.
	ErrMissingRate = errors.New("exchange rate is required for foreign-currency charges")

	// ErrNotSelectable is returned for charges that are not unbilled.
	ErrNotSelectable = errors.New("charge is not unbilled")

	// ErrUnknownCharge is returned for ids the session does not know about.
	ErrUnknownCharge = errors.New("unknown charge")

	// ErrNotSelected is returned when an override targets an unselected charge.
	ErrNotSelected = errors.New("charge is not selected")

	// ErrInvalidTaxType is returned for tax types other than VAT and NON-VAT.
	ErrInvalidTaxType = errors.New("tax type must be VAT or NON-VAT")

	// ErrPromotionLocked is returned when another operator holds the promotion
	// lock for the same project.
	ErrPromotionLocked = errors.New("another promotion is in progress for this project")

	// ErrAlreadyBilled is returned when a quotation line was promoted and billed
	// by someone else after the session loaded it.
	ErrAlreadyBilled = errors.New("quotation item already billed")

	// ErrMalformedResponse is returned when the hosted service answers with a
	// body that does not match its contract.
	ErrMalformedResponse = errors.New("malformed response")
)

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PromotionFailure means the batch persistence of virtual charges failed.
// Nothing was created and no charge changed status.
type PromotionFailure struct {
	ProjectID string
	Err       error
}

func (e *PromotionFailure) Error() string {
	return fmt.Sprintf("promoting virtual charges for project %s: %v", e.ProjectID, e.Err)
}

func (e *PromotionFailure) Unwrap() error {
	return e.Err
}

// SubmissionFailure means the invoice-creation call failed. Promoted holds the
// virtual -> persisted mapping of charges that were promoted before the failure;
// those charges are real but still unbilled.
type SubmissionFailure struct {
	ProjectID string
	Promoted  Mapping
	Err       error
}

func (e *SubmissionFailure) Error() string {
	return fmt.Sprintf("creating invoice for project %s: %v", e.ProjectID, e.Err)
}

func (e *SubmissionFailure) Unwrap() error {
	return e.Err
}

// InconsistentMapping means promotion succeeded but some virtual ids could not
// be matched to a persisted record. Resolved holds the ids that did match.
type InconsistentMapping struct {
	Unmapped []string
	Resolved Mapping
}

func (e *InconsistentMapping) Error() string {
	return fmt.Sprintf("no persisted record matches virtual charges: %s", strings.Join(e.Unmapped, ", "))
}
