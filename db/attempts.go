package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/satheeshds/invoicing/models"
)

// ErrAttemptNotFound is returned when no attempt has the requested id.
var ErrAttemptNotFound = errors.New("submission attempt not found")

const attemptSelectQuery = `SELECT id, project_id, state, charge_ids, id_mapping,
		invoice_number, journal_entry_id, failure_phase, error, created_at, updated_at
		FROM submission_attempts`

func scanAttempt(scanner interface{ Scan(...any) error }) (models.SubmissionAttempt, error) {
	var a models.SubmissionAttempt
	err := scanner.Scan(&a.ID, &a.ProjectID, &a.State, &a.ChargeIDs, &a.IDMapping,
		&a.InvoiceNumber, &a.JournalEntryID, &a.FailurePhase, &a.Error, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// AttemptStore persists submission attempts in Postgres.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, a *models.SubmissionAttempt) error {
	if a.IDMapping == nil {
		a.IDMapping = map[string]string{}
	}
	if a.ChargeIDs == nil {
		a.ChargeIDs = []string{}
	}
	err := s.pool.QueryRow(ctx, `INSERT INTO submission_attempts (id, project_id, state, charge_ids, id_mapping)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`,
		a.ID, a.ProjectID, a.State, a.ChargeIDs, a.IDMapping).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) UpdateAttempt(ctx context.Context, a *models.SubmissionAttempt) error {
	if a.IDMapping == nil {
		a.IDMapping = map[string]string{}
	}
	err := s.pool.QueryRow(ctx, `UPDATE submission_attempts SET state = $1, id_mapping = $2,
		invoice_number = $3, journal_entry_id = $4, failure_phase = $5, error = $6, updated_at = now()
		WHERE id = $7 RETURNING updated_at`,
		a.State, a.IDMapping, a.InvoiceNumber, a.JournalEntryID, a.FailurePhase, a.Error, a.ID).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAttemptNotFound
	}
	if err != nil {
		return fmt.Errorf("updating attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) GetAttempt(ctx context.Context, id uuid.UUID) (models.SubmissionAttempt, error) {
	a, err := scanAttempt(s.pool.QueryRow(ctx, attemptSelectQuery+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return a, ErrAttemptNotFound
	}
	return a, err
}

// ListUnfinished returns attempts of a project that stopped before the
// invoice was created but may have promoted charges: still pending or
// promoted, or failed after the batch promotion went through.
func (s *AttemptStore) ListUnfinished(ctx context.Context, projectID string) ([]models.SubmissionAttempt, error) {
	rows, err := s.pool.Query(ctx, attemptSelectQuery+` WHERE project_id = $1
		AND (state IN ('pending', 'promoted') OR (state = 'failed' AND failure_phase IN ('mapping', 'submission')))
		ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.SubmissionAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []models.SubmissionAttempt{}
	}
	return attempts, nil
}
