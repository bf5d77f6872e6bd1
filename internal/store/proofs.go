package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/bots-empire/referral-bank/internal/model"
)

func (s *Store) CreateProof(ctx context.Context, proof model.PaymentProof) (model.PaymentProof, error) {
	err := s.db.QueryRowContext(ctx, `
INSERT INTO refbank.payment_proofs (id, user_id, amount, screenshot_url, status)
	VALUES ($1, $2, $3, $4, $5)
RETURNING created_at;`,
		proof.ID,
		proof.UserID,
		proof.Amount,
		proof.ScreenshotURL,
		proof.Status).
		Scan(&proof.CreatedAt)
	if err != nil {
		return model.PaymentProof{}, errors.Wrap(err, "failed to create payment proof")
	}

	return proof, nil
}

func (s *Store) PendingProofs(ctx context.Context) ([]model.PaymentProof, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, amount, screenshot_url, status, deposit_id, created_at
	FROM refbank.payment_proofs
WHERE status = $1
ORDER BY created_at;`,
		model.ProofPending)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select pending proofs")
	}

	return readProofs(rows)
}

// ApproveProof flips a pending proof to Approved and pins depositID on it.
// A proof that is already Approved keeps its original deposit id, so retries
// of the approval reuse the same idempotency key for distribution.
func (s *Store) ApproveProof(ctx context.Context, proofID, depositID string) (model.PaymentProof, error) {
	return s.resolveProof(ctx, proofID, model.ProofApproved, depositID)
}

func (s *Store) RejectProof(ctx context.Context, proofID string) (model.PaymentProof, error) {
	return s.resolveProof(ctx, proofID, model.ProofRejected, "")
}

func (s *Store) resolveProof(ctx context.Context, proofID, status, depositID string) (model.PaymentProof, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PaymentProof{}, errors.Wrap(err, "failed to begin proof tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	proof, err := proofForUpdate(ctx, tx, proofID)
	if err != nil {
		return model.PaymentProof{}, err
	}

	// Resolving twice with the same verdict is a retry, not a conflict.
	if proof.Status == status {
		if err := tx.Commit(); err != nil {
			return model.PaymentProof{}, errors.Wrap(err, "failed to commit proof tx")
		}
		return proof, nil
	}

	if proof.Status != model.ProofPending {
		return model.PaymentProof{}, ErrProofResolved
	}

	_, err = tx.ExecContext(ctx, `
UPDATE refbank.payment_proofs
	SET status = $1, deposit_id = $2
WHERE id = $3;`,
		status,
		nullable(depositID),
		proofID)
	if err != nil {
		return model.PaymentProof{}, errors.Wrap(err, "failed to resolve proof")
	}

	proof.Status = status
	proof.DepositID = depositID

	if err := tx.Commit(); err != nil {
		return model.PaymentProof{}, errors.Wrap(err, "failed to commit proof tx")
	}

	return proof, nil
}

func proofForUpdate(ctx context.Context, tx *sql.Tx, proofID string) (model.PaymentProof, error) {
	var (
		proof     model.PaymentProof
		depositID sql.NullString
	)
	err := tx.QueryRowContext(ctx, `
SELECT id, user_id, amount, screenshot_url, status, deposit_id, created_at
	FROM refbank.payment_proofs
WHERE id = $1
FOR UPDATE;`,
		proofID).
		Scan(&proof.ID,
			&proof.UserID,
			&proof.Amount,
			&proof.ScreenshotURL,
			&proof.Status,
			&depositID,
			&proof.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PaymentProof{}, ErrProofNotFound
		}
		return model.PaymentProof{}, errors.Wrap(err, "failed to get proof")
	}

	proof.DepositID = depositID.String
	return proof, nil
}

func readProofs(rows *sql.Rows) ([]model.PaymentProof, error) {
	defer rows.Close()

	proofs := make([]model.PaymentProof, 0)

	for rows.Next() {
		var (
			proof     model.PaymentProof
			depositID sql.NullString
		)
		err := rows.Scan(&proof.ID,
			&proof.UserID,
			&proof.Amount,
			&proof.ScreenshotURL,
			&proof.Status,
			&depositID,
			&proof.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan proof row")
		}

		proof.DepositID = depositID.String
		proofs = append(proofs, proof)
	}

	return proofs, rows.Err()
}

func nullable(value string) sql.NullString {
	return sql.NullString{
		String: value,
		Valid:  value != "",
	}
}
