package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DepositApproved = "Approved"

	ProofPending  = "Pending"
	ProofApproved = "Approved"
	ProofRejected = "Rejected"
)

// Deposit is the write-once record of an approved deposit. Its id doubles as
// the idempotency key for commission distribution: a second distribution
// attempt with the same id finds the record and replays the stored result.
type Deposit struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// PaymentProof is a user's claim of a deposit, waiting for moderation.
// DepositID is set once, when the proof is approved, and pins the deposit id
// used for distribution across retries of the approval.
type PaymentProof struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	ScreenshotURL string          `json:"screenshot_url"`
	Status        string          `json:"status"`
	DepositID     string          `json:"deposit_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// LevelCredit is a single commission credited to one ancestor.
type LevelCredit struct {
	Level  int             `json:"level"`
	UserID string          `json:"user_id"`
	Bucket string          `json:"bucket"`
	Amount decimal.Decimal `json:"amount"`
}

// DistributionResult is the per-level breakdown of one distributed deposit.
// Replayed is true when the result was read back from an earlier run instead
// of being applied now; it is not persisted.
type DistributionResult struct {
	DepositID string          `json:"deposit_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Credits   []LevelCredit   `json:"credits"`
	Replayed  bool            `json:"-"`
}

// TotalCredited sums the commissions of all levels.
func (r *DistributionResult) TotalCredited() decimal.Decimal {
	total := decimal.Zero
	for _, credit := range r.Credits {
		total = total.Add(credit.Amount)
	}

	return total
}

type AdminStats struct {
	TotalUsers         int             `json:"total_users"`
	ReferredUsers      int             `json:"referred_users"`
	TotalDepositAmount decimal.Decimal `json:"total_deposit_amount"`
	PendingProofs      int             `json:"pending_proofs"`
}
