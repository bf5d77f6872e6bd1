package approval

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/bots-empire/referral-bank/internal/model"
)

var ErrInvalidAmount = errors.New("proof amount must be positive")

type Store interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	CreateProof(ctx context.Context, proof model.PaymentProof) (model.PaymentProof, error)
	PendingProofs(ctx context.Context) ([]model.PaymentProof, error)
	ApproveProof(ctx context.Context, proofID, depositID string) (model.PaymentProof, error)
	RejectProof(ctx context.Context, proofID string) (model.PaymentProof, error)
	Stats(ctx context.Context) (model.AdminStats, error)
}

type Distributor interface {
	Distribute(ctx context.Context, depositID, userID string, amount decimal.Decimal) (model.DistributionResult, error)
}

// Service is the moderation seam: it turns pending proofs into approved
// deposits and hands each approved deposit to the distributor exactly once.
type Service struct {
	store       Store
	distributor Distributor
}

func NewService(store Store, distributor Distributor) *Service {
	return &Service{
		store:       store,
		distributor: distributor,
	}
}

func (s *Service) SubmitProof(ctx context.Context, userID string, amount decimal.Decimal, screenshotURL string) (model.PaymentProof, error) {
	if !amount.IsPositive() {
		return model.PaymentProof{}, ErrInvalidAmount
	}

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return model.PaymentProof{}, errors.Wrap(err, "failed to get proof owner")
	}

	proof := model.PaymentProof{
		ID:            uuid.NewString(),
		UserID:        userID,
		Amount:        amount,
		ScreenshotURL: screenshotURL,
		Status:        model.ProofPending,
	}

	return s.store.CreateProof(ctx, proof)
}

func (s *Service) PendingProofs(ctx context.Context) ([]model.PaymentProof, error) {
	return s.store.PendingProofs(ctx)
}

// Approve flips the proof to Approved and distributes the deposit. The
// deposit id is minted once and stored on the proof before distribution, so
// a retried approval replays the same id and the distributor's idempotency
// keeps the money from moving twice.
func (s *Service) Approve(ctx context.Context, proofID string) (model.DistributionResult, error) {
	proof, err := s.store.ApproveProof(ctx, proofID, uuid.NewString())
	if err != nil {
		return model.DistributionResult{}, errors.Wrap(err, "failed to approve proof")
	}

	result, err := s.distributor.Distribute(ctx, proof.DepositID, proof.UserID, proof.Amount)
	if err != nil {
		// The proof is durably Approved with its deposit id; retrying
		// Approve resumes from here without a second id.
		return model.DistributionResult{}, errors.Wrap(err, "failed to distribute approved deposit")
	}

	return result, nil
}

func (s *Service) Reject(ctx context.Context, proofID string) (model.PaymentProof, error) {
	proof, err := s.store.RejectProof(ctx, proofID)
	if err != nil {
		return model.PaymentProof{}, errors.Wrap(err, "failed to reject proof")
	}

	return proof, nil
}

// GetLedger returns one user's balance and income breakdown for reporting.
func (s *Service) GetLedger(ctx context.Context, userID string) (model.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) Stats(ctx context.Context) (model.AdminStats, error) {
	return s.store.Stats(ctx)
}
