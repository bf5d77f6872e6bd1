package distributor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/bots-empire/referral-bank/internal/model"
	"github.com/bots-empire/referral-bank/internal/store"
)

var (
	ErrInvalidAmount    = errors.New("deposit amount must be positive")
	ErrInvalidDepositID = errors.New("deposit id must not be empty")
)

// Ledger is the write side of the engine. ApplyDistribution must be atomic
// and must fail with store.ErrDepositExists when the deposit id was already
// recorded; GetDistribution must return store.ErrDepositNotFound for an
// unknown id.
type Ledger interface {
	GetDistribution(ctx context.Context, depositID string) (model.DistributionResult, error)
	ApplyDistribution(ctx context.Context, dep model.Deposit, credits []model.LevelCredit) error
}

type Walker interface {
	AncestorChain(ctx context.Context, userID string, maxDepth int) ([]model.User, error)
}

type Service struct {
	ledger Ledger
	walker Walker
	plan   *model.CommissionPlan
}

func NewService(ledger Ledger, walker Walker, plan *model.CommissionPlan) *Service {
	return &Service{
		ledger: ledger,
		walker: walker,
		plan:   plan,
	}
}

// Distribute credits an approved deposit to the depositor's balance and pays
// the per-level commissions to the ancestor chain, all in one atomic unit.
// Replaying a deposit id returns the recorded result with Replayed set and
// changes nothing.
func (s *Service) Distribute(ctx context.Context, depositID, userID string, amount decimal.Decimal) (model.DistributionResult, error) {
	if depositID == "" {
		return model.DistributionResult{}, ErrInvalidDepositID
	}
	if !amount.IsPositive() {
		return model.DistributionResult{}, ErrInvalidAmount
	}

	recorded, err := s.ledger.GetDistribution(ctx, depositID)
	if err == nil {
		model.DepositsDistributed.WithLabelValues("replayed").Inc()
		recorded.Replayed = true
		return recorded, nil
	}
	if !errors.Is(err, store.ErrDepositNotFound) {
		return model.DistributionResult{}, errors.Wrap(err, "failed to check deposit")
	}

	chain, err := s.walker.AncestorChain(ctx, userID, s.plan.MaxLevel())
	if err != nil {
		model.DepositsDistributed.WithLabelValues("failed").Inc()
		return model.DistributionResult{}, errors.Wrap(err, "failed to walk ancestor chain")
	}

	credits := s.levelCredits(amount, chain)

	dep := model.Deposit{
		ID:     depositID,
		UserID: userID,
		Amount: amount,
		Status: model.DepositApproved,
	}

	err = s.ledger.ApplyDistribution(ctx, dep, credits)
	if errors.Is(err, store.ErrDepositExists) {
		// A concurrent twin of this call committed first; its result is
		// the result.
		recorded, err := s.ledger.GetDistribution(ctx, depositID)
		if err != nil {
			return model.DistributionResult{}, errors.Wrap(err, "failed to read recorded distribution")
		}

		model.DepositsDistributed.WithLabelValues("replayed").Inc()
		recorded.Replayed = true
		return recorded, nil
	}
	if err != nil {
		model.DepositsDistributed.WithLabelValues("failed").Inc()
		return model.DistributionResult{}, errors.Wrap(err, "failed to apply distribution")
	}

	model.DepositsDistributed.WithLabelValues("applied").Inc()
	for _, credit := range credits {
		amt, _ := credit.Amount.Float64()
		model.CommissionCredited.WithLabelValues(credit.Bucket).Add(amt)
	}

	return model.DistributionResult{
		DepositID: depositID,
		UserID:    userID,
		Amount:    amount,
		Credits:   credits,
	}, nil
}

// levelCredits computes the payout per ancestor. Level 1 pays the direct
// bucket, deeper levels pay the level bucket. Levels past the end of the
// chain, and levels the plan prices at zero, pay nothing.
func (s *Service) levelCredits(amount decimal.Decimal, chain []model.User) []model.LevelCredit {
	credits := make([]model.LevelCredit, 0, len(chain))

	for i, ancestor := range chain {
		lvl := i + 1

		percent := s.plan.Percent(lvl)
		if percent.IsZero() {
			continue
		}

		bucket := model.BucketLevel
		if lvl == 1 {
			bucket = model.BucketDirect
		}

		credits = append(credits, model.LevelCredit{
			Level:  lvl,
			UserID: ancestor.ID,
			Bucket: bucket,
			Amount: amount.Mul(percent).Div(decimal.NewFromInt(100)),
		})
	}

	return credits
}
