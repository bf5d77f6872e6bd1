package referral

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bots-empire/referral-bank/internal/model"
)

// Ledger is the read side the walker needs: single-user lookups.
type Ledger interface {
	GetUser(ctx context.Context, id string) (model.User, error)
}

type Service struct {
	ledger Ledger
}

func NewService(ledger Ledger) *Service {
	return &Service{
		ledger: ledger,
	}
}

// AncestorChain walks the parent links starting from userID's direct referrer
// and returns the ancestors nearest first, at most maxDepth of them. The walk
// never trusts the graph to be acyclic: a parent id seen earlier in the chain
// (the depositor included) ends the walk instead of looping. A missing
// ancestor is an error — it means the referral graph lost a record.
func (s *Service) AncestorChain(ctx context.Context, userID string, maxDepth int) ([]model.User, error) {
	user, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get depositor")
	}

	seen := map[string]bool{user.ID: true}
	chain := make([]model.User, 0, maxDepth)

	next := user.ParentID
	for next != nil && len(chain) < maxDepth {
		if seen[*next] {
			break
		}

		parent, err := s.ledger.GetUser(ctx, *next)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get ancestor at level %d", len(chain)+1)
		}

		seen[parent.ID] = true
		chain = append(chain, parent)
		next = parent.ParentID
	}

	return chain, nil
}
