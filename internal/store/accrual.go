package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/bots-empire/referral-bank/internal/model"
)

// PositiveBalanceUsers lists every user eligible for the daily trading bonus.
// Only id, parent link and balance are filled in.
func (s *Store) PositiveBalanceUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, parent_id, balance
	FROM refbank.users
WHERE balance > 0
ORDER BY id;`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select positive balances")
	}

	return readBalances(rows)
}

// CreditTradingIncome credits one user's daily trading bonus. The per-day
// marker row and the income update share a transaction, so the bonus lands
// at most once per user per calendar day no matter how often the job runs.
func (s *Store) CreditTradingIncome(ctx context.Context, userID, day string, amount decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin accrual tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO refbank.accrual_credits (user_id, day, amount)
	VALUES ($1, $2, $3);`,
		userID,
		day,
		amount)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyAccrued
		}
		return errors.Wrap(err, "failed to insert accrual marker")
	}

	if err := creditIncome(ctx, tx, userID, model.BucketTrading, amount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit accrual tx")
	}

	return nil
}

func readBalances(rows *sql.Rows) ([]model.User, error) {
	defer rows.Close()

	users := make([]model.User, 0)

	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.ParentID, &user.Balance); err != nil {
			return nil, errors.Wrap(err, "failed to scan balance row")
		}

		users = append(users, user)
	}

	return users, rows.Err()
}
