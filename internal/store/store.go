package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/bots-empire/referral-bank/internal/model"
)

const uniqueViolation = "23505"

// Store is the only code path allowed to mutate balance and income fields.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, id string, parentID *string) (model.User, error) {
	var user model.User
	err := s.db.QueryRowContext(ctx, `
INSERT INTO refbank.users (id, parent_id)
	VALUES ($1, $2)
RETURNING id, parent_id, balance, direct_income, level_income, trading_income, reward_income, created_at;`,
		id,
		parentID).
		Scan(&user.ID,
			&user.ParentID,
			&user.Balance,
			&user.DirectIncome,
			&user.LevelIncome,
			&user.TradingIncome,
			&user.RewardIncome,
			&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrUserExists
		}
		return model.User{}, errors.Wrap(err, "failed to create user")
	}

	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	var user model.User
	err := s.db.QueryRowContext(ctx, `
SELECT id, parent_id, balance, direct_income, level_income, trading_income, reward_income, created_at
	FROM refbank.users
WHERE id = $1;`,
		id).
		Scan(&user.ID,
			&user.ParentID,
			&user.Balance,
			&user.DirectIncome,
			&user.LevelIncome,
			&user.TradingIncome,
			&user.RewardIncome,
			&user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, errors.Wrap(err, "failed to get user")
	}

	return user, nil
}

// ApplyDistribution applies one distributed deposit as a single transaction:
// the write-once deposit record, the depositor's balance credit, every
// ancestor's income credit and the per-level breakdown rows. Either all of it
// commits or none of it is visible and the deposit id stays unused.
func (s *Store) ApplyDistribution(ctx context.Context, dep model.Deposit, credits []model.LevelCredit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin distribution tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// The deposit insert goes first: its primary key is the idempotency
	// check, so a replay or a concurrent twin fails here before touching
	// any ledger row.
	_, err = tx.ExecContext(ctx, `
INSERT INTO refbank.deposits (id, user_id, amount, status)
	VALUES ($1, $2, $3, $4);`,
		dep.ID,
		dep.UserID,
		dep.Amount,
		dep.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDepositExists
		}
		return errors.Wrap(err, "failed to insert deposit")
	}

	if err := creditBalance(ctx, tx, dep.UserID, dep.Amount); err != nil {
		return err
	}

	for _, credit := range credits {
		if err := creditIncome(ctx, tx, credit.UserID, credit.Bucket, credit.Amount); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO refbank.deposit_credits (deposit_id, level, user_id, bucket, amount)
	VALUES ($1, $2, $3, $4, $5);`,
			dep.ID,
			credit.Level,
			credit.UserID,
			credit.Bucket,
			credit.Amount)
		if err != nil {
			return errors.Wrap(err, "failed to insert deposit credit")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit distribution tx")
	}

	return nil
}

// GetDistribution reads back the recorded result of an already distributed
// deposit. Returns ErrDepositNotFound when the id was never distributed.
func (s *Store) GetDistribution(ctx context.Context, depositID string) (model.DistributionResult, error) {
	var result model.DistributionResult
	err := s.db.QueryRowContext(ctx, `
SELECT id, user_id, amount
	FROM refbank.deposits
WHERE id = $1;`,
		depositID).
		Scan(&result.DepositID, &result.UserID, &result.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DistributionResult{}, ErrDepositNotFound
		}
		return model.DistributionResult{}, errors.Wrap(err, "failed to get deposit")
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT level, user_id, bucket, amount
	FROM refbank.deposit_credits
WHERE deposit_id = $1
ORDER BY level;`,
		depositID)
	if err != nil {
		return model.DistributionResult{}, errors.Wrap(err, "failed to get deposit credits")
	}

	result.Credits, err = readCredits(rows)
	if err != nil {
		return model.DistributionResult{}, err
	}

	return result, nil
}

func creditBalance(ctx context.Context, tx *sql.Tx, userID string, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
UPDATE refbank.users
	SET balance = balance + $1
WHERE id = $2;`,
		amount,
		userID)
	if err != nil {
		return errors.Wrap(err, "failed to credit balance")
	}

	return oneRowTouched(res)
}

func creditIncome(ctx context.Context, tx *sql.Tx, userID, bucket string, amount decimal.Decimal) error {
	column, err := incomeColumn(bucket)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
UPDATE refbank.users
	SET `+column+` = `+column+` + $1
WHERE id = $2;`,
		amount,
		userID)
	if err != nil {
		return errors.Wrap(err, "failed to credit income")
	}

	return oneRowTouched(res)
}

// incomeColumn maps a bucket name to its ledger column. The bucket never
// comes from user input, but the column name is interpolated into SQL, so
// anything unknown is rejected.
func incomeColumn(bucket string) (string, error) {
	switch bucket {
	case model.BucketDirect:
		return "direct_income", nil
	case model.BucketLevel:
		return "level_income", nil
	case model.BucketTrading:
		return "trading_income", nil
	case model.BucketReward:
		return "reward_income", nil
	}

	return "", errors.Errorf("unknown income bucket %q", bucket)
}

func oneRowTouched(res sql.Result) error {
	touched, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to count touched rows")
	}
	if touched == 0 {
		return ErrUserNotFound
	}

	return nil
}

func readCredits(rows *sql.Rows) ([]model.LevelCredit, error) {
	defer rows.Close()

	credits := make([]model.LevelCredit, 0)

	for rows.Next() {
		var credit model.LevelCredit
		if err := rows.Scan(&credit.Level, &credit.UserID, &credit.Bucket, &credit.Amount); err != nil {
			return nil, errors.Wrap(err, "failed to scan credit row")
		}

		credits = append(credits, credit)
	}

	return credits, rows.Err()
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}

	return string(pqErr.Code) == uniqueViolation
}
