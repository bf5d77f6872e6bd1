package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/bots-empire/referral-bank/internal/model"
)

// Stats collects the admin dashboard counters.
func (s *Store) Stats(ctx context.Context) (model.AdminStats, error) {
	var stats model.AdminStats

	count, err := s.countRows(ctx, `
SELECT COUNT(*) FROM refbank.users;`)
	if err != nil {
		return model.AdminStats{}, err
	}
	stats.TotalUsers = count

	count, err = s.countRows(ctx, `
SELECT COUNT(*) FROM refbank.users WHERE parent_id IS NOT NULL;`)
	if err != nil {
		return model.AdminStats{}, err
	}
	stats.ReferredUsers = count

	count, err = s.countRows(ctx, `
SELECT COUNT(*) FROM refbank.payment_proofs WHERE status = 'Pending';`)
	if err != nil {
		return model.AdminStats{}, err
	}
	stats.PendingProofs = count

	err = s.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(amount), 0)
	FROM refbank.deposits
WHERE status = 'Approved';`).
		Scan(&stats.TotalDepositAmount)
	if err != nil {
		return model.AdminStats{}, errors.Wrap(err, "failed to sum deposits")
	}

	return stats, nil
}

func (s *Store) countRows(ctx context.Context, query string) (int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count rows")
	}

	return readCount(rows)
}

func readCount(rows *sql.Rows) (int, error) {
	defer rows.Close()

	var count int

	for rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, errors.Wrap(err, "failed to scan row")
		}
	}

	return count, rows.Err()
}
