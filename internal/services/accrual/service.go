package accrual

import (
	"context"
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/bots-empire/referral-bank/internal/log"
	"github.com/bots-empire/referral-bank/internal/model"
	"github.com/bots-empire/referral-bank/internal/store"
)

const (
	dayLayout = "2006-01-02"

	// The lock only stops two schedulers from scanning the same day at
	// once; the per-user day markers carry correctness. Short on purpose,
	// so a rerun can pick up users a crashed run missed.
	dayLockTTL = 10 * time.Minute
)

// Store is what the job needs from the ledger: the eligible set and the
// marker-guarded credit. CreditTradingIncome must return
// store.ErrAlreadyAccrued when the user already got this day's bonus.
type Store interface {
	PositiveBalanceUsers(ctx context.Context) ([]model.User, error)
	CreditTradingIncome(ctx context.Context, userID, day string, amount decimal.Decimal) error
}

type Service struct {
	store Store
	rdb   *redis.Client
	rate  decimal.Decimal

	logger log.Logger
}

func NewService(store Store, rdb *redis.Client, settings *model.DailyAccrual, logger log.Logger) *Service {
	return &Service{
		store:  store,
		rdb:    rdb,
		rate:   settings.Percent,
		logger: logger,
	}
}

type Report struct {
	Day           string
	UsersCredited int
	TotalCredited decimal.Decimal
	Skipped       int
	Failed        int
}

// RunDailyAccrual credits rate percent of the balance to the trading income
// of every positive-balance user, at most once per user for asOf's calendar
// day. One user's failure does not stop the batch: the credit is retried
// once, then logged and skipped, and the next run of the day picks it up.
func (s *Service) RunDailyAccrual(ctx context.Context, asOf time.Time) (Report, error) {
	report := Report{
		Day:           asOf.Format(dayLayout),
		TotalCredited: decimal.Zero,
	}

	if !s.lockDay(report.Day) {
		model.AccrualRuns.WithLabelValues("locked").Inc()
		return report, nil
	}

	users, err := s.store.PositiveBalanceUsers(ctx)
	if err != nil {
		model.AccrualRuns.WithLabelValues("failed").Inc()
		return report, errors.Wrap(err, "failed to select eligible users")
	}

	for _, user := range users {
		amount := user.Balance.Mul(s.rate).Div(decimal.NewFromInt(100))

		switch err := s.creditWithRetry(ctx, user.ID, report.Day, amount); {
		case err == nil:
			report.UsersCredited++
			report.TotalCredited = report.TotalCredited.Add(amount)
		case errors.Is(err, store.ErrAlreadyAccrued):
			report.Skipped++
		default:
			s.logger.Warn("accrual for user %s on %s failed: %s", user.ID, report.Day, err.Error())
			report.Failed++
		}
	}

	model.AccrualRuns.WithLabelValues("done").Inc()
	model.AccrualUsersCredited.Add(float64(report.UsersCredited))

	return report, nil
}

func (s *Service) creditWithRetry(ctx context.Context, userID, day string, amount decimal.Decimal) error {
	err := s.store.CreditTradingIncome(ctx, userID, day, amount)
	if err == nil || errors.Is(err, store.ErrAlreadyAccrued) {
		return err
	}

	return s.store.CreditTradingIncome(ctx, userID, day, amount)
}

func (s *Service) lockDay(day string) bool {
	if s.rdb == nil {
		return true
	}

	locked, err := s.rdb.SetNX("accrual-run:"+day, time.Now().Unix(), dayLockTTL).Result()
	if err != nil {
		// Redis being down must not stop the accrual; the day markers
		// keep a concurrent double-scan harmless.
		s.logger.Warn("failed to take accrual day lock: %s", err.Error())
		return true
	}

	return locked
}
