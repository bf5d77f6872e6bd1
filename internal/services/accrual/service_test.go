package accrual

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bots-empire/referral-bank/internal/log"
	"github.com/bots-empire/referral-bank/internal/model"
	"github.com/bots-empire/referral-bank/internal/store"
)

type memoryStore struct {
	users    []model.User
	markers  map[string]bool
	trading  map[string]decimal.Decimal
	failures map[string]int
}

func newStore(users ...model.User) *memoryStore {
	return &memoryStore{
		users:    users,
		markers:  map[string]bool{},
		trading:  map[string]decimal.Decimal{},
		failures: map[string]int{},
	}
}

func (m *memoryStore) PositiveBalanceUsers(_ context.Context) ([]model.User, error) {
	eligible := make([]model.User, 0, len(m.users))
	for _, user := range m.users {
		if user.Balance.IsPositive() {
			eligible = append(eligible, user)
		}
	}

	return eligible, nil
}

func (m *memoryStore) CreditTradingIncome(_ context.Context, userID, day string, amount decimal.Decimal) error {
	if m.failures[userID] > 0 {
		m.failures[userID]--
		return errors.New("storage flaked")
	}

	if m.markers[userID+"/"+day] {
		return store.ErrAlreadyAccrued
	}

	m.markers[userID+"/"+day] = true
	m.trading[userID] = m.trading[userID].Add(amount)
	return nil
}

func balanceUser(id, balance string) model.User {
	return model.User{
		ID:      id,
		Balance: decimal.RequireFromString(balance),
	}
}

func newTestService(s Store) *Service {
	return NewService(s, nil, model.DefaultEngineSettings().DailyAccrual, log.NewDefaultLogger().Prefix("test"))
}

func day(value string) time.Time {
	asOf, _ := time.Parse("2006-01-02", value)
	return asOf
}

func TestRunDailyAccrual(t *testing.T) {
	memory := newStore(
		balanceUser("a", "1000"),
		balanceUser("b", "250"),
		balanceUser("c", "0"),
	)
	srv := newTestService(memory)

	report, err := srv.RunDailyAccrual(context.Background(), day("2026-09-01"))
	require.NoError(t, err)

	require.Equal(t, 2, report.UsersCredited)
	require.True(t, report.TotalCredited.Equal(decimal.RequireFromString("5")))
	require.True(t, memory.trading["a"].Equal(decimal.RequireFromString("4")))
	require.True(t, memory.trading["b"].Equal(decimal.RequireFromString("1")))

	_, credited := memory.trading["c"]
	require.False(t, credited)
}

func TestRunDailyAccrualTwiceSameDay(t *testing.T) {
	memory := newStore(balanceUser("a", "1000"), balanceUser("b", "500"))
	srv := newTestService(memory)

	first, err := srv.RunDailyAccrual(context.Background(), day("2026-09-01"))
	require.NoError(t, err)
	require.Equal(t, 2, first.UsersCredited)

	second, err := srv.RunDailyAccrual(context.Background(), day("2026-09-01"))
	require.NoError(t, err)
	require.Equal(t, 0, second.UsersCredited)
	require.Equal(t, 2, second.Skipped)
	require.True(t, second.TotalCredited.IsZero())

	require.True(t, memory.trading["a"].Equal(decimal.RequireFromString("4")))
}

func TestRunDailyAccrualTwoDays(t *testing.T) {
	memory := newStore(balanceUser("a", "1000"))
	srv := newTestService(memory)

	_, err := srv.RunDailyAccrual(context.Background(), day("2026-09-01"))
	require.NoError(t, err)

	_, err = srv.RunDailyAccrual(context.Background(), day("2026-09-02"))
	require.NoError(t, err)

	require.True(t, memory.trading["a"].Equal(decimal.RequireFromString("8")))
}

func TestRunDailyAccrualTransientFailureRetried(t *testing.T) {
	memory := newStore(balanceUser("a", "1000"))
	memory.failures["a"] = 1 // first write flakes, the in-run retry lands

	report, err := newTestService(memory).RunDailyAccrual(context.Background(), day("2026-09-01"))
	require.NoError(t, err)
	require.Equal(t, 1, report.UsersCredited)
	require.Equal(t, 0, report.Failed)
}

func TestRunDailyAccrualPartialFailure(t *testing.T) {
	memory := newStore(balanceUser("a", "1000"), balanceUser("b", "500"))
	memory.failures["a"] = 2 // both the write and its retry fail
	srv := newTestService(memory)

	report, err := srv.RunDailyAccrual(context.Background(), day("2026-09-01"))
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 1, report.UsersCredited)
	require.True(t, memory.trading["b"].Equal(decimal.RequireFromString("2")))

	// the next run of the same day credits only the user that was missed
	rerun, err := srv.RunDailyAccrual(context.Background(), day("2026-09-01"))
	require.NoError(t, err)
	require.Equal(t, 1, rerun.UsersCredited)
	require.Equal(t, 1, rerun.Skipped)
	require.True(t, memory.trading["a"].Equal(decimal.RequireFromString("4")))
}
