package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Income buckets a commission or accrual can be credited to.
const (
	BucketDirect  = "direct"
	BucketLevel   = "level"
	BucketTrading = "trading"
	BucketReward  = "reward"
)

type User struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id"`

	Balance decimal.Decimal `json:"balance"`

	DirectIncome  decimal.Decimal `json:"direct_income"`
	LevelIncome   decimal.Decimal `json:"level_income"`
	TradingIncome decimal.Decimal `json:"trading_income"`
	RewardIncome  decimal.Decimal `json:"reward_income"`

	CreatedAt time.Time `json:"created_at"`
}

// TotalIncome sums all four buckets, the number shown on reporting screens.
func (u *User) TotalIncome() decimal.Decimal {
	return u.DirectIncome.
		Add(u.LevelIncome).
		Add(u.TradingIncome).
		Add(u.RewardIncome)
}
