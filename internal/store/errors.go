package store

import "errors"

var (
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrDepositExists   = errors.New("deposit already recorded")
	ErrDepositNotFound = errors.New("deposit not found")
	ErrProofNotFound   = errors.New("payment proof not found")
	ErrProofResolved   = errors.New("payment proof already resolved")
	ErrAlreadyAccrued  = errors.New("trading bonus already accrued for this day")
)
