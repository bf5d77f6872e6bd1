package model

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DepositsDistributed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refbank_deposits_distributed_total",
		Help: "Distributed deposits by outcome (applied, replayed, failed).",
	}, []string{"outcome"})

	CommissionCredited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refbank_commission_credited_total",
		Help: "Commission amount credited to ancestors, by income bucket.",
	}, []string{"bucket"})

	AccrualRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refbank_accrual_runs_total",
		Help: "Daily accrual runs by outcome (done, locked, failed).",
	}, []string{"outcome"})

	AccrualUsersCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refbank_accrual_users_credited_total",
		Help: "Users credited with the daily trading bonus.",
	})
)
