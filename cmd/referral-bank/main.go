package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roylee0704/gron"
	"github.com/roylee0704/gron/xtime"

	"github.com/bots-empire/referral-bank/cfg"
	log2 "github.com/bots-empire/referral-bank/internal/log"
	model2 "github.com/bots-empire/referral-bank/internal/model"
	"github.com/bots-empire/referral-bank/internal/services/accrual"
	"github.com/bots-empire/referral-bank/internal/services/approval"
	"github.com/bots-empire/referral-bank/internal/services/distributor"
	"github.com/bots-empire/referral-bank/internal/services/referral"
	store2 "github.com/bots-empire/referral-bank/internal/store"
)

const accrualRunAt = "00:05"

func main() {
	logger := log2.NewDefaultLogger().Prefix("Referral Bank")
	log2.PrintLogo("Referral Bank", []string{"3C91FF"})

	cfg.UploadConnections()
	model2.UploadEngineSettings()

	go startPrometheusHandler(logger)

	dataBase := model2.UploadDataBase()
	rdb := model2.StartRedis()

	ledger := store2.NewStore(dataBase)

	walker := referral.NewService(ledger)
	distSrv := distributor.NewService(ledger, walker, model2.Settings.CommissionPlan)
	accrualSrv := accrual.NewService(ledger, rdb, model2.Settings.DailyAccrual, logger)
	approvalSrv := approval.NewService(ledger, distSrv)

	printStartupStats(approvalSrv, logger)

	logger.Ok("Commission engine is running")

	startScheduler(accrualSrv, logger)
}

func startPrometheusHandler(logger log2.Logger) {
	http.Handle("/metrics", promhttp.Handler())
	logger.Ok("Metrics can be read from %s port", cfg.MetricsPort)
	metricErr := http.ListenAndServe(":"+cfg.MetricsPort, nil)
	if metricErr != nil {
		logger.Fatal("metrics stoped by metricErr: %s\n", metricErr.Error())
	}
}

func printStartupStats(srv *approval.Service, logger log2.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := srv.Stats(ctx)
	if err != nil {
		logger.Warn("failed to read startup stats: %s", err.Error())
		return
	}

	logger.Info("%d users (%d referred), %s deposited, %d proofs pending",
		stats.TotalUsers,
		stats.ReferredUsers,
		stats.TotalDepositAmount.String(),
		stats.PendingProofs)
}

func startScheduler(accrualSrv *accrual.Service, logger log2.Logger) {
	cron := gron.New()
	cron.AddFunc(gron.Every(1*xtime.Day).At(accrualRunAt), accrualSrv.RunScheduled)
	cron.Start()

	logger.Ok("Accrual scheduler is running")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cron.Stop()
	logger.Ok("Accrual scheduler stopped")
}
