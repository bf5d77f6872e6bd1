package accrual

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/bots-empire/referral-bank/internal/log"
)

var (
	panicLogger = log.NewDefaultLogger().Prefix("panic catcher")

	scheduledRunTimeout = 10 * time.Minute
)

// RunScheduled is the cron entry point: it runs the accrual for today and
// never lets a panic take the scheduler down.
func (s *Service) RunScheduled() {
	defer s.panicCatcher()

	ctx, cancel := context.WithTimeout(context.Background(), scheduledRunTimeout)
	defer cancel()

	report, err := s.RunDailyAccrual(ctx, time.Now())
	if err != nil {
		s.logger.Warn("daily accrual %s failed: %s", report.Day, err.Error())
		return
	}

	s.logger.Ok("daily accrual %s: %d users credited, %s total, %d skipped, %d failed",
		report.Day,
		report.UsersCredited,
		report.TotalCredited.String(),
		report.Skipped,
		report.Failed)
}

func (s *Service) panicCatcher() {
	msg := recover()
	if msg == nil {
		return
	}

	panicText := fmt.Sprintf("panic in accrual run: message = %s\n%s",
		msg,
		string(debug.Stack()),
	)
	panicLogger.Warn(panicText)
}
