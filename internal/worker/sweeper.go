package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type ReferralCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// ReferralSweeper periodically deletes expired referral codes still in
// pending status. It only touches pending rows, so it needs no
// coordination with in-flight bookings.
type ReferralSweeper struct {
	svc      ReferralCleaner
	interval time.Duration
	log      *zap.Logger
}

func NewReferralSweeper(svc ReferralCleaner, interval time.Duration, log *zap.Logger) *ReferralSweeper {
	return &ReferralSweeper{
		svc:      svc,
		interval: interval,
		log:      log.With(zap.String("worker", "referral_sweeper")),
	}
}

// Run blocks until ctx is cancelled.
func (w *ReferralSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Referral sweeper stopped")
			return
		case <-ticker.C:
			if _, err := w.svc.CleanupExpired(ctx); err != nil {
				w.log.Error("Referral sweep failed", zap.Error(err))
			}
		}
	}
}
