package notify

import (
	"context"
	"time"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence"
	"go.uber.org/zap"
)

// RetentionSweeper prunes notifications past the retention window.
// Notifications are the only table swept: cases, notes, work logs and
// activities are permanent records.
type RetentionSweeper struct {
	logger        *zap.Logger
	notifications persistence.NotificationStore
	retentionDays int
}

func NewRetentionSweeper(
	logger *zap.Logger,
	notifications persistence.NotificationStore,
	retentionDays int,
) *RetentionSweeper {
	return &RetentionSweeper{
		logger:        logger,
		notifications: notifications,
		retentionDays: retentionDays,
	}
}

// Run sweeps once immediately, then on every interval tick until the
// context is cancelled.
func (s *RetentionSweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionSweeper) sweep(ctx context.Context) {
	deleted, err := s.notifications.DeleteNotificationsOlderThan(ctx, s.retentionDays)
	if err != nil {
		s.logger.Error("notification retention sweep failed", zap.Error(err))
		return
	}

	if deleted > 0 {
		s.logger.Info("pruned old notifications",
			zap.Int("deleted", deleted),
			zap.Int("retentionDays", s.retentionDays))
	}
}
