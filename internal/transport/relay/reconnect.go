package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/royal-ur/internal/scheduler"
)

const reconnectTimer = "reconnect"

// Reconnector retries a dropped connection once after a fixed delay.
type Reconnector struct {
	logger    *slog.Logger
	scheduler *scheduler.Scheduler
	delay     time.Duration
	reconnect func(ctx context.Context) error
}

func NewReconnector(logger *slog.Logger, delay time.Duration, reconnect func(ctx context.Context) error) *Reconnector {
	return &Reconnector{
		logger:    logger.With("component", "reconnector"),
		scheduler: scheduler.New(),
		delay:     delay,
		reconnect: reconnect,
	}
}

// Schedule arms a single attempt and reports false when one is already pending.
func (that *Reconnector) Schedule(ctx context.Context) bool {
	return that.scheduler.ScheduleOnce(reconnectTimer, that.delay, func() {
		if err := that.reconnect(ctx); err != nil {
			that.logger.Error("reconnect failed", "error", err)
			return
		}

		that.logger.Info("reconnected")
	})
}

func (that *Reconnector) Pending() bool {
	return that.scheduler.Pending(reconnectTimer)
}

func (that *Reconnector) Close() {
	that.scheduler.Close()
}
