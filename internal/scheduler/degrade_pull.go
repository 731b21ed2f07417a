package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/rpcconsole/internal/logger"
)

// Puller is the degrade registry as seen by the scheduler.
type Puller interface {
	Pull(ctx context.Context) (int, error)
}

// DegradePuller refreshes the degrade list on an interval and on demand.
type DegradePuller struct {
	puller        Puller
	logger        logger.Logger
	interval      time.Duration
	timeout       time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewDegradePuller creates a puller. interval <= 0 disables the ticker so
// only manual triggers pull. timeout bounds each pull.
func NewDegradePuller(
	puller Puller,
	log logger.Logger,
	interval time.Duration,
	timeout time.Duration,
	manualTrigger chan struct{},
) *DegradePuller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DegradePuller{
		puller:        puller,
		logger:        log,
		interval:      interval,
		timeout:       timeout,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start pulls once immediately, then keeps pulling in the background until
// Stop or ctx cancellation. A failed initial pull is logged, not fatal: the
// node starts with an empty list and picks the source up on the next tick.
func (dp *DegradePuller) Start(ctx context.Context) {
	if _, err := dp.pull(ctx); err != nil {
		dp.logger.Warn("initial degrade pull failed", logger.Error(err))
	}

	go func() {
		var tick <-chan time.Time
		if dp.interval > 0 {
			ticker := time.NewTicker(dp.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				if _, err := dp.pull(ctx); err != nil {
					dp.logger.Error("scheduled degrade pull failed", logger.Error(err))
				}
			case <-dp.manualTrigger:
				dp.logger.Info("manual degrade pull triggered")
				if _, err := dp.pull(ctx); err != nil {
					dp.logger.Error("manual degrade pull failed", logger.Error(err))
				}
			case <-dp.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the background loop. Safe to call more than once.
func (dp *DegradePuller) Stop() {
	dp.stopOnce.Do(func() { close(dp.stopCh) })
}

func (dp *DegradePuller) pull(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dp.timeout)
	defer cancel()
	return dp.puller.Pull(ctx)
}
