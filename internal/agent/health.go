package agent

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/resumecurator/analyzer/internal/client"
)

type ServiceHealthState int

const (
	HealthCheckStateServiceUnreachable ServiceHealthState = iota
	HealthCheckStateServiceReachable

	defaultHealthTimeout = 5 * time.Second
)

// HealthChecker probes the scoring service liveness endpoint on an interval.
// It logs every failure but only the first success after a failure, to keep
// the log quiet while the service is healthy.
type HealthChecker struct {
	once          sync.Once
	lock          sync.Mutex
	state         ServiceHealthState
	checkInterval time.Duration
	client        client.Analyzer
	log           *zap.SugaredLogger
}

func NewHealthChecker(analyzer client.Analyzer, checkInterval time.Duration) *HealthChecker {
	return &HealthChecker{
		state:         HealthCheckStateServiceUnreachable,
		checkInterval: checkInterval,
		client:        analyzer,
		log:           zap.S().Named("health"),
	}
}

// Start probes once synchronously, then keeps probing on the interval until
// a channel is received on closeCh. The received channel is closed once the
// goroutine has stopped.
func (h *HealthChecker) Start(ctx context.Context, closeCh chan chan any) {
	h.do(ctx)

	h.once.Do(func() {
		go func() {
			t := time.NewTicker(h.checkInterval)
			defer t.Stop()
			for {
				select {
				case c := <-closeCh:
					close(c)
					return
				case <-ctx.Done():
					return
				case <-t.C:
					h.do(ctx)
				}
			}
		}()
	})
}

func (h *HealthChecker) State() ServiceHealthState {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.state
}

func (h *HealthChecker) do(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, defaultHealthTimeout)
	defer cancel()

	if err := h.client.Health(ctx); err != nil {
		h.log.Warnf("scoring service is unreachable: %s", err)
		h.lock.Lock()
		h.state = HealthCheckStateServiceUnreachable
		h.lock.Unlock()
		return
	}

	h.lock.Lock()
	if h.state == HealthCheckStateServiceUnreachable {
		h.log.Infof("scoring service is OK")
	}
	h.state = HealthCheckStateServiceReachable
	h.lock.Unlock()
}
