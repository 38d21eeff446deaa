package sprinkler

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/five82/sprinkler/internal/model"
)

// HealthChecker reports whether the controller is reachable.
type HealthChecker interface {
	Check(ctx context.Context) (model.Status, error)
}

// StatusFetcher is the subset of Controller the Monitor needs.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (model.Status, error)
}

const healthKey = "status"

// Monitor coalesces concurrent health checks into one in-flight request.
// Callers that arrive while a check is running share its result.
type Monitor struct {
	fetcher StatusFetcher
	timeout time.Duration
	group   singleflight.Group
}

// Ensure Monitor implements HealthChecker at compile time.
var _ HealthChecker = (*Monitor)(nil)

// NewMonitor wraps fetcher. timeout bounds the shared call, which is detached
// from any single caller's cancellation; zero means no extra bound.
func NewMonitor(fetcher StatusFetcher, timeout time.Duration) *Monitor {
	return &Monitor{fetcher: fetcher, timeout: timeout}
}

// Check returns the controller status. A caller whose ctx ends stops waiting
// but does not cancel the shared request for the others.
func (m *Monitor) Check(ctx context.Context) (model.Status, error) {
	ch := m.group.DoChan(healthKey, func() (any, error) {
		callCtx := context.WithoutCancel(ctx)
		if m.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, m.timeout)
			defer cancel()
		}
		return m.fetcher.FetchStatus(callCtx)
	})
	select {
	case <-ctx.Done():
		return model.Status{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.Status{}, res.Err
		}
		return res.Val.(model.Status), nil
	}
}
