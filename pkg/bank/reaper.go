package bank

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// reaper watches worker lifetimes. Workers clear their own registry
// slot on the way out; the reaper confirms that bookkeeping and, on a
// timer, sweeps the whole table for slots whose worker died without
// cleaning up. It never touches balances or backlog counters.
type reaper struct {
	registry *registry
	exited   chan *worker
	interval time.Duration
	logger   log.Logger
}

func newReaper(registry *registry, interval time.Duration, logger log.Logger) *reaper {
	return &reaper{
		registry: registry,
		exited:   make(chan *worker, inboxSize),
		interval: interval,
		logger:   logger,
	}
}

// run blocks until ctx is cancelled.
func (rp *reaper) run(ctx context.Context) error {
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case w := <-rp.exited:
			rp.reap(w)
		case <-ticker.C:
			rp.sweep()
		}
	}
}

// reap clears the account's worker slot if it still names the retired
// worker. A newer handle installed meanwhile is left alone.
func (rp *reaper) reap(w *worker) {
	if w.acct.worker.CompareAndSwap(w, nil) {
		_ = level.Debug(rp.logger).Log("user", w.acct.user, "worker", "reaped")
	}
}

// sweep clears stale handles whose worker is gone but whose slot was
// never cleared.
func (rp *reaper) sweep() {
	for _, acct := range rp.registry.snapshot() {
		w := acct.worker.Load()
		if w == nil {
			continue
		}
		select {
		case <-w.done:
			rp.reap(w)
		default:
		}
	}
}
