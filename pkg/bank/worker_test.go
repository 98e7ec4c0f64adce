package bank

import (
	"context"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
)

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorkerStopsWhenIdle(t *testing.T) {
	b := New(Config{StaleHandlerTimeout: 25 * time.Millisecond}, log.NewNopLogger())
	_ = b.CreateUser("alice")
	if _, err := b.Deposit("alice", "EUR", 100); err != nil {
		t.Fatal(err)
	}

	acct := b.registry.lookup("alice")
	if acct.worker.Load() == nil {
		t.Fatal("worker should be installed after a request")
	}

	waitFor(t, time.Second, func() bool { return acct.worker.Load() == nil })

	// a subsequent request spins up a fresh worker transparently
	balance, err := b.Deposit("alice", "EUR", 100)
	if err != nil || balance != 200 {
		t.Errorf("deposit should yield 200, got %d, %v", balance, err)
	}
	if acct.worker.Load() == nil {
		t.Error("worker should be reinstalled after the next request")
	}
}

func TestWorkerSurvivesChurn(t *testing.T) {
	// A tiny idle timeout makes workers retire between requests, forcing
	// the dispatcher through the reinstall-and-retry path over and over.
	b := New(Config{StaleHandlerTimeout: 10 * time.Millisecond}, log.NewNopLogger())
	_ = b.CreateUser("alice")

	for i := 0; i < 200; i++ {
		if _, err := b.Deposit("alice", "EUR", 1); err != nil {
			t.Fatalf("deposit %d: error should be: %v, got %v", i, nil, err)
		}
		if i%20 == 0 {
			time.Sleep(15 * time.Millisecond)
		}
	}
	if got, _ := b.GetBalance("alice", "EUR"); got != 200 {
		t.Errorf("balance should be 200, got %d", got)
	}
}

func TestDrainServesQueuedRequestsBeforeStopping(t *testing.T) {
	acct := newAccount("alice")
	w := newWorker(acct, time.Hour, make(chan *worker, 1), log.NewNopLogger())
	acct.worker.Store(w)

	req := request{op: opDeposit, currency: "EUR", amount: 100, reply: make(chan response, 1)}
	w.inbox <- req
	w.drain()

	resp := <-req.reply
	if resp.err != nil || resp.balance != 100 {
		t.Errorf("queued request should be served, got %d, %v", resp.balance, resp.err)
	}
	if acct.worker.Load() != nil {
		t.Error("drain should clear the registry slot")
	}
}

func TestBounceRefusesLateEnqueues(t *testing.T) {
	acct := newAccount("alice")
	w := newWorker(acct, time.Hour, make(chan *worker, 1), log.NewNopLogger())
	close(w.done)

	// a sender whose hand-off won the inbox buffer just as the worker
	// stopped serving
	req := request{op: opDeposit, currency: "EUR", amount: 100, reply: make(chan response, 1)}
	w.inbox <- req
	w.bounce()

	resp := <-req.reply
	if resp.err != errWorkerRetired {
		t.Errorf("error should be: %v, got %v", errWorkerRetired, resp.err)
	}
	if got := acct.get("EUR"); got != 0 {
		t.Errorf("bounced request must not touch the ledger, got balance %d", got)
	}
}

func TestSubmitReportsFailureForBouncedRequest(t *testing.T) {
	acct := newAccount("alice")
	w := newWorker(acct, time.Hour, make(chan *worker, 1), log.NewNopLogger())

	req := request{op: opDeposit, currency: "EUR", amount: 100, reply: make(chan response, 1)}
	okCh := make(chan bool, 1)
	go func() {
		_, ok := w.submit(req)
		okCh <- ok
	}()

	got := <-w.inbox
	got.reply <- response{err: errWorkerRetired}
	if ok := <-okCh; ok {
		t.Error("submit should report failure for a bounced request")
	}
}

func TestRetryAppliesOperationExactlyOnce(t *testing.T) {
	// A request abandoned to a worker that already closed done must never
	// reach the ledger; the retry against a fresh worker is the only
	// application the caller's deposit gets.
	b := newTestBank()
	_ = b.CreateUser("alice")
	acct := b.registry.lookup("alice")

	old := newWorker(acct, time.Hour, b.reaper.exited, log.NewNopLogger())
	close(old.done)
	first := request{op: opDeposit, currency: "EUR", amount: 100, reply: make(chan response, 1)}
	old.inbox <- first
	old.bounce()
	if resp := <-first.reply; resp.err != errWorkerRetired {
		t.Fatalf("error should be: %v, got %v", errWorkerRetired, resp.err)
	}

	balance, err := b.Deposit("alice", "EUR", 100)
	if err != nil || balance != 100 {
		t.Errorf("deposit should yield 100, got %d, %v", balance, err)
	}
	if got := acct.get("EUR"); got != 100 {
		t.Errorf("balance should be 100, got %d", got)
	}
}

func TestSubmitFailsAfterRetire(t *testing.T) {
	acct := newAccount("alice")
	w := newWorker(acct, time.Millisecond, make(chan *worker, 1), log.NewNopLogger())
	acct.worker.Store(w)
	go w.run()

	<-w.done
	if acct.worker.Load() != nil {
		t.Error("retired worker should have cleared its registry slot")
	}
	if _, ok := w.submit(request{op: opGetBalance, currency: "EUR", reply: make(chan response, 1)}); ok {
		t.Error("submit should fail against a retired worker")
	}
}

func TestReaperSweepClearsDeadHandles(t *testing.T) {
	reg := newRegistry()
	_ = reg.create("alice")
	acct := reg.lookup("alice")

	// a worker that died without running its cleanup
	w := newWorker(acct, time.Hour, make(chan *worker, 1), log.NewNopLogger())
	acct.worker.Store(w)
	close(w.done)

	rp := newReaper(reg, time.Hour, log.NewNopLogger())
	rp.sweep()

	if acct.worker.Load() != nil {
		t.Error("sweep should have cleared the dead worker handle")
	}
}

func TestReaperRunHandlesExitNotifications(t *testing.T) {
	reg := newRegistry()
	_ = reg.create("alice")
	acct := reg.lookup("alice")

	rp := newReaper(reg, time.Hour, log.NewNopLogger())
	w := newWorker(acct, time.Hour, rp.exited, log.NewNopLogger())
	acct.worker.Store(w)
	close(w.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = rp.run(ctx) }()

	rp.exited <- w
	waitFor(t, time.Second, func() bool { return acct.worker.Load() == nil })
}

func TestReaperLeavesFreshWorkerAlone(t *testing.T) {
	reg := newRegistry()
	_ = reg.create("alice")
	acct := reg.lookup("alice")

	old := newWorker(acct, time.Hour, make(chan *worker, 1), log.NewNopLogger())
	fresh := newWorker(acct, time.Hour, make(chan *worker, 1), log.NewNopLogger())
	acct.worker.Store(fresh)

	rp := newReaper(reg, time.Hour, log.NewNopLogger())
	rp.reap(old)

	if acct.worker.Load() != fresh {
		t.Error("reap of a stale handle must not clear a newer worker")
	}
}
