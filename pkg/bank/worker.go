package bank

import (
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/sadesyllas/ex-banking/pkg/money"
)

type opKind int

const (
	opDeposit opKind = iota
	opWithdraw
	opGetBalance
)

// request is a single operation destined for a user's worker.
type request struct {
	op       opKind
	currency string
	amount   money.Amount
	reply    chan response // buffered, single use
}

type response struct {
	balance money.Amount
	err     error
}

// inboxSize bounds the worker inbox. Admission already caps in-flight
// requests at MaxBacklog, so any bound >= MaxBacklog suffices.
const inboxSize = 16

// worker serializes all balance mutations for one user. It is installed
// lazily by the dispatcher and retires itself after sitting idle.
type worker struct {
	acct   *account
	inbox  chan request
	done   chan struct{}
	idle   time.Duration
	exited chan<- *worker
	logger log.Logger
}

func newWorker(acct *account, idle time.Duration, exited chan<- *worker, logger log.Logger) *worker {
	return &worker{
		acct:   acct,
		inbox:  make(chan request, inboxSize),
		done:   make(chan struct{}),
		idle:   idle,
		exited: exited,
		logger: logger,
	}
}

// run serves the inbox one request at a time, rearming the idle timer
// after each. When the timer fires with nothing queued the worker
// drains and retires.
func (w *worker) run() {
	defer w.retire()

	timer := time.NewTimer(w.idle)
	defer timer.Stop()

	for {
		select {
		case req := <-w.inbox:
			w.serve(req)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.idle)
		case <-timer.C:
			_ = level.Debug(w.logger).Log("user", w.acct.user, "worker", "idle stop")
			w.drain()
			return
		}
	}
}

// serve executes one operation against the account's balances and
// replies on the embedded channel. The reply channel has capacity one,
// so the send never blocks.
func (w *worker) serve(req request) {
	var resp response
	switch req.op {
	case opDeposit:
		resp.balance = w.acct.deposit(req.currency, req.amount)
	case opWithdraw:
		resp.balance, resp.err = w.acct.withdraw(req.currency, req.amount)
	case opGetBalance:
		resp.balance = w.acct.get(req.currency)
	}
	req.reply <- resp
}

// drain is the graceful shutdown: unpublish the handle so no new sender
// picks this worker up, serve everything that already made the inbox,
// then close done to flip pending senders onto the retry path.
func (w *worker) drain() {
	w.acct.worker.CompareAndSwap(w, nil)
	for {
		select {
		case req := <-w.inbox:
			w.serve(req)
		default:
			close(w.done)
			w.bounce()
			return
		}
	}
}

// bounce refuses whatever a sender managed to enqueue after done was
// closed. Such a sender has seen done (or is about to) and will retry
// against a fresh worker, so serving here would apply the operation
// twice. The sentinel reply keeps the request out of the ledger.
func (w *worker) bounce() {
	for {
		select {
		case req := <-w.inbox:
			req.reply <- response{err: errWorkerRetired}
		default:
			return
		}
	}
}

// retire runs on every exit path, a panicked loop included: clear the
// registry slot if it still names this worker and notify the reaper.
func (w *worker) retire() {
	if r := recover(); r != nil {
		_ = level.Error(w.logger).Log("user", w.acct.user, "worker", "panic", "err", r)
	}
	w.acct.worker.CompareAndSwap(w, nil)
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	w.bounce()
	select {
	case w.exited <- w:
	default:
	}
}

// submit hands a request to the worker and waits for the reply. ok is
// false when the worker retired without serving it; the drain protocol
// guarantees such a request was not and never will be applied, so the
// caller may safely retry it against a fresh worker.
func (w *worker) submit(req request) (response, bool) {
	select {
	case w.inbox <- req:
	case <-w.done:
		return response{}, false
	}
	select {
	case resp := <-req.reply:
		if resp.err == errWorkerRetired {
			return response{}, false
		}
		return resp, true
	case <-w.done:
		// The worker replies (or bounces) before it closes done, so
		// one final non-blocking read is decisive.
		select {
		case resp := <-req.reply:
			if resp.err == errWorkerRetired {
				return response{}, false
			}
			return resp, true
		default:
			return response{}, false
		}
	}
}
