package bank

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/sadesyllas/ex-banking/pkg/money"
)

// Defaults for the worker lifecycle knobs.
const (
	DefaultStaleHandlerTimeout = 3600 * time.Second
	DefaultStaleCheckInterval  = 30 * time.Second
)

// Config carries the two knobs the core consumes.
type Config struct {
	// StaleHandlerTimeout is how long a worker may sit idle before it
	// retires.
	StaleHandlerTimeout time.Duration

	// StaleCheckInterval is how often the reaper sweeps the registry
	// for dead worker handles.
	StaleCheckInterval time.Duration
}

// Bank is the in-memory banking core: a registry of accounts plus the
// dispatcher that serializes every balance mutation through per-user
// workers. All methods are safe for concurrent use and block the caller
// until the operation completes.
type Bank struct {
	registry *registry
	reaper   *reaper
	idle     time.Duration
	logger   log.Logger
}

// New returns a Bank. Zero config fields fall back to the defaults.
func New(cfg Config, logger log.Logger) *Bank {
	if cfg.StaleHandlerTimeout <= 0 {
		cfg.StaleHandlerTimeout = DefaultStaleHandlerTimeout
	}
	if cfg.StaleCheckInterval <= 0 {
		cfg.StaleCheckInterval = DefaultStaleCheckInterval
	}
	registry := newRegistry()
	return &Bank{
		registry: registry,
		reaper:   newReaper(registry, cfg.StaleCheckInterval, logger),
		idle:     cfg.StaleHandlerTimeout,
		logger:   logger,
	}
}

// Run drives the reaper until ctx is cancelled. Workers clean up after
// themselves on the graceful path, so the Bank stays usable without
// Run; the reaper is the backstop for fault paths.
func (b *Bank) Run(ctx context.Context) error {
	return b.reaper.run(ctx)
}

// CreateUser registers a new user with no balances.
func (b *Bank) CreateUser(user string) error {
	return b.registry.create(user)
}

// Deposit credits amount to the user's balance in the given currency
// and returns the new balance.
func (b *Bank) Deposit(user, currency string, amount money.Amount) (money.Amount, error) {
	return b.execute(user, request{op: opDeposit, currency: currency, amount: amount})
}

// Withdraw debits amount from the user's balance in the given currency
// and returns the new balance.
func (b *Bank) Withdraw(user, currency string, amount money.Amount) (money.Amount, error) {
	return b.execute(user, request{op: opWithdraw, currency: currency, amount: amount})
}

// GetBalance reports the user's balance in the given currency. Reads go
// through the worker like mutations do, so they contend for the same
// backlog cap.
func (b *Bank) GetBalance(user, currency string) (money.Amount, error) {
	return b.execute(user, request{op: opGetBalance, currency: currency})
}

// Send moves amount from one user to another: a withdraw on the
// sender's worker followed by a deposit on the receiver's. The two
// workers run independently, so the pair is not atomic; a failed
// deposit is compensated by restoring the funds to the sender.
func (b *Bank) Send(from, to, currency string, amount money.Amount) (money.Amount, money.Amount, error) {
	sender := b.registry.lookup(from)
	if sender == nil {
		return 0, 0, ErrSenderDoesNotExist
	}
	receiver := b.registry.lookup(to)
	if receiver == nil {
		return 0, 0, ErrReceiverDoesNotExist
	}

	// Admission order is sender first, then receiver. The deferred
	// releases run in reverse, so every failure past an admission hands
	// back exactly what was taken.
	if !sender.tryAdd() {
		return 0, 0, ErrTooManyRequestsToSender
	}
	defer sender.release()
	if !receiver.tryAdd() {
		return 0, 0, ErrTooManyRequestsToReceiver
	}
	defer receiver.release()

	resp := b.deliver(sender, request{op: opWithdraw, currency: currency, amount: amount})
	if resp.err != nil {
		return 0, 0, resp.err
	}
	fromBalance := resp.balance

	resp = b.deliver(receiver, request{op: opDeposit, currency: currency, amount: amount})
	if resp.err != nil {
		// Deposits cannot fail on amount grounds today; the
		// compensation path is kept correct for error kinds to come.
		if comp := b.deliver(sender, request{op: opDeposit, currency: currency, amount: amount}); comp.err != nil {
			_ = level.Error(b.logger).Log("from", from, "to", to, "msg", "transfer compensation failed", "err", comp.err)
		}
		return 0, 0, resp.err
	}
	toBalance := resp.balance

	if from == to {
		// Net-zero effect: report the final balance on both sides.
		fromBalance = toBalance
	}
	return fromBalance, toBalance, nil
}

// execute is the single-user dispatch path: admission, hand-off to the
// user's worker, await the reply, release.
func (b *Bank) execute(user string, req request) (money.Amount, error) {
	acct := b.registry.lookup(user)
	if acct == nil {
		return 0, ErrUserDoesNotExist
	}
	if !acct.tryAdd() {
		return 0, ErrTooManyRequestsToUser
	}
	defer acct.release()

	resp := b.deliver(acct, req)
	return resp.balance, resp.err
}

// deliver submits a request to the account's worker. A worker caught
// mid-drain fails the hand-off without applying the request, so the
// retry installs the replacement itself with the request already in its
// inbox. A reply channel is never reused across attempts: one a retired
// worker bounced on must not be able to satisfy a later hand-off.
func (b *Bank) deliver(acct *account, req request) response {
	req.reply = make(chan response, 1)
	if w := acct.worker.Load(); w != nil {
		if resp, ok := w.submit(req); ok {
			return resp
		}
		req.reply = make(chan response, 1)
	}
	return b.installAndServe(acct, req)
}

// installAndServe publishes a fresh worker that already holds req, so
// the run loop is bound to serve it before any retirement: even an
// immediate idle stop drains the inbox first. Losing the install race
// means another dispatcher got there first; reclaim the request and
// hand it to the winner.
func (b *Bank) installAndServe(acct *account, req request) response {
	for {
		w := newWorker(acct, b.idle, b.reaper.exited, b.logger)
		w.inbox <- req
		if acct.worker.CompareAndSwap(nil, w) {
			_ = level.Debug(b.logger).Log("user", acct.user, "worker", "started")
			go w.run()
			resp := <-req.reply
			if resp.err != errWorkerRetired {
				return resp
			}
			// Only a panicked run loop bounces a preloaded request.
			req.reply = make(chan response, 1)
			continue
		}
		<-w.inbox
		if cur := acct.worker.Load(); cur != nil {
			if resp, ok := cur.submit(req); ok {
				return resp
			}
			req.reply = make(chan response, 1)
		}
	}
}
