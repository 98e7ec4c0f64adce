package bank

import (
	"sync"
	"sync/atomic"

	"github.com/sadesyllas/ex-banking/pkg/money"
)

// MaxBacklog caps the number of in-flight requests per user, queued
// plus executing.
const MaxBacklog = 10

// account is the per-user record held by the registry. The backlog
// counter and the worker slot are shared between dispatcher, worker and
// reaper; the balances map belongs to the current worker alone.
type account struct {
	user string

	backlog int32
	worker  atomic.Pointer[worker]

	// balMu is uncontended in steady state, taken only by the owning
	// worker. It publishes balances across worker generations.
	balMu    sync.Mutex
	balances map[string]money.Amount
}

func newAccount(user string) *account {
	return &account{user: user, balances: make(map[string]money.Amount)}
}

// tryAdd admits one request when fewer than MaxBacklog are in flight.
// The compare happens before the increment, so the counter is never
// observable above MaxBacklog.
func (a *account) tryAdd() bool {
	for {
		n := atomic.LoadInt32(&a.backlog)
		if n >= MaxBacklog {
			return false
		}
		if atomic.CompareAndSwapInt32(&a.backlog, n, n+1) {
			return true
		}
	}
}

// release hands back one admission, with a floor of zero.
func (a *account) release() {
	for {
		n := atomic.LoadInt32(&a.backlog)
		if n == 0 {
			return
		}
		if atomic.CompareAndSwapInt32(&a.backlog, n, n-1) {
			return
		}
	}
}

// deposit credits amount and returns the new balance.
func (a *account) deposit(currency string, amount money.Amount) money.Amount {
	a.balMu.Lock()
	defer a.balMu.Unlock()
	a.balances[currency] += amount
	return a.balances[currency]
}

// withdraw debits amount. It fails with ErrNotEnoughMoney when the
// balance does not cover it, leaving the ledger untouched.
func (a *account) withdraw(currency string, amount money.Amount) (money.Amount, error) {
	a.balMu.Lock()
	defer a.balMu.Unlock()
	old := a.balances[currency]
	if old < amount {
		return 0, ErrNotEnoughMoney
	}
	a.balances[currency] = old - amount
	return old - amount, nil
}

// get reports the balance; an unused currency reads as zero.
func (a *account) get(currency string) money.Amount {
	a.balMu.Lock()
	defer a.balMu.Unlock()
	return a.balances[currency]
}
