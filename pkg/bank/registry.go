package bank

import "sync"

// registry maps user identifiers to account records. Accounts are
// created once and never removed; the worker slot inside each account
// is handed between dispatcher and reaper with compare-and-swap.
type registry struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

func newRegistry() *registry {
	return &registry{accounts: make(map[string]*account)}
}

// create inserts a fresh account. Concurrent creations of the same user
// resolve so that exactly one caller wins; the rest get
// ErrUserAlreadyExists.
func (r *registry) create(user string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[user]; ok {
		return ErrUserAlreadyExists
	}
	r.accounts[user] = newAccount(user)
	return nil
}

// lookup returns the account record, or nil when the user was never
// created.
func (r *registry) lookup(user string) *account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.accounts[user]
}

// snapshot copies the current account set for the reaper's sweep.
func (r *registry) snapshot() []*account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	accounts := make([]*account, 0, len(r.accounts))
	for _, acct := range r.accounts {
		accounts = append(accounts, acct)
	}
	return accounts
}
