package account

import (
	"errors"
	"fmt"
	"sort"

	"github.com/uhyunpark/ledgerreplay/pkg/app/core/amount"
)

var (
	// ErrInsufficientFunds is returned when available cannot cover a debit or hold
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientHeld is returned when held cannot cover a release or chargeback
	ErrInsufficientHeld = errors.New("insufficient held funds")
	// ErrNonPositiveAmount is returned for zero or negative mutation amounts
	ErrNonPositiveAmount = errors.New("amount must be positive")
	// ErrBalanceOverflow is returned when a credit would overflow the fixed-point range
	ErrBalanceOverflow = errors.New("balance overflow")
)

// Ledger maps client ids to accounts and owns every balance mutation
// Accounts are created lazily on first reference and never removed.
// Not safe for concurrent use: the replay is a single ordered fold.
type Ledger struct {
	accounts map[ClientID]*Account
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[ClientID]*Account)}
}

// GetOrCreate returns the account for a client, creating a zeroed one if absent
func (l *Ledger) GetOrCreate(client ClientID) *Account {
	acc, exists := l.accounts[client]
	if exists {
		return acc
	}
	acc = NewAccount(client)
	l.accounts[client] = acc
	return acc
}

// Get returns the account without creating it (use for queries only)
func (l *Ledger) Get(client ClientID) (Account, bool) {
	acc, exists := l.accounts[client]
	if !exists {
		return Account{}, false
	}
	return *acc, true
}

// CreditAvailable adds funds: available += amt, total += amt
func (l *Ledger) CreditAvailable(client ClientID, amt amount.Amount) error {
	if !amt.IsPositive() {
		return fmt.Errorf("credit %s: %w", amt, ErrNonPositiveAmount)
	}

	acc := l.GetOrCreate(client)
	total, ok := acc.Total.CheckedAdd(amt)
	if !ok {
		return fmt.Errorf("credit %s to client %d: %w", amt, client, ErrBalanceOverflow)
	}

	acc.Available = acc.Available.Add(amt)
	acc.Total = total
	return nil
}

// DebitAvailable removes funds if available covers them
// On failure nothing changes.
func (l *Ledger) DebitAvailable(client ClientID, amt amount.Amount) error {
	if !amt.IsPositive() {
		return fmt.Errorf("debit %s: %w", amt, ErrNonPositiveAmount)
	}

	acc := l.GetOrCreate(client)
	if !acc.Available.GreaterOrEqual(amt) {
		return fmt.Errorf("debit %s from client %d (available %s): %w", amt, client, acc.Available, ErrInsufficientFunds)
	}

	acc.Available = acc.Available.Sub(amt)
	acc.Total = acc.Total.Sub(amt)
	return nil
}

// Hold moves funds from available to held; total is unchanged
// Refuses (without mutation) to drive available negative, which can happen
// when the disputed funds were already withdrawn.
func (l *Ledger) Hold(client ClientID, amt amount.Amount) error {
	if !amt.IsPositive() {
		return fmt.Errorf("hold %s: %w", amt, ErrNonPositiveAmount)
	}

	acc := l.GetOrCreate(client)
	if !acc.Available.GreaterOrEqual(amt) {
		return fmt.Errorf("hold %s for client %d (available %s): %w", amt, client, acc.Available, ErrInsufficientFunds)
	}

	acc.Available = acc.Available.Sub(amt)
	acc.Held = acc.Held.Add(amt)
	return nil
}

// Release moves funds from held back to available; total is unchanged
func (l *Ledger) Release(client ClientID, amt amount.Amount) error {
	if !amt.IsPositive() {
		return fmt.Errorf("release %s: %w", amt, ErrNonPositiveAmount)
	}

	acc := l.GetOrCreate(client)
	if !acc.Held.GreaterOrEqual(amt) {
		return fmt.Errorf("release %s for client %d (held %s): %w", amt, client, acc.Held, ErrInsufficientHeld)
	}

	acc.Held = acc.Held.Sub(amt)
	acc.Available = acc.Available.Add(amt)
	return nil
}

// ChargeBack removes held funds from the account and locks it permanently
// Available is untouched.
func (l *Ledger) ChargeBack(client ClientID, amt amount.Amount) error {
	if !amt.IsPositive() {
		return fmt.Errorf("chargeback %s: %w", amt, ErrNonPositiveAmount)
	}

	acc := l.GetOrCreate(client)
	if !acc.Held.GreaterOrEqual(amt) {
		return fmt.Errorf("chargeback %s for client %d (held %s): %w", amt, client, acc.Held, ErrInsufficientHeld)
	}

	acc.Held = acc.Held.Sub(amt)
	acc.Total = acc.Total.Sub(amt)
	acc.Locked = true
	return nil
}

// Snapshot returns a copy of every account, ordered by client id
func (l *Ledger) Snapshot() []Account {
	accounts := make([]Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		accounts = append(accounts, *acc)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Client < accounts[j].Client
	})
	return accounts
}

// Len returns the number of accounts
func (l *Ledger) Len() int {
	return len(l.accounts)
}

// Validate checks the invariants of every account
func (l *Ledger) Validate() error {
	for _, acc := range l.accounts {
		if err := acc.Validate(); err != nil {
			return err
		}
	}
	return nil
}
