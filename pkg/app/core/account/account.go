package account

import (
	"fmt"

	"github.com/uhyunpark/ledgerreplay/pkg/app/core/amount"
)

// ClientID identifies the owner of an account (u16 on the wire)
type ClientID uint16

// Account is the balance record for one client
// Total is maintained incrementally: every mutation keeps Total == Available + Held
type Account struct {
	Client ClientID `json:"client"`

	Available amount.Amount `json:"available"` // Usable for withdrawals
	Held      amount.Amount `json:"held"`      // Frozen pending dispute outcome
	Total     amount.Amount `json:"total"`     // Available + Held

	// Set by a chargeback, never cleared
	Locked bool `json:"locked"`
}

// NewAccount creates a zeroed, unlocked account
func NewAccount(client ClientID) *Account {
	return &Account{Client: client}
}

// Validate checks account invariants
func (a *Account) Validate() error {
	if a.Available.IsNegative() {
		return fmt.Errorf("client %d: negative available: %s", a.Client, a.Available)
	}
	if a.Held.IsNegative() {
		return fmt.Errorf("client %d: negative held: %s", a.Client, a.Held)
	}
	if sum := a.Available.Add(a.Held); !sum.Equal(a.Total) {
		return fmt.Errorf("client %d: total %s != available %s + held %s", a.Client, a.Total, a.Available, a.Held)
	}
	return nil
}
