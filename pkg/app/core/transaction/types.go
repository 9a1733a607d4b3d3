package transaction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/uhyunpark/ledgerreplay/pkg/app/core/account"
	"github.com/uhyunpark/ledgerreplay/pkg/app/core/amount"
)

// ID is the globally unique transaction id (u32 on the wire)
type ID uint32

// Kind is the type of a transaction event
type Kind uint8

const (
	KindUnknown Kind = iota
	Deposit
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

func (k Kind) String() string {
	switch k {
	case Deposit:
		return "deposit"
	case Withdrawal:
		return "withdrawal"
	case Dispute:
		return "dispute"
	case Resolve:
		return "resolve"
	case Chargeback:
		return "chargeback"
	default:
		return "unknown"
	}
}

// IsStandard reports whether the kind moves funds and carries an amount
func (k Kind) IsStandard() bool {
	return k == Deposit || k == Withdrawal
}

// IsMeta reports whether the kind references an earlier standard transaction
func (k Kind) IsMeta() bool {
	return k == Dispute || k == Resolve || k == Chargeback
}

// ParseKind parses a type column value, ignoring case and surrounding whitespace
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deposit":
		return Deposit, nil
	case "withdrawal":
		return Withdrawal, nil
	case "dispute":
		return Dispute, nil
	case "resolve":
		return Resolve, nil
	case "chargeback":
		return Chargeback, nil
	default:
		return KindUnknown, fmt.Errorf("%w: unknown transaction type %q", ErrMalformedEvent, s)
	}
}

// ErrMalformedEvent marks input that could not be turned into an Event
// Event sources wrap it so the replay can skip the row and continue.
var ErrMalformedEvent = errors.New("malformed event")

// Event is one row of the ordered input stream
type Event struct {
	Kind   Kind
	Client account.ClientID
	Tx     ID

	// Set only for deposits and withdrawals
	Amount *amount.Amount
}

func (e Event) String() string {
	if e.Amount == nil {
		return fmt.Sprintf("%s(client=%d, tx=%d)", e.Kind, e.Client, e.Tx)
	}
	return fmt.Sprintf("%s(client=%d, tx=%d, amount=%s)", e.Kind, e.Client, e.Tx, e.Amount)
}

// DisputeState is the dispute lifecycle of a standard transaction
type DisputeState uint8

const (
	Normal DisputeState = iota
	Disputed
	ChargedBack // terminal
)

func (s DisputeState) String() string {
	switch s {
	case Normal:
		return "normal"
	case Disputed:
		return "disputed"
	case ChargedBack:
		return "charged_back"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyDisputed is returned for a dispute of a disputed transaction
	ErrAlreadyDisputed = errors.New("transaction already disputed")
	// ErrNotDisputed is returned for a resolve or chargeback of an undisputed transaction
	ErrNotDisputed = errors.New("transaction not disputed")
	// ErrChargedBack is returned for any meta event against a charged back transaction
	ErrChargedBack = errors.New("transaction charged back")
)

// Transition returns the state reached by applying a meta event of kind k
//
//	Normal      + dispute    -> Disputed
//	Disputed    + resolve    -> Normal
//	Disputed    + chargeback -> ChargedBack
//
// Every other combination is rejected and leaves the state as it was.
func (s DisputeState) Transition(k Kind) (DisputeState, error) {
	if s == ChargedBack {
		return s, ErrChargedBack
	}

	switch k {
	case Dispute:
		if s == Disputed {
			return s, ErrAlreadyDisputed
		}
		return Disputed, nil
	case Resolve:
		if s != Disputed {
			return s, ErrNotDisputed
		}
		return Normal, nil
	case Chargeback:
		if s != Disputed {
			return s, ErrNotDisputed
		}
		return ChargedBack, nil
	default:
		return s, fmt.Errorf("%s is not a dispute event", k)
	}
}

// Standard is a deposit or withdrawal that was applied to an account
type Standard struct {
	ID     ID               `json:"tx"`
	Client account.ClientID `json:"client"`
	Kind   Kind             `json:"kind"`
	Amount amount.Amount    `json:"amount"` // Always positive
	State  DisputeState     `json:"state"`
}
