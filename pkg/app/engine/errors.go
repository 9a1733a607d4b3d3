package engine

import (
	"errors"
	"fmt"
)

// ErrSkipped matches every domain error: the event had no effect and the
// replay continues. Anything returned by Apply that is not ErrSkipped is fatal.
var ErrSkipped = errors.New("event skipped")

var (
	// ErrClientMismatch is returned when a meta event names a client that does not own the referenced tx
	ErrClientMismatch = errors.New("client does not own transaction")
	// ErrMissingAmount is returned for a deposit or withdrawal without an amount
	ErrMissingAmount = errors.New("missing amount")
	// ErrAccountLocked is returned for standard events on a locked account when freezing is enabled
	ErrAccountLocked = errors.New("account locked")
)

// Reason classifies why an event was skipped
type Reason string

const (
	ReasonMalformed         Reason = "malformed"
	ReasonInvalidAmount     Reason = "invalid_amount"
	ReasonMissingAmount     Reason = "missing_amount"
	ReasonDuplicate         Reason = "duplicate_tx"
	ReasonInsufficientFunds Reason = "insufficient_funds"
	ReasonUnknownTx         Reason = "unknown_tx"
	ReasonClientMismatch    Reason = "client_mismatch"
	ReasonAlreadyDisputed   Reason = "already_disputed"
	ReasonNotDisputed       Reason = "not_disputed"
	ReasonChargedBack       Reason = "charged_back"
	ReasonAccountLocked     Reason = "account_locked"
)

// SkipError is a domain error carrying the skip reason
type SkipError struct {
	Reason Reason
	Err    error
}

func skip(reason Reason, err error) *SkipError {
	return &SkipError{Reason: reason, Err: err}
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipped (%s): %v", e.Reason, e.Err)
}

func (e *SkipError) Unwrap() error { return e.Err }

func (e *SkipError) Is(target error) bool { return target == ErrSkipped }

// Stats counts what happened to each event of a replay
type Stats struct {
	Applied int            `json:"applied"`
	Skipped map[Reason]int `json:"skipped"`
}

// Events returns the number of events seen
func (s Stats) Events() int {
	n := s.Applied
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// SkippedTotal returns the number of skipped events across all reasons
func (s Stats) SkippedTotal() int {
	return s.Events() - s.Applied
}
