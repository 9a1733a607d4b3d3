package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/uhyunpark/ledgerreplay/pkg/app/core/account"
	"github.com/uhyunpark/ledgerreplay/pkg/app/core/amount"
	"github.com/uhyunpark/ledgerreplay/pkg/app/core/transaction"
)

// EventSource yields events in input order and io.EOF when exhausted
// Errors wrapping transaction.ErrMalformedEvent are skipped; any other error
// stops the replay.
type EventSource interface {
	Next() (transaction.Event, error)
}

// Processor applies transaction events to the ledger and the tx store
// It holds no state of its own beyond those two and the replay counters.
type Processor struct {
	ledger *account.Ledger
	txs    transaction.Store
	logger *zap.SugaredLogger

	// Reject deposits/withdrawals on locked accounts
	freezeLocked bool

	stats Stats
}

// Option configures a Processor
type Option func(*Processor)

// WithLogger sets the logger used for skipped events (debug level)
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFreezeLocked makes locked accounts refuse further deposits and withdrawals
func WithFreezeLocked(freeze bool) Option {
	return func(p *Processor) { p.freezeLocked = freeze }
}

// New creates a processor over an existing ledger and store
func New(ledger *account.Ledger, txs transaction.Store, opts ...Option) *Processor {
	p := &Processor{
		ledger: ledger,
		txs:    txs,
		logger: zap.NewNop().Sugar(),
		stats:  Stats{Skipped: make(map[Reason]int)},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process applies every event of src in order until io.EOF
// ctx is checked between events, so an event is never half applied.
func (p *Processor) Process(ctx context.Context, src EventSource) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, transaction.ErrMalformedEvent) {
			p.count(skip(ReasonMalformed, err))
			p.logger.Debugw("event_malformed", "err", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}

		if err := p.Apply(ev); err != nil && !errors.Is(err, ErrSkipped) {
			return fmt.Errorf("apply %s: %w", ev, err)
		}
	}
}

// Apply applies a single event
// Returns nil when applied, an error matching ErrSkipped when the event was
// ignored, or a fatal error from the store.
func (p *Processor) Apply(ev transaction.Event) error {
	// Every referenced client gets an account, even if the event is skipped
	acc := p.ledger.GetOrCreate(ev.Client)

	var err error
	switch ev.Kind {
	case transaction.Deposit:
		err = p.deposit(acc, ev)
	case transaction.Withdrawal:
		err = p.withdraw(acc, ev)
	case transaction.Dispute, transaction.Resolve, transaction.Chargeback:
		err = p.meta(ev)
	default:
		err = skip(ReasonMalformed, fmt.Errorf("%w: kind %d", transaction.ErrMalformedEvent, ev.Kind))
	}

	var se *SkipError
	if errors.As(err, &se) {
		p.logger.Debugw("event_skipped",
			"type", ev.Kind.String(),
			"client", ev.Client,
			"tx", ev.Tx,
			"reason", se.Reason,
			"err", se.Err)
	}
	p.count(err)
	return err
}

func (p *Processor) deposit(acc *account.Account, ev transaction.Event) error {
	amt, err := p.checkStandard(acc, ev)
	if err != nil {
		return err
	}

	if err := p.ledger.CreditAvailable(ev.Client, amt); err != nil {
		return skip(ReasonInvalidAmount, err)
	}
	return p.record(ev, amt)
}

func (p *Processor) withdraw(acc *account.Account, ev transaction.Event) error {
	amt, err := p.checkStandard(acc, ev)
	if err != nil {
		return err
	}

	if err := p.ledger.DebitAvailable(ev.Client, amt); err != nil {
		if errors.Is(err, account.ErrInsufficientFunds) {
			return skip(ReasonInsufficientFunds, err)
		}
		return skip(ReasonInvalidAmount, err)
	}
	return p.record(ev, amt)
}

// checkStandard validates a deposit/withdrawal before any mutation
func (p *Processor) checkStandard(acc *account.Account, ev transaction.Event) (amount.Amount, error) {
	if ev.Amount == nil {
		return amount.Zero, skip(ReasonMissingAmount, ErrMissingAmount)
	}
	amt := *ev.Amount
	if !amt.IsPositive() {
		return amount.Zero, skip(ReasonInvalidAmount, fmt.Errorf("%w: %s", amount.ErrInvalidAmount, amt))
	}
	if p.freezeLocked && acc.Locked {
		return amount.Zero, skip(ReasonAccountLocked, fmt.Errorf("client %d: %w", ev.Client, ErrAccountLocked))
	}

	_, err := p.txs.Lookup(ev.Tx)
	switch {
	case err == nil:
		return amount.Zero, skip(ReasonDuplicate, fmt.Errorf("tx %d: %w", ev.Tx, transaction.ErrDuplicateTransaction))
	case !errors.Is(err, transaction.ErrNotFound):
		return amount.Zero, err
	}
	return amt, nil
}

func (p *Processor) record(ev transaction.Event, amt amount.Amount) error {
	err := p.txs.Record(transaction.Standard{
		ID:     ev.Tx,
		Client: ev.Client,
		Kind:   ev.Kind,
		Amount: amt,
	})
	if err != nil {
		// Duplicates were ruled out before the ledger moved, so this is a store failure
		return fmt.Errorf("record tx %d after ledger update: %w", ev.Tx, err)
	}
	return nil
}

// meta applies a dispute, resolve or chargeback
func (p *Processor) meta(ev transaction.Event) error {
	tx, err := p.txs.Lookup(ev.Tx)
	if errors.Is(err, transaction.ErrNotFound) {
		return skip(ReasonUnknownTx, err)
	}
	if err != nil {
		return err
	}
	if tx.Client != ev.Client {
		return skip(ReasonClientMismatch,
			fmt.Errorf("tx %d owned by client %d, not %d: %w", tx.ID, tx.Client, ev.Client, ErrClientMismatch))
	}

	next, err := tx.State.Transition(ev.Kind)
	switch {
	case errors.Is(err, transaction.ErrAlreadyDisputed):
		return skip(ReasonAlreadyDisputed, err)
	case errors.Is(err, transaction.ErrNotDisputed):
		return skip(ReasonNotDisputed, err)
	case errors.Is(err, transaction.ErrChargedBack):
		return skip(ReasonChargedBack, err)
	case err != nil:
		return skip(ReasonMalformed, err)
	}

	switch ev.Kind {
	case transaction.Dispute:
		if err := p.ledger.Hold(tx.Client, tx.Amount); err != nil {
			return skip(ReasonInsufficientFunds, err)
		}
	case transaction.Resolve:
		err = p.ledger.Release(tx.Client, tx.Amount)
	case transaction.Chargeback:
		err = p.ledger.ChargeBack(tx.Client, tx.Amount)
	}
	if err != nil {
		// Held always covers every disputed tx of the account
		return fmt.Errorf("ledger invariant violated by %s: %w", ev, err)
	}

	return p.txs.SetDisputeState(tx.ID, next)
}

func (p *Processor) count(err error) {
	var se *SkipError
	switch {
	case err == nil:
		p.stats.Applied++
	case errors.As(err, &se):
		p.stats.Skipped[se.Reason]++
	}
}

// Accounts returns the final account snapshot ordered by client id
func (p *Processor) Accounts() []account.Account {
	return p.ledger.Snapshot()
}

// Stats returns a copy of the replay counters
func (p *Processor) Stats() Stats {
	skipped := make(map[Reason]int, len(p.stats.Skipped))
	for r, n := range p.stats.Skipped {
		skipped[r] = n
	}
	return Stats{Applied: p.stats.Applied, Skipped: skipped}
}

// Run replays src into a fresh ledger backed by store and returns the processor
// holding the final state. The caller owns store and closes it.
func Run(ctx context.Context, src EventSource, store transaction.Store, opts ...Option) (*Processor, error) {
	p := New(account.NewLedger(), store, opts...)
	return p, p.Process(ctx, src)
}
