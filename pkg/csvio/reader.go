// Package csvio reads transaction events from and writes account snapshots to CSV.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/uhyunpark/ledgerreplay/pkg/app/core/account"
	"github.com/uhyunpark/ledgerreplay/pkg/app/core/amount"
	"github.com/uhyunpark/ledgerreplay/pkg/app/core/transaction"
)

// Input columns
const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

// ErrMissingHeader is returned when the input lacks a required column
var ErrMissingHeader = errors.New("missing header column")

// Reader decodes "type,client,tx,amount" rows into events
// Fields are whitespace-tolerant, column order comes from the header, and the
// amount column may be absent or empty for dispute/resolve/chargeback rows.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
}

// NewReader reads the header row and returns a Reader positioned at the first record
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // meta rows often drop the trailing amount
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	cr.Comment = '#'

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty input: %w", ErrMissingHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colType, colClient, colTx} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingHeader, required)
		}
	}

	return &Reader{csv: cr, columns: columns}, nil
}

// Next returns the next event, io.EOF at the end of input, or an error
// wrapping transaction.ErrMalformedEvent for a row that cannot be decoded.
// A malformed row does not stop the reader.
func (r *Reader) Next() (transaction.Event, error) {
	record, err := r.csv.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return transaction.Event{}, fmt.Errorf("line %d: %w: %v", pe.Line, transaction.ErrMalformedEvent, pe.Err)
		}
		return transaction.Event{}, err
	}

	line, _ := r.csv.FieldPos(0)
	ev, err := r.decode(record)
	if err != nil {
		return transaction.Event{}, fmt.Errorf("line %d: %w", line, err)
	}
	return ev, nil
}

func (r *Reader) decode(record []string) (transaction.Event, error) {
	kind, err := transaction.ParseKind(r.field(record, colType))
	if err != nil {
		return transaction.Event{}, err
	}

	client, err := strconv.ParseUint(r.field(record, colClient), 10, 16)
	if err != nil {
		return transaction.Event{}, fmt.Errorf("%w: client: %v", transaction.ErrMalformedEvent, err)
	}

	tx, err := strconv.ParseUint(r.field(record, colTx), 10, 32)
	if err != nil {
		return transaction.Event{}, fmt.Errorf("%w: tx: %v", transaction.ErrMalformedEvent, err)
	}

	ev := transaction.Event{
		Kind:   kind,
		Client: account.ClientID(client),
		Tx:     transaction.ID(tx),
	}

	// Meta rows carry no amount; anything in the column is ignored
	if kind.IsStandard() {
		if raw := r.field(record, colAmount); raw != "" {
			a, err := amount.Parse(raw)
			if err != nil {
				return transaction.Event{}, fmt.Errorf("%w: %v", transaction.ErrMalformedEvent, err)
			}
			ev.Amount = &a
		}
	}

	return ev, nil
}

// field returns the trimmed value of a column, "" when the row is short
func (r *Reader) field(record []string, name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
