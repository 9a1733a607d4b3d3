package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/uhyunpark/ledgerreplay/pkg/app/core/account"
)

var outputHeader = []string{"client", "available", "held", "total", "locked"}

// WriteAccounts writes one row per account, amounts with four fractional digits
func WriteAccounts(w io.Writer, accounts []account.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(outputHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(outputHeader))
	for _, acc := range accounts {
		row[0] = strconv.FormatUint(uint64(acc.Client), 10)
		row[1] = acc.Available.String()
		row[2] = acc.Held.String()
		row[3] = acc.Total.String()
		row[4] = strconv.FormatBool(acc.Locked)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write client %d: %w", acc.Client, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
