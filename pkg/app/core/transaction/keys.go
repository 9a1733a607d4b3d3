package transaction

import (
	"fmt"
	"strconv"
)

// Pebble key schema for the scratch transaction arena
// Ids are zero-padded so iteration order matches numeric order.

const prefixTx = "tx:"

// txKey returns the key for a standard transaction
// Format: "tx:{id}" with id padded to 10 digits (max u32 is 4294967295)
// Example: "tx:0000000042"
func txKey(id ID) []byte {
	return []byte(fmt.Sprintf("%s%010d", prefixTx, id))
}

// txIDFromKey is the inverse of txKey
func txIDFromKey(key []byte) (ID, error) {
	if len(key) != len(prefixTx)+10 || string(key[:len(prefixTx)]) != prefixTx {
		return 0, fmt.Errorf("invalid tx key: %q", key)
	}
	n, err := strconv.ParseUint(string(key[len(prefixTx):]), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid tx key %q: %w", key, err)
	}
	return ID(n), nil
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
// Example: prefix "tx:" -> upper bound "tx;" (next byte after ':')
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
