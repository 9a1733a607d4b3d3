package transaction

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/ledgerreplay/pkg/app/core/amount"
)

// newStores returns one store per backend; each test runs against all of them
func newStores(t *testing.T) map[string]Store {
	t.Helper()

	pebbleStore, err := NewPebbleStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { pebbleStore.Close() })

	return map[string]Store{
		BackendMemory: NewMemoryStore(),
		BackendPebble: pebbleStore,
	}
}

func deposit(id ID, client uint16, amt string) Standard {
	return Standard{ID: id, Client: clientID(client), Kind: Deposit, Amount: amount.MustParse(amt)}
}

func TestStoreRecordAndLookup(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Record(deposit(1, 7, "2.5")))

			tx, err := s.Lookup(1)
			require.NoError(t, err)
			assert.Equal(t, ID(1), tx.ID)
			assert.Equal(t, clientID(7), tx.Client)
			assert.Equal(t, Deposit, tx.Kind)
			assert.Equal(t, amount.MustParse("2.5"), tx.Amount)
			assert.Equal(t, Normal, tx.State)
			assert.Equal(t, 1, s.Len())
		})
	}
}

func TestStoreRecordForcesNormalState(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			tx := deposit(3, 1, "1")
			tx.State = ChargedBack
			require.NoError(t, s.Record(tx))

			got, err := s.Lookup(3)
			require.NoError(t, err)
			assert.Equal(t, Normal, got.State)
		})
	}
}

func TestStoreDuplicate(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Record(deposit(1, 1, "1")))

			err := s.Record(deposit(1, 2, "99"))
			require.ErrorIs(t, err, ErrDuplicateTransaction)

			// Original record untouched
			tx, err := s.Lookup(1)
			require.NoError(t, err)
			assert.Equal(t, clientID(1), tx.Client)
			assert.Equal(t, amount.MustParse("1"), tx.Amount)
			assert.Equal(t, 1, s.Len())
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Lookup(999)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.SetDisputeState(999, Disputed), ErrNotFound)
		})
	}
}

func TestStoreSetDisputeState(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Record(deposit(5, 1, "5")))

			for _, state := range []DisputeState{Disputed, Normal, Disputed, ChargedBack} {
				require.NoError(t, s.SetDisputeState(5, state))
				tx, err := s.Lookup(5)
				require.NoError(t, err)
				assert.Equal(t, state, tx.State)
				assert.Equal(t, amount.MustParse("5"), tx.Amount)
			}
		})
	}
}

func TestStoreLookupReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Record(deposit(1, 1, "1")))

	tx, err := s.Lookup(1)
	require.NoError(t, err)
	tx.State = Disputed

	again, err := s.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, Normal, again.State)
}

func TestPebbleStoreEachInIDOrder(t *testing.T) {
	s, err := NewPebbleStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	for _, id := range []ID{300, 2, 4294967295, 17} {
		require.NoError(t, s.Record(deposit(id, 1, "1")))
	}

	var seen []ID
	require.NoError(t, s.each(func(tx Standard) error {
		seen = append(seen, tx.ID)
		return nil
	}))
	assert.Equal(t, []ID{2, 17, 300, 4294967295}, seen)
}

func TestPebbleStoreCloseRemovesDir(t *testing.T) {
	s, err := NewPebbleStore(t.TempDir())
	require.NoError(t, err)
	dir := s.dir

	require.NoError(t, s.Record(deposit(1, 1, "1")))
	require.NoError(t, s.Close())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenStore(t *testing.T) {
	s, err := OpenStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = OpenStore(BackendPebble, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &PebbleStore{}, s)
	require.NoError(t, s.Close())

	_, err = OpenStore("redis", "")
	assert.Error(t, err)
}

func TestTxKeyRoundTrip(t *testing.T) {
	key := txKey(42)
	assert.Equal(t, "tx:0000000042", string(key))

	id, err := txIDFromKey(key)
	require.NoError(t, err)
	assert.Equal(t, ID(42), id)

	_, err = txIDFromKey([]byte("acc:0000000042"))
	assert.Error(t, err)
}
