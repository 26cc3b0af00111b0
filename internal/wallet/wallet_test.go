package wallet

import (
	"crypto/rand"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipr-lab/zexe/internal/dpc"
	"github.com/scipr-lab/zexe/internal/ledger"
	"github.com/scipr-lab/zexe/internal/nizk"
)

func newTestSetup(t *testing.T) (*dpc.Scheme, *dpc.PublicParameters, *ledger.Ledger, *Wallet) {
	t.Helper()
	scheme := dpc.NewScheme(dpc.DefaultComponents(1, 1, nizk.NewInsecure(), nizk.NewInsecure(), nizk.NewInsecure()), nil)
	pp, err := scheme.Setup(rand.Reader)
	require.NoError(t, err)
	ldg, err := ledger.OpenInMemory([]byte("wallet test"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { ldg.Close() })
	addr, err := scheme.CreateAddress(pp, nil, rand.Reader)
	require.NoError(t, err)
	return scheme, pp, ldg, New(addr, nil)
}

func newRecord(t *testing.T, scheme *dpc.Scheme, pp *dpc.PublicParameters, owner dpc.AddressPublicKey) *dpc.Record {
	t.Helper()
	pred := dpc.NewPredicate(pp.PredicateVerifyingKey)
	nonce := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, nonce)
	require.NoError(t, err)
	record, err := scheme.GenerateRecord(pp, nonce, owner, false, []byte("10"), pred, pred, rand.Reader)
	require.NoError(t, err)
	return record
}

func TestWalletRecords(t *testing.T) {
	scheme, pp, _, w := newTestSetup(t)

	r1 := newRecord(t, scheme, pp, w.Address.Public)
	r2 := newRecord(t, scheme, pp, w.Address.Public)
	w.AddRecord(r1)
	w.AddRecord(r2)
	assert.Len(t, w.UnspentRecords(), 2)

	w.MarkSpent(r1.Commitment)
	unspent := w.UnspentRecords()
	require.Len(t, unspent, 1)
	assert.Equal(t, r2.Commitment, unspent[0].Commitment)
}

func TestSyncWithLedger(t *testing.T) {
	scheme, pp, ldg, w := newTestSetup(t)

	spent := newRecord(t, scheme, pp, w.Address.Public)
	kept := newRecord(t, scheme, pp, w.Address.Public)
	w.AddRecord(spent)
	w.AddRecord(kept)

	// Consume the first record on the ledger.
	sn, _, err := scheme.GenerateSerialNumber(pp, spent, &w.Address.Secret)
	require.NoError(t, err)
	require.NoError(t, ldg.Append(&dpc.Transaction{OldSerialNumbers: [][]byte{sn}}))

	flipped, err := w.SyncWithLedger(scheme, pp, ldg)
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	unspent := w.UnspentRecords()
	require.Len(t, unspent, 1)
	assert.Equal(t, kept.Commitment, unspent[0].Commitment)

	// Second sync is a no-op.
	flipped, err = w.SyncWithLedger(scheme, pp, ldg)
	require.NoError(t, err)
	assert.Equal(t, 0, flipped)
}

func TestSaveLoad(t *testing.T) {
	scheme, pp, _, w := newTestSetup(t)
	record := newRecord(t, scheme, pp, w.Address.Public)
	w.AddRecord(record)
	w.MarkSpent(record.Commitment)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, w.Save(path))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, w.Address.Public.PublicKey, loaded.Address.Public.PublicKey)
	assert.Equal(t, w.Address.Secret.PrfSeed, loaded.Address.Secret.PrfSeed)
	require.Len(t, loaded.Records, 1)
	assert.True(t, loaded.Records[0].Spent)
	assert.Equal(t, record.Commitment, loaded.Records[0].Record.Commitment)
}
