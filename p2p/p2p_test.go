package p2p

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipr-lab/zexe/internal/dpc"
	"github.com/scipr-lab/zexe/internal/ledger"
	"github.com/scipr-lab/zexe/internal/nizk"
)

type testNet struct {
	scheme *dpc.Scheme
	pp     *dpc.PublicParameters
	pred   *dpc.Predicate

	predNIZK *nizk.Insecure
}

func newTestNet(t *testing.T) *testNet {
	t.Helper()
	predNIZK := nizk.NewInsecure()
	scheme := dpc.NewScheme(dpc.DefaultComponents(1, 1, nizk.NewInsecure(), nizk.NewInsecure(), predNIZK), nil)
	pp, err := scheme.Setup(rand.Reader)
	require.NoError(t, err)
	return &testNet{
		scheme:   scheme,
		pp:       pp,
		pred:     dpc.NewPredicate(pp.PredicateVerifyingKey),
		predNIZK: predNIZK,
	}
}

func (tn *testNet) prover(base int) dpc.PredicateProver {
	return func(ld *dpc.LocalData, rng io.Reader) ([]dpc.PrivatePredicateInput, error) {
		proof, err := tn.predNIZK.Prove(tn.pp.PredicateProvingKey, dpc.PredicateStatement(ld.Commitment, uint8(base)), nil, rng)
		if err != nil {
			return nil, err
		}
		return []dpc.PrivatePredicateInput{{VerifyingKey: tn.pred.VerifyingKey, Proof: proof}}, nil
	}
}

func (tn *testNet) openLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.OpenInMemory([]byte("p2p test"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func (tn *testNet) startNode(t *testing.T, id string, peers map[string]string, l *ledger.Ledger, limiter Limiter) *Node {
	t.Helper()
	var wg sync.WaitGroup
	node := NewNode(id, "127.0.0.1:0", peers, tn.scheme, tn.pp, l, limiter, &wg, nil)
	ready := make(chan struct{}, 1)
	require.NoError(t, node.StartServer(ready))
	<-ready
	t.Cleanup(func() {
		node.Stop(context.Background())
		wg.Wait()
	})
	return node
}

// buildTransfer mints a genesis record on every ledger so the nodes share a
// digest, then builds a transaction spending it.
func (tn *testNet) buildTransfer(t *testing.T, ledgers ...*ledger.Ledger) *dpc.Transaction {
	t.Helper()
	alice, err := tn.scheme.CreateAddress(tn.pp, nil, rand.Reader)
	require.NoError(t, err)

	nonce := make([]byte, 32)
	_, err = rand.Read(nonce)
	require.NoError(t, err)
	genesis, err := tn.scheme.GenerateRecord(tn.pp, nonce, alice.Public, false, []byte("1"), tn.pred, tn.pred, rand.Reader)
	require.NoError(t, err)
	for _, l := range ledgers {
		require.NoError(t, l.PushCommitment(genesis.Commitment))
	}

	tx, _, err := tn.scheme.Execute(tn.pp, ledgers[0],
		[]*dpc.Record{genesis}, []*dpc.AddressSecretKey{&alice.Secret},
		[]dpc.NewRecordParams{{Owner: alice.Public, Payload: []byte("1"), Birth: tn.pred, Death: tn.pred}},
		nil, nil, tn.prover(0), tn.prover(1), rand.Reader)
	require.NoError(t, err)
	return tx
}

func TestAnnounceTransaction(t *testing.T) {
	tn := newTestNet(t)
	ldgA := tn.openLedger(t)
	ldgB := tn.openLedger(t)
	tx := tn.buildTransfer(t, ldgA, ldgB)

	nodeB := tn.startNode(t, "B", nil, ldgB, nil)
	nodeA := tn.startNode(t, "A", map[string]string{"B": nodeB.Address}, ldgA, nil)

	require.NoError(t, nodeA.AnnounceTransaction(tx))

	assert.True(t, ldgB.ContainsSerialNumber(tx.OldSerialNumbers[0]), "peer should have applied the transaction")
	assert.Equal(t, uint64(1), ldgB.TransactionCount())

	t.Run("Replay Rejected", func(t *testing.T) {
		err := nodeA.AnnounceTransaction(tx)
		assert.Error(t, err, "replaying a spent transaction should be rejected")
		assert.Equal(t, uint64(1), ldgB.TransactionCount())
	})
}

func TestAnnounceMalformedTransaction(t *testing.T) {
	tn := newTestNet(t)
	ldgB := tn.openLedger(t)
	nodeB := tn.startNode(t, "B", nil, ldgB, nil)
	nodeA := tn.startNode(t, "A", map[string]string{"B": nodeB.Address}, tn.openLedger(t), nil)

	_, err := nodeA.SendMessage("B", TypeTxAnnounce, TxAnnouncePayload{SenderID: "A", Transaction: []byte("garbage")})
	assert.Error(t, err)
	assert.Equal(t, uint64(0), ldgB.TransactionCount())
}

func TestRequestDigest(t *testing.T) {
	tn := newTestNet(t)
	ldgB := tn.openLedger(t)
	nodeB := tn.startNode(t, "B", nil, ldgB, nil)
	nodeA := tn.startNode(t, "A", map[string]string{"B": nodeB.Address}, tn.openLedger(t), nil)

	digest, err := nodeA.RequestDigest("B")
	require.NoError(t, err)

	want, err := ldgB.Digest()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(want, digest))
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func TestRateLimitedPeer(t *testing.T) {
	tn := newTestNet(t)
	nodeB := tn.startNode(t, "B", nil, tn.openLedger(t), denyAll{})
	nodeA := tn.startNode(t, "A", map[string]string{"B": nodeB.Address}, tn.openLedger(t), nil)

	_, err := nodeA.SendMessage("B", TypeDigestRequest, DigestRequestPayload{SenderID: "A"})
	assert.Error(t, err)
}

func TestUnknownPeer(t *testing.T) {
	tn := newTestNet(t)
	nodeA := tn.startNode(t, "A", nil, tn.openLedger(t), nil)
	_, err := nodeA.SendMessage("nobody", TypeDigestRequest, DigestRequestPayload{SenderID: "A"})
	assert.Error(t, err)
}
