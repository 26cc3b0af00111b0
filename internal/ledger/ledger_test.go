package ledger

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipr-lab/zexe/internal/dpc"
)

func randomCommitment(t *testing.T) []byte {
	t.Helper()
	cm := make([]byte, leafSize)
	_, err := rand.Read(cm)
	require.NoError(t, err)
	// Clear the top byte so the leaf is a canonical field element.
	cm[0] = 0
	return cm
}

func TestEmptyLedger(t *testing.T) {
	l, err := OpenInMemory([]byte("params"), nil)
	require.NoError(t, err)
	defer l.Close()

	digest, err := l.Digest()
	require.NoError(t, err)
	assert.Equal(t, make([]byte, leafSize), digest)
	assert.True(t, l.ValidateDigest(digest))
	assert.False(t, l.ValidateDigest([]byte("never a root")))
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, []byte("params"), l.Parameters())
}

func TestPushCommitment(t *testing.T) {
	l, err := OpenInMemory([]byte("params"), nil)
	require.NoError(t, err)
	defer l.Close()

	emptyDigest, err := l.Digest()
	require.NoError(t, err)

	cm := randomCommitment(t)
	require.NoError(t, l.PushCommitment(cm))

	digest, err := l.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, emptyDigest, digest)

	// Historical digests stay valid.
	assert.True(t, l.ValidateDigest(emptyDigest))
	assert.True(t, l.ValidateDigest(digest))
	assert.Equal(t, 1, l.Len())
}

func TestMembershipWitness(t *testing.T) {
	l, err := OpenInMemory([]byte("params"), nil)
	require.NoError(t, err)
	defer l.Close()

	commitments := make([][]byte, 5)
	for i := range commitments {
		commitments[i] = randomCommitment(t)
		require.NoError(t, l.PushCommitment(commitments[i]))
	}
	root, err := l.Digest()
	require.NoError(t, err)

	for _, cm := range commitments {
		witness, err := l.ProveCommitment(cm)
		require.NoError(t, err)
		assert.True(t, VerifyWitness(witness, root), "witness should verify against the current root")
	}

	t.Run("Unknown Commitment", func(t *testing.T) {
		_, err := l.ProveCommitment(randomCommitment(t))
		assert.Error(t, err)
	})

	t.Run("Wrong Root", func(t *testing.T) {
		witness, err := l.ProveCommitment(commitments[0])
		require.NoError(t, err)
		wrongRoot := randomCommitment(t)
		assert.False(t, VerifyWitness(witness, wrongRoot))
	})

	t.Run("Corrupted Witness", func(t *testing.T) {
		witness, err := l.ProveCommitment(commitments[0])
		require.NoError(t, err)
		assert.False(t, VerifyWitness(witness[:10], root))
	})

	t.Run("Truncated Fixed-Width Fields", func(t *testing.T) {
		witness, err := l.ProveCommitment(commitments[0])
		require.NoError(t, err)
		// Cut points landing inside the index, leaf count and proof count
		// fields; each must fail decoding rather than read a partial value.
		for _, n := range []int{0, 5, 12, 18} {
			assert.False(t, VerifyWitness(witness[:n], root), "witness cut to %d bytes verified", n)
		}
	})
}

func TestSnapshotConsistency(t *testing.T) {
	l, err := OpenInMemory([]byte("params"), nil)
	require.NoError(t, err)
	defer l.Close()

	cm := randomCommitment(t)
	require.NoError(t, l.PushCommitment(cm))

	snap := l.Snapshot()
	witness, err := snap.ProveCommitment(cm)
	require.NoError(t, err)

	// A concurrent append lands between the witness read and the digest
	// read. Both reads still describe the pinned state.
	require.NoError(t, l.PushCommitment(randomCommitment(t)))

	snapDigest, err := snap.Digest()
	require.NoError(t, err)
	assert.True(t, VerifyWitness(witness, snapDigest), "witness and digest from one snapshot must agree")

	liveDigest, err := l.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, snapDigest, liveDigest)

	// The pinned digest is a historical root, so verification still
	// accepts it.
	assert.True(t, snap.ValidateDigest(snapDigest))
	assert.True(t, l.ValidateDigest(snapDigest))

	t.Run("Live Reads Pass Through", func(t *testing.T) {
		sn := make([]byte, 48)
		_, err := rand.Read(sn)
		require.NoError(t, err)
		require.NoError(t, l.Append(&dpc.Transaction{
			OldSerialNumbers: [][]byte{sn},
			NewCommitments:   [][]byte{randomCommitment(t)},
		}))
		assert.True(t, snap.ContainsSerialNumber(sn))
		assert.Equal(t, l.Parameters(), snap.Parameters())
	})
}

func TestAppend(t *testing.T) {
	l, err := OpenInMemory([]byte("params"), nil)
	require.NoError(t, err)
	defer l.Close()

	sn := make([]byte, 48)
	_, err = rand.Read(sn)
	require.NoError(t, err)
	tx := &dpc.Transaction{
		OldSerialNumbers: [][]byte{sn},
		NewCommitments:   [][]byte{randomCommitment(t)},
	}

	preDigest, err := l.Digest()
	require.NoError(t, err)

	require.NoError(t, l.Append(tx))
	assert.True(t, l.ContainsSerialNumber(sn))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, uint64(1), l.TransactionCount())

	postDigest, err := l.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, preDigest, postDigest)
	assert.True(t, l.ValidateDigest(preDigest))

	t.Run("Double Spend Rejected", func(t *testing.T) {
		err := l.Append(tx)
		assert.Error(t, err)
		assert.Equal(t, uint64(1), l.TransactionCount())
	})
}

func TestReopenPersistence(t *testing.T) {
	dir := t.TempDir()
	params := []byte("persistent params")

	l, err := Open(dir, params, nil)
	require.NoError(t, err)

	cm := randomCommitment(t)
	sn := make([]byte, 48)
	_, err = rand.Read(sn)
	require.NoError(t, err)

	require.NoError(t, l.PushCommitment(cm))
	require.NoError(t, l.Append(&dpc.Transaction{
		OldSerialNumbers: [][]byte{sn},
		NewCommitments:   [][]byte{randomCommitment(t)},
	}))
	digest, err := l.Digest()
	require.NoError(t, err)
	require.NoError(t, l.Close())

	reopened, err := Open(dir, params, nil)
	require.NoError(t, err)
	defer reopened.Close()

	gotDigest, err := reopened.Digest()
	require.NoError(t, err)
	assert.Equal(t, digest, gotDigest)
	assert.True(t, reopened.ContainsSerialNumber(sn))
	assert.Equal(t, 2, reopened.Len())
	assert.Equal(t, uint64(1), reopened.TransactionCount())

	witness, err := reopened.ProveCommitment(cm)
	require.NoError(t, err)
	assert.True(t, VerifyWitness(witness, gotDigest))
}
