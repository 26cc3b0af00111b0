// Package ledger provides the append-only commitment accumulator backing
// the transaction pipeline: a MiMC Merkle tree over record commitments,
// a serial-number set for double-spend detection, and the set of all
// historical tree roots as valid digests. State persists in pebble.
package ledger

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/consensys/gnark-crypto/accumulator/merkletree"
	"github.com/consensys/gnark-crypto/hash"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/scipr-lab/zexe/internal/dpc"
)

const leafSize = 32

// Key prefixes. Commitment keys carry a big-endian index so iteration
// yields leaves in insertion order.
var (
	keyCommitmentPrefix = []byte("cm/")
	keySerialPrefix     = []byte("sn/")
	keyDigestPrefix     = []byte("dg/")
	keyTxPrefix         = []byte("tx/")
	keyParams           = []byte("meta/params")
)

// Ledger is the concrete ledger service. Individual reads are atomic;
// a sequence of reads that must agree on one accumulator state goes
// through Snapshot.
type Ledger struct {
	mu sync.RWMutex

	db      *pebble.DB
	leaves  [][]byte
	serials map[string]struct{}
	digests map[string]struct{}
	txCount uint64
	params  []byte
	root    []byte
	log     *zap.Logger
}

var (
	_ dpc.Ledger      = (*Ledger)(nil)
	_ dpc.Snapshotter = (*Ledger)(nil)
)

// Open opens or creates a ledger at path.
func Open(path string, params []byte, log *zap.Logger) (*Ledger, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "ledger: open db")
	}
	return load(db, params, log)
}

// OpenInMemory opens a ledger on an in-memory filesystem. For tests and
// throwaway devnets.
func OpenInMemory(params []byte, log *zap.Logger) (*Ledger, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, errors.Wrap(err, "ledger: open in-memory db")
	}
	return load(db, params, log)
}

func load(db *pebble.DB, params []byte, log *zap.Logger) (*Ledger, error) {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Ledger{
		db:      db,
		serials: make(map[string]struct{}),
		digests: make(map[string]struct{}),
		params:  append([]byte(nil), params...),
		log:     log,
	}

	if err := l.scanPrefix(keyCommitmentPrefix, func(_, v []byte) {
		l.leaves = append(l.leaves, append([]byte(nil), v...))
	}); err != nil {
		return nil, err
	}
	if err := l.scanPrefix(keySerialPrefix, func(k, _ []byte) {
		l.serials[string(k[len(keySerialPrefix):])] = struct{}{}
	}); err != nil {
		return nil, err
	}
	if err := l.scanPrefix(keyDigestPrefix, func(k, _ []byte) {
		l.digests[string(k[len(keyDigestPrefix):])] = struct{}{}
	}); err != nil {
		return nil, err
	}
	if err := l.scanPrefix(keyTxPrefix, func(_, _ []byte) {
		l.txCount++
	}); err != nil {
		return nil, err
	}

	if err := l.db.Set(keyParams, l.params, pebble.Sync); err != nil {
		return nil, errors.Wrap(err, "ledger: store parameters")
	}

	l.root = computeRoot(l.leaves)
	if _, known := l.digests[string(l.root)]; !known {
		if err := l.db.Set(digestKey(l.root), nil, pebble.Sync); err != nil {
			return nil, errors.Wrap(err, "ledger: store digest")
		}
		l.digests[string(l.root)] = struct{}{}
	}

	l.log.Info("ledger opened",
		zap.Int("commitments", len(l.leaves)),
		zap.Int("serialNumbers", len(l.serials)),
		zap.Uint64("transactions", l.txCount))
	return l, nil
}

func (l *Ledger) scanPrefix(prefix []byte, fn func(k, v []byte)) error {
	upper := append(append([]byte(nil), prefix...), 0xff)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	if err != nil {
		return errors.Wrap(err, "ledger: iterator")
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		fn(iter.Key(), iter.Value())
	}
	return errors.Wrap(iter.Error(), "ledger: scan")
}

// Close closes the underlying store.
func (l *Ledger) Close() error {
	return errors.Wrap(l.db.Close(), "ledger: close db")
}

func commitmentKey(index uint64) []byte {
	k := make([]byte, len(keyCommitmentPrefix)+8)
	copy(k, keyCommitmentPrefix)
	binary.BigEndian.PutUint64(k[len(keyCommitmentPrefix):], index)
	return k
}

func serialKey(sn []byte) []byte {
	return append(append([]byte(nil), keySerialPrefix...), sn...)
}

func digestKey(root []byte) []byte {
	return append(append([]byte(nil), keyDigestPrefix...), root...)
}

func txKey(seq uint64) []byte {
	k := make([]byte, len(keyTxPrefix)+8)
	copy(k, keyTxPrefix)
	binary.BigEndian.PutUint64(k[len(keyTxPrefix):], seq)
	return k
}

// computeRoot rebuilds the Merkle root over the leaves. The empty tree has
// the all-zero digest.
func computeRoot(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		return make([]byte, leafSize)
	}
	tree := merkletree.New(hash.MIMC_BLS12_377.New())
	for _, leaf := range leaves {
		tree.Push(leaf)
	}
	return tree.Root()
}

// Digest returns the current accumulator root.
func (l *Ledger) Digest() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]byte(nil), l.root...), nil
}

// ValidateDigest reports whether digest is any root the ledger has ever
// had. Transactions built against an older snapshot stay verifiable.
func (l *Ledger) ValidateDigest(digest []byte) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.digests[string(digest)]
	return ok
}

// ContainsSerialNumber reports whether sn has been consumed.
func (l *Ledger) ContainsSerialNumber(sn []byte) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.serials[string(sn)]
	return ok
}

// Parameters returns the ledger parameter bytes fixed at open time.
func (l *Ledger) Parameters() []byte {
	return append([]byte(nil), l.params...)
}

// proveMembership builds a membership witness for cm over a fixed leaf
// sequence.
func proveMembership(leaves [][]byte, cm []byte) ([]byte, error) {
	index := -1
	for i, leaf := range leaves {
		if bytes.Equal(leaf, cm) {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, errors.New("ledger: commitment not found")
	}

	var buf bytes.Buffer
	for _, leaf := range leaves {
		buf.Write(leaf)
	}
	_, proofSet, numLeaves, err := merkletree.BuildReaderProof(&buf, hash.MIMC_BLS12_377.New(), leafSize, uint64(index))
	if err != nil {
		return nil, errors.Wrap(err, "ledger: build witness")
	}
	return encodeWitness(uint64(index), numLeaves, proofSet), nil
}

// ProveCommitment builds a membership witness for cm against the current
// root. The witness verifies with VerifyWitness.
func (l *Ledger) ProveCommitment(cm []byte) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return proveMembership(l.leaves, cm)
}

// Snapshot freezes the accumulator at its current state. Witnesses and the
// digest read from one snapshot always agree, even with appends landing
// concurrently; that pairing is what transaction building needs. Serial
// number and digest-validity reads pass through to the live ledger.
type Snapshot struct {
	parent *Ledger
	leaves [][]byte
	root   []byte
}

var _ dpc.Ledger = (*Snapshot)(nil)

// Snapshot captures the current accumulator state. Leaves are append-only
// and never mutated in place, so holding the slice header is enough.
func (l *Ledger) Snapshot() dpc.Ledger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Snapshot{
		parent: l,
		leaves: l.leaves,
		root:   append([]byte(nil), l.root...),
	}
}

// Digest returns the root captured at snapshot time.
func (s *Snapshot) Digest() ([]byte, error) {
	return append([]byte(nil), s.root...), nil
}

// ProveCommitment builds a witness against the captured leaves; it
// verifies against the snapshot's digest.
func (s *Snapshot) ProveCommitment(cm []byte) ([]byte, error) {
	return proveMembership(s.leaves, cm)
}

// ValidateDigest reports against the live digest history.
func (s *Snapshot) ValidateDigest(digest []byte) bool {
	return s.parent.ValidateDigest(digest)
}

// ContainsSerialNumber reports against the live spent set.
func (s *Snapshot) ContainsSerialNumber(sn []byte) bool {
	return s.parent.ContainsSerialNumber(sn)
}

// Parameters returns the ledger parameter bytes fixed at open time.
func (s *Snapshot) Parameters() []byte {
	return s.parent.Parameters()
}

// VerifyWitness checks a membership witness against a root.
func VerifyWitness(witness, root []byte) bool {
	index, numLeaves, proofSet, err := decodeWitness(witness)
	if err != nil {
		return false
	}
	return merkletree.VerifyProof(hash.MIMC_BLS12_377.New(), root, proofSet, index, numLeaves)
}

func encodeWitness(index, numLeaves uint64, proofSet [][]byte) []byte {
	var buf bytes.Buffer
	var u64 [8]byte
	binary.BigEndian.PutUint64(u64[:], index)
	buf.Write(u64[:])
	binary.BigEndian.PutUint64(u64[:], numLeaves)
	buf.Write(u64[:])
	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], uint32(len(proofSet)))
	buf.Write(u32[:])
	for _, p := range proofSet {
		binary.BigEndian.PutUint32(u32[:], uint32(len(p)))
		buf.Write(u32[:])
		buf.Write(p)
	}
	return buf.Bytes()
}

func decodeWitness(witness []byte) (index, numLeaves uint64, proofSet [][]byte, err error) {
	r := bytes.NewReader(witness)
	var u64 [8]byte
	if _, err = io.ReadFull(r, u64[:]); err != nil {
		return 0, 0, nil, errors.Wrap(err, "witness index")
	}
	index = binary.BigEndian.Uint64(u64[:])
	if _, err = io.ReadFull(r, u64[:]); err != nil {
		return 0, 0, nil, errors.Wrap(err, "witness leaf count")
	}
	numLeaves = binary.BigEndian.Uint64(u64[:])
	var u32 [4]byte
	if _, err = io.ReadFull(r, u32[:]); err != nil {
		return 0, 0, nil, errors.Wrap(err, "witness proof count")
	}
	n := binary.BigEndian.Uint32(u32[:])
	if uint64(r.Len()) < uint64(n)*4 {
		return 0, 0, nil, errors.New("witness truncated")
	}
	proofSet = make([][]byte, 0, n)
	for i := uint32(0); i < n; i++ {
		if _, err = io.ReadFull(r, u32[:]); err != nil {
			return 0, 0, nil, errors.Wrap(err, "witness entry length")
		}
		entryLen := binary.BigEndian.Uint32(u32[:])
		if uint32(r.Len()) < entryLen {
			return 0, 0, nil, errors.New("witness entry truncated")
		}
		entry := make([]byte, entryLen)
		if _, err = io.ReadFull(r, entry); err != nil {
			return 0, 0, nil, errors.Wrap(err, "witness entry")
		}
		proofSet = append(proofSet, entry)
	}
	return index, numLeaves, proofSet, nil
}

// PushCommitment mints a commitment directly into the accumulator without a
// transaction. This is how genesis records enter the system.
func (l *Ledger) PushCommitment(cm []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	batch := l.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(commitmentKey(uint64(len(l.leaves))), cm, nil); err != nil {
		return errors.Wrap(err, "ledger: stage commitment")
	}
	leaves := append(l.leaves, append([]byte(nil), cm...))
	root := computeRoot(leaves)
	if err := batch.Set(digestKey(root), nil, nil); err != nil {
		return errors.Wrap(err, "ledger: stage digest")
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "ledger: commit batch")
	}

	l.leaves = leaves
	l.root = root
	l.digests[string(root)] = struct{}{}
	return nil
}

// Append applies an accepted transaction: consumed serial numbers join the
// spent set, minted commitments join the accumulator, and the new root
// becomes a valid digest. The write is atomic; a double spend rejects the
// whole transaction. Callers verify the transaction first.
func (l *Ledger) Append(tx *dpc.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, sn := range tx.OldSerialNumbers {
		if _, spent := l.serials[string(sn)]; spent {
			return errors.New("ledger: serial number already spent")
		}
	}

	batch := l.db.NewBatch()
	defer batch.Close()
	for _, sn := range tx.OldSerialNumbers {
		if err := batch.Set(serialKey(sn), nil, nil); err != nil {
			return errors.Wrap(err, "ledger: stage serial number")
		}
	}
	leaves := l.leaves
	for _, cm := range tx.NewCommitments {
		if err := batch.Set(commitmentKey(uint64(len(leaves))), cm, nil); err != nil {
			return errors.Wrap(err, "ledger: stage commitment")
		}
		leaves = append(leaves, append([]byte(nil), cm...))
	}
	root := computeRoot(leaves)
	if err := batch.Set(digestKey(root), nil, nil); err != nil {
		return errors.Wrap(err, "ledger: stage digest")
	}
	if err := batch.Set(txKey(l.txCount), tx.Marshal(), nil); err != nil {
		return errors.Wrap(err, "ledger: stage transaction")
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "ledger: commit batch")
	}

	for _, sn := range tx.OldSerialNumbers {
		l.serials[string(sn)] = struct{}{}
	}
	l.leaves = leaves
	l.root = root
	l.digests[string(root)] = struct{}{}
	l.txCount++

	l.log.Info("transaction appended",
		zap.Int("spent", len(tx.OldSerialNumbers)),
		zap.Int("minted", len(tx.NewCommitments)),
		zap.Uint64("transactions", l.txCount))
	return nil
}

// Len returns the number of commitments accumulated so far.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.leaves)
}

// TransactionCount returns the number of appended transactions.
func (l *Ledger) TransactionCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.txCount
}
