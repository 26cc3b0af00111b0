// encode.go - Canonical byte encoding shared by commitment pre-images,
// proof statements, the signature message and the transaction wire shape.
//
// Every variable-length field is length-delimited with a big-endian uint32
// prefix and fields appear in a fixed order, so each structure has exactly
// one serialization.

package dpc

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) bytes(b []byte) {
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(b)))
	e.buf.Write(lenPrefix[:])
	e.buf.Write(b)
}

func (e *encoder) byteSlices(bs [][]byte) {
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(bs)))
	e.buf.Write(lenPrefix[:])
	for _, b := range bs {
		e.bytes(b)
	}
}

func (e *encoder) bool(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

func (e *encoder) uint8(v uint8) {
	e.buf.WriteByte(v)
}

type decoder struct {
	r *bytes.Reader
}

func newDecoder(b []byte) *decoder {
	return &decoder{r: bytes.NewReader(b)}
}

func (d *decoder) bytes() ([]byte, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(d.r, lenPrefix[:]); err != nil {
		return nil, errors.Wrap(err, "decode length")
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	if uint32(d.r.Len()) < n {
		return nil, errors.Errorf("decode field: %d bytes claimed, %d remain", n, d.r.Len())
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(d.r, out); err != nil {
		return nil, errors.Wrap(err, "decode field")
	}
	return out, nil
}

func (d *decoder) byteSlices() ([][]byte, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(d.r, lenPrefix[:]); err != nil {
		return nil, errors.Wrap(err, "decode count")
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	out := make([][]byte, 0, n)
	for i := uint32(0); i < n; i++ {
		b, err := d.bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (d *decoder) bool() (bool, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return false, errors.Wrap(err, "decode bool")
	}
	return b != 0, nil
}

func (d *decoder) done() error {
	if d.r.Len() != 0 {
		return errors.Errorf("decode: %d trailing bytes", d.r.Len())
	}
	return nil
}

// dummyWitnessSize matches the commitment size so the canonical dummy
// witness is indistinguishable in shape from a real one.
const dummyWitnessSize = 32

// DummyWitness is the canonical ledger membership witness attached to dummy
// records instead of a real accumulator proof.
func DummyWitness() []byte {
	return make([]byte, dummyWitnessSize)
}

// serialNonceInput binds a fresh output nonce to the output position, fresh
// randomness and the full set of consumed serial numbers.
func serialNonceInput(position uint8, random []byte, serialNumbers [][]byte) []byte {
	var e encoder
	e.uint8(position)
	e.bytes(random)
	e.byteSlices(serialNumbers)
	return e.buf.Bytes()
}

// localDataInput serializes everything the predicates may inspect: each old
// record with its serial number, each new record, the memo and the
// auxiliary input.
func localDataInput(oldRecords []*Record, oldSerialNumbers [][]byte, newRecords []*Record, memo, auxiliary []byte) []byte {
	var e encoder
	for i, r := range oldRecords {
		e.bytes(r.encode())
		e.bytes(oldSerialNumbers[i])
	}
	for _, r := range newRecords {
		e.bytes(r.encode())
	}
	e.bytes(memo)
	e.bytes(auxiliary)
	return e.buf.Bytes()
}

// predicateCommitmentInput concatenates old death digests then new birth
// digests, in record order.
func predicateCommitmentInput(deathDigests, birthDigests [][]byte) []byte {
	var e encoder
	e.byteSlices(deathDigests)
	e.byteSlices(birthDigests)
	return e.buf.Bytes()
}

// coreStatement is the public input of the core proof.
func coreStatement(ledgerParams, digest []byte, serialNumbers, commitments [][]byte, memo, predicateComm, localDataComm []byte) []byte {
	var e encoder
	e.bytes(ledgerParams)
	e.bytes(digest)
	e.byteSlices(serialNumbers)
	e.byteSlices(commitments)
	e.bytes(memo)
	e.bytes(predicateComm)
	e.bytes(localDataComm)
	return e.buf.Bytes()
}

// proofCheckStatement is the public input of the predicate proof.
func proofCheckStatement(predicateComm, localDataComm []byte) []byte {
	var e encoder
	e.bytes(predicateComm)
	e.bytes(localDataComm)
	return e.buf.Bytes()
}

// signatureMessage is what every input owner signs; it covers both proofs,
// so authorization is bound to this exact transaction.
func signatureMessage(serialNumbers, commitments [][]byte, memo, digest, coreProof, predicateProof []byte) []byte {
	var e encoder
	e.byteSlices(serialNumbers)
	e.byteSlices(commitments)
	e.bytes(memo)
	e.bytes(digest)
	e.bytes(coreProof)
	e.bytes(predicateProof)
	return e.buf.Bytes()
}
