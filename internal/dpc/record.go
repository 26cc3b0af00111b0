// record.go - Shielded records and their construction.

package dpc

import (
	"io"

	"github.com/pkg/errors"
)

// Record is a committed data capsule. Everything except the commitment is
// private to the owner; the commitment is what the ledger accumulates.
type Record struct {
	Owner                AddressPublicKey `json:"owner"`
	IsDummy              bool             `json:"isDummy"`
	Payload              []byte           `json:"payload"`
	BirthPredicateDigest []byte           `json:"birthPredicateDigest"`
	DeathPredicateDigest []byte           `json:"deathPredicateDigest"`
	SerialNumberNonce    []byte           `json:"serialNumberNonce"`
	Commitment           []byte           `json:"commitment"`
	CommitmentRandomness []byte           `json:"commitmentRandomness"`
}

// commitmentInput is the ordered pre-image the record commitment opens to.
func (r *Record) commitmentInput() []byte {
	var e encoder
	e.bytes(r.Owner.PublicKey)
	e.bool(r.IsDummy)
	e.bytes(r.Payload)
	e.bytes(r.BirthPredicateDigest)
	e.bytes(r.DeathPredicateDigest)
	e.bytes(r.SerialNumberNonce)
	return e.buf.Bytes()
}

// encode serializes the public-to-predicates view of the record, commitment
// included, randomness excluded. Feeds the local data serialization.
func (r *Record) encode() []byte {
	var e encoder
	e.bytes(r.commitmentInput())
	e.bytes(r.Commitment)
	return e.buf.Bytes()
}

// GenerateRecord mints a record for owner under the given serial-number
// nonce. Both predicates are reduced to digests first, so record size is
// independent of predicate complexity.
func (s *Scheme) GenerateRecord(pp *PublicParameters, nonce []byte, owner AddressPublicKey, isDummy bool, payload []byte, birth, death *Predicate, rng io.Reader) (*Record, error) {
	birthDigest, err := s.PredicateDigest(pp, birth)
	if err != nil {
		return nil, err
	}
	deathDigest, err := s.PredicateDigest(pp, death)
	if err != nil {
		return nil, err
	}

	r := &Record{
		Owner:                owner,
		IsDummy:              isDummy,
		Payload:              append([]byte(nil), payload...),
		BirthPredicateDigest: birthDigest,
		DeathPredicateDigest: deathDigest,
		SerialNumberNonce:    append([]byte(nil), nonce...),
	}

	r.CommitmentRandomness, err = s.comp.RecordComm.SampleRandomness(rng)
	if err != nil {
		return nil, schemeError(err, "generate record: sample randomness")
	}
	r.Commitment, err = s.comp.RecordComm.Commit(pp.RecordCommPP, r.commitmentInput(), r.CommitmentRandomness)
	if err != nil {
		return nil, schemeError(err, "generate record: commit")
	}
	return r, nil
}

// Serialize encodes the full record, opening randomness included. Intended
// for owner-side persistence, not for sharing.
func (r *Record) Serialize() []byte {
	var e encoder
	e.bytes(r.Owner.PublicKey)
	e.bool(r.IsDummy)
	e.bytes(r.Payload)
	e.bytes(r.BirthPredicateDigest)
	e.bytes(r.DeathPredicateDigest)
	e.bytes(r.SerialNumberNonce)
	e.bytes(r.Commitment)
	e.bytes(r.CommitmentRandomness)
	return e.buf.Bytes()
}

// DeserializeRecord inverts Serialize.
func DeserializeRecord(data []byte) (*Record, error) {
	d := newDecoder(data)
	r := &Record{}
	var err error
	if r.Owner.PublicKey, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "record owner")
	}
	if r.IsDummy, err = d.bool(); err != nil {
		return nil, errors.Wrap(err, "record dummy flag")
	}
	if r.Payload, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "record payload")
	}
	if r.BirthPredicateDigest, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "record birth digest")
	}
	if r.DeathPredicateDigest, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "record death digest")
	}
	if r.SerialNumberNonce, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "record nonce")
	}
	if r.Commitment, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "record commitment")
	}
	if r.CommitmentRandomness, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "record randomness")
	}
	if err := d.done(); err != nil {
		return nil, errors.Wrap(err, "record")
	}
	return r, nil
}
