// predicate.go - Predicate handles and the prover callback contract.
//
// Predicates are external programs. The pipeline never interprets them; it
// only carries their verification-key digests inside records and checks the
// proof/key bundles the caller's provers return.

package dpc

import "io"

// Predicate is a handle on an external predicate program, identified by the
// verifying key of its proof system.
type Predicate struct {
	VerifyingKey []byte `json:"verifyingKey"`
}

// NewPredicate wraps a predicate verifying key.
func NewPredicate(verifyingKey []byte) *Predicate {
	return &Predicate{VerifyingKey: verifyingKey}
}

// PredicateDigest compresses a predicate's verifying key to the fixed-size
// digest stored inside records. Evaluated over the proof-check field, where
// predicate verifying keys live.
func (s *Scheme) PredicateDigest(pp *PublicParameters, pred *Predicate) ([]byte, error) {
	digest, err := s.comp.PredicateVkCRH.Evaluate(pp.PredicateVkCRHPP, pred.VerifyingKey)
	if err != nil {
		return nil, schemeError(err, "predicate digest")
	}
	return digest, nil
}

// PrivatePredicateInput is one verification-key/proof bundle produced by a
// predicate prover, consumed as private input by the proof-check proof.
type PrivatePredicateInput struct {
	VerifyingKey []byte
	Proof        []byte
}

// PredicateProver produces one bundle per record position. Death provers
// cover the consumed records, birth provers the minted ones. Invoked exactly
// once per Execute call.
type PredicateProver func(ld *LocalData, rng io.Reader) ([]PrivatePredicateInput, error)

// PredicateStatement is the public input each predicate proof must be valid
// against: the local data commitment and the record position the predicate
// guards.
func PredicateStatement(localDataComm []byte, position uint8) []byte {
	var e encoder
	e.uint8(position)
	e.bytes(localDataComm)
	return e.buf.Bytes()
}
