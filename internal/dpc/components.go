// components.go - Capability interfaces for the cryptographic collaborators
// and their runtime composition into a Scheme.

package dpc

import (
	"io"

	"go.uber.org/zap"

	"github.com/scipr-lab/zexe/internal/primitives"
)

// CommitmentScheme is a binding and hiding commitment over byte strings.
type CommitmentScheme interface {
	Setup(rng io.Reader) ([]byte, error)
	SampleRandomness(rng io.Reader) ([]byte, error)
	Commit(pp, input, randomness []byte) ([]byte, error)
}

// CRH is a keyed collision-resistant hash.
type CRH interface {
	Setup(rng io.Reader) ([]byte, error)
	Evaluate(pp, input []byte) ([]byte, error)
}

// PRF is a pseudo-random function keyed by a secret seed.
type PRF interface {
	Evaluate(seed, input []byte) ([]byte, error)
}

// SignatureScheme signs messages and supports re-randomization of public
// keys and signatures by a shared randomizer.
type SignatureScheme interface {
	Setup(rng io.Reader) ([]byte, error)
	KeyGen(pp []byte, rng io.Reader) (publicKey, secretKey []byte, err error)
	Sign(pp, secretKey, message []byte, rng io.Reader) ([]byte, error)
	Verify(pp, publicKey, message, signature []byte) (bool, error)
	RandomizePublicKey(pp, publicKey, randomizer []byte) ([]byte, error)
	RandomizeSignature(pp, signature, randomizer []byte) ([]byte, error)
}

// NIZK is an opaque non-interactive proof system. Statements travel as
// canonically serialized public inputs; the witness side is private input.
type NIZK interface {
	Setup(rng io.Reader) (provingKey, verifyingKey []byte, err error)
	Prove(provingKey, publicInput, privateInput []byte, rng io.Reader) ([]byte, error)
	Verify(verifyingKey, publicInput, proof []byte) (bool, error)
}

// Ledger is the read interface the scheme needs from the ledger service.
type Ledger interface {
	Digest() ([]byte, error)
	ValidateDigest(digest []byte) bool
	ContainsSerialNumber(sn []byte) bool
	ProveCommitment(cm []byte) ([]byte, error)
	Parameters() []byte
}

// Snapshotter is implemented by ledgers that can freeze their accumulator
// state. Transaction building needs its witnesses and digest to come from
// one state; a ledger that implements Snapshotter gets its reads pinned for
// the duration of the build.
type Snapshotter interface {
	Snapshot() Ledger
}

// Components is the runtime composition of every collaborator the scheme
// consumes. Each field is independently replaceable, and mockable in tests.
type Components struct {
	NumInputRecords  int
	NumOutputRecords int

	AddressComm   CommitmentScheme
	RecordComm    CommitmentScheme
	PredicateComm CommitmentScheme
	LocalDataComm CommitmentScheme

	SerialNonceCRH CRH
	PredicateVkCRH CRH

	PRF       PRF
	Signature SignatureScheme

	CoreNIZK       NIZK
	ProofCheckNIZK NIZK
	PredicateNIZK  NIZK
}

// DefaultComponents wires the MiMC and Schnorr instantiations with
// caller-supplied proof systems.
func DefaultComponents(numIn, numOut int, core, proofCheck, predicate NIZK) Components {
	return Components{
		NumInputRecords:  numIn,
		NumOutputRecords: numOut,

		AddressComm:   primitives.NewCommitment(),
		RecordComm:    primitives.NewCommitment(),
		PredicateComm: primitives.NewCommitment(),
		LocalDataComm: primitives.NewCommitment(),

		SerialNonceCRH: primitives.NewCoreCRH(),
		PredicateVkCRH: primitives.NewProofCheckCRH(),

		PRF:       primitives.NewPRF(),
		Signature: primitives.NewSchnorr(),

		CoreNIZK:       core,
		ProofCheckNIZK: proofCheck,
		PredicateNIZK:  predicate,
	}
}

// Scheme drives the transaction pipeline. It holds no mutable state beyond
// the immutable component set and a logger; independent transactions may be
// processed concurrently by the caller.
type Scheme struct {
	comp Components
	log  *zap.Logger
}

// NewScheme builds a scheme over the given components. A nil logger
// disables logging.
func NewScheme(comp Components, log *zap.Logger) *Scheme {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheme{comp: comp, log: log}
}

// Components returns the component set the scheme was built with.
func (s *Scheme) Components() Components {
	return s.comp
}
