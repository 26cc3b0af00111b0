// crh.go - Fixed-input-length collision-resistant hashes.

package primitives

import (
	"io"

	"github.com/pkg/errors"
)

// CoreCRH is a keyed MiMC hash over BLS12-377 Fr. It computes serial-number
// nonces and other core-field digests.
type CoreCRH struct{}

// NewCoreCRH returns a CRH over the core field.
func NewCoreCRH() *CoreCRH {
	return &CoreCRH{}
}

// Setup samples the CRH key.
func (*CoreCRH) Setup(rng io.Reader) ([]byte, error) {
	return sampleCoreField(rng)
}

// Evaluate hashes input under the key pp.
func (*CoreCRH) Evaluate(pp, input []byte) ([]byte, error) {
	if len(pp) != CoreFieldSize {
		return nil, errors.Errorf("crh: bad parameter size %d", len(pp))
	}
	return CoreHash(pp, input)
}

// ProofCheckCRH is a keyed MiMC hash over BW6-761 Fr. Predicate
// verification-key digests are computed on the larger curve only.
type ProofCheckCRH struct{}

// NewProofCheckCRH returns a CRH over the proof-check field.
func NewProofCheckCRH() *ProofCheckCRH {
	return &ProofCheckCRH{}
}

// Setup samples the CRH key.
func (*ProofCheckCRH) Setup(rng io.Reader) ([]byte, error) {
	return sampleProofField(rng)
}

// Evaluate hashes input under the key pp.
func (*ProofCheckCRH) Evaluate(pp, input []byte) ([]byte, error) {
	if len(pp) != ProofFieldSize {
		return nil, errors.Errorf("crh: bad parameter size %d", len(pp))
	}
	return ProofHash(pp, input)
}
