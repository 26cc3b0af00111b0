// insecure.go - Development stand-in for a real proof system.

package nizk

import (
	"crypto/subtle"
	"io"

	"github.com/pkg/errors"

	"github.com/scipr-lab/zexe/internal/primitives"
)

// Insecure implements the NIZK contract with a keyed MiMC tag over the
// exact public input. Proofs are binding to the statement they were created
// for, which is the property the transaction pipeline and its tests depend
// on, but the construction has no soundness against a party holding the key
// and no zero-knowledge. It backs tests and devnet deployments; production
// deployments supply a Groth16 instance with real circuits.
type Insecure struct{}

// NewInsecure returns an Insecure scheme instance.
func NewInsecure() *Insecure {
	return &Insecure{}
}

const insecureKeySize = 32

// Setup samples a shared key acting as both proving and verifying key.
func (*Insecure) Setup(rng io.Reader) ([]byte, []byte, error) {
	key := make([]byte, insecureKeySize)
	if _, err := io.ReadFull(rng, key); err != nil {
		return nil, nil, errors.Wrap(err, "nizk: sample key")
	}
	vk := make([]byte, insecureKeySize)
	copy(vk, key)
	return key, vk, nil
}

// Prove tags the public input under the proving key. The private input and
// rng are accepted for interface compatibility; the tag binds the statement
// only.
func (*Insecure) Prove(provingKey, publicInput, privateInput []byte, rng io.Reader) ([]byte, error) {
	if len(provingKey) != insecureKeySize {
		return nil, errors.Errorf("nizk: bad proving key size %d", len(provingKey))
	}
	return primitives.CoreHash(provingKey, publicInput)
}

// Verify recomputes the tag and compares in constant time.
func (*Insecure) Verify(verifyingKey, publicInput, proof []byte) (bool, error) {
	if len(verifyingKey) != insecureKeySize {
		return false, errors.Errorf("nizk: bad verifying key size %d", len(verifyingKey))
	}
	expected, err := primitives.CoreHash(verifyingKey, publicInput)
	if err != nil {
		return false, err
	}
	if len(proof) != len(expected) {
		return false, nil
	}
	return subtle.ConstantTimeCompare(expected, proof) == 1, nil
}
