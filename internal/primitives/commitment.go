// commitment.go - Keyed MiMC commitment scheme over the core field.

package primitives

import (
	"io"

	"github.com/pkg/errors"
)

// MiMCCommitment commits to arbitrary byte strings as
// cm = MiMC(pp ‖ input ‖ r), with pp a sampled field element acting as a
// per-scheme key and r fresh commitment randomness.
type MiMCCommitment struct{}

// NewCommitment returns a MiMC commitment scheme instance.
func NewCommitment() *MiMCCommitment {
	return &MiMCCommitment{}
}

// Setup samples the commitment key.
func (*MiMCCommitment) Setup(rng io.Reader) ([]byte, error) {
	return sampleCoreField(rng)
}

// SampleRandomness draws fresh opening randomness.
func (*MiMCCommitment) SampleRandomness(rng io.Reader) ([]byte, error) {
	return sampleCoreField(rng)
}

// Commit computes the commitment to input under randomness.
func (*MiMCCommitment) Commit(pp, input, randomness []byte) ([]byte, error) {
	if len(pp) != CoreFieldSize {
		return nil, errors.Errorf("commitment: bad parameter size %d", len(pp))
	}
	if len(randomness) != CoreFieldSize {
		return nil, errors.Errorf("commitment: bad randomness size %d", len(randomness))
	}
	return CoreHash(pp, input, randomness)
}
