// prf.go - MiMC-based pseudo-random function for serial-number randomizers.

package primitives

import "github.com/pkg/errors"

// MiMCPRF evaluates MiMC(seed ‖ input) over the core field. The output is a
// canonical field element, which downstream code uses directly as a
// signature randomizer.
type MiMCPRF struct{}

// NewPRF returns a MiMC PRF instance.
func NewPRF() *MiMCPRF {
	return &MiMCPRF{}
}

// SeedSize is the required PRF seed length in bytes.
const SeedSize = 32

// Evaluate computes the PRF. The input must decode to a single core-field
// block; serial-number nonces always do.
func (*MiMCPRF) Evaluate(seed, input []byte) ([]byte, error) {
	if len(seed) != SeedSize {
		return nil, errors.Errorf("prf: seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	if len(input) != CoreFieldSize {
		return nil, errors.Errorf("prf: cannot decode input of %d bytes", len(input))
	}
	return CoreHash(seed, input)
}
