// mimc.go - MiMC hashing over the two proof fields.
//
// The scheme operates over two fields: BLS12-377 Fr for the core checks and
// BW6-761 Fr for the proof checks. MiMC instances over both fields are used
// for commitments, CRHs and PRFs, mirroring the two-curve layout of the
// proof system.

package primitives

import (
	"io"

	fr377 "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	mimc377 "github.com/consensys/gnark-crypto/ecc/bls12-377/fr/mimc"
	fr761 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	mimc761 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"
	"github.com/pkg/errors"
)

const (
	// CoreFieldSize is the byte size of a BLS12-377 scalar field element.
	CoreFieldSize = fr377.Bytes
	// ProofFieldSize is the byte size of a BW6-761 scalar field element.
	ProofFieldSize = fr761.Bytes

	// Chunks are one byte short of the field size so every chunk decodes to
	// a canonical field element.
	coreChunkSize  = CoreFieldSize - 1
	proofChunkSize = ProofFieldSize - 1
)

// coreFieldBlocks re-encodes arbitrary bytes as a sequence of canonical
// BLS12-377 Fr elements, terminated by a block carrying the byte length.
// The MiMC sponge rejects blocks that are not canonical field elements, so
// all external input goes through this. The length terminator keeps the
// mapping injective: chunks decode as integers, which would otherwise
// identify inputs differing only in leading zero bytes.
func coreFieldBlocks(data []byte) []byte {
	out := make([]byte, 0, ((len(data)+coreChunkSize-1)/coreChunkSize+1)*CoreFieldSize)
	for start := 0; start < len(data); start += coreChunkSize {
		end := start + coreChunkSize
		if end > len(data) {
			end = len(data)
		}
		var e fr377.Element
		e.SetBytes(data[start:end])
		b := e.Bytes()
		out = append(out, b[:]...)
	}
	var length fr377.Element
	length.SetUint64(uint64(len(data)))
	b := length.Bytes()
	return append(out, b[:]...)
}

func proofFieldBlocks(data []byte) []byte {
	out := make([]byte, 0, ((len(data)+proofChunkSize-1)/proofChunkSize+1)*ProofFieldSize)
	for start := 0; start < len(data); start += proofChunkSize {
		end := start + proofChunkSize
		if end > len(data) {
			end = len(data)
		}
		var e fr761.Element
		e.SetBytes(data[start:end])
		b := e.Bytes()
		out = append(out, b[:]...)
	}
	var length fr761.Element
	length.SetUint64(uint64(len(data)))
	b := length.Bytes()
	return append(out, b[:]...)
}

// CoreHash computes MiMC over BLS12-377 Fr of the given segments. Each
// segment is chunked into field elements and length-terminated
// independently, so distinct segment lists always feed distinct block
// sequences to the sponge.
func CoreHash(segments ...[]byte) ([]byte, error) {
	h := mimc377.NewMiMC()
	for _, seg := range segments {
		if _, err := h.Write(coreFieldBlocks(seg)); err != nil {
			return nil, errors.Wrap(err, "mimc write")
		}
	}
	return h.Sum(nil), nil
}

// ProofHash computes MiMC over BW6-761 Fr of the given segments.
func ProofHash(segments ...[]byte) ([]byte, error) {
	h := mimc761.NewMiMC()
	for _, seg := range segments {
		if _, err := h.Write(proofFieldBlocks(seg)); err != nil {
			return nil, errors.Wrap(err, "mimc write")
		}
	}
	return h.Sum(nil), nil
}

// sampleCoreField draws a uniformly distributed BLS12-377 Fr element from
// rng and returns its canonical 32-byte encoding. Randomness is always taken
// from the caller-supplied reader, never from a package-global source.
func sampleCoreField(rng io.Reader) ([]byte, error) {
	buf := make([]byte, CoreFieldSize+16)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, errors.Wrap(err, "sample field element")
	}
	var e fr377.Element
	e.SetBytes(buf)
	b := e.Bytes()
	return b[:], nil
}

func sampleProofField(rng io.Reader) ([]byte, error) {
	buf := make([]byte, ProofFieldSize+16)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, errors.Wrap(err, "sample field element")
	}
	var e fr761.Element
	e.SetBytes(buf)
	b := e.Bytes()
	return b[:], nil
}
