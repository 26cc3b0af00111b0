// address.go - Address key pairs.
//
// An address public key commits to the signing public key, the PRF seed and
// the metadata under fresh randomness. Records are owned by address public
// keys; spending needs the matching secret key.

package dpc

import (
	"io"

	"github.com/scipr-lab/zexe/internal/primitives"
)

// AddressPublicKey is the shielded owner identity records are bound to.
type AddressPublicKey struct {
	PublicKey []byte `json:"publicKey"`
}

// AddressSecretKey opens an address public key and authorizes spends.
type AddressSecretKey struct {
	SkSig                []byte `json:"skSig"`
	PkSig                []byte `json:"pkSig"`
	PrfSeed              []byte `json:"prfSeed"`
	Metadata             []byte `json:"metadata"`
	CommitmentRandomness []byte `json:"commitmentRandomness"`
}

// AddressKeyPair bundles the two halves of an address.
type AddressKeyPair struct {
	Public AddressPublicKey `json:"public"`
	Secret AddressSecretKey `json:"secret"`
}

func addressCommitmentInput(pkSig, prfSeed, metadata []byte) []byte {
	var e encoder
	e.bytes(pkSig)
	e.bytes(prfSeed)
	e.bytes(metadata)
	return e.buf.Bytes()
}

// CreateAddress samples a signing key pair and a PRF seed and commits to
// them together with the caller's metadata.
func (s *Scheme) CreateAddress(pp *PublicParameters, metadata []byte, rng io.Reader) (*AddressKeyPair, error) {
	pkSig, skSig, err := s.comp.Signature.KeyGen(pp.SignaturePP, rng)
	if err != nil {
		return nil, schemeError(err, "create address: signature keygen")
	}

	prfSeed := make([]byte, primitives.SeedSize)
	if _, err := io.ReadFull(rng, prfSeed); err != nil {
		return nil, schemeError(err, "create address: sample prf seed")
	}

	r, err := s.comp.AddressComm.SampleRandomness(rng)
	if err != nil {
		return nil, schemeError(err, "create address: sample randomness")
	}

	apk, err := s.comp.AddressComm.Commit(pp.AddressCommPP, addressCommitmentInput(pkSig, prfSeed, metadata), r)
	if err != nil {
		return nil, schemeError(err, "create address: commit")
	}

	meta := make([]byte, len(metadata))
	copy(meta, metadata)
	return &AddressKeyPair{
		Public: AddressPublicKey{PublicKey: apk},
		Secret: AddressSecretKey{
			SkSig:                skSig,
			PkSig:                pkSig,
			PrfSeed:              prfSeed,
			Metadata:             meta,
			CommitmentRandomness: r,
		},
	}, nil
}
