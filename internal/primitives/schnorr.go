// schnorr.go - Schnorr signatures on BLS12-377 G1 with public-key and
// signature randomization.
//
// Signatures are (e, s) pairs with e = H(salt ‖ R ‖ m) and s = k + e·sk.
// Storing the challenge instead of the nonce point lets a signature be
// re-randomized without knowing the message: for pk' = pk + t·G the
// adjusted response s' = s + t·e verifies under pk'. This is what ties a
// re-randomized signature to the serial number derived with the same t.

package primitives

import (
	"bytes"
	"io"
	"math/big"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	fr377 "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/pkg/errors"
)

const (
	// SchnorrPublicKeySize is the compressed G1 point size.
	SchnorrPublicKeySize = bls12377.SizeOfG1AffineCompressed
	// SchnorrSignatureSize is len(e) + len(s), two scalars.
	SchnorrSignatureSize = 2 * CoreFieldSize

	schnorrSaltSize = 32
)

// Schnorr is a randomizable Schnorr signature scheme on BLS12-377 G1.
type Schnorr struct{}

// NewSchnorr returns a Schnorr scheme instance.
func NewSchnorr() *Schnorr {
	return &Schnorr{}
}

func g1Generator() bls12377.G1Affine {
	g1Jac, _, _, _ := bls12377.Generators()
	var g bls12377.G1Affine
	g.FromJacobian(&g1Jac)
	return g
}

func scalarFromBytes(b []byte) fr377.Element {
	var e fr377.Element
	e.SetBytes(b)
	return e
}

// Setup samples the domain salt folded into every challenge.
func (*Schnorr) Setup(rng io.Reader) ([]byte, error) {
	salt := make([]byte, schnorrSaltSize)
	if _, err := io.ReadFull(rng, salt); err != nil {
		return nil, errors.Wrap(err, "schnorr: sample salt")
	}
	return salt, nil
}

// KeyGen samples a signing key pair. The public key is a compressed G1
// point, the secret key a canonical scalar.
func (*Schnorr) KeyGen(pp []byte, rng io.Reader) ([]byte, []byte, error) {
	if len(pp) != schnorrSaltSize {
		return nil, nil, errors.Errorf("schnorr: bad parameter size %d", len(pp))
	}
	skBytes, err := sampleCoreField(rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "schnorr: sample secret key")
	}
	sk := scalarFromBytes(skBytes)

	g := g1Generator()
	var pk bls12377.G1Affine
	pk.ScalarMultiplication(&g, sk.BigInt(new(big.Int)))
	pkBytes := pk.Bytes()
	return pkBytes[:], skBytes, nil
}

func challenge(pp []byte, r *bls12377.G1Affine, message []byte) (fr377.Element, error) {
	rBytes := r.Bytes()
	eBytes, err := CoreHash(pp, rBytes[:], message)
	if err != nil {
		return fr377.Element{}, err
	}
	return scalarFromBytes(eBytes), nil
}

// Sign produces a signature (e ‖ s) on message under the secret key.
func (*Schnorr) Sign(pp, secretKey, message []byte, rng io.Reader) ([]byte, error) {
	if len(pp) != schnorrSaltSize {
		return nil, errors.Errorf("schnorr: bad parameter size %d", len(pp))
	}
	if len(secretKey) != CoreFieldSize {
		return nil, errors.Errorf("schnorr: bad secret key size %d", len(secretKey))
	}
	kBytes, err := sampleCoreField(rng)
	if err != nil {
		return nil, errors.Wrap(err, "schnorr: sample nonce")
	}
	k := scalarFromBytes(kBytes)

	g := g1Generator()
	var r bls12377.G1Affine
	r.ScalarMultiplication(&g, k.BigInt(new(big.Int)))

	e, err := challenge(pp, &r, message)
	if err != nil {
		return nil, errors.Wrap(err, "schnorr: derive challenge")
	}

	// s = k + e·sk
	sk := scalarFromBytes(secretKey)
	var s fr377.Element
	s.Mul(&e, &sk).Add(&s, &k)

	eOut := e.Bytes()
	sOut := s.Bytes()
	return append(eOut[:], sOut[:]...), nil
}

// Verify checks a signature against a (possibly randomized) public key.
func (*Schnorr) Verify(pp, publicKey, message, signature []byte) (bool, error) {
	if len(pp) != schnorrSaltSize {
		return false, errors.Errorf("schnorr: bad parameter size %d", len(pp))
	}
	if len(signature) != SchnorrSignatureSize {
		return false, nil
	}
	var pk bls12377.G1Affine
	if _, err := pk.SetBytes(publicKey); err != nil {
		return false, nil
	}

	e := scalarFromBytes(signature[:CoreFieldSize])
	s := scalarFromBytes(signature[CoreFieldSize:])

	// R = s·G - e·pk
	g := g1Generator()
	var sG, ePk, r bls12377.G1Affine
	sG.ScalarMultiplication(&g, s.BigInt(new(big.Int)))
	ePk.ScalarMultiplication(&pk, e.BigInt(new(big.Int)))
	ePk.Neg(&ePk)
	r.Add(&sG, &ePk)

	expected, err := challenge(pp, &r, message)
	if err != nil {
		return false, errors.Wrap(err, "schnorr: derive challenge")
	}
	eBytes := e.Bytes()
	expectedBytes := expected.Bytes()
	return bytes.Equal(eBytes[:], expectedBytes[:]), nil
}

// RandomizePublicKey shifts the public key by t·G where t is the scalar
// decoded from randomizer. Deterministic in its inputs.
func (*Schnorr) RandomizePublicKey(pp, publicKey, randomizer []byte) ([]byte, error) {
	if len(pp) != schnorrSaltSize {
		return nil, errors.Errorf("schnorr: bad parameter size %d", len(pp))
	}
	var pk bls12377.G1Affine
	if _, err := pk.SetBytes(publicKey); err != nil {
		return nil, errors.Wrap(err, "schnorr: decode public key")
	}
	t := scalarFromBytes(randomizer)

	g := g1Generator()
	var tG, out bls12377.G1Affine
	tG.ScalarMultiplication(&g, t.BigInt(new(big.Int)))
	out.Add(&pk, &tG)
	outBytes := out.Bytes()
	return outBytes[:], nil
}

// RandomizeSignature adjusts the response scalar for a public key shifted
// by the same randomizer: s' = s + t·e.
func (*Schnorr) RandomizeSignature(pp, signature, randomizer []byte) ([]byte, error) {
	if len(pp) != schnorrSaltSize {
		return nil, errors.Errorf("schnorr: bad parameter size %d", len(pp))
	}
	if len(signature) != SchnorrSignatureSize {
		return nil, errors.Errorf("schnorr: bad signature size %d", len(signature))
	}
	e := scalarFromBytes(signature[:CoreFieldSize])
	s := scalarFromBytes(signature[CoreFieldSize:])
	t := scalarFromBytes(randomizer)

	var shifted fr377.Element
	shifted.Mul(&t, &e).Add(&shifted, &s)

	eOut := e.Bytes()
	sOut := shifted.Bytes()
	return append(eOut[:], sOut[:]...), nil
}
