// groth16.go - Groth16 backend behind the opaque prover/verifier contract.
//
// The circuit stays a caller-supplied collaborator: Blank yields the shape
// compiled at setup, Assign maps the serialized public/private inputs onto a
// witness assignment. Keys and proofs travel as bytes via WriteTo/ReadFrom.

package nizk

import (
	"bytes"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/pkg/errors"
)

// Groth16 wraps gnark's Groth16 backend for one fixed circuit shape.
type Groth16 struct {
	// Curve selects the proving curve, e.g. ecc.BW6_761 for proof-check
	// statements.
	Curve ecc.ID
	// Blank returns an unassigned circuit for compilation.
	Blank func() frontend.Circuit
	// Assign builds a witness assignment. privateInput is nil when only the
	// public part is needed for verification.
	Assign func(publicInput, privateInput []byte) (frontend.Circuit, error)
}

// Setup compiles the blank circuit and runs the Groth16 key ceremony.
func (g *Groth16) Setup(rng io.Reader) ([]byte, []byte, error) {
	ccs, err := frontend.Compile(g.Curve.ScalarField(), r1cs.NewBuilder, g.Blank())
	if err != nil {
		return nil, nil, errors.Wrap(err, "groth16: compile circuit")
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, errors.Wrap(err, "groth16: setup")
	}

	var pkBuf, vkBuf bytes.Buffer
	if _, err := pk.WriteTo(&pkBuf); err != nil {
		return nil, nil, errors.Wrap(err, "groth16: marshal proving key")
	}
	if _, err := vk.WriteTo(&vkBuf); err != nil {
		return nil, nil, errors.Wrap(err, "groth16: marshal verifying key")
	}
	return pkBuf.Bytes(), vkBuf.Bytes(), nil
}

// Prove generates a proof for the assignment built from the two inputs.
func (g *Groth16) Prove(provingKey, publicInput, privateInput []byte, rng io.Reader) ([]byte, error) {
	ccs, err := frontend.Compile(g.Curve.ScalarField(), r1cs.NewBuilder, g.Blank())
	if err != nil {
		return nil, errors.Wrap(err, "groth16: compile circuit")
	}
	pk := groth16.NewProvingKey(g.Curve)
	if _, err := pk.ReadFrom(bytes.NewReader(provingKey)); err != nil {
		return nil, errors.Wrap(err, "groth16: unmarshal proving key")
	}

	assignment, err := g.Assign(publicInput, privateInput)
	if err != nil {
		return nil, errors.Wrap(err, "groth16: assign witness")
	}
	w, err := frontend.NewWitness(assignment, g.Curve.ScalarField())
	if err != nil {
		return nil, errors.Wrap(err, "groth16: build witness")
	}
	proof, err := groth16.Prove(ccs, pk, w)
	if err != nil {
		return nil, errors.Wrap(err, "groth16: prove")
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "groth16: marshal proof")
	}
	return buf.Bytes(), nil
}

// Verify checks a proof against the public input. A malformed or
// non-verifying proof yields (false, nil); errors are reserved for broken
// keys or assignments.
func (g *Groth16) Verify(verifyingKey, publicInput, proof []byte) (bool, error) {
	vk := groth16.NewVerifyingKey(g.Curve)
	if _, err := vk.ReadFrom(bytes.NewReader(verifyingKey)); err != nil {
		return false, errors.Wrap(err, "groth16: unmarshal verifying key")
	}

	assignment, err := g.Assign(publicInput, nil)
	if err != nil {
		return false, errors.Wrap(err, "groth16: assign public witness")
	}
	w, err := frontend.NewWitness(assignment, g.Curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, errors.Wrap(err, "groth16: build public witness")
	}

	p := groth16.NewProof(g.Curve)
	if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
		return false, nil
	}
	if err := groth16.Verify(p, vk, w); err != nil {
		return false, nil
	}
	return true, nil
}
