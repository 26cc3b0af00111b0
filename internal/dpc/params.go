// params.go - Public parameter generation and persistence.

package dpc

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// PublicParameters holds every public parameter the pipeline consumes:
// commitment and CRH keys, the signature domain salt and the proving and
// verifying keys of the three proof systems. Proving keys are only needed
// by transaction creators; verifiers need the rest.
type PublicParameters struct {
	AddressCommPP   []byte `json:"addressCommPp"`
	RecordCommPP    []byte `json:"recordCommPp"`
	PredicateCommPP []byte `json:"predicateCommPp"`
	LocalDataCommPP []byte `json:"localDataCommPp"`

	SerialNonceCRHPP []byte `json:"serialNonceCrhPp"`
	PredicateVkCRHPP []byte `json:"predicateVkCrhPp"`

	SignaturePP []byte `json:"signaturePp"`

	CoreProvingKey         []byte `json:"coreProvingKey"`
	CoreVerifyingKey       []byte `json:"coreVerifyingKey"`
	ProofCheckProvingKey   []byte `json:"proofCheckProvingKey"`
	ProofCheckVerifyingKey []byte `json:"proofCheckVerifyingKey"`
	PredicateProvingKey    []byte `json:"predicateProvingKey"`
	PredicateVerifyingKey  []byte `json:"predicateVerifyingKey"`
}

// Setup runs every component's parameter generation. Expensive when the
// proof systems are real; run once and persist.
func (s *Scheme) Setup(rng io.Reader) (*PublicParameters, error) {
	pp := &PublicParameters{}
	var err error

	if pp.AddressCommPP, err = s.comp.AddressComm.Setup(rng); err != nil {
		return nil, schemeError(err, "setup address commitment")
	}
	if pp.RecordCommPP, err = s.comp.RecordComm.Setup(rng); err != nil {
		return nil, schemeError(err, "setup record commitment")
	}
	if pp.PredicateCommPP, err = s.comp.PredicateComm.Setup(rng); err != nil {
		return nil, schemeError(err, "setup predicate commitment")
	}
	if pp.LocalDataCommPP, err = s.comp.LocalDataComm.Setup(rng); err != nil {
		return nil, schemeError(err, "setup local data commitment")
	}
	if pp.SerialNonceCRHPP, err = s.comp.SerialNonceCRH.Setup(rng); err != nil {
		return nil, schemeError(err, "setup serial nonce crh")
	}
	if pp.PredicateVkCRHPP, err = s.comp.PredicateVkCRH.Setup(rng); err != nil {
		return nil, schemeError(err, "setup predicate vk crh")
	}
	if pp.SignaturePP, err = s.comp.Signature.Setup(rng); err != nil {
		return nil, schemeError(err, "setup signature")
	}
	if pp.CoreProvingKey, pp.CoreVerifyingKey, err = s.comp.CoreNIZK.Setup(rng); err != nil {
		return nil, schemeError(err, "setup core nizk")
	}
	if pp.ProofCheckProvingKey, pp.ProofCheckVerifyingKey, err = s.comp.ProofCheckNIZK.Setup(rng); err != nil {
		return nil, schemeError(err, "setup proof check nizk")
	}
	if pp.PredicateProvingKey, pp.PredicateVerifyingKey, err = s.comp.PredicateNIZK.Setup(rng); err != nil {
		return nil, schemeError(err, "setup predicate nizk")
	}

	s.log.Info("public parameters generated")
	return pp, nil
}

// SaveParameters writes the parameters to path as JSON.
func SaveParameters(pp *PublicParameters, path string) error {
	data, err := json.MarshalIndent(pp, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal parameters")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "write parameters")
	}
	return nil
}

// LoadParameters reads parameters previously written by SaveParameters.
func LoadParameters(path string) (*PublicParameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read parameters")
	}
	var pp PublicParameters
	if err := json.Unmarshal(data, &pp); err != nil {
		return nil, errors.Wrap(err, "unmarshal parameters")
	}
	return &pp, nil
}
