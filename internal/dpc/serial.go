// serial.go - Serial number derivation.
//
// sn = RandomizePublicKey(pk_sig, PRF(seed, nonce)). Deterministic in
// (record, secret key), which is what lets the ledger detect a double spend
// without learning which record was spent.

package dpc

// GenerateSerialNumber derives the serial number of record under the
// owner's secret key, returning the serial number and the PRF randomizer
// used to shift the signing public key.
func (s *Scheme) GenerateSerialNumber(pp *PublicParameters, record *Record, secret *AddressSecretKey) (sn, randomizer []byte, err error) {
	randomizer, err = s.comp.PRF.Evaluate(secret.PrfSeed, record.SerialNumberNonce)
	if err != nil {
		return nil, nil, schemeError(err, "generate serial number: prf")
	}
	sn, err = s.comp.Signature.RandomizePublicKey(pp.SignaturePP, secret.PkSig, randomizer)
	if err != nil {
		return nil, nil, schemeError(err, "generate serial number: randomize public key")
	}
	return sn, randomizer, nil
}
