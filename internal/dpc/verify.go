// verify.go - Transaction verification.

package dpc

import (
	"bytes"

	"go.uber.org/zap"
)

// Verify runs the six acceptance checks against the current ledger state
// and returns their conjunction. The checks do not short-circuit, so a
// failing transaction logs every check it fails, not just the first. A
// false result is an ordinary outcome; errors are reserved for component
// failures.
//
// Checks, in order: no serial number already on the ledger, serial numbers
// pairwise distinct, ledger digest valid, core proof, predicate proof, one
// valid randomized signature per serial number.
func (s *Scheme) Verify(pp *PublicParameters, ledger Ledger, tx *Transaction) (bool, error) {
	ok := true

	for _, sn := range tx.OldSerialNumbers {
		if ledger.ContainsSerialNumber(sn) {
			s.log.Info("verify: serial number already spent", zap.Binary("sn", sn))
			ok = false
		}
	}

	// n is fixed and small, quadratic scan is fine.
	for i := 0; i < len(tx.OldSerialNumbers); i++ {
		for j := i + 1; j < len(tx.OldSerialNumbers); j++ {
			if bytes.Equal(tx.OldSerialNumbers[i], tx.OldSerialNumbers[j]) {
				s.log.Info("verify: duplicate serial numbers within transaction", zap.Int("i", i), zap.Int("j", j))
				ok = false
			}
		}
	}

	if !ledger.ValidateDigest(tx.LedgerDigest) {
		s.log.Info("verify: unknown ledger digest", zap.Binary("digest", tx.LedgerDigest))
		ok = false
	}

	coreStmt := coreStatement(ledger.Parameters(), tx.LedgerDigest, tx.OldSerialNumbers, tx.NewCommitments, tx.Memo, tx.PredicateCommitment, tx.LocalDataCommitment)
	coreOK, err := s.comp.CoreNIZK.Verify(pp.CoreVerifyingKey, coreStmt, tx.CoreProof)
	if err != nil {
		return false, schemeError(err, "verify core proof")
	}
	if !coreOK {
		s.log.Info("verify: core proof invalid")
		ok = false
	}

	proofCheckStmt := proofCheckStatement(tx.PredicateCommitment, tx.LocalDataCommitment)
	predOK, err := s.comp.ProofCheckNIZK.Verify(pp.ProofCheckVerifyingKey, proofCheckStmt, tx.PredicateProof)
	if err != nil {
		return false, schemeError(err, "verify predicate proof")
	}
	if !predOK {
		s.log.Info("verify: predicate proof invalid")
		ok = false
	}

	if len(tx.Signatures) != len(tx.OldSerialNumbers) {
		s.log.Info("verify: signature count mismatch",
			zap.Int("signatures", len(tx.Signatures)), zap.Int("serialNumbers", len(tx.OldSerialNumbers)))
		ok = false
	} else {
		message := tx.SignatureMessage()
		for i, sn := range tx.OldSerialNumbers {
			sigOK, err := s.comp.Signature.Verify(pp.SignaturePP, sn, message, tx.Signatures[i])
			if err != nil {
				return false, schemeError(err, "verify signature")
			}
			if !sigOK {
				s.log.Info("verify: signature invalid", zap.Int("input", i))
				ok = false
			}
		}
	}

	return ok, nil
}
