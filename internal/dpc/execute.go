// execute.go - Transaction construction: the build phase (executeHelper)
// and the prove-and-sign phase (Execute).

package dpc

import (
	"io"
)

// NewRecordParams describes one output slot of a transaction.
type NewRecordParams struct {
	Owner   AddressPublicKey
	IsDummy bool
	Payload []byte
	Birth   *Predicate
	Death   *Predicate
}

const serialNonceRandomSize = 32

// executeHelper consumes the old records and mints the new ones, deriving
// serial numbers, membership witnesses, the fresh output nonces and both
// binding commitments. Pure except for ledger reads, which are pinned to
// one accumulator state when the ledger supports snapshots.
func (s *Scheme) executeHelper(pp *PublicParameters, ledger Ledger, oldRecords []*Record, oldSecrets []*AddressSecretKey, newParams []NewRecordParams, memo, auxiliary []byte, rng io.Reader) (*executeContext, error) {
	if len(oldRecords) != s.comp.NumInputRecords {
		preconditionf("%d input records, want %d", len(oldRecords), s.comp.NumInputRecords)
	}
	if len(oldSecrets) != s.comp.NumInputRecords {
		preconditionf("%d input secret keys, want %d", len(oldSecrets), s.comp.NumInputRecords)
	}
	if len(newParams) != s.comp.NumOutputRecords {
		preconditionf("%d output slots, want %d", len(newParams), s.comp.NumOutputRecords)
	}

	// Witnesses and the digest must describe the same accumulator state, or
	// the resulting proof binds to a digest the witnesses do not verify
	// against.
	if snap, ok := ledger.(Snapshotter); ok {
		ledger = snap.Snapshot()
	}

	ctx := &executeContext{
		oldRecords:    oldRecords,
		oldSecretKeys: oldSecrets,
		memo:          append([]byte(nil), memo...),
		auxiliary:     append([]byte(nil), auxiliary...),
	}

	for i, r := range oldRecords {
		var witness []byte
		if r.IsDummy {
			witness = DummyWitness()
		} else {
			w, err := ledger.ProveCommitment(r.Commitment)
			if err != nil {
				return nil, ledgerError(err, "prove commitment")
			}
			witness = w
		}
		sn, randomizer, err := s.GenerateSerialNumber(pp, r, oldSecrets[i])
		if err != nil {
			return nil, err
		}
		ctx.oldWitnesses = append(ctx.oldWitnesses, witness)
		ctx.oldSerialNumbers = append(ctx.oldSerialNumbers, sn)
		ctx.oldRandomizers = append(ctx.oldRandomizers, randomizer)
		ctx.deathDigests = append(ctx.deathDigests, r.DeathPredicateDigest)
	}

	for j, params := range newParams {
		// The nonce folds in every consumed serial number, so output
		// nonces cannot repeat across distinct input sets.
		random := make([]byte, serialNonceRandomSize)
		if _, err := io.ReadFull(rng, random); err != nil {
			return nil, schemeError(err, "sample nonce randomness")
		}
		nonce, err := s.comp.SerialNonceCRH.Evaluate(pp.SerialNonceCRHPP, serialNonceInput(uint8(j), random, ctx.oldSerialNumbers))
		if err != nil {
			return nil, schemeError(err, "derive output nonce")
		}
		record, err := s.GenerateRecord(pp, nonce, params.Owner, params.IsDummy, params.Payload, params.Birth, params.Death, rng)
		if err != nil {
			return nil, err
		}
		ctx.newRecords = append(ctx.newRecords, record)
		ctx.newCommitments = append(ctx.newCommitments, record.Commitment)
		ctx.birthDigests = append(ctx.birthDigests, record.BirthPredicateDigest)
	}

	var err error
	ctx.localDataCommRand, err = s.comp.LocalDataComm.SampleRandomness(rng)
	if err != nil {
		return nil, schemeError(err, "sample local data randomness")
	}
	ctx.localDataComm, err = s.comp.LocalDataComm.Commit(pp.LocalDataCommPP,
		localDataInput(ctx.oldRecords, ctx.oldSerialNumbers, ctx.newRecords, ctx.memo, ctx.auxiliary),
		ctx.localDataCommRand)
	if err != nil {
		return nil, schemeError(err, "commit local data")
	}

	ctx.predicateCommRand, err = s.comp.PredicateComm.SampleRandomness(rng)
	if err != nil {
		return nil, schemeError(err, "sample predicate randomness")
	}
	ctx.predicateComm, err = s.comp.PredicateComm.Commit(pp.PredicateCommPP,
		predicateCommitmentInput(ctx.deathDigests, ctx.birthDigests),
		ctx.predicateCommRand)
	if err != nil {
		return nil, schemeError(err, "commit predicates")
	}

	ctx.ledgerDigest, err = ledger.Digest()
	if err != nil {
		return nil, ledgerError(err, "digest")
	}
	return ctx, nil
}

// coreWitness serializes the private input of the core proof: the full old
// records with their secrets and witnesses, the new records with their
// openings, and both commitment randomnesses.
func coreWitness(ctx *executeContext) []byte {
	var e encoder
	for i, r := range ctx.oldRecords {
		e.bytes(r.Serialize())
		sk := ctx.oldSecretKeys[i]
		e.bytes(sk.SkSig)
		e.bytes(sk.PkSig)
		e.bytes(sk.PrfSeed)
		e.bytes(sk.Metadata)
		e.bytes(sk.CommitmentRandomness)
		e.bytes(ctx.oldWitnesses[i])
		e.bytes(ctx.oldRandomizers[i])
	}
	for _, r := range ctx.newRecords {
		e.bytes(r.Serialize())
	}
	e.bytes(ctx.predicateCommRand)
	e.bytes(ctx.localDataCommRand)
	return e.buf.Bytes()
}

// proofCheckWitness serializes the private input of the predicate proof:
// the per-position key/proof bundles plus the commitment openings.
func proofCheckWitness(ctx *executeContext, death, birth []PrivatePredicateInput) []byte {
	var e encoder
	for _, in := range death {
		e.bytes(in.VerifyingKey)
		e.bytes(in.Proof)
	}
	for _, in := range birth {
		e.bytes(in.VerifyingKey)
		e.bytes(in.Proof)
	}
	e.bytes(ctx.predicateCommRand)
	e.bytes(ctx.localDataCommRand)
	return e.buf.Bytes()
}

// Execute builds a complete transaction: it runs executeHelper, invokes the
// two predicate provers exactly once each, generates both proofs, signs the
// transaction once per consumed input and re-randomizes each signature with
// that input's serial-number randomizer. Returns the transaction together
// with the minted records, which only the creator ever sees in the clear.
func (s *Scheme) Execute(pp *PublicParameters, ledger Ledger, oldRecords []*Record, oldSecrets []*AddressSecretKey, newParams []NewRecordParams, memo, auxiliary []byte, deathProver, birthProver PredicateProver, rng io.Reader) (*Transaction, []*Record, error) {
	ctx, err := s.executeHelper(pp, ledger, oldRecords, oldSecrets, newParams, memo, auxiliary, rng)
	if err != nil {
		return nil, nil, err
	}

	ld := ctx.localData()
	deathInputs, err := deathProver(ld, rng)
	if err != nil {
		return nil, nil, schemeError(err, "death predicate prover")
	}
	if len(deathInputs) != s.comp.NumInputRecords {
		return nil, nil, schemeErrorf("death predicate prover", "%d bundles, want %d", len(deathInputs), s.comp.NumInputRecords)
	}
	birthInputs, err := birthProver(ld, rng)
	if err != nil {
		return nil, nil, schemeError(err, "birth predicate prover")
	}
	if len(birthInputs) != s.comp.NumOutputRecords {
		return nil, nil, schemeErrorf("birth predicate prover", "%d bundles, want %d", len(birthInputs), s.comp.NumOutputRecords)
	}

	coreStmt := coreStatement(ledger.Parameters(), ctx.ledgerDigest, ctx.oldSerialNumbers, ctx.newCommitments, ctx.memo, ctx.predicateComm, ctx.localDataComm)
	coreProof, err := s.comp.CoreNIZK.Prove(pp.CoreProvingKey, coreStmt, coreWitness(ctx), rng)
	if err != nil {
		return nil, nil, schemeError(err, "core proof")
	}

	proofCheckStmt := proofCheckStatement(ctx.predicateComm, ctx.localDataComm)
	predicateProof, err := s.comp.ProofCheckNIZK.Prove(pp.ProofCheckProvingKey, proofCheckStmt, proofCheckWitness(ctx, deathInputs, birthInputs), rng)
	if err != nil {
		return nil, nil, schemeError(err, "predicate proof")
	}

	message := signatureMessage(ctx.oldSerialNumbers, ctx.newCommitments, ctx.memo, ctx.ledgerDigest, coreProof, predicateProof)
	signatures := make([][]byte, 0, s.comp.NumInputRecords)
	for i, sk := range ctx.oldSecretKeys {
		sig, err := s.comp.Signature.Sign(pp.SignaturePP, sk.SkSig, message, rng)
		if err != nil {
			return nil, nil, schemeError(err, "sign")
		}
		sig, err = s.comp.Signature.RandomizeSignature(pp.SignaturePP, sig, ctx.oldRandomizers[i])
		if err != nil {
			return nil, nil, schemeError(err, "randomize signature")
		}
		signatures = append(signatures, sig)
	}

	tx := &Transaction{
		OldSerialNumbers:    ctx.oldSerialNumbers,
		NewCommitments:      ctx.newCommitments,
		Memo:                ctx.memo,
		LedgerDigest:        ctx.ledgerDigest,
		PredicateCommitment: ctx.predicateComm,
		LocalDataCommitment: ctx.localDataComm,
		CoreProof:           coreProof,
		PredicateProof:      predicateProof,
		Signatures:          signatures,
	}
	s.log.Info("transaction built")
	return tx, ctx.newRecords, nil
}
