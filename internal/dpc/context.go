// context.go - Ephemeral state between the build and prove phases.

package dpc

// executeContext carries everything executeHelper derived, pending proof
// generation. It is consumed exactly once by Execute and never reused;
// the type stays unexported because nothing outside the pipeline should
// depend on its shape.
type executeContext struct {
	ledgerDigest []byte

	oldRecords       []*Record
	oldSecretKeys    []*AddressSecretKey
	oldSerialNumbers [][]byte
	oldRandomizers   [][]byte
	oldWitnesses     [][]byte
	deathDigests     [][]byte

	newRecords     []*Record
	newCommitments [][]byte
	birthDigests   [][]byte

	memo      []byte
	auxiliary []byte

	predicateComm     []byte
	predicateCommRand []byte
	localDataComm     []byte
	localDataCommRand []byte
}

// LocalData is the view handed to predicate provers: the records crossing
// this transaction, the memo and auxiliary input, and the commitment that
// binds them into the proofs.
type LocalData struct {
	OldRecords       []*Record
	OldSerialNumbers [][]byte
	NewRecords       []*Record
	Memo             []byte
	Auxiliary        []byte

	Commitment []byte
	Randomness []byte
}

func (ctx *executeContext) localData() *LocalData {
	return &LocalData{
		OldRecords:       ctx.oldRecords,
		OldSerialNumbers: ctx.oldSerialNumbers,
		NewRecords:       ctx.newRecords,
		Memo:             ctx.memo,
		Auxiliary:        ctx.auxiliary,
		Commitment:       ctx.localDataComm,
		Randomness:       ctx.localDataCommRand,
	}
}
