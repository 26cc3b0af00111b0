// transaction.go - The public transaction object and its wire shape.

package dpc

import "github.com/pkg/errors"

// Transaction is what gets published: consumed serial numbers, minted
// commitments, the two binding commitments, the two proofs, and one
// randomized signature per consumed input. It reveals nothing about record
// contents or owners.
type Transaction struct {
	OldSerialNumbers    [][]byte `json:"oldSerialNumbers"`
	NewCommitments      [][]byte `json:"newCommitments"`
	Memo                []byte   `json:"memo"`
	LedgerDigest        []byte   `json:"ledgerDigest"`
	PredicateCommitment []byte   `json:"predicateCommitment"`
	LocalDataCommitment []byte   `json:"localDataCommitment"`
	CoreProof           []byte   `json:"coreProof"`
	PredicateProof      []byte   `json:"predicateProof"`
	Signatures          [][]byte `json:"signatures"`
}

// Marshal encodes the transaction canonically. Two equal transactions
// always produce identical bytes, so the encoding doubles as an identity.
func (tx *Transaction) Marshal() []byte {
	var e encoder
	e.byteSlices(tx.OldSerialNumbers)
	e.byteSlices(tx.NewCommitments)
	e.bytes(tx.Memo)
	e.bytes(tx.LedgerDigest)
	e.bytes(tx.PredicateCommitment)
	e.bytes(tx.LocalDataCommitment)
	e.bytes(tx.CoreProof)
	e.bytes(tx.PredicateProof)
	e.byteSlices(tx.Signatures)
	return e.buf.Bytes()
}

// UnmarshalTransaction inverts Marshal.
func UnmarshalTransaction(data []byte) (*Transaction, error) {
	d := newDecoder(data)
	tx := &Transaction{}
	var err error
	if tx.OldSerialNumbers, err = d.byteSlices(); err != nil {
		return nil, errors.Wrap(err, "transaction serial numbers")
	}
	if tx.NewCommitments, err = d.byteSlices(); err != nil {
		return nil, errors.Wrap(err, "transaction commitments")
	}
	if tx.Memo, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "transaction memo")
	}
	if tx.LedgerDigest, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "transaction digest")
	}
	if tx.PredicateCommitment, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "transaction predicate commitment")
	}
	if tx.LocalDataCommitment, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "transaction local data commitment")
	}
	if tx.CoreProof, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "transaction core proof")
	}
	if tx.PredicateProof, err = d.bytes(); err != nil {
		return nil, errors.Wrap(err, "transaction predicate proof")
	}
	if tx.Signatures, err = d.byteSlices(); err != nil {
		return nil, errors.Wrap(err, "transaction signatures")
	}
	if err := d.done(); err != nil {
		return nil, errors.Wrap(err, "transaction")
	}
	return tx, nil
}

// SignatureMessage reconstructs the message every input owner signed.
func (tx *Transaction) SignatureMessage() []byte {
	return signatureMessage(tx.OldSerialNumbers, tx.NewCommitments, tx.Memo, tx.LedgerDigest, tx.CoreProof, tx.PredicateProof)
}
