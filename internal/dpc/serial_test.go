package dpc

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestGenerateSerialNumber(t *testing.T) {
	scheme, pp := newTestScheme(t, 1, 1)
	addr, err := scheme.CreateAddress(pp, nil, rand.Reader)
	if err != nil {
		t.Fatalf("create address: %v", err)
	}
	pred := NewPredicate(pp.PredicateVerifyingKey)
	nonce := make([]byte, 32)
	rand.Read(nonce)
	record, err := scheme.GenerateRecord(pp, nonce, addr.Public, false, nil, pred, pred, rand.Reader)
	if err != nil {
		t.Fatalf("generate record: %v", err)
	}

	t.Run("Deterministic", func(t *testing.T) {
		sn1, r1, err := scheme.GenerateSerialNumber(pp, record, &addr.Secret)
		if err != nil {
			t.Fatalf("generate serial number: %v", err)
		}
		sn2, r2, err := scheme.GenerateSerialNumber(pp, record, &addr.Secret)
		if err != nil {
			t.Fatalf("generate serial number: %v", err)
		}
		if !bytes.Equal(sn1, sn2) || !bytes.Equal(r1, r2) {
			t.Error("serial number derivation is not deterministic")
		}
	})

	t.Run("Distinct Per Owner", func(t *testing.T) {
		other, err := scheme.CreateAddress(pp, nil, rand.Reader)
		if err != nil {
			t.Fatalf("create address: %v", err)
		}
		sn1, _, _ := scheme.GenerateSerialNumber(pp, record, &addr.Secret)
		sn2, _, _ := scheme.GenerateSerialNumber(pp, record, &other.Secret)
		if bytes.Equal(sn1, sn2) {
			t.Error("distinct owners derived the same serial number")
		}
	})

	t.Run("Distinct Per Nonce", func(t *testing.T) {
		nonce2 := make([]byte, 32)
		rand.Read(nonce2)
		record2, err := scheme.GenerateRecord(pp, nonce2, addr.Public, false, nil, pred, pred, rand.Reader)
		if err != nil {
			t.Fatalf("generate record: %v", err)
		}
		sn1, _, _ := scheme.GenerateSerialNumber(pp, record, &addr.Secret)
		sn2, _, _ := scheme.GenerateSerialNumber(pp, record2, &addr.Secret)
		if bytes.Equal(sn1, sn2) {
			t.Error("distinct nonces derived the same serial number")
		}
	})

	t.Run("Matches Manual Derivation", func(t *testing.T) {
		randomizer, err := scheme.comp.PRF.Evaluate(addr.Secret.PrfSeed, record.SerialNumberNonce)
		if err != nil {
			t.Fatalf("prf: %v", err)
		}
		expected, err := scheme.comp.Signature.RandomizePublicKey(pp.SignaturePP, addr.Secret.PkSig, randomizer)
		if err != nil {
			t.Fatalf("randomize: %v", err)
		}
		sn, _, _ := scheme.GenerateSerialNumber(pp, record, &addr.Secret)
		if !bytes.Equal(sn, expected) {
			t.Error("serial number does not match the prf-then-randomize derivation")
		}
	})
}
