package nizk

import (
	"crypto/rand"
	"testing"
)

func TestInsecure(t *testing.T) {
	scheme := NewInsecure()
	pk, vk, err := scheme.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	public := []byte("the statement being proven")

	t.Run("Prove and Verify", func(t *testing.T) {
		proof, err := scheme.Prove(pk, public, []byte("witness"), rand.Reader)
		if err != nil {
			t.Fatalf("prove: %v", err)
		}
		ok, err := scheme.Verify(vk, public, proof)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if !ok {
			t.Error("valid proof rejected")
		}
	})

	t.Run("Bound to Statement", func(t *testing.T) {
		proof, _ := scheme.Prove(pk, public, nil, rand.Reader)
		ok, err := scheme.Verify(vk, []byte("a different statement"), proof)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if ok {
			t.Error("proof accepted for a different statement")
		}
	})

	t.Run("Tampered Proof Rejected", func(t *testing.T) {
		proof, _ := scheme.Prove(pk, public, nil, rand.Reader)
		proof[0] ^= 0x01
		ok, _ := scheme.Verify(vk, public, proof)
		if ok {
			t.Error("tampered proof accepted")
		}
	})

	t.Run("Wrong Key Rejected", func(t *testing.T) {
		_, otherVk, err := scheme.Setup(rand.Reader)
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
		proof, _ := scheme.Prove(pk, public, nil, rand.Reader)
		ok, _ := scheme.Verify(otherVk, public, proof)
		if ok {
			t.Error("proof accepted under wrong verifying key")
		}
	})
}
