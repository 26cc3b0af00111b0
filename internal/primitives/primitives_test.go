package primitives

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestCoreHash(t *testing.T) {
	t.Run("Determinism", func(t *testing.T) {
		a, err := CoreHash([]byte("segment one"), []byte("segment two"))
		if err != nil {
			t.Fatalf("hash failed: %v", err)
		}
		b, err := CoreHash([]byte("segment one"), []byte("segment two"))
		if err != nil {
			t.Fatalf("hash failed: %v", err)
		}
		if !bytes.Equal(a, b) {
			t.Error("hash is not deterministic")
		}
		if len(a) != CoreFieldSize {
			t.Errorf("digest size %d, want %d", len(a), CoreFieldSize)
		}
	})

	t.Run("Distinct Inputs", func(t *testing.T) {
		a, _ := CoreHash([]byte("input a"))
		b, _ := CoreHash([]byte("input b"))
		if bytes.Equal(a, b) {
			t.Error("hash collision on distinct inputs")
		}
	})

	t.Run("Segment Boundaries Matter", func(t *testing.T) {
		a, _ := CoreHash([]byte("ab"), []byte("c"))
		b, _ := CoreHash([]byte("a"), []byte("bc"))
		if bytes.Equal(a, b) {
			t.Error("segment split does not affect digest")
		}
	})

	t.Run("Leading Zeros Preserved", func(t *testing.T) {
		// Chunks decode as field elements; without the length terminator
		// a leading zero byte would vanish.
		a, _ := CoreHash([]byte("\x00abc"))
		b, _ := CoreHash([]byte("abc"))
		if bytes.Equal(a, b) {
			t.Error("leading zero byte does not affect digest")
		}
	})

	t.Run("Length Binds The Digest", func(t *testing.T) {
		a, _ := CoreHash([]byte{})
		b, _ := CoreHash([]byte{0})
		if bytes.Equal(a, b) {
			t.Error("all-zero input of different length does not affect digest")
		}
	})

	t.Run("Large Non-Canonical Input", func(t *testing.T) {
		// All-0xff bytes would be rejected as field elements without
		// chunking.
		big := bytes.Repeat([]byte{0xff}, 5*CoreFieldSize)
		if _, err := CoreHash(big); err != nil {
			t.Fatalf("hash rejected non-canonical input: %v", err)
		}
	})
}

func TestProofHash(t *testing.T) {
	a, err := ProofHash([]byte("verifying key bytes"))
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if len(a) != ProofFieldSize {
		t.Errorf("digest size %d, want %d", len(a), ProofFieldSize)
	}
	b, _ := ProofHash([]byte("other bytes"))
	if bytes.Equal(a, b) {
		t.Error("hash collision on distinct inputs")
	}

	c, _ := ProofHash([]byte("\x00verifying key bytes"))
	if bytes.Equal(a, c) {
		t.Error("leading zero byte does not affect digest")
	}
}

func TestCommitment(t *testing.T) {
	comm := NewCommitment()
	pp, err := comm.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	t.Run("Open Deterministically", func(t *testing.T) {
		r, err := comm.SampleRandomness(rand.Reader)
		if err != nil {
			t.Fatalf("sample randomness: %v", err)
		}
		input := []byte("committed value")
		a, err := comm.Commit(pp, input, r)
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
		b, err := comm.Commit(pp, input, r)
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
		if !bytes.Equal(a, b) {
			t.Error("commitment does not reopen to the same value")
		}
	})

	t.Run("Hiding Under Fresh Randomness", func(t *testing.T) {
		input := []byte("committed value")
		r1, _ := comm.SampleRandomness(rand.Reader)
		r2, _ := comm.SampleRandomness(rand.Reader)
		a, _ := comm.Commit(pp, input, r1)
		b, _ := comm.Commit(pp, input, r2)
		if bytes.Equal(a, b) {
			t.Error("distinct randomness produced identical commitments")
		}
	})

	t.Run("Rejects Bad Randomness Size", func(t *testing.T) {
		if _, err := comm.Commit(pp, []byte("x"), []byte("short")); err == nil {
			t.Error("expected error for short randomness")
		}
	})
}

func TestCRH(t *testing.T) {
	t.Run("Core Field", func(t *testing.T) {
		crh := NewCoreCRH()
		pp, err := crh.Setup(rand.Reader)
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
		a, err := crh.Evaluate(pp, []byte("data"))
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(a) != CoreFieldSize {
			t.Errorf("output size %d, want %d", len(a), CoreFieldSize)
		}
		pp2, _ := crh.Setup(rand.Reader)
		b, _ := crh.Evaluate(pp2, []byte("data"))
		if bytes.Equal(a, b) {
			t.Error("different keys produced identical outputs")
		}
	})

	t.Run("Proof Field", func(t *testing.T) {
		crh := NewProofCheckCRH()
		pp, err := crh.Setup(rand.Reader)
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
		a, err := crh.Evaluate(pp, []byte("verifying key"))
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(a) != ProofFieldSize {
			t.Errorf("output size %d, want %d", len(a), ProofFieldSize)
		}
	})
}

func TestPRF(t *testing.T) {
	prf := NewPRF()
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatal(err)
	}
	input := make([]byte, CoreFieldSize)

	t.Run("Deterministic", func(t *testing.T) {
		a, err := prf.Evaluate(seed, input)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		b, _ := prf.Evaluate(seed, input)
		if !bytes.Equal(a, b) {
			t.Error("prf is not deterministic")
		}
	})

	t.Run("Seed Separation", func(t *testing.T) {
		seed2 := make([]byte, SeedSize)
		rand.Read(seed2)
		a, _ := prf.Evaluate(seed, input)
		b, _ := prf.Evaluate(seed2, input)
		if bytes.Equal(a, b) {
			t.Error("distinct seeds produced identical outputs")
		}
	})

	t.Run("Rejects Bad Sizes", func(t *testing.T) {
		if _, err := prf.Evaluate(seed[:8], input); err == nil {
			t.Error("expected error for short seed")
		}
		if _, err := prf.Evaluate(seed, input[:8]); err == nil {
			t.Error("expected error for short input")
		}
	})
}
