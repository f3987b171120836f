package cryptox

import (
	"bytes"
	"strings"
	"testing"
)

func TestDeriveUserID_Deterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, SeedSize)

	id1, err := DeriveUserID(seed, "user@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, _ := DeriveUserID(seed, "  USER@Example.com ")

	if id1 != id2 {
		t.Errorf("expected email casing and spaces to be ignored, got %s and %s", id1, id2)
	}
	if !strings.HasPrefix(id1, "anon_") || len(id1) != len("anon_")+32 {
		t.Errorf("unexpected id shape %q", id1)
	}
}

func TestDeriveUserID_DifferentInputs(t *testing.T) {
	seedA := bytes.Repeat([]byte{1}, SeedSize)
	seedB := bytes.Repeat([]byte{2}, SeedSize)

	a, _ := DeriveUserID(seedA, "")
	b, _ := DeriveUserID(seedB, "")
	if a == b {
		t.Errorf("different seeds must give different ids")
	}

	c, _ := DeriveUserID(seedA, "x@example.com")
	if a == c {
		t.Errorf("adding an email must change the id")
	}
}

func TestDeriveUserID_InvalidSeed(t *testing.T) {
	for _, seed := range [][]byte{nil, make([]byte, 65)} {
		if _, err := DeriveUserID(seed, ""); err != ErrInvalidSeed {
			t.Errorf("len %d: expected ErrInvalidSeed, got %v", len(seed), err)
		}
	}
}

func TestNewInstallSeed(t *testing.T) {
	s1 := NewInstallSeed()
	s2 := NewInstallSeed()
	if len(s1) != SeedSize {
		t.Fatalf("expected %d bytes, got %d", SeedSize, len(s1))
	}
	if bytes.Equal(s1, s2) {
		t.Errorf("expected distinct seeds")
	}
}
