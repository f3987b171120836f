package common

import (
	"bytes"
	"testing"
)

func TestGenerateRandByteArray_Length(t *testing.T) {
	const n = 24
	a := GenerateRandByteArray(n)
	b := GenerateRandByteArray(n)
	if len(a) != n || len(b) != n {
		t.Fatalf("unexpected lengths: %d, %d", len(a), len(b))
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two GenerateRandByteArray(%d) results are identical", n)
	}
}

func TestGenerateRandByteArray_Zero(t *testing.T) {
	if got := GenerateRandByteArray(0); len(got) != 0 {
		t.Fatalf("expected empty slice, got %d bytes", len(got))
	}
}
