package shingle

import (
	"strings"
	"testing"
)

const testErrSimilarity = "Similarity() = %v, want %v"

func tokensOf(text string) []string {
	return strings.Fields(text)
}

func TestSignature_Deterministic(t *testing.T) {
	tokens := tokensOf("the central bank raised interest rates again this quarter")

	a := Signature(tokens)
	b := Signature(tokens)

	if len(a) != SignatureSize {
		t.Fatalf("Signature() length = %d, want %d", len(a), SignatureSize)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("signatures differ at position %d", i)
		}
	}
}

func TestSignature_Empty(t *testing.T) {
	if sig := Signature(nil); sig != nil {
		t.Errorf("Signature(nil) = %v, want nil", sig)
	}

	if sig := Signature([]string{}); sig != nil {
		t.Errorf("Signature(empty) = %v, want nil", sig)
	}
}

func TestSignature_ShortDocument(t *testing.T) {
	sig := Signature([]string{"breaking", "news"})
	if len(sig) != SignatureSize {
		t.Errorf("short document signature length = %d, want %d", len(sig), SignatureSize)
	}
}

func TestSimilarity_Identical(t *testing.T) {
	sig := Signature(tokensOf("markets rallied after the announcement of new trade measures"))

	if got := Similarity(sig, sig); got != 1.0 {
		t.Errorf(testErrSimilarity, got, 1.0)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	texts := []string{
		"the government announced new infrastructure spending plans today",
		"new infrastructure spending plans were announced by the government",
		"quarterly earnings beat analyst expectations across the sector",
		"severe weather disrupted flights across the northern region",
	}

	sigs := make([][]uint64, len(texts))
	for i, text := range texts {
		sigs[i] = Signature(tokensOf(text))
	}

	for i := range sigs {
		for j := range sigs {
			ab := Similarity(sigs[i], sigs[j])
			ba := Similarity(sigs[j], sigs[i])

			if ab != ba {
				t.Errorf("Similarity(%d,%d) = %v but Similarity(%d,%d) = %v", i, j, ab, j, i, ba)
			}

			if ab < 0 || ab > 1 {
				t.Errorf("Similarity(%d,%d) = %v, out of [0,1]", i, j, ab)
			}
		}
	}
}

func TestSimilarity_Disjoint(t *testing.T) {
	a := Signature(tokensOf("central bank policy committee voted to hold rates steady"))
	b := Signature(tokensOf("local football team wins championship after dramatic penalty shootout"))

	if got := Similarity(a, b); got > 0.3 {
		t.Errorf("disjoint content similarity = %v, want low", got)
	}
}

func TestSimilarity_NearDuplicate(t *testing.T) {
	base := "the finance ministry confirmed on monday that the new tax framework will take effect from january with transitional provisions for small businesses and exporters"
	variant := base + " according to officials"

	a := Signature(tokensOf(base))
	b := Signature(tokensOf(variant))

	if got := Similarity(a, b); got < 0.8 {
		t.Errorf("near-duplicate similarity = %v, want >= 0.8", got)
	}
}

func TestSimilarity_MismatchedLengths(t *testing.T) {
	a := Signature(tokensOf("some reasonably long piece of text for the test"))

	if got := Similarity(a, a[:10]); got != 0 {
		t.Errorf(testErrSimilarity, got, 0)
	}

	if got := Similarity(nil, nil); got != 0 {
		t.Errorf(testErrSimilarity, got, 0)
	}
}
