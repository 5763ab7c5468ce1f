// Package shingle implements fixed-size MinHash signatures over word n-grams.
//
// A signature is a vector of SignatureSize hash minima. Two signatures are
// compared positionally: the fraction of matching minima estimates the
// Jaccard similarity of the underlying n-gram sets. Comparison cost is
// constant regardless of document length.
package shingle

import (
	"hash/fnv"
	"math"
	"strings"
)

const (
	// SignatureSize is the number of hash minima kept per signature.
	SignatureSize = 64

	// gramSize is the word n-gram width.
	gramSize = 3
)

// Signature computes the MinHash signature for the given token stream.
// Returns nil for an empty token stream. Deterministic: the same tokens
// always yield the same signature.
func Signature(tokens []string) []uint64 {
	grams := ngrams(tokens)
	if len(grams) == 0 {
		return nil
	}

	sig := make([]uint64, SignatureSize)
	for i := range sig {
		sig[i] = math.MaxUint64
	}

	for _, gram := range grams {
		base := hashGram(gram)

		for j := 0; j < SignatureSize; j++ {
			v := mix(base + uint64(j)*0x9e3779b97f4a7c15)
			if v < sig[j] {
				sig[j] = v
			}
		}
	}

	return sig
}

// Similarity estimates Jaccard similarity from two signatures.
// Symmetric and bounded in [0,1]. Mismatched or empty signatures score 0.
func Similarity(a, b []uint64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	matches := 0

	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}

	return float64(matches) / float64(len(a))
}

func ngrams(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	// Short documents fall back to a single gram so they still get a signature.
	if len(tokens) < gramSize {
		return []string{strings.Join(tokens, " ")}
	}

	grams := make([]string, 0, len(tokens)-gramSize+1)
	for i := 0; i+gramSize <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+gramSize], " "))
	}

	return grams
}

func hashGram(gram string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(gram))

	return h.Sum64()
}

// mix is the splitmix64 finalizer, used to derive the hash family from a
// single base hash per gram.
func mix(z uint64) uint64 {
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31

	return z
}
