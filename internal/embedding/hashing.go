package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
)

const hashingDims = 256

// HashingEmbedder is a deterministic, no-network fallback used when no
// embedding API key is configured. It feature-hashes character trigrams
// into a fixed-width L2-normalized vector: identical texts get identical
// vectors and texts sharing trigrams overlap proportionally.
type HashingEmbedder struct{}

// NewHashingEmbedder creates the fallback embedder.
func NewHashingEmbedder() *HashingEmbedder {
	return &HashingEmbedder{}
}

// Embed implements Embedder.
func (e *HashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, hashingDims)
	for _, gram := range trigrams(text) {
		sum := sha256.Sum256([]byte(gram))
		idx := binary.BigEndian.Uint32(sum[:4]) % hashingDims
		// second hash byte picks the sign to avoid one-directional bias
		if sum[4]&1 == 0 {
			vec[idx]++
		} else {
			vec[idx]--
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func trigrams(text string) []string {
	runes := []rune(" " + strings.ToLower(strings.TrimSpace(text)) + " ")
	if len(runes) < 3 {
		return []string{string(runes)}
	}
	grams := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+3]))
	}
	return grams
}
