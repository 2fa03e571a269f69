package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"

	"github.com/gorgaloro/job-automation-sub001/internal/model"
)

// shingleSize is the word-window used for content fingerprinting. Three
// words is wide enough that reordered boilerplate fragments hash apart but
// pure formatting differences (already normalized away) do not.
const shingleSize = 3

// Features is the derived representation of one posting used for all
// pairwise comparison: a stable content fingerprint for cheap equality
// short-circuits and an L2-normalized term-frequency vector for graded
// similarity.
type Features struct {
	Norm        Normalized
	Fingerprint string
	Vector      map[string]float64
}

// ComputeFeatures normalizes one posting and derives its fingerprint and
// feature vector. Non-comparable postings get an empty fingerprint and a
// nil vector.
func ComputeFeatures(src model.JobSource) Features {
	norm := NormalizeSource(src)
	return Features{
		Norm:        norm,
		Fingerprint: Fingerprint(norm.Text),
		Vector:      TermVector(norm.Text),
	}
}

// Fingerprint hashes the word shingles of normalized text into a stable
// hex signature. Identical normalized input always produces the identical
// fingerprint; any substantive wording change produces a different one.
func Fingerprint(normalizedText string) string {
	if normalizedText == "" {
		return ""
	}
	tokens := strings.Fields(normalizedText)
	h := sha256.New()
	if len(tokens) < shingleSize {
		h.Write([]byte(normalizedText))
	} else {
		for i := 0; i+shingleSize <= len(tokens); i++ {
			h.Write([]byte(strings.Join(tokens[i:i+shingleSize], " ")))
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TermVector builds an L2-normalized term-frequency vector from normalized
// text. Returns nil for empty input.
func TermVector(normalizedText string) map[string]float64 {
	tokens := strings.Fields(normalizedText)
	if len(tokens) == 0 {
		return nil
	}
	vec := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		vec[t]++
	}
	var sumSquares float64
	for _, f := range vec {
		sumSquares += f * f
	}
	norm := math.Sqrt(sumSquares)
	for t := range vec {
		vec[t] /= norm
	}
	return vec
}
