// Package vectorstore holds the persistent chunk index implementations.
package vectorstore

import (
	"math"

	"brdgen/internal/domain"
)

// Store is the domain vector store contract, re-exported for the
// implementation subpackages.
type Store = domain.VectorStore

// Cosine returns the cosine similarity of two vectors. Vectors are not
// assumed to be normalized.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
