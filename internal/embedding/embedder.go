// Package embedding turns text into fixed-size numeric vectors through a
// pluggable backend, with an in-memory read-through cache in front.
package embedding

import (
	"context"
	"errors"
	"math"
)

// Embedder produces an embedding vector for a string. Implementations must
// return vectors of a fixed length for a given model.
type Embedder interface {
	Name() string
	Model() string
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ErrEmptyVector reports a backend reply with no usable vector.
var ErrEmptyVector = errors.New("embedding: empty vector")

// Cosine computes the cosine similarity (u·v)/(‖u‖‖v‖) of two vectors.
// Mismatched lengths or zero-magnitude vectors yield 0.
func Cosine(u, v []float64) float64 {
	if len(u) == 0 || len(u) != len(v) {
		return 0
	}

	var dot, nu, nv float64
	for i := range u {
		dot += u[i] * v[i]
		nu += u[i] * u[i]
		nv += v[i] * v[i]
	}
	if nu == 0 || nv == 0 {
		return 0
	}
	return dot / (math.Sqrt(nu) * math.Sqrt(nv))
}
