/*
Package provider abstracts the generation/embedding service behind a small
contract: embed, classify, generate. The core never depends on a specific
model architecture, only on this interface, and treats every provider
failure as "unavailable" rather than a crash.
*/
package provider

import (
	"context"
	"math"
)

/*
Constraints bounds a generation call. MustKeep lists substitution texts the
rewrite must contain verbatim; Tightness grows on each validation retry so
the prompt gets progressively more conservative.
*/
type Constraints struct {
	MaxTokens   int64
	Temperature float64
	MustKeep    []string
	Style       string
	Tightness   int
}

type Interface interface {
	Generate(ctx context.Context, prompt string, constraints Constraints) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Classify(ctx context.Context, text string, labels []string) (map[string]float64, error)
}

/*
Cosine returns the cosine similarity of two vectors, 0 for degenerate
input. Used for meaning-preservation checks against provider embeddings.
*/
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

/*
Similarity embeds both texts with the provider and returns their cosine
similarity.
*/
func Similarity(ctx context.Context, prvdr Interface, a, b string) (float64, error) {
	vectors, err := prvdr.EmbedBatch(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	if len(vectors) != 2 {
		return 0, nil
	}
	return Cosine(vectors[0], vectors[1]), nil
}
