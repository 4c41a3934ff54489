package provider

import (
	"context"
	"strings"

	"github.com/theapemachine/senseable-go/pkg/errors"
)

/*
MockProvider is a deterministic in-memory provider for tests. Embeddings
are derived from token hashes so identical texts always embed identically
and overlapping texts score high cosine similarity. Set Fail to simulate an
unavailable provider.
*/
type MockProvider struct {
	Fail      bool
	Generated []string
	// GenerateFunc, when set, overrides the default echo behavior.
	GenerateFunc func(prompt string, constraints Constraints) string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

const mockDim = 64

func (prvdr *MockProvider) Generate(
	ctx context.Context, prompt string, constraints Constraints,
) (string, error) {
	if prvdr.Fail {
		return "", errors.ErrProviderUnavailable.WithMessagef("mock provider down")
	}

	var out string
	if prvdr.GenerateFunc != nil {
		out = prvdr.GenerateFunc(prompt, constraints)
	} else {
		out = prompt
	}

	prvdr.Generated = append(prvdr.Generated, out)

	return out, nil
}

func (prvdr *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if prvdr.Fail {
		return nil, errors.ErrProviderUnavailable.WithMessagef("mock provider down")
	}

	vector := make([]float32, mockDim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := 0
		for _, r := range tok {
			h = h*31 + int(r)
		}
		if h < 0 {
			h = -h
		}
		vector[h%mockDim] += 1
	}

	return vector, nil
}

func (prvdr *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := prvdr.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vector
	}
	return out, nil
}

func (prvdr *MockProvider) Classify(
	ctx context.Context, text string, labels []string,
) (map[string]float64, error) {
	if prvdr.Fail {
		return nil, errors.ErrProviderUnavailable.WithMessagef("mock provider down")
	}

	out := make(map[string]float64, len(labels))
	if len(labels) == 0 {
		return out, nil
	}

	share := 1.0 / float64(len(labels))
	for _, label := range labels {
		out[label] = share
	}

	return out, nil
}
