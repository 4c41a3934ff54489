package retrieve

import (
	"context"
	"os"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

/*
CohereReranker reorders candidates with Cohere's Rerank endpoint. The
relevance score replaces the blended score so downstream weighting stays
comparable.
*/
type CohereReranker struct {
	client *cohereclient.Client
	model  string
}

type CohereRerankerOption func(*CohereReranker)

func NewCohereReranker(options ...CohereRerankerOption) *CohereReranker {
	reranker := &CohereReranker{
		model: "rerank-english-v3.0",
	}

	for _, option := range options {
		option(reranker)
	}

	if reranker.client == nil {
		reranker.client = cohereclient.NewClient(
			cohereclient.WithToken(os.Getenv("COHERE_API_KEY")),
		)
	}

	return reranker
}

func WithCohereModel(model string) CohereRerankerOption {
	return func(reranker *CohereReranker) { reranker.model = model }
}

func WithCohereClient(client *cohereclient.Client) CohereRerankerOption {
	return func(reranker *CohereReranker) { reranker.client = client }
}

func (reranker *CohereReranker) Rerank(
	ctx context.Context, query string, candidates []Candidate, topN int,
) ([]Candidate, error) {
	documents := make([]*cohere.RerankRequestDocumentsItem, len(candidates))
	for i, candidate := range candidates {
		documents[i] = &cohere.RerankRequestDocumentsItem{String: candidate.Text}
	}

	resp, err := reranker.client.Rerank(ctx, &cohere.RerankRequest{
		Model:     &reranker.model,
		Query:     query,
		Documents: documents,
		TopN:      &topN,
	})
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.Index < 0 || result.Index >= len(candidates) {
			continue
		}
		candidate := candidates[result.Index]
		candidate.Score = result.RelevanceScore
		out = append(out, candidate)
	}

	return out, nil
}
