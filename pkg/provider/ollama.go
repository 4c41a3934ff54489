package provider

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ollama/ollama/api"
	"github.com/theapemachine/senseable-go/pkg/errors"
)

/*
OllamaProvider runs against a local Ollama daemon, which makes the whole
pipeline usable without any cloud credentials.
*/
type OllamaProvider struct {
	client     *api.Client
	model      string
	embedModel string
}

type OllamaProviderOption func(*OllamaProvider)

func NewOllamaProvider(options ...OllamaProviderOption) *OllamaProvider {
	prvdr := &OllamaProvider{
		model:      "llama3.2",
		embedModel: "nomic-embed-text",
	}

	for _, option := range options {
		option(prvdr)
	}

	if prvdr.client == nil {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			log.Error("failed to create Ollama client", "error", err)
		} else {
			prvdr.client = client
		}
	}

	return prvdr
}

func WithOllamaClient(client *api.Client) OllamaProviderOption {
	return func(prvdr *OllamaProvider) { prvdr.client = client }
}

func WithOllamaModel(model string) OllamaProviderOption {
	return func(prvdr *OllamaProvider) { prvdr.model = model }
}

func WithOllamaEmbedModel(model string) OllamaProviderOption {
	return func(prvdr *OllamaProvider) { prvdr.embedModel = model }
}

func (prvdr *OllamaProvider) Generate(
	ctx context.Context, prompt string, constraints Constraints,
) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  prvdr.model,
		System: constraintSystemPrompt(constraints),
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": constraints.Temperature,
		},
	}

	var out strings.Builder
	respFunc := func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	}

	if err := prvdr.client.Generate(ctx, req, respFunc); err != nil {
		return "", errors.ErrProviderUnavailable.WithMessagef("ollama generate: %v", err)
	}

	return strings.TrimSpace(out.String()), nil
}

func (prvdr *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := prvdr.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (prvdr *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := prvdr.client.Embed(ctx, &api.EmbedRequest{
		Model: prvdr.embedModel,
		Input: texts,
	})
	if err != nil {
		return nil, errors.ErrProviderUnavailable.WithMessagef("ollama embed: %v", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, errors.ErrProviderUnavailable.WithMessagef(
			"ollama embed: got %d vectors for %d inputs", len(resp.Embeddings), len(texts),
		)
	}

	return resp.Embeddings, nil
}

func (prvdr *OllamaProvider) Classify(
	ctx context.Context, text string, labels []string,
) (map[string]float64, error) {
	out, err := prvdr.Generate(ctx, classifyPrompt(text, labels), Constraints{
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		return nil, err
	}

	return parseDistribution(out, labels)
}
