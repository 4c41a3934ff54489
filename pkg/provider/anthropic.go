package provider

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/theapemachine/senseable-go/pkg/errors"
)

/*
AnthropicProvider is a provider for the Anthropic API. Anthropic exposes no
embedding endpoint, so Embed reports unavailable and callers fall back to
their lexical similarity path.
*/
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

type AnthropicProviderOption func(*AnthropicProvider)

func NewAnthropicProvider(options ...AnthropicProviderOption) *AnthropicProvider {
	prvdr := &AnthropicProvider{
		model: string(anthropic.ModelClaude3_5HaikuLatest),
	}

	for _, option := range options {
		option(prvdr)
	}

	if prvdr.client == nil {
		client := anthropic.NewClient()
		prvdr.client = &client
	}

	return prvdr
}

func WithAnthropicClient(client *anthropic.Client) AnthropicProviderOption {
	return func(prvdr *AnthropicProvider) { prvdr.client = client }
}

func WithAnthropicModel(model string) AnthropicProviderOption {
	return func(prvdr *AnthropicProvider) { prvdr.model = model }
}

func (prvdr *AnthropicProvider) Generate(
	ctx context.Context, prompt string, constraints Constraints,
) (string, error) {
	maxTokens := constraints.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	message, err := prvdr.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(prvdr.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: constraintSystemPrompt(constraints)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", errors.ErrProviderUnavailable.WithMessagef("anthropic generate: %v", err)
	}

	builder := &strings.Builder{}
	for _, block := range message.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func (prvdr *AnthropicProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.ErrProviderUnavailable.WithMessagef("anthropic: no embedding endpoint")
}

func (prvdr *AnthropicProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.ErrProviderUnavailable.WithMessagef("anthropic: no embedding endpoint")
}

func (prvdr *AnthropicProvider) Classify(
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
