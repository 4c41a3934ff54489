package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/theapemachine/senseable-go/pkg/errors"
)

/*
OpenAIProvider is a provider for the OpenAI API.
*/
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	embedModel string
}

type OpenAIProviderOption func(*OpenAIProvider)

func NewOpenAIProvider(options ...OpenAIProviderOption) *OpenAIProvider {
	prvdr := &OpenAIProvider{
		model:      "gpt-4o-mini",
		embedModel: "text-embedding-3-small",
	}

	for _, opt := range options {
		opt(prvdr)
	}

	if prvdr.client == nil {
		client := openai.NewClient(
			option.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
		)
		prvdr.client = &client
	}

	return prvdr
}

func WithOpenAIClient(client *openai.Client) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) { prvdr.client = client }
}

func WithOpenAIModel(model string) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) { prvdr.model = model }
}

func WithOpenAIEmbedModel(model string) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) { prvdr.embedModel = model }
}

func (prvdr *OpenAIProvider) Generate(
	ctx context.Context, prompt string, constraints Constraints,
) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(prvdr.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(constraintSystemPrompt(constraints)),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(constraints.Temperature),
	}

	if constraints.MaxTokens > 0 {
		params.MaxTokens = openai.Int(constraints.MaxTokens)
	}

	resp, err := prvdr.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.ErrProviderUnavailable.WithMessagef("openai generate: %v", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.ErrProviderUnavailable.WithMessagef("openai generate: empty response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (prvdr *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := prvdr.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (prvdr *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := prvdr.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(prvdr.embedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, errors.ErrProviderUnavailable.WithMessagef("openai embed: %v", err)
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = convertToFloat32(d.Embedding)
	}

	return out, nil
}

func (prvdr *OpenAIProvider) Classify(
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

func convertToFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func constraintSystemPrompt(constraints Constraints) string {
	builder := &strings.Builder{}
	builder.WriteString("You rewrite text for sensory accessibility. ")
	builder.WriteString("Respond with the rewritten text only, no commentary.")

	if constraints.Style != "" {
		fmt.Fprintf(builder, " Rewrite style: %s.", constraints.Style)
	}

	if len(constraints.MustKeep) > 0 {
		fmt.Fprintf(builder,
			" The rewrite MUST contain these phrases verbatim: %s.",
			strings.Join(constraints.MustKeep, "; "),
		)
	}

	if constraints.Tightness > 0 {
		fmt.Fprintf(builder,
			" Stay as close as possible to the original wording; change only what the phrases above require (strictness level %d).",
			constraints.Tightness,
		)
	}

	return builder.String()
}

func classifyPrompt(text string, labels []string) string {
	return fmt.Sprintf(
		"Classify the following text against these labels: %s.\n"+
			"Respond with a single JSON object mapping every label to a probability; probabilities sum to 1.\n\nText: %s",
		strings.Join(labels, ", "), text,
	)
}

// parseDistribution decodes the model's JSON answer and normalizes it over
// the requested labels so downstream code always sees a full distribution.
func parseDistribution(raw string, labels []string) (map[string]float64, error) {
	raw = strings.TrimSpace(raw)
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	var parsed map[string]float64
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, errors.ErrProviderUnavailable.WithMessagef("classify: unparseable distribution: %v", err)
	}

	out := make(map[string]float64, len(labels))
	total := 0.0
	for _, label := range labels {
		out[label] = parsed[label]
		total += parsed[label]
	}

	if total > 0 {
		for label := range out {
			out[label] /= total
		}
	}

	return out, nil
}
