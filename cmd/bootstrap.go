package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/theapemachine/senseable-go/pkg/detect"
	"github.com/theapemachine/senseable-go/pkg/memory"
	"github.com/theapemachine/senseable-go/pkg/pipeline"
	"github.com/theapemachine/senseable-go/pkg/provider"
	"github.com/theapemachine/senseable-go/pkg/reason"
	"github.com/theapemachine/senseable-go/pkg/retrieve"
	"github.com/theapemachine/senseable-go/pkg/rewrite"
	"github.com/theapemachine/senseable-go/pkg/saf"
	"github.com/theapemachine/senseable-go/pkg/score"
	"github.com/theapemachine/senseable-go/pkg/stg"
	"github.com/theapemachine/senseable-go/pkg/stores/qdrant"
)

/*
components holds everything a command needs to serve requests. Built once
per process from the viper config.
*/
type components struct {
	pipeline     *pipeline.Pipeline
	fingerprints saf.Store
	history      memory.Store
	provider     provider.Interface
	index        *qdrant.Client
}

func bootstrap() (*components, error) {
	prvdr, err := newProvider()
	if err != nil {
		return nil, err
	}

	graph, err := newGraph()
	if err != nil {
		return nil, err
	}

	endpoint := viper.GetString("stores.qdrant.endpoint")
	if endpoint == "" {
		endpoint = "http://localhost:6333"
	}
	collection := viper.GetString("stores.qdrant.collection")
	if collection == "" {
		collection = "metaphors"
	}
	index := qdrant.New(endpoint, collection)

	retrieverOptions := []retrieve.RetrieverOption{}
	if topK := viper.GetInt("retrieval.top_k"); topK > 0 {
		retrieverOptions = append(retrieverOptions, retrieve.WithTopK(topK))
	}
	if viper.GetBool("retrieval.rerank.enabled") {
		retrieverOptions = append(retrieverOptions, retrieve.WithReranker(
			retrieve.NewCohereReranker(),
		))
	}

	fingerprints, history, err := newStores()
	if err != nil {
		return nil, err
	}

	scorerOptions := []score.ScorerOption{}
	if strategy := viper.GetString("scoring.strategy"); strategy != "" {
		scorerOptions = append(scorerOptions, score.WithStrategy(score.Strategy(strategy)))
	}

	rewriterOptions := []rewrite.RewriterOption{}
	if retries := viper.GetInt("rewrite.max_retries"); retries > 0 {
		rewriterOptions = append(rewriterOptions, rewrite.WithMaxRetries(retries))
	}
	if floor := viper.GetFloat64("rewrite.similarity_floor"); floor > 0 {
		rewriterOptions = append(rewriterOptions, rewrite.WithValidator(
			rewrite.NewValidator(prvdr, floor),
		))
	}

	engineOptions := []reason.EngineOption{}
	if viper.IsSet("reason.retrieval_weight") {
		engineOptions = append(engineOptions, reason.WithWeights(
			viper.GetFloat64("reason.retrieval_weight"),
			viper.GetFloat64("reason.path_weight"),
		))
	}

	pipelineOptions := []pipeline.PipelineOption{}
	if threshold := viper.GetFloat64("scoring.threshold"); threshold > 0 {
		pipelineOptions = append(pipelineOptions, pipeline.WithThreshold(threshold))
	}
	if maxHops := viper.GetInt("graph.max_hops"); maxHops > 0 {
		pipelineOptions = append(pipelineOptions, pipeline.WithMaxHops(maxHops))
	}
	if rate := viper.GetFloat64("memory.learning_rate"); rate > 0 {
		pipelineOptions = append(pipelineOptions, pipeline.WithLearningRate(rate))
	}

	return &components{
		pipeline: pipeline.New(
			detect.NewDetector(),
			score.NewScorer(scorerOptions...),
			retrieve.NewRetriever(prvdr, index, retrieverOptions...),
			reason.NewEngine(graph, engineOptions...),
			rewrite.NewRewriter(prvdr, rewriterOptions...),
			fingerprints,
			history,
			pipelineOptions...,
		),
		fingerprints: fingerprints,
		history:      history,
		provider:     prvdr,
		index:        index,
	}, nil
}

func newProvider() (provider.Interface, error) {
	switch name := viper.GetString("provider.name"); name {
	case "", "openai":
		return provider.NewOpenAIProvider(), nil
	case "ollama":
		return provider.NewOllamaProvider(), nil
	case "anthropic":
		return provider.NewAnthropicProvider(), nil
	case "mock":
		return provider.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// newGraph loads reference data from config, falling back to the built-in
// graph when none is configured.
func newGraph() (*stg.Graph, error) {
	var nodes []stg.NodeSpec
	var edges []stg.EdgeSpec

	if err := viper.UnmarshalKey("graph.nodes", &nodes); err != nil {
		return nil, fmt.Errorf("graph nodes: %w", err)
	}
	if err := viper.UnmarshalKey("graph.edges", &edges); err != nil {
		return nil, fmt.Errorf("graph edges: %w", err)
	}

	if len(nodes) == 0 {
		log.Info("no graph reference data configured, using built-in graph")
		return stg.DefaultGraph(), nil
	}

	return stg.FromSpecs(nodes, edges)
}

func newStores() (saf.Store, memory.Store, error) {
	stateDir := viper.GetString("stores.state_dir")
	if stateDir == "" {
		return saf.NewInMemoryStore(), memory.NewInMemoryStore(), nil
	}

	fingerprints, err := saf.NewFileStore(stateDir + "/profiles")
	if err != nil {
		return nil, nil, err
	}

	history, err := memory.NewFileStore(stateDir + "/history")
	if err != nil {
		return nil, nil, err
	}

	return fingerprints, history, nil
}
