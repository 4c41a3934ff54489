package stg

import (
	"fmt"

	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

/*
NodeSpec and EdgeSpec mirror the reference data format in the config file,
so viper can unmarshal the graph section straight into them.
*/
type NodeSpec struct {
	Concept  string             `json:"concept"  mapstructure:"concept"`
	Modality string             `json:"modality" mapstructure:"modality"`
	Text     string             `json:"text"     mapstructure:"text"`
	Salience map[string]float64 `json:"salience" mapstructure:"salience"`
}

type EdgeSpec struct {
	From             string  `json:"from"              mapstructure:"from"`
	To               string  `json:"to"                mapstructure:"to"`
	SemanticCost     float64 `json:"semantic_cost"     mapstructure:"semantic_cost"`
	CrossModalCost   float64 `json:"cross_modal_cost"  mapstructure:"cross_modal_cost"`
	CulturalMismatch float64 `json:"cultural_mismatch" mapstructure:"cultural_mismatch"`
	Reason           string  `json:"reason"            mapstructure:"reason"`
}

/*
FromSpecs builds a graph from reference data. Any invalid node or dangling
edge fails the whole build; a partially loaded graph would silently produce
worse rewrites than no graph at all.
*/
func FromSpecs(nodes []NodeSpec, edges []EdgeSpec) (*Graph, error) {
	builder := NewBuilder()

	for _, spec := range nodes {
		_, err := builder.AddNode(Node{
			Concept:  spec.Concept,
			Modality: taxonomy.Modality(spec.Modality),
			Text:     spec.Text,
			Salience: spec.Salience,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, spec := range edges {
		err := builder.AddEdge(spec.From, spec.To, Edge{
			SemanticCost:     spec.SemanticCost,
			CrossModalCost:   spec.CrossModalCost,
			CulturalMismatch: spec.CulturalMismatch,
			Reason:           spec.Reason,
		})
		if err != nil {
			return nil, err
		}
	}

	graph := builder.Build()

	if graph.NodeCount() == 0 {
		return nil, fmt.Errorf("stg: reference data contains no nodes")
	}

	return graph, nil
}

/*
DefaultGraph is the built-in reference graph used when no external data is
configured. It covers the core cross-sensory concept clusters the detector
recognizes, with enough edges that any modality can route to at least two
alternatives.
*/
func DefaultGraph() *Graph {
	graph, err := FromSpecs(defaultNodes, defaultEdges)
	if err != nil {
		// the built-in data is validated by tests; failing here means the
		// binary itself is broken
		panic(err)
	}
	return graph
}

var defaultNodes = []NodeSpec{
	{Concept: "visual-shine", Modality: "visual", Text: "glistening",
		Salience: map[string]float64{"global": 0.9, "culture:jp": 0.8}},
	{Concept: "visual-bright", Modality: "visual", Text: "bright",
		Salience: map[string]float64{"global": 0.95}},
	{Concept: "visual-clear", Modality: "visual", Text: "crystal clear",
		Salience: map[string]float64{"global": 0.85, "culture:us": 0.9}},
	{Concept: "auditory-bell", Modality: "auditory", Text: "like a bell",
		Salience: map[string]float64{"global": 0.8, "culture:jp": 0.9}},
	{Concept: "auditory-melody", Modality: "auditory", Text: "melodic",
		Salience: map[string]float64{"global": 0.85}},
	{Concept: "auditory-whisper", Modality: "auditory", Text: "whisper",
		Salience: map[string]float64{"global": 0.9}},
	{Concept: "tactile-comfort", Modality: "tactile", Text: "a warm embrace",
		Salience: map[string]float64{"global": 0.9, "culture:mx": 0.95}},
	{Concept: "tactile-smooth", Modality: "tactile", Text: "smooth as silk",
		Salience: map[string]float64{"global": 0.85, "culture:jp": 0.9}},
	{Concept: "tactile-gentle", Modality: "tactile", Text: "a gentle touch",
		Salience: map[string]float64{"global": 0.9}},
	{Concept: "olfactory-fresh", Modality: "olfactory", Text: "fresh as rain",
		Salience: map[string]float64{"global": 0.8}},
	{Concept: "gustatory-sweet", Modality: "gustatory", Text: "sweet",
		Salience: map[string]float64{"global": 0.9, "culture:us": 0.95}},
	{Concept: "kinesthetic-flow", Modality: "kinesthetic", Text: "flowing",
		Salience: map[string]float64{"global": 0.85}},
	{Concept: "kinesthetic-steady", Modality: "kinesthetic", Text: "steady and calm",
		Salience: map[string]float64{"global": 0.9}},
}

var defaultEdges = []EdgeSpec{
	// auditory escapes, for users who exclude or downweight sound
	{From: "auditory-bell", To: "visual-shine", SemanticCost: 0.4, CrossModalCost: 0.6, CulturalMismatch: 0.2,
		Reason: "clarity of tone maps to clarity of light"},
	{From: "auditory-bell", To: "tactile-smooth", SemanticCost: 0.5, CrossModalCost: 0.7, CulturalMismatch: 0.3,
		Reason: "pure tone maps to unbroken surface"},
	{From: "auditory-melody", To: "kinesthetic-flow", SemanticCost: 0.4, CrossModalCost: 0.5, CulturalMismatch: 0.2,
		Reason: "musical movement maps to bodily movement"},
	{From: "auditory-melody", To: "visual-bright", SemanticCost: 0.6, CrossModalCost: 0.6, CulturalMismatch: 0.3},
	{From: "auditory-whisper", To: "tactile-gentle", SemanticCost: 0.3, CrossModalCost: 0.5, CulturalMismatch: 0.1,
		Reason: "low intensity sound maps to light touch"},

	// visual escapes
	{From: "visual-shine", To: "tactile-smooth", SemanticCost: 0.4, CrossModalCost: 0.6, CulturalMismatch: 0.2,
		Reason: "polished appearance maps to polished feel"},
	{From: "visual-shine", To: "auditory-bell", SemanticCost: 0.4, CrossModalCost: 0.6, CulturalMismatch: 0.2},
	{From: "visual-bright", To: "gustatory-sweet", SemanticCost: 0.7, CrossModalCost: 0.8, CulturalMismatch: 0.4},
	{From: "visual-bright", To: "tactile-comfort", SemanticCost: 0.6, CrossModalCost: 0.7, CulturalMismatch: 0.3,
		Reason: "warm light maps to warm contact"},
	{From: "visual-clear", To: "auditory-bell", SemanticCost: 0.4, CrossModalCost: 0.6, CulturalMismatch: 0.2},
	{From: "visual-clear", To: "olfactory-fresh", SemanticCost: 0.6, CrossModalCost: 0.7, CulturalMismatch: 0.3},

	// tactile escapes
	{From: "tactile-comfort", To: "kinesthetic-steady", SemanticCost: 0.4, CrossModalCost: 0.5, CulturalMismatch: 0.2,
		Reason: "held comfort maps to grounded stillness"},
	{From: "tactile-comfort", To: "gustatory-sweet", SemanticCost: 0.6, CrossModalCost: 0.7, CulturalMismatch: 0.3},
	{From: "tactile-smooth", To: "kinesthetic-flow", SemanticCost: 0.4, CrossModalCost: 0.5, CulturalMismatch: 0.2},
	{From: "tactile-gentle", To: "auditory-whisper", SemanticCost: 0.3, CrossModalCost: 0.5, CulturalMismatch: 0.1},

	// remaining modalities route back toward the common clusters
	{From: "olfactory-fresh", To: "visual-clear", SemanticCost: 0.5, CrossModalCost: 0.6, CulturalMismatch: 0.2},
	{From: "olfactory-fresh", To: "kinesthetic-flow", SemanticCost: 0.6, CrossModalCost: 0.7, CulturalMismatch: 0.3},
	{From: "gustatory-sweet", To: "tactile-comfort", SemanticCost: 0.5, CrossModalCost: 0.6, CulturalMismatch: 0.2},
	{From: "gustatory-sweet", To: "visual-bright", SemanticCost: 0.6, CrossModalCost: 0.7, CulturalMismatch: 0.3},
	{From: "kinesthetic-flow", To: "auditory-melody", SemanticCost: 0.4, CrossModalCost: 0.5, CulturalMismatch: 0.2},
	{From: "kinesthetic-flow", To: "tactile-smooth", SemanticCost: 0.4, CrossModalCost: 0.5, CulturalMismatch: 0.2},
	{From: "kinesthetic-steady", To: "tactile-comfort", SemanticCost: 0.4, CrossModalCost: 0.5, CulturalMismatch: 0.2},

	// intra-modal softening edges, used by the gentle rewrite style
	{From: "visual-shine", To: "visual-bright", SemanticCost: 0.2, CrossModalCost: 0, CulturalMismatch: 0.1},
	{From: "auditory-bell", To: "auditory-melody", SemanticCost: 0.3, CrossModalCost: 0, CulturalMismatch: 0.1},
	{From: "tactile-comfort", To: "tactile-gentle", SemanticCost: 0.2, CrossModalCost: 0, CulturalMismatch: 0.1},
}
