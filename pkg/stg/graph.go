/*
Package stg implements the Sensory Translation Graph: a static directed
weighted graph over sensory/cultural concepts whose traversal proposes
substitution paths across modalities.

The graph uses arena-style storage (flat node/edge slices addressed by
integer indices). It is built once at startup and never mutated afterwards,
which makes unsynchronized concurrent reads safe and removes any need for
locking at request time.
*/
package stg

import (
	"fmt"
	"strings"

	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

/*
NodeID indexes into the graph's node arena.
*/
type NodeID int

/*
Node is one sensory/cultural concept, e.g. "visual-shine" for "glistening".
Salience maps culture tags to how naturally the concept reads in that
culture.
*/
type Node struct {
	Concept  string             `json:"concept"`
	Modality taxonomy.Modality  `json:"modality"`
	Text     string             `json:"text"`
	Salience map[string]float64 `json:"salience,omitempty"`
}

/*
Edge is a directed, weighted transformation between two concepts. The three
cost components are kept separate so traversal can scale them per user.
*/
type Edge struct {
	From             NodeID  `json:"from"`
	To               NodeID  `json:"to"`
	SemanticCost     float64 `json:"semantic_cost"`
	CrossModalCost   float64 `json:"cross_modal_cost"`
	CulturalMismatch float64 `json:"cultural_mismatch"`
	Reason           string  `json:"reason,omitempty"`
}

/*
Graph is the immutable arena. Construct through a Builder.
*/
type Graph struct {
	nodes     []Node
	edges     []Edge
	adjacency [][]int // node index -> outgoing edge indices
	byConcept map[string]NodeID
	bySurface map[string][]NodeID
}

/*
Node returns the node for an id. Panics on out-of-range ids, which can only
come from a programming error since ids never leave the package unchecked.
*/
func (graph *Graph) Node(id NodeID) Node {
	return graph.nodes[id]
}

func (graph *Graph) Edge(index int) Edge {
	return graph.edges[index]
}

func (graph *Graph) NodeCount() int {
	return len(graph.nodes)
}

func (graph *Graph) EdgeCount() int {
	return len(graph.edges)
}

/*
ByConcept resolves a concept label to its node.
*/
func (graph *Graph) ByConcept(concept string) (NodeID, bool) {
	id, ok := graph.byConcept[concept]
	return id, ok
}

/*
Anchor finds the node matching a detected surface form: exact concept
first, then exact surface text, then substring containment. Multiple
matches resolve to the lowest id, which is deterministic because the
builder assigns ids in insertion order.
*/
func (graph *Graph) Anchor(surface string, modality taxonomy.Modality) (NodeID, bool) {
	norm := taxonomy.Normalize(surface)

	if id, ok := graph.byConcept[norm]; ok {
		return id, true
	}

	if ids, ok := graph.bySurface[norm]; ok && len(ids) > 0 {
		return ids[0], true
	}

	// substring scan, preferring nodes of the span's modality
	bestID := NodeID(-1)
	for i, node := range graph.nodes {
		if !strings.Contains(taxonomy.Normalize(node.Text), norm) {
			continue
		}
		if node.Modality == modality {
			return NodeID(i), true
		}
		if bestID < 0 {
			bestID = NodeID(i)
		}
	}

	if bestID >= 0 {
		return bestID, true
	}

	return 0, false
}

/*
Builder accumulates nodes and edges, then freezes them into a Graph.
*/
type Builder struct {
	nodes     []Node
	edges     []Edge
	byConcept map[string]NodeID
}

func NewBuilder() *Builder {
	return &Builder{byConcept: make(map[string]NodeID)}
}

/*
AddNode registers a concept. Duplicate concepts are rejected because
concept labels are the graph's external identity.
*/
func (builder *Builder) AddNode(node Node) (NodeID, error) {
	if node.Concept == "" {
		return 0, fmt.Errorf("stg: node concept must not be empty")
	}

	if _, exists := builder.byConcept[node.Concept]; exists {
		return 0, fmt.Errorf("stg: duplicate concept %q", node.Concept)
	}

	if _, ok := taxonomy.Lexicon(node.Modality); !ok {
		return 0, fmt.Errorf("stg: unknown modality %q on concept %q", node.Modality, node.Concept)
	}

	id := NodeID(len(builder.nodes))
	builder.nodes = append(builder.nodes, node)
	builder.byConcept[node.Concept] = id

	return id, nil
}

/*
AddEdge connects two previously added concepts.
*/
func (builder *Builder) AddEdge(fromConcept, toConcept string, edge Edge) error {
	from, ok := builder.byConcept[fromConcept]
	if !ok {
		return fmt.Errorf("stg: edge references unknown concept %q", fromConcept)
	}

	to, ok := builder.byConcept[toConcept]
	if !ok {
		return fmt.Errorf("stg: edge references unknown concept %q", toConcept)
	}

	edge.From = from
	edge.To = to
	builder.edges = append(builder.edges, edge)

	return nil
}

/*
Build freezes the arena and computes adjacency. The Builder must not be
reused afterwards.
*/
func (builder *Builder) Build() *Graph {
	graph := &Graph{
		nodes:     builder.nodes,
		edges:     builder.edges,
		adjacency: make([][]int, len(builder.nodes)),
		byConcept: builder.byConcept,
		bySurface: make(map[string][]NodeID),
	}

	for i, edge := range graph.edges {
		graph.adjacency[edge.From] = append(graph.adjacency[edge.From], i)
	}

	for i, node := range graph.nodes {
		norm := taxonomy.Normalize(node.Text)
		if norm != "" {
			graph.bySurface[norm] = append(graph.bySurface[norm], NodeID(i))
		}
	}

	return graph
}
