package stg

import (
	"container/heap"
	"math"

	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

/*
Query parameterizes one traversal. Zero values get sane defaults from
Traverse; the factor fields are pointers so a caller can explicitly zero a
cost component. Excluded modalities are hard constraints, never soft
penalties.
*/
type Query struct {
	MaxHops          int
	MaxCost          float64
	Excluded         map[taxonomy.Modality]bool
	CultureTags      []string
	PenaltyFactor    map[taxonomy.Modality]float64
	CrossModalFactor *float64
	MismatchFactor   *float64
}

/*
Path is one substitution route from the anchor to a destination concept.
*/
type Path struct {
	Nodes []NodeID
	Edges []int
	Dest  NodeID
	Cost  float64
	Hops  int
}

const (
	defaultMaxHops          = 3
	defaultMaxCost          = 4.0
	defaultCrossModalFactor = 0.5
	defaultMismatchFactor   = 0.25
)

// state is a (node, hops) pair; Dijkstra runs over states rather than nodes
// because the hop bound can make a costlier short path dominate.
type state struct {
	node NodeID
	hops int
}

type queueItem struct {
	state   state
	cost    float64
	concept string
	index   int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].cost != pq[j].cost {
		return pq[i].cost < pq[j].cost
	}
	if pq[i].state.hops != pq[j].state.hops {
		return pq[i].state.hops < pq[j].state.hops
	}
	return pq[i].concept < pq[j].concept
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

/*
Traverse runs bounded Dijkstra from the anchor node and returns every
reachable destination as a Path, cheapest first. Excluded modalities are
never entered, not even as intermediates. Results are fully deterministic:
ties break by (cost, hops, destination concept).

An unsatisfiable query returns an empty slice, never an error; candidate
starvation is the caller's decision to handle.
*/
func (graph *Graph) Traverse(src NodeID, query Query) []Path {
	if query.MaxHops <= 0 {
		query.MaxHops = defaultMaxHops
	}
	if query.MaxCost <= 0 {
		query.MaxCost = defaultMaxCost
	}
	crossFactor := defaultCrossModalFactor
	if query.CrossModalFactor != nil {
		crossFactor = *query.CrossModalFactor
	}
	mismatchFactor := defaultMismatchFactor
	if query.MismatchFactor != nil {
		mismatchFactor = *query.MismatchFactor
	}

	if int(src) < 0 || int(src) >= len(graph.nodes) {
		return nil
	}

	dist := map[state]float64{}
	prev := map[state]struct {
		parent state
		edge   int
	}{}

	start := state{node: src, hops: 0}
	dist[start] = 0

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &queueItem{state: start, cost: 0, concept: graph.nodes[src].Concept})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*queueItem)

		if item.cost > dist[item.state] {
			continue
		}

		if item.state.hops == query.MaxHops {
			continue
		}

		for _, edgeIndex := range graph.adjacency[item.state.node] {
			edge := graph.edges[edgeIndex]
			to := graph.nodes[edge.To]

			if query.Excluded[to.Modality] {
				continue
			}

			cost := item.cost + graph.edgeCost(edge, query, crossFactor, mismatchFactor)
			if cost > query.MaxCost {
				continue
			}

			next := state{node: edge.To, hops: item.state.hops + 1}
			if known, ok := dist[next]; ok && known <= cost {
				continue
			}

			dist[next] = cost
			prev[next] = struct {
				parent state
				edge   int
			}{parent: item.state, edge: edgeIndex}

			heap.Push(pq, &queueItem{state: next, cost: cost, concept: to.Concept})
		}
	}

	return graph.collect(src, query, dist, prev)
}

/*
edgeCost combines the edge's static components with the user's per-modality
penalty factor for the landing modality and the cultural mismatch against
the user's tags. Nodes salient for the user's culture pay no mismatch.
*/
func (graph *Graph) edgeCost(
	edge Edge, query Query, crossFactor, mismatchFactor float64,
) float64 {
	to := graph.nodes[edge.To]

	cost := edge.SemanticCost

	if factor, ok := query.PenaltyFactor[to.Modality]; ok {
		crossFactor *= factor
	}
	if graph.nodes[edge.From].Modality != to.Modality {
		cost += edge.CrossModalCost * crossFactor
	}

	cost += edge.CulturalMismatch * mismatchFactor * (1 - salienceFor(to, query.CultureTags))

	return cost
}

// salienceFor returns the best salience of a node for any of the user's
// culture tags, falling back to its global salience.
func salienceFor(node Node, tags []string) float64 {
	best := node.Salience["global"]
	for _, tag := range tags {
		if s, ok := node.Salience[tag]; ok && s > best {
			best = s
		}
	}
	return math.Min(best, 1)
}

// collect picks the best (cost, hops) state per destination node and
// reconstructs its path.
func (graph *Graph) collect(
	src NodeID,
	query Query,
	dist map[state]float64,
	prev map[state]struct {
		parent state
		edge   int
	},
) []Path {
	type bestState struct {
		state state
		cost  float64
	}
	best := map[NodeID]bestState{}

	for st, cost := range dist {
		if st.node == src {
			continue
		}

		current, ok := best[st.node]
		if !ok || cost < current.cost || (cost == current.cost && st.hops < current.state.hops) {
			best[st.node] = bestState{state: st, cost: cost}
		}
	}

	paths := make([]Path, 0, len(best))
	for dest, b := range best {
		path := Path{Dest: dest, Cost: b.cost, Hops: b.state.hops}

		st := b.state
		for st.node != src || st.hops != 0 {
			link := prev[st]
			path.Nodes = append(path.Nodes, st.node)
			path.Edges = append(path.Edges, link.edge)
			st = link.parent
		}
		path.Nodes = append(path.Nodes, src)
		reverse(path.Nodes)
		reverse(path.Edges)

		paths = append(paths, path)
	}

	sortPaths(graph, paths)

	return paths
}

func sortPaths(graph *Graph, paths []Path) {
	// insertion sort keeps this allocation-free; path counts are small
	for i := 1; i < len(paths); i++ {
		for j := i; j > 0 && pathLess(graph, paths[j], paths[j-1]); j-- {
			paths[j], paths[j-1] = paths[j-1], paths[j]
		}
	}
}

func pathLess(graph *Graph, a, b Path) bool {
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	if a.Hops != b.Hops {
		return a.Hops < b.Hops
	}
	return graph.nodes[a.Dest].Concept < graph.nodes[b.Dest].Concept
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
