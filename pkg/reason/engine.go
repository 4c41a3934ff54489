/*
Package reason merges the two candidate sources, corpus retrieval and graph
traversal, into one substitution decision per actionable span. Both sources
are optional at runtime; the engine degrades to whichever produced results
and marks the span unresolved when both came up empty.
*/
package reason

import (
	"fmt"
	"strings"
	"sync"

	"github.com/theapemachine/senseable-go/pkg/detect"
	"github.com/theapemachine/senseable-go/pkg/retrieve"
	"github.com/theapemachine/senseable-go/pkg/saf"
	"github.com/theapemachine/senseable-go/pkg/stg"
	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

/*
Verdict classifies a decision's outcome.
*/
type Verdict string

const (
	VerdictReplace  Verdict = "replace"
	VerdictNoChange Verdict = "no_change"
)

/*
Decision is the engine's output for one span: what to say instead, why,
and how confident the engine is.
*/
type Decision struct {
	Expr          detect.Expression `json:"expression"`
	Replacement   string            `json:"replacement"`
	Justification string            `json:"justification"`
	Verdict       Verdict           `json:"verdict"`
	Score         float64           `json:"score"`
	Source        string            `json:"source"`
}

/*
Engine scores and merges candidates. It carries no per-request state; open a
Session when repeated spans within one request must resolve identically.
*/
type Engine struct {
	graph *stg.Graph

	retrievalWeight float64
	pathWeight      float64
}

type EngineOption func(*Engine)

func NewEngine(graph *stg.Graph, options ...EngineOption) *Engine {
	engine := &Engine{
		graph:           graph,
		retrievalWeight: 0.5,
		pathWeight:      0.5,
	}

	for _, option := range options {
		option(engine)
	}

	return engine
}

/*
Session caches decisions per (span concept, fingerprint hash) for the
duration of one request. The cache dies with the request, so the next
request always sees current retrieval results.
*/
type Session struct {
	engine *Engine

	mu    sync.Mutex
	cache map[string]Decision
}

func (engine *Engine) Session() *Session {
	return &Session{
		engine: engine,
		cache:  make(map[string]Decision),
	}
}

/*
Decide resolves a span through the session cache: the first decision for a
(concept, fingerprint) pair wins for every repeat within the request.
*/
func (session *Session) Decide(
	expr detect.Expression,
	candidates []retrieve.Candidate,
	fingerprint saf.Fingerprint,
	maxHops int,
) Decision {
	key := cacheKey(expr, fingerprint)

	session.mu.Lock()
	cached, ok := session.cache[key]
	session.mu.Unlock()

	if ok {
		cached.Expr = expr
		return cached
	}

	decision := session.engine.decide(expr, candidates, fingerprint, maxHops)

	session.mu.Lock()
	session.cache[key] = decision
	session.mu.Unlock()

	return decision
}

/*
WithWeights tunes the balance between retrieval similarity and graph path
quality. Weights are used as given; callers normalize if they care.
*/
func WithWeights(retrieval, path float64) EngineOption {
	return func(engine *Engine) {
		engine.retrievalWeight = retrieval
		engine.pathWeight = path
	}
}

/*
Decide picks the best substitution for a span, blending retrieval and
traversal scores. The traversal honors the fingerprint: excluded modalities
are hard constraints and per-modality sensitivity weights scale the
cross-modal penalty so the path prefers modalities the user reads well.
*/
func (engine *Engine) Decide(
	expr detect.Expression,
	candidates []retrieve.Candidate,
	fingerprint saf.Fingerprint,
	maxHops int,
) Decision {
	return engine.decide(expr, candidates, fingerprint, maxHops)
}

func (engine *Engine) decide(
	expr detect.Expression,
	candidates []retrieve.Candidate,
	fingerprint saf.Fingerprint,
	maxHops int,
) Decision {
	type option struct {
		text          string
		justification string
		score         float64
		source        string
	}

	options := map[string]*option{}

	for _, candidate := range candidates {
		score := engine.retrievalWeight * candidate.Score
		key := taxonomy.Normalize(candidate.Text)

		if existing, ok := options[key]; !ok || score > existing.score {
			options[key] = &option{
				text:          candidate.Text,
				justification: fmt.Sprintf("attested %s expression", candidate.Culture),
				score:         score,
				source:        "retrieval",
			}
		}
	}

	for _, path := range engine.traverse(expr, fingerprint, maxHops) {
		dest := engine.graph.Node(path.Dest)
		if dest.Text == "" {
			continue
		}

		score := engine.pathWeight * (1 / (1 + path.Cost))
		key := taxonomy.Normalize(dest.Text)

		if existing, ok := options[key]; ok {
			// both sources agree on this text, their scores add
			existing.score += score
			existing.source = "blended"
			continue
		}

		options[key] = &option{
			text:          dest.Text,
			justification: pathJustification(engine.graph, path),
			score:         score,
			source:        "graph",
		}
	}

	best := (*option)(nil)
	for _, opt := range options {
		if opt.text == "" || strings.EqualFold(opt.text, expr.Surface) {
			continue
		}
		if best == nil || opt.score > best.score ||
			(opt.score == best.score && opt.text < best.text) {
			best = opt
		}
	}

	if best == nil {
		return Decision{
			Expr:          expr,
			Verdict:       VerdictNoChange,
			Justification: "no viable substitution found",
		}
	}

	return Decision{
		Expr:          expr,
		Replacement:   best.text,
		Justification: best.justification,
		Verdict:       VerdictReplace,
		Score:         best.score,
		Source:        best.source,
	}
}

func (engine *Engine) traverse(
	expr detect.Expression, fingerprint saf.Fingerprint, maxHops int,
) []stg.Path {
	anchor, ok := engine.graph.Anchor(expr.Surface, expr.Modality)
	if !ok {
		return nil
	}

	excluded := map[taxonomy.Modality]bool{}
	penalty := map[taxonomy.Modality]float64{}

	for _, modality := range taxonomy.Modalities {
		sensitivity := fingerprint.Sensitivity(modality)
		if sensitivity.Excluded {
			excluded[modality] = true
			continue
		}
		// higher sensitivity weight means the user reads the modality
		// poorly, so landing there costs more
		penalty[modality] = 0.5 + sensitivity.Weight
	}

	return engine.graph.Traverse(anchor, stg.Query{
		MaxHops:       maxHops,
		Excluded:      excluded,
		CultureTags:   fingerprint.CultureTags,
		PenaltyFactor: penalty,
	})
}

// pathJustification renders the edge reasons along the path, falling back
// to the concept chain when edges carry no prose.
func pathJustification(graph *stg.Graph, path stg.Path) string {
	reasons := make([]string, 0, len(path.Edges))
	for _, edgeIndex := range path.Edges {
		if reason := graph.Edge(edgeIndex).Reason; reason != "" {
			reasons = append(reasons, reason)
		}
	}

	if len(reasons) > 0 {
		return strings.Join(reasons, "; ")
	}

	concepts := make([]string, 0, len(path.Nodes))
	for _, id := range path.Nodes {
		concepts = append(concepts, graph.Node(id).Concept)
	}

	return "via " + strings.Join(concepts, " > ")
}

func cacheKey(expr detect.Expression, fingerprint saf.Fingerprint) string {
	return taxonomy.Normalize(expr.Surface) + "|" + string(expr.Modality) + "|" + fingerprint.Hash()
}
